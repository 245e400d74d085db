package codegen

import "fmt"

// MDValue is one operand of a metadata tuple: a string, a signed integer,
// or a reference to an SSA Value (AIR's "value-as-metadata" entries, used
// e.g. to tie a !air.vertex tuple back to the function it describes).
type MDValue struct {
	str   string
	isStr bool
	i     int64
	isInt bool
	val   *Value
}

// MDString returns a string metadata operand.
func MDString(s string) MDValue { return MDValue{str: s, isStr: true} }

// MDInt returns an integer metadata operand.
func MDInt(v int64) MDValue { return MDValue{i: v, isInt: true} }

// MDValueOf returns a value-as-metadata operand referencing v (typically a
// *Function's defining instruction, via its entry value).
func MDValueOf(v *Value) MDValue { return MDValue{val: v} }

func (v MDValue) String() string {
	switch {
	case v.isStr:
		return fmt.Sprintf("!%q", v.str)
	case v.isInt:
		return fmt.Sprintf("i32 %d", v.i)
	case v.val != nil:
		return fmt.Sprintf("%s %s", v.val.ty.String(), v.val.llvm.Ident())
	default:
		return "null"
	}
}

// namedMetadata is one named metadata stream (e.g. "air.vertex"): an
// ordered list of operand tuples, each tuple becoming one unnamed !N node
// referenced from the named stream, matching the layout AIR modules use
// to record per-stage entry points and compiler options (spec §3).
type namedMetadata struct {
	name   string
	tuples [][]MDValue
}

// AddNamedMetadataTuple appends one metadata tuple to the named stream
// `name`, creating the stream on first use. Streams are emitted in first-
// use order by bitcode.go's textual serializer.
func (m *Module) AddNamedMetadataTuple(name string, operands ...MDValue) {
	nmd, ok := m.namedMD[name]
	if !ok {
		nmd = &namedMetadata{name: name}
		m.namedMD[name] = nmd
		m.namedMDOrder = append(m.namedMDOrder, name)
	}
	nmd.tuples = append(nmd.tuples, operands)
}

// NamedMetadataTuples returns the operand tuples recorded for stream name,
// or nil if the stream has never been written to.
func (m *Module) NamedMetadataTuples(name string) [][]MDValue {
	nmd, ok := m.namedMD[name]
	if !ok {
		return nil
	}
	return nmd.tuples
}

// NamedMetadataNames returns every named metadata stream name, in
// first-use order.
func (m *Module) NamedMetadataNames() []string {
	out := make([]string, len(m.namedMDOrder))
	copy(out, m.namedMDOrder)
	return out
}
