package codegen

import (
	"github.com/llir/llvm/ir"
)

// FuncAttr is a function- or parameter-level attribute. The set here is
// exactly the set §4.2 requires the facade to expose.
type FuncAttr int

const (
	AttrNoCapture FuncAttr = iota
	AttrReadOnly
	AttrWriteOnly
	AttrArgMemOnly
	AttrConvergent
	AttrNoUnwind
	AttrWillReturn
	AttrMustProgress
	AttrNoFree
	AttrNoSync
	AttrReadNone
)

// Param describes a function parameter: its type, name and attributes.
type Param struct {
	Name  string
	Type  Type
	Attrs []FuncAttr
}

// Function is a declared (and, after Define, defined) SSA function.
type Function struct {
	m      *Module
	llvm   *ir.Func
	Name   string
	Type   FunctionType
	params []*Param
	attrs  []FuncAttr

	stageTag string
	vattrs   []VertexAttribute

	patchTopology       string
	patchControlPoints  int
	hasPatch            bool
}

// VertexAttribute describes one vertex-stage input argument the way the
// metallib writer's VATT/VATY tags need it: the attribute location DXBC's
// input signature assigned it, the argument name and its AIR type name.
type VertexAttribute struct {
	Location int
	Name     string
	TypeName string
}

// FunctionType is the signature of a Function.
type FunctionType struct {
	Result Type
	Params []Type
}

// NewFunction declares (without defining) a function named name with the
// given result type and parameters.
func (m *Module) NewFunction(name string, result Type, params ...Param) *Function {
	llvmParams := make([]*ir.Param, len(params))
	for i, p := range params {
		llvmParams[i] = ir.NewParam(p.Name, p.Type.llvm)
	}
	fn := m.llvm.NewFunc(name, result.llvm, llvmParams...)
	ptypes := make([]Type, len(params))
	for i, p := range params {
		ptypes[i] = p.Type
	}
	f := &Function{
		m:      m,
		llvm:   fn,
		Name:   name,
		Type:   FunctionType{Result: result, Params: ptypes},
		params: paramPtrs(params),
	}
	m.funcs[name] = f
	return f
}

func paramPtrs(params []Param) []*Param {
	out := make([]*Param, len(params))
	for i := range params {
		p := params[i]
		out[i] = &p
	}
	return out
}

// SetAttrs records function-level attributes. These are surfaced by air's
// texture/atomic/fence builders per the argument-attribute contract in
// spec §4.3; the codegen layer keeps them as plain metadata the bitcode
// writer can apply, since llir/llvm does not model every AIR-specific
// attribute as a first-class LLVM FnAttr.
func (f *Function) SetAttrs(attrs ...FuncAttr) *Function {
	f.attrs = append(f.attrs, attrs...)
	return f
}

// Attrs returns the function's recorded attributes.
func (f *Function) Attrs() []FuncAttr { return f.attrs }

// SetStageTag records the named-metadata stream (e.g. "air.vertex") fn was
// attached to. binding.AttachFunctionMetadata sets this; metallib reads it
// back to group functions by FunctionType without having to walk the
// module's metadata tuples.
func (f *Function) SetStageTag(tag string) { f.stageTag = tag }

// StageTag returns the stage tag SetStageTag recorded, or "" if fn was
// never attached to a named-metadata stream.
func (f *Function) StageTag() string { return f.stageTag }

// SetVertexAttributes records fn's vertex-stage input attributes for the
// metallib writer's VATT/VATY tags.
func (f *Function) SetVertexAttributes(attrs []VertexAttribute) { f.vattrs = attrs }

// VertexAttributes returns the attributes SetVertexAttributes recorded, or
// nil for a non-vertex function or one with no attribute inputs.
func (f *Function) VertexAttributes() []VertexAttribute { return f.vattrs }

// SetPatchInfo records the tessellation patch topology and control-point
// count an object or mesh function carries (binding.AttachFunctionMetadata
// sets this whenever it is given a non-nil PatchInfo).
func (f *Function) SetPatchInfo(topology string, controlPoints int) {
	f.patchTopology = topology
	f.patchControlPoints = controlPoints
	f.hasPatch = true
}

// PatchInfo returns the patch topology and control-point count SetPatchInfo
// recorded, and whether fn carries one at all.
func (f *Function) PatchInfo() (topology string, controlPoints int, ok bool) {
	return f.patchTopology, f.patchControlPoints, f.hasPatch
}

// Param returns the i'th parameter as a Value usable inside the function's
// entry block.
func (f *Function) Param(i int) *Value {
	p := f.llvm.Params[i]
	return &Value{ty: f.Type.Params[i], llvm: p, name: p.Ident()}
}

// NumParams returns the function's parameter count.
func (f *Function) NumParams() int { return len(f.Type.Params) }

// LLVM returns the underlying llir/llvm function.
func (f *Function) LLVM() *ir.Func { return f.llvm }

// AsValue returns fn itself as an SSA value, for metadata tuples that tie
// a named-metadata entry back to the function it describes (the
// function_ref element of an air.vertex/air.fragment/air.kernel/air.object/
// air.mesh tuple, spec §4.7).
func (f *Function) AsValue() *Value {
	return &Value{ty: Type{llvm: f.llvm.Type(), name: f.Name}, llvm: f.llvm, name: f.llvm.Ident()}
}

// BasicBlock is a single block within a Function's body.
type BasicBlock struct {
	f    *Function
	llvm *ir.Block
	name string
}

// NewBlock appends a new basic block to f, named name.
func (f *Function) NewBlock(name string) *BasicBlock {
	b := f.llvm.NewBlock(name)
	return &BasicBlock{f: f, llvm: b, name: name}
}

// Name returns the block's name.
func (b *BasicBlock) Name() string { return b.name }

// HasTerminator reports whether the block already has a terminator
// instruction (used by cfg to detect the "undefined terminator" invariant
// violation from spec §4.6).
func (b *BasicBlock) HasTerminator() bool { return b.llvm.Term != nil }
