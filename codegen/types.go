package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir/types"
)

// AddressSpace is an LLVM pointer address space. AIR gives specific
// meaning to several of these (see air.AddressSpace*).
type AddressSpace uint64

// Type is a codegen-level type handle. It wraps the underlying llir/llvm
// type and caches a human-readable name used by air's mangling rules.
type Type struct {
	llvm types.Type
	name string
}

// LLVM returns the underlying llir/llvm type.
func (t Type) LLVM() types.Type { return t.llvm }

// TypeName returns the type's human readable name (e.g. "float4", "int32").
func (t Type) TypeName() string { return t.name }

func (t Type) String() string { return t.name }

// IsPointer reports whether t is a pointer type.
func (t Type) IsPointer() bool {
	_, ok := t.llvm.(*types.PointerType)
	return ok
}

// IsVector reports whether t is a vector type.
func (t Type) IsVector() bool {
	_, ok := t.llvm.(*types.VectorType)
	return ok
}

// IsFloat reports whether t is a scalar floating-point type.
func (t Type) IsFloat() bool {
	_, ok := t.llvm.(*types.FloatType)
	return ok
}

// IsInt reports whether t is a scalar integer type.
func (t Type) IsInt() bool {
	_, ok := t.llvm.(*types.IntType)
	return ok
}

// ElementType returns the pointee/vector-element type. Panics on a scalar.
func (t Type) ElementType() Type {
	switch v := t.llvm.(type) {
	case *types.PointerType:
		return Type{llvm: v.ElemType, name: elemName(t.name)}
	case *types.VectorType:
		return Type{llvm: v.ElemType, name: elemName(t.name)}
	default:
		fail("ElementType() called on non-pointer/vector type %v", t.name)
		return Type{}
	}
}

// VectorLen returns the vector's component count. Panics on a non-vector.
func (t Type) VectorLen() int {
	v, ok := t.llvm.(*types.VectorType)
	if !ok {
		fail("VectorLen() called on non-vector type %v", t.name)
	}
	return int(v.Len)
}

// AddrSpace returns the pointer's address space. Panics on a non-pointer.
func (t Type) AddrSpace() AddressSpace {
	v, ok := t.llvm.(*types.PointerType)
	if !ok {
		fail("AddrSpace() called on non-pointer type %v", t.name)
	}
	return AddressSpace(v.AddrSpace)
}

func elemName(compound string) string {
	// best-effort for diagnostics only; air package tracks real element
	// names separately via its own type registry.
	return compound + ".elem"
}

// Types is the factory + cache of every type used by a Module.
type Types struct {
	m *Module

	Void Type
	Bool Type

	Int8   Type
	Int16  Type
	Int32  Type
	Int64  Type
	Uint8  Type
	Uint16 Type
	Uint32 Type
	Uint64 Type

	Half   Type
	Float  Type
	Double Type

	vectors map[string]Type
	pointer map[string]Type
	arrays  map[string]Type
	structs map[string]Type
}

func newTypes(m *Module) Types {
	t := Types{
		m:       m,
		Void:    Type{llvm: types.Void, name: "void"},
		Bool:    Type{llvm: types.I1, name: "bool"},
		Int8:    Type{llvm: types.I8, name: "int8"},
		Int16:   Type{llvm: types.I16, name: "int16"},
		Int32:   Type{llvm: types.I32, name: "int32"},
		Int64:   Type{llvm: types.I64, name: "int64"},
		Uint8:   Type{llvm: types.I8, name: "uint8"},
		Uint16:  Type{llvm: types.I16, name: "uint16"},
		Uint32:  Type{llvm: types.I32, name: "uint32"},
		Uint64:  Type{llvm: types.I64, name: "uint64"},
		Half:    Type{llvm: types.Half, name: "half"},
		Float:   Type{llvm: types.Float, name: "float"},
		Double:  Type{llvm: types.Double, name: "double"},
		vectors: map[string]Type{},
		pointer: map[string]Type{},
		arrays:  map[string]Type{},
		structs: map[string]Type{},
	}
	return t
}

// Vector returns (caching) the vector-of-n type over elem.
func (t *Types) Vector(elem Type, n int) Type {
	key := fmt.Sprintf("v%d%s", n, elem.name)
	if v, ok := t.vectors[key]; ok {
		return v
	}
	v := Type{llvm: types.NewVector(uint64(n), elem.llvm), name: fmt.Sprintf("%s%d", elem.name, n)}
	t.vectors[key] = v
	return v
}

// Pointer returns (caching) the pointer-to-elem type in the given address
// space.
func (t *Types) Pointer(elem Type, space AddressSpace) Type {
	key := fmt.Sprintf("p%d%s", space, elem.name)
	if v, ok := t.pointer[key]; ok {
		return v
	}
	pt := types.NewPointer(elem.llvm)
	pt.AddrSpace = uint64(space)
	v := Type{llvm: pt, name: elem.name + "*"}
	t.pointer[key] = v
	return v
}

// Array returns (caching) the fixed-length array-of-elem type.
func (t *Types) Array(elem Type, n int) Type {
	key := fmt.Sprintf("a%d%s", n, elem.name)
	if v, ok := t.arrays[key]; ok {
		return v
	}
	v := Type{llvm: types.NewArray(uint64(n), elem.llvm), name: fmt.Sprintf("%s[%d]", elem.name, n)}
	t.arrays[key] = v
	return v
}

// Struct returns (caching by name) a named struct type with the given
// fields, in declaration order.
func (t *Types) Struct(name string, fields ...Type) Type {
	if v, ok := t.structs[name]; ok {
		return v
	}
	llvmFields := make([]types.Type, len(fields))
	for i, f := range fields {
		llvmFields[i] = f.llvm
	}
	st := types.NewStruct(llvmFields...)
	v := Type{llvm: st, name: name}
	t.structs[name] = v
	return v
}

// Underlying returns t unchanged; kept as an explicit entry point mirroring
// core/codegen's Underlying() helper for named/aliased types.
func Underlying(t Type) Type { return t }

// Struct2 returns (caching) the anonymous two-field struct type {a, b},
// named after its field types. This is the shape every AIR texture op's
// `{texel, residency}` / `{value, success}` result pair uses.
func (t *Types) Struct2(a, b Type) Type {
	name := fmt.Sprintf("struct.{%s,%s}", a.name, b.name)
	return t.Struct(name, a, b)
}
