package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// Value is a handle to an SSA value: an instruction result, a constant, a
// function parameter, or a global. Handles are non-owning — the IR tree
// itself owns the value, matching §3's ownership lifecycle ("handles to
// SSA values are non-owning").
type Value struct {
	ty   Type
	llvm value.Value
	name string
	b    *Builder
}

func (b *Builder) val(ty Type, v value.Value) *Value {
	return &Value{ty: ty, llvm: v, name: v.Ident(), b: b}
}

// Type returns the value's codegen type.
func (v *Value) Type() Type { return v.ty }

// Name returns the value's SSA name.
func (v *Value) Name() string { return v.name }

// LLVM returns the underlying llir/llvm value.
func (v *Value) LLVM() value.Value { return v.llvm }

// SetName assigns a name to the value, best-effort (named.Value only).
func (v *Value) SetName(name string) *Value {
	v.name = name
	if n, ok := v.llvm.(interface{ SetName(string) }); ok {
		n.SetName(name)
	}
	return v
}

// Load loads the pointee of a pointer value.
func (v *Value) Load(b *Builder) *Value {
	if !v.ty.IsPointer() {
		fail("Load must be from a pointer, got %v", v.ty)
	}
	elem := v.ty.ElementType()
	inst := b.cur.NewLoad(elem.llvm, v.llvm)
	return b.val(elem, inst)
}

// Store stores val to the pointer ptr (v).
func (v *Value) Store(b *Builder, val *Value) {
	if !v.ty.IsPointer() {
		fail("Store must be to a pointer, got %v", v.ty)
	}
	b.cur.NewStore(val.llvm, v.llvm)
}

// AsInstruction exposes the underlying instruction for alignment tweaks
// (used by the writer/unaligned-load paths in translate).
func (v *Value) AsInstruction() ir.Instruction {
	if inst, ok := v.llvm.(ir.Instruction); ok {
		return inst
	}
	return nil
}
