package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// BitCast reinterprets x as type ty without changing bits.
func (b *Builder) BitCast(x *Value, ty Type) *Value {
	inst := b.cur.NewBitCast(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// PtrCast reinterprets pointer x as a pointer to a different element type,
// preserving its address space.
func (b *Builder) PtrCast(x *Value, elem Type) *Value {
	ty := b.m.Types.Pointer(elem, x.ty.AddrSpace())
	inst := b.cur.NewBitCast(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// ZExt zero-extends an integer/vector-of-integer value to a wider type.
func (b *Builder) ZExt(x *Value, ty Type) *Value {
	inst := b.cur.NewZExt(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// SExt sign-extends an integer/vector-of-integer value to a wider type.
func (b *Builder) SExt(x *Value, ty Type) *Value {
	inst := b.cur.NewSExt(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// Trunc truncates an integer/vector-of-integer value to a narrower type.
func (b *Builder) Trunc(x *Value, ty Type) *Value {
	inst := b.cur.NewTrunc(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// SIToFP converts a signed integer to floating point.
func (b *Builder) SIToFP(x *Value, ty Type) *Value {
	inst := b.cur.NewSIToFP(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// UIToFP converts an unsigned integer to floating point.
func (b *Builder) UIToFP(x *Value, ty Type) *Value {
	inst := b.cur.NewUIToFP(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// FPToSI converts floating point to a signed integer, truncating toward
// zero (DXBC FTOI semantics).
func (b *Builder) FPToSI(x *Value, ty Type) *Value {
	inst := b.cur.NewFPToSI(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// FPToUI converts floating point to an unsigned integer, truncating
// toward zero (DXBC FTOU semantics).
func (b *Builder) FPToUI(x *Value, ty Type) *Value {
	inst := b.cur.NewFPToUI(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// FPExt extends a narrower float type (e.g. half) to a wider one.
func (b *Builder) FPExt(x *Value, ty Type) *Value {
	inst := b.cur.NewFPExt(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// FPTrunc narrows a wider float type to a narrower one (e.g. float to half).
func (b *Builder) FPTrunc(x *Value, ty Type) *Value {
	inst := b.cur.NewFPTrunc(x.llvm, ty.llvm)
	return b.val(ty, inst)
}

// ExtractElement extracts lane index from vector v.
func (b *Builder) ExtractElement(v *Value, index int) *Value {
	inst := b.cur.NewExtractElement(v.llvm, constant.NewInt(types.I32, int64(index)))
	return b.val(v.ty.ElementType(), inst)
}

// InsertElement returns a new vector equal to v with lane index replaced by
// elem.
func (b *Builder) InsertElement(v *Value, elem *Value, index int) *Value {
	inst := b.cur.NewInsertElement(v.llvm, elem.llvm, constant.NewInt(types.I32, int64(index)))
	return b.val(v.ty, inst)
}

// ShuffleVector applies a constant lane permutation mask to two
// same-element-type vectors, producing a vector of len(mask) lanes.
// This is the primitive beneath every swizzle (spec §3's "4-component
// swizzle") and format-conversion shuffle (spec §4.10, e.g. the BGRA
// component reorder for UChar4Normalized_BGRA).
func (b *Builder) ShuffleVector(x, y *Value, mask []int) *Value {
	m := make([]constant.Constant, len(mask))
	for i, idx := range mask {
		m[i] = constant.NewInt(types.I32, int64(idx))
	}
	resultTy := b.m.Types.Vector(x.ty.ElementType(), len(mask))
	inst := b.cur.NewShuffleVector(x.llvm, y.llvm, constant.NewVector(m...))
	return b.val(resultTy, inst)
}
