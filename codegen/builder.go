package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Builder accumulates instructions into a single Function's basic blocks,
// tracking fast-math state and the current insertion point. This mirrors
// gapid's core/codegen.Builder, which is handed to a function-body
// callback and owns the llvm.Builder for that function's lifetime.
type Builder struct {
	m        *Module
	fn       *Function
	cur      *ir.Block
	fastMath bool
}

// Build constructs fn's body by invoking cb with a fresh Builder whose
// insertion point starts at a new entry block. This is the direct
// counterpart of core/codegen's Module.Build / Function.Build pair.
func (f *Function) Build(cb func(b *Builder, entry *BasicBlock)) *Function {
	entry := f.NewBlock("entry")
	b := &Builder{m: f.m, fn: f, cur: entry.llvm}
	cb(b, entry)
	return f
}

// SetFastMath toggles fast-math contraction for subsequent floating point
// emission; see spec §4.3's "fast-math variant" rule (air.fast_<op>...).
func (b *Builder) SetFastMath(on bool) { b.fastMath = on }

// FastMath reports the builder's current fast-math state.
func (b *Builder) FastMath() bool { return b.fastMath }

// SetInsertPoint moves the builder's insertion point to blk.
func (b *Builder) SetInsertPoint(blk *BasicBlock) { b.cur = blk.llvm }

// Block returns the builder's current insertion block.
func (b *Builder) Block() *BasicBlock { return &BasicBlock{f: b.fn, llvm: b.cur, name: b.cur.LocalIdent.Name()} }

// Function returns the function being built.
func (b *Builder) Function() *Function { return b.fn }

// Module returns the owning module.
func (b *Builder) Module() *Module { return b.m }

// --- Constants -----------------------------------------------------------

// Int returns a constant integer value of type ty.
func (b *Builder) Int(ty Type, v int64) *Value {
	it, ok := ty.llvm.(*types.IntType)
	if !ok {
		fail("Int() called with non-integer type %v", ty)
	}
	return b.val(ty, constant.NewInt(it, v))
}

// Float returns a constant floating-point value of type ty.
func (b *Builder) Float(ty Type, v float64) *Value {
	ft, ok := ty.llvm.(*types.FloatType)
	if !ok {
		fail("Float() called with non-float type %v", ty)
	}
	return b.val(ty, constant.NewFloat(ft, v))
}

// Bool returns a constant i1 value.
func (b *Builder) Bool(v bool) *Value {
	i := int64(0)
	if v {
		i = 1
	}
	return b.Int(b.m.Types.Bool, i)
}

// Undef returns an undef constant of type ty.
func (b *Builder) Undef(ty Type) *Value {
	return b.val(ty, constant.NewUndef(ty.llvm))
}

// NullPointer returns the null pointer constant of a pointer type.
func (b *Builder) NullPointer(ty Type) *Value {
	pt, ok := ty.llvm.(*types.PointerType)
	if !ok {
		fail("NullPointer() called with non-pointer type %v", ty)
	}
	return b.val(ty, constant.NewNull(pt))
}

// --- Memory ----------------------------------------------------------------

// Alloca allocates stack storage for a value of type ty, returning a
// pointer in address space 0.
func (b *Builder) Alloca(ty Type) *Value {
	inst := b.cur.NewAlloca(ty.llvm)
	return b.val(b.m.Types.Pointer(ty, 0), inst)
}

// GEP emits a getelementptr into base with the given index chain. Each
// index is either a plain Go int (turned into a constant i32, for struct
// field / fixed array element selection) or a *Value (a runtime index).
func (b *Builder) GEP(elemTy Type, base *Value, indices ...interface{}) *Value {
	llIdx := make([]value.Value, len(indices))
	for i, idx := range indices {
		switch v := idx.(type) {
		case int:
			llIdx[i] = constant.NewInt(types.I32, int64(v))
		case *Value:
			llIdx[i] = v.llvm
		default:
			fail("GEP: unsupported index type %T", idx)
		}
	}
	inst := b.cur.NewGetElementPtr(elemTy.llvm, base.llvm, llIdx...)
	return b.val(b.m.Types.Pointer(elemTy, base.ty.AddrSpace()), inst)
}
