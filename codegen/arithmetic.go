package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// BinOp is a closed set of binary arithmetic/bitwise operators.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	SDiv
	UDiv
	SRem
	URem
	FAdd
	FSub
	FMul
	FDiv
	And
	Or
	Xor
	Shl
	LShr
	AShr
)

// Arith emits the binary op over x, y; the int/float variant is selected
// by the operator itself (spec §4.8: wrap-on-overflow integer add/sub/mul,
// ishl/ishr/ushr shift-by-operand&0x1f is applied by the caller before
// reaching here).
func (b *Builder) Arith(op BinOp, x, y *Value) *Value {
	var inst value.Value
	switch op {
	case Add:
		inst = b.cur.NewAdd(x.llvm, y.llvm)
	case Sub:
		inst = b.cur.NewSub(x.llvm, y.llvm)
	case Mul:
		inst = b.cur.NewMul(x.llvm, y.llvm)
	case SDiv:
		inst = b.cur.NewSDiv(x.llvm, y.llvm)
	case UDiv:
		inst = b.cur.NewUDiv(x.llvm, y.llvm)
	case SRem:
		inst = b.cur.NewSRem(x.llvm, y.llvm)
	case URem:
		inst = b.cur.NewURem(x.llvm, y.llvm)
	case FAdd:
		inst = b.cur.NewFAdd(x.llvm, y.llvm)
	case FSub:
		inst = b.cur.NewFSub(x.llvm, y.llvm)
	case FMul:
		inst = b.cur.NewFMul(x.llvm, y.llvm)
	case FDiv:
		inst = b.cur.NewFDiv(x.llvm, y.llvm)
	case And:
		inst = b.cur.NewAnd(x.llvm, y.llvm)
	case Or:
		inst = b.cur.NewOr(x.llvm, y.llvm)
	case Xor:
		inst = b.cur.NewXor(x.llvm, y.llvm)
	case Shl:
		inst = b.cur.NewShl(x.llvm, y.llvm)
	case LShr:
		inst = b.cur.NewLShr(x.llvm, y.llvm)
	case AShr:
		inst = b.cur.NewAShr(x.llvm, y.llvm)
	default:
		fail("Arith: unknown op %d", op)
	}
	return b.val(x.ty, inst)
}

// Cmp is the closed set of integer/float comparison predicates §4.2 needs.
type Cmp int

const (
	CmpIEQ Cmp = iota
	CmpINE
	CmpSGT
	CmpSGE
	CmpSLT
	CmpSLE
	CmpUGT
	CmpUGE
	CmpULT
	CmpULE
	CmpFOEQ
	CmpFONE
	CmpFOGT
	CmpFOGE
	CmpFOLT
	CmpFOLE
)

// ICmp emits an integer comparison, yielding an i1.
func (b *Builder) ICmp(pred Cmp, x, y *Value) *Value {
	p := icmpPred(pred)
	inst := b.cur.NewICmp(p, x.llvm, y.llvm)
	return b.val(b.m.Types.Bool, inst)
}

// FCmp emits an ordered float comparison, yielding an i1.
func (b *Builder) FCmp(pred Cmp, x, y *Value) *Value {
	p := fcmpPred(pred)
	inst := b.cur.NewFCmp(p, x.llvm, y.llvm)
	return b.val(b.m.Types.Bool, inst)
}

func icmpPred(c Cmp) enum.IPred {
	switch c {
	case CmpIEQ:
		return enum.IPredEQ
	case CmpINE:
		return enum.IPredNE
	case CmpSGT:
		return enum.IPredSGT
	case CmpSGE:
		return enum.IPredSGE
	case CmpSLT:
		return enum.IPredSLT
	case CmpSLE:
		return enum.IPredSLE
	case CmpUGT:
		return enum.IPredUGT
	case CmpUGE:
		return enum.IPredUGE
	case CmpULT:
		return enum.IPredULT
	case CmpULE:
		return enum.IPredULE
	default:
		fail("icmpPred: predicate %d is not an integer predicate", c)
		return enum.IPredEQ
	}
}

func fcmpPred(c Cmp) enum.FPred {
	switch c {
	case CmpFOEQ:
		return enum.FPredOEQ
	case CmpFONE:
		return enum.FPredONE
	case CmpFOGT:
		return enum.FPredOGT
	case CmpFOGE:
		return enum.FPredOGE
	case CmpFOLT:
		return enum.FPredOLT
	case CmpFOLE:
		return enum.FPredOLE
	default:
		fail("fcmpPred: predicate %d is not a float predicate", c)
		return enum.FPredOEQ
	}
}

// Select emits a select (ternary) instruction.
func (b *Builder) Select(cond, t, f *Value) *Value {
	inst := b.cur.NewSelect(cond.llvm, t.llvm, f.llvm)
	return b.val(t.ty, inst)
}

// Not emits a bitwise complement (xor with all-ones).
func (b *Builder) Not(x *Value) *Value {
	it, ok := x.ty.llvm.(*types.IntType)
	if !ok {
		fail("Not() requires an integer/vector-of-integer type")
	}
	allOnes := constant.NewInt(it, -1)
	inst := b.cur.NewXor(x.llvm, allOnes)
	return b.val(x.ty, inst)
}

// FNeg emits floating point negation.
func (b *Builder) FNeg(x *Value) *Value {
	inst := b.cur.NewFNeg(x.llvm)
	return b.val(x.ty, inst)
}
