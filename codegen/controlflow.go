package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Br emits an unconditional branch to target.
func (b *Builder) Br(target *BasicBlock) { b.cur.NewBr(target.llvm) }

// CondBr emits a conditional branch on cond.
func (b *Builder) CondBr(cond *Value, then, els *BasicBlock) {
	b.cur.NewCondBr(cond.llvm, then.llvm, els.llvm)
}

// Ret emits a return instruction. val may be nil for a void return.
func (b *Builder) Ret(val *Value) {
	if val == nil {
		b.cur.NewRet(nil)
		return
	}
	b.cur.NewRet(val.llvm)
}

// SwitchCase is one arm of a Switch instruction.
type SwitchCase struct {
	Value  int64
	Target *BasicBlock
}

// Switch emits an integer switch with a default target, matching DXBC's
// SWITCH/CASE/DEFAULT/ENDSWITCH recovery in cfg (spec §4.6): each case
// falls straight to its target with no implicit fallthrough, since C7
// inserts an explicit break branch at the end of every DXBC case.
func (b *Builder) Switch(v *Value, def *BasicBlock, cases ...SwitchCase) {
	it, ok := v.ty.llvm.(*types.IntType)
	if !ok {
		fail("Switch() requires an integer value, got %v", v.ty)
	}
	llCases := make([]*ir.Case, len(cases))
	for i, c := range cases {
		llCases[i] = ir.NewCase(constant.NewInt(it, c.Value), c.Target.llvm)
	}
	b.cur.NewSwitch(v.llvm, def.llvm, llCases...)
}

// PhiIncoming is one incoming value/predecessor pair for a Phi node.
type PhiIncoming struct {
	Value *Value
	Block *BasicBlock
}

// Phi emits a phi node of type ty over the given incoming edges.
func (b *Builder) Phi(ty Type, incoming ...PhiIncoming) *Value {
	incs := make([]*ir.Incoming, len(incoming))
	for i, in := range incoming {
		incs[i] = ir.NewIncoming(in.Value.llvm, in.Block.llvm)
	}
	inst := b.cur.NewPhi(incs...)
	return b.val(ty, inst)
}

// Call invokes f with the given arguments.
func (b *Builder) Call(f *Function, args ...*Value) *Value {
	llArgs := make([]value.Value, len(args))
	for i, a := range args {
		llArgs[i] = a.llvm
	}
	inst := b.cur.NewCall(f.llvm, llArgs...)
	if f.Type.Result.llvm == types.Void {
		return &Value{ty: f.Type.Result, llvm: inst}
	}
	return b.val(f.Type.Result, inst)
}
