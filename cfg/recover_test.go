package cfg

import (
	"testing"

	"github.com/mtlshade/dxair/shader"
	"github.com/stretchr/testify/require"
)

func cond() shader.Operand {
	return shader.Operand{Kind: shader.OperandTemp, Register: 0, WriteMask: 0x1, Swizzle: [4]int{0, -1, -1, -1}}
}

func TestRecoverStraightLineEndsInReturn(t *testing.T) {
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpMov},
		{Op: shader.OpRet},
	}}
	require.NoError(t, Recover(phase))
	require.NotNil(t, phase.CFG)
	require.NotNil(t, phase.CFG.Entry)

	for _, blk := range phase.CFG.Blocks {
		require.NotEqual(t, shader.TermUndefined, blk.Term.Kind, "block %q must have a terminator", blk.Name)
	}
}

func TestRecoverIfElseEndif(t *testing.T) {
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpIf, Operands: []shader.Operand{cond()}},
		{Op: shader.OpMov},
		{Op: shader.OpElse},
		{Op: shader.OpMov},
		{Op: shader.OpEndIf},
		{Op: shader.OpRet},
	}}
	require.NoError(t, Recover(phase))

	entry := phase.CFG.Entry
	require.Equal(t, shader.TermConditional, entry.Term.Kind)
	require.NotNil(t, entry.Term.TrueTarget)
	require.NotNil(t, entry.Term.FalseTarget)
	require.NotEqual(t, entry.Term.TrueTarget, entry.Term.FalseTarget)

	for _, blk := range phase.CFG.Blocks {
		require.NotEqual(t, shader.TermUndefined, blk.Term.Kind)
	}
}

func TestRecoverLoopBreakContinue(t *testing.T) {
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpLoop},
		{Op: shader.OpBreakC, Operands: []shader.Operand{cond()}},
		{Op: shader.OpContinue},
		{Op: shader.OpEndLoop},
		{Op: shader.OpRet},
	}}
	require.NoError(t, Recover(phase))
	for _, blk := range phase.CFG.Blocks {
		require.NotEqual(t, shader.TermUndefined, blk.Term.Kind)
	}
}

func TestRecoverSwitchCaseDefault(t *testing.T) {
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpSwitch, Operands: []shader.Operand{cond()}},
		{Op: shader.OpCase, Operands: []shader.Operand{{Kind: shader.OperandImmediate32, Imm32: [4]uint32{1}}}},
		{Op: shader.OpMov},
		{Op: shader.OpCase, Operands: []shader.Operand{{Kind: shader.OperandImmediate32, Imm32: [4]uint32{2}}}},
		{Op: shader.OpMov},
		{Op: shader.OpDefault},
		{Op: shader.OpMov},
		{Op: shader.OpEndSwitch},
		{Op: shader.OpRet},
	}}
	require.NoError(t, Recover(phase))

	var dispatch *shader.Block
	for _, blk := range phase.CFG.Blocks {
		if blk.Term.Kind == shader.TermSwitch {
			dispatch = blk
		}
	}
	require.NotNil(t, dispatch, "expected one block carrying the recovered switch terminator")
	require.Len(t, dispatch.Term.Cases, 2)
	require.NotNil(t, dispatch.Term.Default)

	for _, blk := range phase.CFG.Blocks {
		require.NotEqual(t, shader.TermUndefined, blk.Term.Kind)
	}
}

func TestRecoverUnterminatedConstructErrors(t *testing.T) {
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpIf, Operands: []shader.Operand{cond()}},
		{Op: shader.OpMov},
	}}
	require.Error(t, Recover(phase))
}
