package typeanalysis

import (
	"testing"

	"github.com/mtlshade/dxair/shader"
	"github.com/stretchr/testify/require"
)

func tempOperand(reg int, mask uint8) shader.Operand {
	return shader.Operand{Kind: shader.OperandTemp, Register: reg, WriteMask: mask, Swizzle: [4]int{0, 1, 2, 3}}
}

func TestExpandSwapCProducesTwoMovc(t *testing.T) {
	phase := &shader.Phase{
		Instructions: []shader.Instruction{
			{Op: shader.OpSwapC, Operands: []shader.Operand{
				tempOperand(0, 0xf), tempOperand(1, 0xf), tempOperand(2, 0xf), tempOperand(3, 0xf), tempOperand(4, 0xf),
			}},
		},
	}
	expandSwapC(phase)
	require.Len(t, phase.Instructions, 2)
	require.Equal(t, shader.OpMovc, phase.Instructions[0].Op)
	require.Equal(t, shader.OpMovc, phase.Instructions[1].Op)
}

func TestUnvectorizeImmediateMoveSplitsPerLane(t *testing.T) {
	dest := tempOperand(0, 0xf)
	src := shader.Operand{Kind: shader.OperandImmediate32, Imm32: [4]uint32{10, 20, 30, 40}}
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpMov, Operands: []shader.Operand{dest, src}},
	}}
	unvectorizeImmediateMoves(phase)
	require.Len(t, phase.Instructions, 4)
	for lane, inst := range phase.Instructions {
		require.Equal(t, uint8(1<<uint(lane)), inst.Operands[0].WriteMask)
		require.Equal(t, uint32(10*(lane+1)), inst.Operands[1].Imm32[0])
	}
}

func TestInferAndSplitDetectsConflictingUses(t *testing.T) {
	// r0 is written by an int add, then separately consumed by a float
	// add elsewhere via r1 := r0 + r7 (float context) -- conflicting.
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpIAdd, Operands: []shader.Operand{tempOperand(0, 0xf), tempOperand(5, 0xf), tempOperand(6, 0xf)}},
		{Op: shader.OpAdd, Operands: []shader.Operand{tempOperand(1, 0xf), tempOperand(0, 0xf), tempOperand(7, 0xf)}},
	}}
	require.NoError(t, Analyze(phase))
	require.NotEmpty(t, phase.TempTypes)
	// the original r0 (int write) must have been split from its float use.
	foundSplit := false
	for _, ids := range phase.SplitMap {
		if len(ids) > 1 {
			foundSplit = true
		}
	}
	require.True(t, foundSplit)
}

func TestInferAndSplitDenseReindex(t *testing.T) {
	phase := &shader.Phase{Instructions: []shader.Instruction{
		{Op: shader.OpIAdd, Operands: []shader.Operand{tempOperand(10, 0xf), tempOperand(20, 0xf), tempOperand(30, 0xf)}},
	}}
	require.NoError(t, Analyze(phase))
	seen := map[int]bool{}
	for _, inst := range phase.Instructions {
		for _, o := range inst.Operands {
			if o.Kind == shader.OperandTemp {
				seen[o.Register] = true
			}
		}
	}
	for id := 0; id < len(seen); id++ {
		require.True(t, seen[id], "expected dense id %d present", id)
	}
}
