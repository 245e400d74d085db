package translate

import (
	"testing"

	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/binding"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
	"github.com/stretchr/testify/require"
)

func newTestModule(t *testing.T) (*codegen.Module, *air.Registry) {
	t.Helper()
	m := codegen.NewModule("test.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	return m, air.NewRegistry(m)
}

// straightLineShader builds a one-block vertex phase computing
// out0 = in0 * in1 + in0 (a mad over two float4 inputs) and returning it,
// exercising dispatch's arithmetic lowering plus prologue's input/output
// plumbing end to end.
func straightLineShader() *shader.Shader {
	entry := &shader.Block{
		Name:       "entry",
		FirstInstr: 0,
		LastInstr:  1,
		Term:       shader.Terminator{Kind: shader.TermReturn},
	}
	phase := &shader.Phase{
		Name: "main",
		Instructions: []shader.Instruction{
			{
				Op: shader.OpMad,
				Operands: []shader.Operand{
					{Kind: shader.OperandOutput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
					{Kind: shader.OperandInput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
					{Kind: shader.OperandInput, Register: 1, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
					{Kind: shader.OperandInput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
				},
			},
		},
		TempTypes: map[int]shader.DataType{},
		CFG:       &shader.ControlFlowGraph{Blocks: []*shader.Block{entry}, Entry: entry},
	}
	return &shader.Shader{
		MajorVersion: 5, MinorVersion: 0,
		Stage:  shader.StageVertex,
		Phases: []*shader.Phase{phase},
		Reflection: shader.Reflection{
			Inputs: []shader.SignatureEntry{
				{SemanticName: "POSITION", ComponentType: shader.Float, Register: 0, Mask: 0xF},
				{SemanticName: "COLOR", ComponentType: shader.Float, Register: 1, Mask: 0xF},
			},
			Outputs: []shader.SignatureEntry{
				{SemanticName: "SV_Position", SystemValue: 1, ComponentType: shader.Float, Register: 0, Mask: 0xF},
			},
		},
	}
}

func TestDeclareAndLowerStraightLine(t *testing.T) {
	m, reg := newTestModule(t)
	sh := straightLineShader()

	fn, err := DeclareAndLower(m, reg, sh, "vs_main")
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.NoError(t, m.Verify())
}

// branchingShader builds a two-way-branch compute phase (if/else over a
// temp register) to exercise lowerTerminator's conditional path and the
// temp-register write/read round trip across blocks.
func branchingShader() *shader.Shader {
	thenBlk := &shader.Block{Name: "then", FirstInstr: 1, LastInstr: 2, Term: shader.Terminator{Kind: shader.TermReturn}}
	elseBlk := &shader.Block{Name: "else", FirstInstr: 2, LastInstr: 3, Term: shader.Terminator{Kind: shader.TermReturn}}
	entry := &shader.Block{
		Name:       "entry",
		FirstInstr: 0,
		LastInstr:  1,
		Term: shader.Terminator{
			Kind:        shader.TermConditional,
			Cond:        shader.Operand{Kind: shader.OperandTemp, Register: 0, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Uint},
			TrueTarget:  thenBlk,
			FalseTarget: elseBlk,
		},
	}
	phase := &shader.Phase{
		Name: "main",
		Instructions: []shader.Instruction{
			{
				Op: shader.OpMov,
				Operands: []shader.Operand{
					{Kind: shader.OperandTemp, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Uint},
					{Kind: shader.OperandImmediate32, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Uint, Imm32: [4]uint32{1, 0, 0, 0}},
				},
			},
			{
				Op: shader.OpMov,
				Operands: []shader.Operand{
					{Kind: shader.OperandOutput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
					{Kind: shader.OperandImmediate32, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float, Imm32: [4]uint32{0, 0, 0, 0}},
				},
			},
			{
				Op: shader.OpMov,
				Operands: []shader.Operand{
					{Kind: shader.OperandOutput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
					{Kind: shader.OperandImmediate32, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float, Imm32: [4]uint32{0x3F800000, 0, 0, 0}},
				},
			},
		},
		TempTypes: map[int]shader.DataType{0: shader.Uint},
		CFG:       &shader.ControlFlowGraph{Blocks: []*shader.Block{entry, thenBlk, elseBlk}, Entry: entry},
	}
	return &shader.Shader{
		Stage:  shader.StageCompute,
		Phases: []*shader.Phase{phase},
		Reflection: shader.Reflection{
			Outputs: []shader.SignatureEntry{
				{SemanticName: "SV_Target", ComponentType: shader.Float, Register: 0, Mask: 0xF},
			},
		},
	}
}

func TestDeclareAndLowerConditional(t *testing.T) {
	m, reg := newTestModule(t)
	sh := branchingShader()

	fn, err := DeclareAndLower(m, reg, sh, "cs_main")
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.NoError(t, m.Verify())
}

// discardShader builds a single-block pixel phase that reads a temp
// register and issues discard_nz on it, exercising lowerDiscard's
// block-split (spec §8 scenario #6).
func discardShader() *shader.Shader {
	entry := &shader.Block{
		Name:       "entry",
		FirstInstr: 0,
		LastInstr:  1,
		Term:       shader.Terminator{Kind: shader.TermReturn},
	}
	phase := &shader.Phase{
		Name: "main",
		Instructions: []shader.Instruction{
			{
				Op: shader.OpDiscard,
				Operands: []shader.Operand{
					{Kind: shader.OperandTemp, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Uint},
				},
			},
		},
		TempTypes: map[int]shader.DataType{0: shader.Uint},
		CFG:       &shader.ControlFlowGraph{Blocks: []*shader.Block{entry}, Entry: entry},
	}
	return &shader.Shader{
		Stage:  shader.StagePixel,
		Phases: []*shader.Phase{phase},
		Reflection: shader.Reflection{
			Outputs: []shader.SignatureEntry{
				{SemanticName: "SV_Target", ComponentType: shader.Float, Register: 0, Mask: 0xF},
			},
		},
	}
}

func TestDeclareAndLowerDiscardGuardsOnPredicate(t *testing.T) {
	m, reg := newTestModule(t)
	sh := discardShader()

	fn, err := DeclareAndLower(m, reg, sh, "ps_main")
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.NoError(t, m.Verify())

	asm := m.Assembly()
	require.Contains(t, asm, "air.discard_fragment")
	require.Contains(t, asm, "br i1")
}

func TestDeclareAndLowerRejectsHullStage(t *testing.T) {
	m, reg := newTestModule(t)
	sh := &shader.Shader{Stage: shader.StageHull, Phases: []*shader.Phase{{Name: "control_point"}}}
	_, err := DeclareAndLower(m, reg, sh, "hs_main")
	require.Error(t, err)
}

func TestLowerUnknownOpcodeIsLoweringError(t *testing.T) {
	m, reg := newTestModule(t)
	fn := m.NewFunction("bad", m.Types.Void)
	c := NewContext(m, reg, nil, fn, shader.StagePixel)

	blk := &shader.Block{Name: "entry", FirstInstr: 0, LastInstr: 1, Term: shader.Terminator{Kind: shader.TermReturn}}
	phase := &shader.Phase{
		Instructions: []shader.Instruction{{Op: shader.Opcode(9999)}},
		TempTypes:    map[int]shader.DataType{},
		CFG:          &shader.ControlFlowGraph{Blocks: []*shader.Block{blk}, Entry: blk},
	}

	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		c.CB = cb
		c.Air = air.NewBuilder(cb, reg)
		epilogue := fn.NewBlock("epilogue")
		cb.SetInsertPoint(entry)
		cb.Br(c.EntryTargetOrBuild(phase))
		err := Lower(c, phase, epilogue)
		require.Error(t, err)
		cb.SetInsertPoint(epilogue)
		cb.Ret(nil)
	})
}

func TestSortedBySlotIsStableAcrossGroups(t *testing.T) {
	members := []binding.ArgumentMember{
		{Key: binding.Key{Group: binding.GroupUAV, Register: 0}},
		{Key: binding.Key{Group: binding.GroupConstantBuffer, Register: 1}},
		{Key: binding.Key{Group: binding.GroupSampler, Register: 0}},
		{Key: binding.Key{Group: binding.GroupTexture, Register: 0}},
	}
	sorted := sortedBySlot(members)
	for i := 1; i < len(sorted); i++ {
		require.LessOrEqual(t, sorted[i-1].Key.Slot(), sorted[i].Key.Slot())
	}
}
