package tessellation

import (
	"testing"

	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/binding"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
	"github.com/stretchr/testify/require"
)

func TestNextPow2(t *testing.T) {
	require.Equal(t, uint32(1), NextPow2(0))
	require.Equal(t, uint32(1), NextPow2(1))
	require.Equal(t, uint32(4), NextPow2(3))
	require.Equal(t, uint32(8), NextPow2(8))
	require.Equal(t, uint32(16), NextPow2(9))
}

func TestIntegerFactorClampsPerPartitioning(t *testing.T) {
	require.Equal(t, uint32(0), IntegerFactor(8, PartitioningUndefined))
	require.Equal(t, uint32(8), IntegerFactor(8, PartitioningInteger))
	require.Equal(t, uint32(64), IntegerFactor(100, PartitioningInteger))
	require.Equal(t, uint32(8), IntegerFactor(5, PartitioningPow2))
	require.Equal(t, uint32(7), IntegerFactor(6, PartitioningFractionalOdd))
	require.Equal(t, uint32(8), IntegerFactor(7, PartitioningFractionalEven))
}

func TestReservedVertexCount(t *testing.T) {
	// N = 9, (9+2-(9&1))*2+1 = (9+2-1)*2+1 = 21
	require.Equal(t, uint32(21), ReservedVertexCount(8))
}

func TestMaxPotentialWorkloadCount(t *testing.T) {
	require.Equal(t, uint32(0), MaxPotentialWorkloadCount(8, DomainIsoline))
	require.Greater(t, MaxPotentialWorkloadCount(8, DomainQuad), uint32(0))
	require.Greater(t, MaxPotentialWorkloadCount(8, DomainTriangle), uint32(0))
}

func TestClampMaxFactorHonorsPSOOverride(t *testing.T) {
	factor, n := ClampMaxFactor(8, 4, true, PartitioningInteger)
	require.LessOrEqual(t, n, uint32(4))
	require.LessOrEqual(t, factor, float32(4))
}

func TestPayloadAlignedSize(t *testing.T) {
	require.Equal(t, 16, PayloadAlignedSize(1))
	require.Equal(t, 16, PayloadAlignedSize(16))
	require.Equal(t, 32, PayloadAlignedSize(17))
}

// minimalHullAndDomain builds the spec's own acceptance-test shape: a
// quad-domain hull shader with 4 input/4 output control points and
// integer partitioning at max_tess_factor=8, a pass-through domain
// shader that copies control point 0 straight to SV_Position.
func minimalHullAndDomain() (*shader.Shader, *shader.Shader, Config) {
	cpBlock := &shader.Block{
		Name: "entry", FirstInstr: 0, LastInstr: 1,
		Term: shader.Terminator{Kind: shader.TermReturn},
	}
	cpPhase := &shader.Phase{
		Name: "control_point",
		Instructions: []shader.Instruction{
			{Op: shader.OpMov, Operands: []shader.Operand{
				{Kind: shader.OperandOutput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
				{Kind: shader.OperandControlPoint, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
			}},
		},
		TempTypes: map[int]shader.DataType{},
		CFG:       &shader.ControlFlowGraph{Blocks: []*shader.Block{cpBlock}, Entry: cpBlock},
	}
	emptyBlock := func(name string) *shader.Block {
		return &shader.Block{Name: name, FirstInstr: 0, LastInstr: 0, Term: shader.Terminator{Kind: shader.TermReturn}}
	}
	emptyPhase := func(name string) *shader.Phase {
		b := emptyBlock(name)
		return &shader.Phase{Name: name, TempTypes: map[int]shader.DataType{}, CFG: &shader.ControlFlowGraph{Blocks: []*shader.Block{b}, Entry: b}}
	}
	hull := &shader.Shader{
		Stage: shader.StageHull,
		Phases: []*shader.Phase{
			emptyPhase("global_decl"), emptyPhase("fork"), emptyPhase("join"), cpPhase,
		},
	}

	dsBlock := &shader.Block{
		Name: "entry", FirstInstr: 0, LastInstr: 1,
		Term: shader.Terminator{Kind: shader.TermReturn},
	}
	dsPhase := &shader.Phase{
		Name: "main",
		Instructions: []shader.Instruction{
			{Op: shader.OpMov, Operands: []shader.Operand{
				{Kind: shader.OperandOutput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
				{Kind: shader.OperandInput, Register: 0, WriteMask: 0xF, Swizzle: [4]int{-1, -1, -1, -1}, DataType: shader.Float},
			}},
		},
		TempTypes: map[int]shader.DataType{},
		CFG:       &shader.ControlFlowGraph{Blocks: []*shader.Block{dsBlock}, Entry: dsBlock},
	}
	domain := &shader.Shader{
		Stage:  shader.StageDomain,
		Phases: []*shader.Phase{dsPhase},
		Reflection: shader.Reflection{
			Outputs: []shader.SignatureEntry{
				{SemanticName: "SV_Position", SystemValue: 1, ComponentType: shader.Float, Register: 0, Mask: 0xF},
			},
		},
	}

	cfg := Config{
		Partitioning:             PartitioningInteger,
		Domain:                   DomainQuad,
		OutputPrimitive:          OutputTriangleCW,
		ControlPointsPerPatch:    4,
		MaxInputRegister:         1,
		MaxOutputRegister:        1,
		MaxPatchConstantRegister: 0,
		HullMaxThreadsPerPatch:   4,
		MaxTessFactor:            8,
	}
	return hull, domain, cfg
}

func TestBuildObjectShaderQuadDomain(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	reg := air.NewRegistry(m)
	hull, _, cfg := minimalHullAndDomain()

	res, err := BuildObjectShader(m, reg, hull, cfg, "hs_main")
	require.NoError(t, err)
	require.NotNil(t, res.Fn)
	require.Equal(t, binding.PatchQuad, res.Patch.Topology)
	require.Greater(t, res.PatchPerGroup, 0)
	require.Greater(t, res.ThreadsPerPatch, 0)
	require.Greater(t, res.MaxWorkloads, uint32(0))
	require.NoError(t, m.Verify())
}

func TestBuildMeshShaderQuadDomain(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	reg := air.NewRegistry(m)
	hull, domain, cfg := minimalHullAndDomain()

	objRes, err := BuildObjectShader(m, reg, hull, cfg, "hs_main")
	require.NoError(t, err)

	fn, err := BuildMeshShader(m, reg, domain, objRes, cfg, "ds_main")
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.NoError(t, m.Verify())
}

func TestBuildObjectShaderRejectsIsoline(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	reg := air.NewRegistry(m)
	hull, _, cfg := minimalHullAndDomain()
	cfg.Domain = DomainIsoline

	_, err := BuildObjectShader(m, reg, hull, cfg, "hs_main")
	require.Error(t, err)
}

func TestBuildMeshShaderRejectsNonDomainStage(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	reg := air.NewRegistry(m)
	hull, _, cfg := minimalHullAndDomain()

	_, err := BuildMeshShader(m, reg, hull, &ObjectResult{PayloadType: m.Types.Int32, FactorInt: 8}, cfg, "ds_main")
	require.Error(t, err)
}
