// Package shader is the decoded program data model (spec §3): the
// in-memory shape a DXBC decode (dxbc) produces and every later pass
// (typeanalysis, cfg, binding, translate, tessellation) mutates or reads.
package shader

// Stage is the DXBC program type/shader stage.
type Stage int

const (
	StagePixel Stage = iota
	StageVertex
	StageGeometry
	StageHull
	StageDomain
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StagePixel:
		return "pixel"
	case StageVertex:
		return "vertex"
	case StageGeometry:
		return "geometry"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// DataType is the per-component type tag assigned by typeanalysis (spec
// §4.5); Unknown is the pre-analysis default.
type DataType int

const (
	Unknown DataType = iota
	Int
	Uint
	Sint16
	Uint16
	Sint12
	Float
	Float16
	Float10
	Double
	Bool
)

// OperandKind is the closed set of DXBC operand file types (spec §3).
type OperandKind int

const (
	OperandTemp OperandKind = iota
	OperandInput
	OperandOutput
	OperandConstantBuffer
	OperandImmediateConstantBuffer
	OperandResource
	OperandSampler
	OperandUAV
	OperandTGSM
	OperandImmediate32
	OperandImmediate64
	OperandAttribute
	OperandControlPoint
	OperandPatchConstant
	OperandCoverageMask
	OperandDepthOut
	OperandNull
)

// IndexRepr is how one index-expression component of an operand is
// represented.
type IndexRepr int

const (
	IndexImmediate32 IndexRepr = iota
	IndexImmediate64
	IndexRelative
)

// Index is one dimension of an operand's addressing expression.
type Index struct {
	Repr    IndexRepr
	Literal uint64
	// RelRegister/RelComp describe the relative-addressing sub-operand
	// (OperandTemp or OperandInput register + selected component) when
	// Repr == IndexRelative.
	RelRegister int
	RelComp     int
}

// SourceModifier marks abs/neg applied to a float-read operand, applied
// abs-then-neg per spec §4.8.
type SourceModifier struct {
	Abs bool
	Neg bool
}

// Operand is one instruction operand (spec §3).
type Operand struct {
	Kind        OperandKind
	Register    int
	Indices     []Index
	Swizzle     [4]int  // component select per lane, -1 if unused
	WriteMask   uint8   // 4-bit destination mask, bit i = component i
	Mod         SourceModifier
	DataType    DataType
	Imm32       [4]uint32 // immediate payload when Kind == OperandImmediate32
	Imm64       [2]uint64
	MinPrecision bool
}

// Opcode is the closed DXBC instruction opcode set this translator
// implements (spec §4.8's "~150 entries" dense match; this core covers
// the representative subset actually exercised by translate).
type Opcode int

const (
	OpNop Opcode = iota
	OpMov
	OpMovc
	OpAdd
	OpIAdd
	OpMul
	OpIMul
	OpMad
	OpDiv
	OpDp2
	OpDp3
	OpDp4
	OpMin
	OpMax
	OpIMin
	OpIMax
	OpUMin
	OpUMax
	OpAnd
	OpOr
	OpXor
	OpNot
	OpIShl
	OpIShr
	OpUShr
	OpItoF
	OpUtoF
	OpFtoI
	OpFtoU
	OpSqrt
	OpRsq
	OpExp
	OpLog
	OpSinCos
	OpFrc
	OpRound
	OpSampleOp
	OpSampleCOp
	OpSampleLOp
	OpSampleBOp
	OpSampleGOp
	OpGather4Op
	OpLoadOp
	OpStoreOp
	OpLoadUAVTypedOp
	OpStoreUAVTypedOp
	OpAtomicOp
	OpImmAtomicOp
	OpDiscard
	OpRet
	OpRetC
	OpIf
	OpElse
	OpEndIf
	OpLoop
	OpEndLoop
	OpBreak
	OpBreakC
	OpContinue
	OpContinueC
	OpSwitch
	OpCase
	OpDefault
	OpEndSwitch
	OpSwapC
	OpCountBits
	OpFirstBitLo
	OpFirstBitHi
	OpFirstBitSHi
	OpBfi
	OpUBfe
	OpIBfe
	OpSync
	OpDclTemps
	OpDclInput
	OpDclOutput
	OpDclResource
	OpDclConstantBuffer
	OpDclSampler
	OpDclUAV
	OpDclTGSM
	OpDclIndexableTemp
	OpLabel
	OpCall
	OpCallC

	// Immediate-payload-only declarations (spec §4.9's tessellation rewrite
	// and §4.4's compute/geometry reflection): no register operand, the
	// payload is decoded straight into the matching Declaration field
	// below rather than an Operand.
	OpDclGlobalFlags
	OpDclOutputTopology
	OpDclInputPrimitive
	OpDclMaxOutputVertexCount
	OpDclGSInstanceCount
	OpDclStream
	OpDclInputControlPointCount
	OpDclOutputControlPointCount
	OpDclTessDomain
	OpDclTessPartitioning
	OpDclTessOutputPrimitive
	OpDclHSMaxTessFactor
	OpDclThreadGroup
	OpHSDeclGlobals
)

// Instruction is one decoded DXBC instruction (opcode, operand list, and
// flags influencing its lowering).
type Instruction struct {
	Op         Opcode
	Operands   []Operand
	Saturate   bool
	PhaseTag   int // hull shader phase index this instruction belongs to
	ResourceKind int // valid for sample/load/store/atomic ops; see dxbc reflection
}

// Declaration is a decoded DXBC declaration token — register/resource
// shape announcements that precede the instruction stream proper.
type Declaration struct {
	Op       Opcode
	Operand  Operand
	NumTemps int
	Stride   int // structured-buffer stride, TGSM element stride, etc.

	// Populated only for the matching Op, left zero otherwise (spec §4.9's
	// tessellation rewrite and §4.4's compute/geometry reflection read
	// these directly off the global-declaration phase rather than off a
	// register operand).
	IntValue   int     // control-point count, tess domain/partitioning/output-primitive enum, GS instance count
	FloatValue float32 // OpDclHSMaxTessFactor's declared max tess factor
	UInt3Value [3]int  // OpDclThreadGroup's numthreads(x, y, z)
}

// Phase is one ordered sequence of declarations+instructions (spec §3).
// Hull shaders have four: global-decl, fork, join, control-point; every
// other stage has exactly one "main" phase.
type Phase struct {
	Name         string
	Declarations []Declaration
	Instructions []Instruction

	// Populated by later passes.
	TempTypes  map[int]DataType    // typeanalysis (C6)
	SplitMap   map[int][]int       // original temp -> split subregister ids
	CFG        *ControlFlowGraph   // cfg (C7)
}

// ControlFlowGraph is the per-phase recovered block graph (populated by
// cfg.Recover; kept here rather than in package cfg to avoid an import
// cycle, since Phase is the thing cfg mutates in place).
type ControlFlowGraph struct {
	Blocks []*Block
	Entry  *Block
}

// Block is one basic block of DXBC instruction indices plus a typed
// terminator (spec §4.6).
type Block struct {
	Name         string
	FirstInstr   int
	LastInstr    int // exclusive
	Term         Terminator
}

// TerminatorKind is the closed terminator tag set (spec §4.6).
type TerminatorKind int

const (
	TermUndefined TerminatorKind = iota
	TermUnconditional
	TermConditional
	TermSwitch
	TermReturn
	TermInstanceBarrier
	TermHullWriteOutput
)

// SwitchCase is one arm of a TermSwitch terminator.
type SwitchCase struct {
	Value  int64
	Target *Block
}

// Terminator is a tagged union over a block's exit (spec §4.6).
type Terminator struct {
	Kind         TerminatorKind
	Target       *Block
	Cond         Operand
	TestNonzero  bool
	TrueTarget   *Block
	FalseTarget  *Block
	SwitchValue  Operand
	Cases        []SwitchCase
	Default      *Block
	InstanceCount int
	Epilogue     *Block
}

// ConstantBuffer, Texture, UAV, Sampler and TGSM describe a global
// resource table entry decoded from RDEF (spec §3, §4.4).
type ConstantBuffer struct {
	Name     string
	Register int
	Space    int
	SizeBytes int
	Variables []CBVariable
}

// CBVariable is one member of a constant buffer's reflected type tree.
type CBVariable struct {
	Name        string
	StartOffset int
	SizeBytes   int
}

// Texture describes a decoded SRV resource declaration.
type Texture struct {
	Name         string
	Register     int
	Space        int
	BindCount    int
	Dimension    int // maps to air.ResourceKind via dxbc's resource-dimension table
	ReturnType   DataType
	Structured   bool
	StructStride int
}

// UAV describes a decoded UAV resource declaration.
type UAV struct {
	Name         string
	Register     int
	Space        int
	BindCount    int
	Dimension    int
	ReturnType   DataType
	Structured   bool
	StructStride int
	HasCounter   bool
}

// Sampler describes a decoded sampler declaration.
type Sampler struct {
	Name     string
	Register int
	Space    int
}

// TGSM describes a declared threadgroup-shared-memory block.
type TGSM struct {
	Register    int
	Stride      int
	ElementCount int
	Structured  bool
}

// SignatureEntry is one row of a decoded ISGN/OSGN/PCSG signature table
// (spec §4.4).
type SignatureEntry struct {
	Stream        int
	SemanticName  string
	SemanticIndex int
	SystemValue   int
	ComponentType DataType
	Register      int
	Mask          uint8
	MinPrecision  bool
}

// Reflection bundles every chunk the decoder extracts besides the token
// stream itself.
type Reflection struct {
	Inputs          []SignatureEntry
	Outputs         []SignatureEntry
	PatchConstants  []SignatureEntry
	ConstantBuffers []ConstantBuffer
	Textures        []Texture
	UAVs            []UAV
	Samplers        []Sampler
	GlobalFlags     uint32
}

// Shader is the fully decoded program (spec §3's "Shader").
type Shader struct {
	MajorVersion, MinorVersion int
	Stage                      Stage
	Phases                     []*Phase
	TGSMs                      []TGSM
	Reflection                 Reflection
}

// MainPhase returns the shader's single phase for non-hull stages,
// panicking if called on a hull shader (which has four named phases).
func (s *Shader) MainPhase() *Phase {
	if s.Stage == StageHull {
		panic("shader: MainPhase() called on a hull shader")
	}
	return s.Phases[0]
}
