package dxbc

import (
	"encoding/binary"

	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

// tokenReader walks a SHEX/SHDR chunk's uint32 token stream.
type tokenReader struct {
	words []uint32
	pos   int
}

func newTokenReader(payload []byte) (*tokenReader, error) {
	if len(payload)%4 != 0 {
		return nil, errs.New(errs.Malformed, "dxbc: token chunk length %d not a multiple of 4", len(payload))
	}
	words := make([]uint32, len(payload)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(payload[i*4:])
	}
	return &tokenReader{words: words}, nil
}

func (r *tokenReader) done() bool { return r.pos >= len(r.words) }

func (r *tokenReader) u32() (uint32, error) {
	if r.pos >= len(r.words) {
		return 0, errs.New(errs.Malformed, "dxbc: token stream truncated at word %d", r.pos)
	}
	w := r.words[r.pos]
	r.pos++
	return w, nil
}

func (r *tokenReader) peek() (uint32, bool) {
	if r.pos >= len(r.words) {
		return 0, false
	}
	return r.words[r.pos], true
}

// sub returns a fresh reader scoped to the next `count` words, advancing
// the parent past them. Used for per-instruction length-prefixed decode.
func (r *tokenReader) sub(count int) (*tokenReader, error) {
	if r.pos+count > len(r.words) {
		return nil, errs.New(errs.Malformed, "dxbc: instruction length %d overruns token stream", count)
	}
	sub := &tokenReader{words: r.words[r.pos : r.pos+count]}
	r.pos += count
	return sub, nil
}

// versionToken is the first SHEX/SHDR word: program type in the top
// 16 bits, minor/major version in the low byte pair (spec §3, §4.4).
func decodeVersionToken(tok uint32) (shader.Stage, int, int, error) {
	progType := (tok >> 16) & 0xffff
	minor := int((tok >> 0) & 0xf)
	major := int((tok >> 4) & 0xf)

	var stage shader.Stage
	switch progType {
	case 0:
		stage = shader.StagePixel
	case 1:
		stage = shader.StageVertex
	case 2:
		stage = shader.StageGeometry
	case 3:
		stage = shader.StageHull
	case 4:
		stage = shader.StageDomain
	case 5:
		stage = shader.StageCompute
	default:
		return 0, 0, 0, errs.New(errs.Unsupported, "dxbc: unknown program type %d", progType)
	}
	return stage, major, minor, nil
}

// opcodeToken is the first word of each instruction: opcode in the low
// 11 bits, instruction length in bits 24-30, extended bit 31, saturate
// bit 13 for float arithmetic ops (spec §4.4/§4.8).
type opcodeToken struct {
	raw      uint32
	opcode   uint32
	length   int
	extended bool
	saturate bool
}

func decodeOpcodeToken(tok uint32) opcodeToken {
	return opcodeToken{
		raw:      tok,
		opcode:   tok & 0x7ff,
		length:   int((tok >> 24) & 0x7f),
		extended: tok&(1<<31) != 0,
		saturate: tok&(1<<13) != 0,
	}
}

// dxbcOpcode enumerates the raw DXBC bytecode opcode numbers this
// decoder recognizes, mapped to shader.Opcode by opcodeTable.
const (
	dxbcOpAdd             = 0
	dxbcOpAnd             = 1
	dxbcOpBreak           = 2
	dxbcOpBreakc          = 3
	dxbcOpCall            = 4
	dxbcOpCallc           = 5
	dxbcOpCase            = 6
	dxbcOpContinue        = 7
	dxbcOpContinuec       = 8
	dxbcOpCut             = 9
	dxbcOpDefault         = 10
	dxbcOpDeriv_rtx       = 11
	dxbcOpDeriv_rty       = 12
	dxbcOpDiscard         = 13
	dxbcOpDiv             = 14
	dxbcOpDp2             = 15
	dxbcOpDp3             = 16
	dxbcOpDp4             = 17
	dxbcOpElse            = 18
	dxbcOpEmit            = 19
	dxbcOpEmitThenCut     = 20
	dxbcOpEndIf           = 21
	dxbcOpEndLoop         = 22
	dxbcOpEndSwitch       = 23
	dxbcOpEq              = 24
	dxbcOpExp             = 25
	dxbcOpFrc             = 26
	dxbcOpFtoI            = 27
	dxbcOpFtoU            = 28
	dxbcOpGE              = 29
	dxbcOpIAdd            = 30
	dxbcOpIf              = 31
	dxbcOpIEq             = 32
	dxbcOpIGE             = 33
	dxbcOpILT             = 34
	dxbcOpIMad            = 35
	dxbcOpIMax            = 36
	dxbcOpIMin            = 37
	dxbcOpIMul            = 38
	dxbcOpINE             = 39
	dxbcOpINeg            = 40
	dxbcOpIShl            = 41
	dxbcOpIShr            = 42
	dxbcOpItoF            = 43
	dxbcOpLabel           = 44
	dxbcOpLd              = 45
	dxbcOpLdMS            = 46
	dxbcOpLog             = 47
	dxbcOpLoop            = 48
	dxbcOpLT              = 49
	dxbcOpMad             = 50
	dxbcOpMin             = 51
	dxbcOpMax             = 52
	dxbcOpCustomData      = 53
	dxbcOpMov             = 54
	dxbcOpMovc            = 55
	dxbcOpMul             = 56
	dxbcOpNE              = 57
	dxbcOpNop             = 58
	dxbcOpNot             = 59
	dxbcOpOr              = 60
	dxbcOpResinfo         = 61
	dxbcOpRet             = 62
	dxbcOpRetc            = 63
	dxbcOpRoundNe         = 64
	dxbcOpRoundNi         = 65
	dxbcOpRoundPi         = 66
	dxbcOpRoundZ          = 67
	dxbcOpRsq             = 68
	dxbcOpSample          = 69
	dxbcOpSampleC         = 70
	dxbcOpSampleCLz       = 71
	dxbcOpSampleL         = 72
	dxbcOpSampleD         = 73
	dxbcOpSampleB         = 74
	dxbcOpSqrt            = 75
	dxbcOpSwitch          = 76
	dxbcOpSinCos          = 77
	dxbcOpUDiv            = 78
	dxbcOpULT             = 79
	dxbcOpUGE             = 80
	dxbcOpUMul            = 81
	dxbcOpUMad            = 82
	dxbcOpUMax            = 83
	dxbcOpUMin            = 84
	dxbcOpUShr            = 85
	dxbcOpUtoF            = 86
	dxbcOpXor             = 87
	dxbcOpDclResource     = 88
	dxbcOpDclConstantBuf  = 89
	dxbcOpDclSampler      = 90
	dxbcOpDclIndexRange   = 91
	dxbcOpDclOutputTopo   = 92
	dxbcOpDclInputPrim    = 93
	dxbcOpDclMaxOutVert   = 94
	dxbcOpDclInput        = 95
	dxbcOpDclInputSGV     = 96
	dxbcOpDclInputSIV     = 97
	dxbcOpDclInputPS      = 98
	dxbcOpDclInputPSSGV   = 99
	dxbcOpDclInputPSSIV   = 100
	dxbcOpDclOutput       = 101
	dxbcOpDclOutputSGV    = 102
	dxbcOpDclOutputSIV    = 103
	dxbcOpDclTemps        = 104
	dxbcOpDclIndexableTmp = 105
	dxbcOpDclGlobalFlags  = 106
	dxbcOpGather4         = 123
	dxbcOpSamplePos       = 124
	dxbcOpSampleInfo      = 125
	dxbcOpDclGSInstances  = 126
	dxbcOpHSDeclGlobals   = 134
	dxbcOpHSForkPhase     = 140
	dxbcOpHSJoinPhase     = 141
	dxbcOpEmitStream      = 142
	dxbcOpCutStream       = 143
	dxbcOpSwapC           = 144
	dxbcOpFCall           = 146
	dxbcOpBufInfo         = 147
	dxbcOpFirstBitHi      = 148
	dxbcOpFirstBitLo      = 149
	dxbcOpFirstBitSHi     = 150
	dxbcOpUBfe            = 151
	dxbcOpIBfe            = 152
	dxbcOpBfi             = 153
	dxbcOpBfrev           = 154
	dxbcOpBitCount        = 155
	dxbcOpDclTGSMRaw      = 156
	dxbcOpDclTGSMStruct   = 157
	dxbcOpAtomicAnd       = 158
	dxbcOpAtomicOr        = 159
	dxbcOpAtomicXor       = 160
	dxbcOpAtomicCmpStore  = 161
	dxbcOpAtomicIAdd      = 162
	dxbcOpAtomicIMax      = 163
	dxbcOpAtomicIMin      = 164
	dxbcOpAtomicUMax      = 165
	dxbcOpAtomicUMin      = 166
	dxbcOpImmAtomicAlloc  = 167
	dxbcOpImmAtomicConsume = 168
	dxbcOpImmAtomicIAdd   = 169
	dxbcOpImmAtomicAnd    = 170
	dxbcOpImmAtomicOr     = 171
	dxbcOpImmAtomicXor    = 172
	dxbcOpImmAtomicExch   = 173
	dxbcOpImmAtomicCmpExch = 174
	dxbcOpImmAtomicIMax   = 175
	dxbcOpImmAtomicIMin   = 176
	dxbcOpImmAtomicUMax   = 177
	dxbcOpImmAtomicUMin   = 178
	dxbcOpSync            = 179
	dxbcOpDAdd            = 180
	dxbcOpDMax            = 181
	dxbcOpDMin            = 182
	dxbcOpDMul            = 183
	dxbcOpDEq             = 184
	dxbcOpDGE             = 185
	dxbcOpDLT             = 186
	dxbcOpDNE             = 187
	dxbcOpDMov            = 188
	dxbcOpDMovc           = 189
	dxbcOpDtoF            = 190
	dxbcOpFtoD            = 191
	dxbcOpEvalSnapped     = 192
	dxbcOpEvalSampleIndex = 193
	dxbcOpEvalCentroid    = 194
	dxbcOpDclGSInstanced  = 195
	dxbcOpAbort           = 196
	dxbcOpDebugBreak      = 197
	dxbcOpDclStream       = 200
	dxbcOpDclFuncBody     = 201
	dxbcOpDclFuncTable    = 202
	dxbcOpDclInterface    = 203
	dxbcOpDclInputCP      = 204
	dxbcOpDclOutputCP     = 205
	dxbcOpDclTessDomain   = 206
	dxbcOpDclTessPart     = 207
	dxbcOpDclTessOutPrim  = 208
	dxbcOpHSControlPhase  = 209
	dxbcOpHSForkPhaseInst = 210
	dxbcOpDclTessFactor   = 211
	dxbcOpDclHSMaxTessFac = 212
	dxbcOpDclHSForkPhInst = 213
	dxbcOpDclHSJoinPhInst = 214
	dxbcOpDclThreadGrp    = 215
	dxbcOpDclUAVTyped     = 216
	dxbcOpDclUAVRaw       = 217
	dxbcOpDclUAVStruct    = 218
	dxbcOpLdUAVTyped      = 219
	dxbcOpStoreUAVTyped   = 220
	dxbcOpLdRaw           = 221
	dxbcOpStoreRaw        = 222
	dxbcOpLdStructured    = 223
	dxbcOpStoreStructured = 224
	dxbcOpAtomicImmExch   = 225
	dxbcOpLdUAVTypedMS    = 226
	dxbcOpSampleGather4C  = 227
	dxbcOpSampleGather4PO = 228
	dxbcOpLdFeedback      = 229
	dxbcOpLdStructFeedback = 230
	dxbcOpLdRawFeedback   = 231
	dxbcOpLdUAVTypedFB    = 232
	dxbcOpSampleLFeedback = 233
	dxbcOpSampleCLzFeedb  = 234
	dxbcOpSampleClampFB   = 235
	dxbcOpSampleBClampFB  = 236
	dxbcOpSampleDClampFB  = 237
	dxbcOpSampleCClampFB  = 238
	dxbcOpCheckAccessFull = 239
	dxbcOpMsad            = 240
)

// opcodeTable maps a subset of the raw DXBC opcode space this converter
// implements onto shader.Opcode. Opcodes outside the table surface as
// errs.Unsupported at decode time rather than panicking deep inside a
// later pass.
var opcodeTable = map[uint32]shader.Opcode{
	dxbcOpAdd:             shader.OpAdd,
	dxbcOpIAdd:            shader.OpIAdd,
	dxbcOpMul:             shader.OpMul,
	dxbcOpIMul:            shader.OpIMul,
	dxbcOpMad:             shader.OpMad,
	dxbcOpDiv:             shader.OpDiv,
	dxbcOpDp2:             shader.OpDp2,
	dxbcOpDp3:             shader.OpDp3,
	dxbcOpDp4:             shader.OpDp4,
	dxbcOpMin:             shader.OpMin,
	dxbcOpMax:             shader.OpMax,
	dxbcOpIMin:            shader.OpIMin,
	dxbcOpIMax:            shader.OpIMax,
	dxbcOpUMin:            shader.OpUMin,
	dxbcOpUMax:            shader.OpUMax,
	dxbcOpAnd:             shader.OpAnd,
	dxbcOpOr:              shader.OpOr,
	dxbcOpXor:             shader.OpXor,
	dxbcOpNot:             shader.OpNot,
	dxbcOpIShl:            shader.OpIShl,
	dxbcOpIShr:            shader.OpIShr,
	dxbcOpUShr:            shader.OpUShr,
	dxbcOpItoF:            shader.OpItoF,
	dxbcOpUtoF:            shader.OpUtoF,
	dxbcOpFtoI:            shader.OpFtoI,
	dxbcOpFtoU:            shader.OpFtoU,
	dxbcOpSqrt:            shader.OpSqrt,
	dxbcOpRsq:             shader.OpRsq,
	dxbcOpExp:             shader.OpExp,
	dxbcOpLog:             shader.OpLog,
	dxbcOpSinCos:          shader.OpSinCos,
	dxbcOpFrc:             shader.OpFrc,
	dxbcOpRoundNe:         shader.OpRound,
	dxbcOpRoundNi:         shader.OpRound,
	dxbcOpRoundPi:         shader.OpRound,
	dxbcOpRoundZ:          shader.OpRound,
	dxbcOpMov:             shader.OpMov,
	dxbcOpMovc:            shader.OpMovc,
	dxbcOpSample:          shader.OpSampleOp,
	dxbcOpSampleC:         shader.OpSampleCOp,
	dxbcOpSampleCLz:       shader.OpSampleCOp,
	dxbcOpSampleL:         shader.OpSampleLOp,
	dxbcOpSampleB:         shader.OpSampleBOp,
	dxbcOpSampleD:         shader.OpSampleGOp,
	dxbcOpGather4:         shader.OpGather4Op,
	dxbcOpLd:              shader.OpLoadOp,
	dxbcOpLdUAVTyped:      shader.OpLoadUAVTypedOp,
	dxbcOpStoreUAVTyped:   shader.OpStoreUAVTypedOp,
	dxbcOpAtomicIAdd:      shader.OpAtomicOp,
	dxbcOpAtomicAnd:       shader.OpAtomicOp,
	dxbcOpAtomicOr:        shader.OpAtomicOp,
	dxbcOpAtomicXor:       shader.OpAtomicOp,
	dxbcOpAtomicIMax:      shader.OpAtomicOp,
	dxbcOpAtomicIMin:      shader.OpAtomicOp,
	dxbcOpAtomicUMax:      shader.OpAtomicOp,
	dxbcOpAtomicUMin:      shader.OpAtomicOp,
	dxbcOpAtomicCmpStore:  shader.OpAtomicOp,
	dxbcOpImmAtomicIAdd:   shader.OpImmAtomicOp,
	dxbcOpImmAtomicAnd:    shader.OpImmAtomicOp,
	dxbcOpImmAtomicOr:     shader.OpImmAtomicOp,
	dxbcOpImmAtomicXor:    shader.OpImmAtomicOp,
	dxbcOpImmAtomicExch:   shader.OpImmAtomicOp,
	dxbcOpImmAtomicCmpExch: shader.OpImmAtomicOp,
	dxbcOpImmAtomicIMax:   shader.OpImmAtomicOp,
	dxbcOpImmAtomicIMin:   shader.OpImmAtomicOp,
	dxbcOpImmAtomicUMax:   shader.OpImmAtomicOp,
	dxbcOpImmAtomicUMin:   shader.OpImmAtomicOp,
	dxbcOpDiscard:         shader.OpDiscard,
	dxbcOpRet:             shader.OpRet,
	dxbcOpRetc:            shader.OpRetC,
	dxbcOpIf:              shader.OpIf,
	dxbcOpElse:            shader.OpElse,
	dxbcOpEndIf:           shader.OpEndIf,
	dxbcOpLoop:            shader.OpLoop,
	dxbcOpEndLoop:         shader.OpEndLoop,
	dxbcOpBreak:           shader.OpBreak,
	dxbcOpBreakc:          shader.OpBreakC,
	dxbcOpContinue:        shader.OpContinue,
	dxbcOpContinuec:       shader.OpContinueC,
	dxbcOpSwitch:          shader.OpSwitch,
	dxbcOpCase:            shader.OpCase,
	dxbcOpDefault:         shader.OpDefault,
	dxbcOpEndSwitch:       shader.OpEndSwitch,
	dxbcOpBitCount:        shader.OpCountBits,
	dxbcOpFirstBitLo:      shader.OpFirstBitLo,
	dxbcOpFirstBitHi:      shader.OpFirstBitHi,
	dxbcOpFirstBitSHi:     shader.OpFirstBitSHi,
	dxbcOpBfi:             shader.OpBfi,
	dxbcOpUBfe:            shader.OpUBfe,
	dxbcOpIBfe:            shader.OpIBfe,
	dxbcOpSync:            shader.OpSync,
	dxbcOpDclTemps:        shader.OpDclTemps,
	dxbcOpDclInput:        shader.OpDclInput,
	dxbcOpDclInputSGV:     shader.OpDclInput,
	dxbcOpDclInputSIV:     shader.OpDclInput,
	dxbcOpDclInputPS:      shader.OpDclInput,
	dxbcOpDclInputPSSGV:   shader.OpDclInput,
	dxbcOpDclInputPSSIV:   shader.OpDclInput,
	dxbcOpDclOutput:       shader.OpDclOutput,
	dxbcOpDclOutputSGV:    shader.OpDclOutput,
	dxbcOpDclOutputSIV:    shader.OpDclOutput,
	dxbcOpDclResource:     shader.OpDclResource,
	dxbcOpDclConstantBuf:  shader.OpDclConstantBuffer,
	dxbcOpDclSampler:      shader.OpDclSampler,
	dxbcOpDclUAVTyped:     shader.OpDclUAV,
	dxbcOpDclUAVRaw:       shader.OpDclUAV,
	dxbcOpDclUAVStruct:    shader.OpDclUAV,
	dxbcOpDclTGSMRaw:      shader.OpDclTGSM,
	dxbcOpDclTGSMStruct:   shader.OpDclTGSM,
	dxbcOpDclIndexableTmp: shader.OpDclIndexableTemp,
	dxbcOpLabel:           shader.OpLabel,
	dxbcOpCall:            shader.OpCall,
	dxbcOpCallc:           shader.OpCallC,
	dxbcOpNop:             shader.OpNop,
	dxbcOpSwapC:           shader.OpSwapC,

	dxbcOpDclGlobalFlags:  shader.OpDclGlobalFlags,
	dxbcOpDclOutputTopo:   shader.OpDclOutputTopology,
	dxbcOpDclInputPrim:    shader.OpDclInputPrimitive,
	dxbcOpDclMaxOutVert:   shader.OpDclMaxOutputVertexCount,
	dxbcOpDclGSInstances:  shader.OpDclGSInstanceCount,
	dxbcOpDclStream:       shader.OpDclStream,
	dxbcOpDclInputCP:      shader.OpDclInputControlPointCount,
	dxbcOpDclOutputCP:     shader.OpDclOutputControlPointCount,
	dxbcOpDclTessDomain:   shader.OpDclTessDomain,
	dxbcOpDclTessPart:     shader.OpDclTessPartitioning,
	dxbcOpDclTessOutPrim:  shader.OpDclTessOutputPrimitive,
	dxbcOpDclHSMaxTessFac: shader.OpDclHSMaxTessFactor,
	dxbcOpDclThreadGrp:    shader.OpDclThreadGroup,
	dxbcOpHSDeclGlobals:   shader.OpHSDeclGlobals,
	// Fork/join-phase instance count declarations share GS instance
	// count's shape (a single IntValue payload word); all map to the same
	// generic Opcode tag.
	dxbcOpHSForkPhaseInst: shader.OpDclGSInstanceCount,
	dxbcOpDclHSForkPhInst: shader.OpDclGSInstanceCount,
	dxbcOpDclHSJoinPhInst: shader.OpDclGSInstanceCount,
}

func lookupOpcode(raw uint32) (shader.Opcode, bool) {
	op, ok := opcodeTable[raw]
	return op, ok
}
