package dxbc

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
	"github.com/stretchr/testify/require"
)

// buildContainer assembles a minimal DXBC container from raw chunk
// payloads, computing the offset table the real decoder expects.
func buildContainer(t *testing.T, chunks map[FourCC][]byte) []byte {
	t.Helper()

	order := make([]FourCC, 0, len(chunks))
	for tag := range chunks {
		order = append(order, tag)
	}

	headerSize := containerHeaderSize + len(order)*4
	body := make([]byte, 0, 256)
	offsets := make([]uint32, len(order))

	for i, tag := range order {
		offsets[i] = uint32(headerSize + len(body))
		var sizeBuf [4]byte
		binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(chunks[tag])))
		body = append(body, tag[:]...)
		body = append(body, sizeBuf[:]...)
		body = append(body, chunks[tag]...)
	}

	out := make([]byte, headerSize)
	copy(out[0:4], tagDXBC[:])
	binary.LittleEndian.PutUint32(out[20:24], 1)
	binary.LittleEndian.PutUint32(out[24:28], uint32(headerSize+len(body)))
	binary.LittleEndian.PutUint32(out[28:32], uint32(len(order)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(out[containerHeaderSize+i*4:], off)
	}
	out = append(out, body...)
	return out
}

func u32le(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

// buildSHEX constructs a version token + length word + a flattened word
// stream for a tiny program: dcl_temps 1 ; mov r0.xyzw, l(1,2,3,4) ; ret.
func buildSHEX() []byte {
	var words []uint32

	// program type 0 (pixel) in bits 16-31, major 5 in bits 4-7, minor 0 in bits 0-3.
	words = append(words, (0<<16)|(5<<4)|0)
	lengthPos := len(words)
	words = append(words, 0) // placeholder for total dword length

	// dcl_temps 1
	words = append(words, encodeOpcodeToken(dxbcOpDclTemps, 2, false, false))
	words = append(words, 1)

	// mov r0.xyzw, l(1,2,3,4)
	destTok := (uint32(compSelMask) << 2) | (0xf << 4) | (0 << 12) | (1 << 20)
	srcTok := (uint32(compSelSwiz) << 2) | (0 << 4) | (1 << 6) | (2 << 8) | (3 << 10) | (4 << 12) | (0 << 20)
	instrLen := uint32(1 /*opcode*/ + 2 /*dest token + reg index*/ + 1 /*src token*/ + 4 /*imm32 payload*/)
	words = append(words, encodeOpcodeToken(dxbcOpMov, instrLen, false, false))
	words = append(words, destTok, 0)
	words = append(words, srcTok, 1, 2, 3, 4)

	// ret
	words = append(words, encodeOpcodeToken(dxbcOpRet, 1, false, false))

	words[lengthPos] = uint32(len(words))

	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		buf = append(buf, u32le(w)...)
	}
	return buf
}

func encodeOpcodeToken(opcode uint32, length int, extended, saturate bool) uint32 {
	tok := opcode & 0x7ff
	tok |= uint32(length&0x7f) << 24
	if extended {
		tok |= 1 << 31
	}
	if saturate {
		tok |= 1 << 13
	}
	return tok
}

func TestDecodeMinimalPixelShader(t *testing.T) {
	data := buildContainer(t, map[FourCC][]byte{tagSHEX: buildSHEX()})

	sh, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, shader.StagePixel, sh.Stage)
	require.Equal(t, 5, sh.MajorVersion)

	main := sh.MainPhase()
	require.Len(t, main.Declarations, 1)
	require.Equal(t, shader.OpDclTemps, main.Declarations[0].Op)
	require.Equal(t, 1, main.Declarations[0].NumTemps)

	require.Len(t, main.Instructions, 2)
	require.Equal(t, shader.OpMov, main.Instructions[0].Op)
	require.Equal(t, shader.OpRet, main.Instructions[1].Op)

	movOperands := main.Instructions[0].Operands
	require.Len(t, movOperands, 2)
	require.Equal(t, shader.OperandTemp, movOperands[0].Kind)
	require.Equal(t, uint8(0xf), movOperands[0].WriteMask)
	require.Equal(t, shader.OperandImmediate32, movOperands[1].Kind)
	require.Equal(t, [4]uint32{1, 2, 3, 4}, movOperands[1].Imm32)
}

func TestDecodeRejectsBadTag(t *testing.T) {
	data := make([]byte, containerHeaderSize)
	copy(data[0:4], "BOGU")
	_, err := Decode(data)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.Malformed))
}

func TestDecodeRejectsMissingSHEXChunk(t *testing.T) {
	data := buildContainer(t, map[FourCC][]byte{tagRDEF: make([]byte, 24)})
	_, err := Decode(data)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.Malformed))
}

func TestDecodeRDEFAndSignatures(t *testing.T) {
	const headerSize = 24
	const stringTableOffset = headerSize + bindRowSize // 64
	nameOff := stringTableOffset + 1                    // leave a leading NUL at index 0

	bindRow := make([]byte, bindRowSize)
	binary.LittleEndian.PutUint32(bindRow[0:4], uint32(nameOff))
	binary.LittleEndian.PutUint32(bindRow[4:8], rdefInputSampler)
	binary.LittleEndian.PutUint32(bindRow[20:24], 3) // bind point (register)
	binary.LittleEndian.PutUint32(bindRow[24:28], 1) // bind count

	rdef := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(rdef[0:4], 0)            // cbCount
	binary.LittleEndian.PutUint32(rdef[4:8], headerSize)   // cbOffset (unused, 0 count)
	binary.LittleEndian.PutUint32(rdef[8:12], 1)           // bindCount
	binary.LittleEndian.PutUint32(rdef[12:16], headerSize) // bindOffset
	rdef = append(rdef, bindRow...)
	rdef = append(rdef, byte(0))
	rdef = append(rdef, []byte("gSampler\x00")...)

	data := buildContainer(t, map[FourCC][]byte{
		tagSHEX: buildSHEX(),
		tagRDEF: rdef,
	})

	sh, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, sh.Reflection.Samplers, 1)
	require.Equal(t, "gSampler", sh.Reflection.Samplers[0].Name)
	require.Equal(t, 3, sh.Reflection.Samplers[0].Register)
}

// buildThreadGroupSHEX constructs a minimal compute-shader program:
// dcl_thread_group 4, 4, 1 ; ret. Exercises decodeDeclaration's
// dxbcOpDclThreadGrp payload capture.
func buildThreadGroupSHEX() []byte {
	var words []uint32
	words = append(words, (5<<16)|(5<<4)|0) // program type 5 (compute)
	lengthPos := len(words)
	words = append(words, 0)

	words = append(words, encodeOpcodeToken(dxbcOpDclThreadGrp, 4, false, false))
	words = append(words, 4, 4, 1)

	words = append(words, encodeOpcodeToken(dxbcOpRet, 1, false, false))

	words[lengthPos] = uint32(len(words))
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		buf = append(buf, u32le(w)...)
	}
	return buf
}

func TestDecodeThreadGroupDeclaration(t *testing.T) {
	data := buildContainer(t, map[FourCC][]byte{tagSHEX: buildThreadGroupSHEX()})

	sh, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, shader.StageCompute, sh.Stage)

	main := sh.MainPhase()
	require.Len(t, main.Declarations, 1)
	require.Equal(t, shader.OpDclThreadGroup, main.Declarations[0].Op)
	require.Equal(t, [3]int{4, 4, 1}, main.Declarations[0].UInt3Value)
}

// buildHullTessDeclSHEX constructs a hull-shader global-decl phase
// declaring tess domain=quad, partitioning=fractional_even, output
// control-point count=4, and max tess factor 64.0, exercising the
// opcode-token extended-bits decode path.
func buildHullTessDeclSHEX() []byte {
	var words []uint32
	words = append(words, (3<<16)|(5<<4)|0) // program type 3 (hull)
	lengthPos := len(words)
	words = append(words, 0)

	domainTok := encodeOpcodeToken(dxbcOpDclTessDomain, 1, false, false) | (3 << 11) // quad
	words = append(words, domainTok)

	partTok := encodeOpcodeToken(dxbcOpDclTessPart, 1, false, false) | (4 << 11) // fractional_even
	words = append(words, partTok)

	outCPTok := encodeOpcodeToken(dxbcOpDclOutputCP, 1, false, false) | (4 << 11)
	words = append(words, outCPTok)

	words = append(words, encodeOpcodeToken(dxbcOpDclHSMaxTessFac, 2, false, false))
	words = append(words, math.Float32bits(64.0))

	words = append(words, encodeOpcodeToken(dxbcOpRet, 1, false, false))

	words[lengthPos] = uint32(len(words))
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		buf = append(buf, u32le(w)...)
	}
	return buf
}

func TestDecodeHullTessellationDeclarations(t *testing.T) {
	data := buildContainer(t, map[FourCC][]byte{tagSHEX: buildHullTessDeclSHEX()})

	sh, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, shader.StageHull, sh.Stage)

	global := sh.Phases[0]
	require.Equal(t, "global", global.Name)
	require.Len(t, global.Declarations, 4)
	require.Equal(t, shader.OpDclTessDomain, global.Declarations[0].Op)
	require.Equal(t, 3, global.Declarations[0].IntValue)
	require.Equal(t, shader.OpDclTessPartitioning, global.Declarations[1].Op)
	require.Equal(t, 4, global.Declarations[1].IntValue)
	require.Equal(t, shader.OpDclOutputControlPointCount, global.Declarations[2].Op)
	require.Equal(t, 4, global.Declarations[2].IntValue)
	require.Equal(t, shader.OpDclHSMaxTessFactor, global.Declarations[3].Op)
	require.InDelta(t, float32(64.0), global.Declarations[3].FloatValue, 0.0001)
}
