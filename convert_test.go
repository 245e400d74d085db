package dxair

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/mtlshade/dxair/errs"
	"github.com/stretchr/testify/require"
)

// buildMinimalContainer assembles a one-chunk DXBC container (SHEX only)
// around a pre-encoded token stream, the same container shape
// dxbc/decode_test.go's buildContainer helper produces, duplicated here
// since that helper is unexported in package dxbc.
func buildMinimalContainer(shex []byte) []byte {
	const headerSize = 32
	chunkHeaderSize := headerSize + 4 // one chunk offset entry
	body := make([]byte, 0, len(shex)+8)
	body = append(body, 'S', 'H', 'E', 'X')
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(shex)))
	body = append(body, sizeBuf[:]...)
	body = append(body, shex...)

	out := make([]byte, chunkHeaderSize)
	copy(out[0:4], []byte("DXBC"))
	binary.LittleEndian.PutUint32(out[20:24], 1)
	binary.LittleEndian.PutUint32(out[24:28], uint32(chunkHeaderSize+len(body)))
	binary.LittleEndian.PutUint32(out[28:32], 1)
	binary.LittleEndian.PutUint32(out[headerSize:headerSize+4], uint32(chunkHeaderSize))
	out = append(out, body...)
	return out
}

func u32le(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func encodeOpcodeToken(opcode uint32, length int) uint32 {
	tok := opcode & 0x7ff
	tok |= uint32(length&0x7f) << 24
	return tok
}

// buildPixelShaderTokens builds a token stream for: dcl_temps 1 ;
// mov r0.xyzw, l(1,2,3,4) ; ret — a minimal, valid SM5 pixel program,
// the same fixture dxbc/decode_test.go's buildSHEX builds.
func buildPixelShaderTokens() []byte {
	const (
		opDclTemps = 104
		opMov      = 54
		opRet      = 62
	)
	var words []uint32
	words = append(words, (0<<16)|(5<<4)|0) // program type 0 (pixel), sm5.0
	lengthPos := len(words)
	words = append(words, 0)

	words = append(words, encodeOpcodeToken(opDclTemps, 2))
	words = append(words, 1)

	destTok := (uint32(0) << 2) | (0xf << 4) | (0 << 12) | (1 << 20) // compSelMask, .xyzw, temp file, reg 0
	srcTok := (uint32(1) << 2) | (0 << 4) | (1 << 6) | (2 << 8) | (3 << 10) | (4 << 12) // compSelSwiz, .xyzw, immediate32
	instrLen := uint32(1 + 2 + 1 + 4)
	words = append(words, encodeOpcodeToken(opMov, int(instrLen)))
	words = append(words, destTok, 0)
	words = append(words, srcTok, 1, 2, 3, 4)

	words = append(words, encodeOpcodeToken(opRet, 1))

	words[lengthPos] = uint32(len(words))
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		buf = append(buf, u32le(w)...)
	}
	return buf
}

func TestConvertOrdinaryPixelShader(t *testing.T) {
	bytecode := buildMinimalContainer(buildPixelShaderTokens())

	result, err := Convert(context.Background(), bytecode, Options{Name: "ps_main"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Metallib)
	require.Equal(t, []byte("MTLB"), result.Metallib[0:4])
}

func TestConvertRejectsMalformedBytecode(t *testing.T) {
	_, err := Convert(context.Background(), []byte("not a dxbc container"), Options{})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.Malformed))
}

func TestConvertRejectsBareHullShader(t *testing.T) {
	tokens := buildPixelShaderTokens()
	// Rewrite the version word's program-type field (bits 16-31) to 3
	// (hull) without supplying a matching domain bytecode.
	binary.LittleEndian.PutUint32(tokens[0:4], (3<<16)|(5<<4)|0)
	bytecode := buildMinimalContainer(tokens)

	_, err := Convert(context.Background(), bytecode, Options{})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.Unsupported))
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	require.Equal(t, "main", o.name())
	require.Equal(t, "3.1", o.languageVersion())
}

func TestParseLanguageVersion(t *testing.T) {
	major, minor := parseLanguageVersion("3.1")
	require.Equal(t, 3, major)
	require.Equal(t, 1, minor)

	major, minor = parseLanguageVersion("bogus")
	require.Equal(t, 3, major)
	require.Equal(t, 1, minor)
}
