package metallib

import (
	"bytes"
	"encoding/binary"

	"github.com/mtlshade/dxair/codegen"
)

// functionType is the metallib TYPE tag's single-byte payload (spec's
// Supplemented Feature #1).
type functionType uint8

const (
	functionTypeVertex   functionType = 0
	functionTypeFragment functionType = 1
	functionTypeKernel   functionType = 2
	functionTypeMesh     functionType = 7
	functionTypeObject   functionType = 8
)

func functionTypeForStage(tag string) (functionType, bool) {
	switch tag {
	case "air.vertex":
		return functionTypeVertex, true
	case "air.fragment":
		return functionTypeFragment, true
	case "air.kernel":
		return functionTypeKernel, true
	case "air.object":
		return functionTypeObject, true
	case "air.mesh":
		return functionTypeMesh, true
	default:
		return 0, false
	}
}

// stageOrder fixes the order function records are grouped into the
// function list: vertex, fragment, kernel, object, mesh, matching the
// original writer's per-stream loop order.
var stageOrder = []string{"air.vertex", "air.fragment", "air.kernel", "air.object", "air.mesh"}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// writeNameTag appends a `NAME` tag: a uint16 length (including the
// trailing NUL) followed by the NUL-terminated function name.
func writeNameTag(buf *bytes.Buffer, name string) {
	buf.WriteString("NAME")
	buf.Write(u16(uint16(len(name) + 1)))
	buf.WriteString(name)
	buf.WriteByte(0)
}

func writeTypeTag(buf *bytes.Buffer, t functionType) {
	buf.WriteString("TYPE")
	buf.Write(u16(1))
	buf.WriteByte(byte(t))
}

func writeHashTag(buf *bytes.Buffer, hash [32]byte) {
	buf.WriteString("HASH")
	buf.Write(u16(0x20))
	buf.Write(hash[:])
}

func writeMDSZTag(buf *bytes.Buffer, bitcodeSize uint64) {
	buf.WriteString("MDSZ")
	buf.Write(u16(0x08))
	buf.Write(u64(bitcodeSize))
}

func writeOffsetTag(buf *bytes.Buffer, publicOffset, privateOffset, bitcodeOffset uint64) {
	buf.WriteString("OFFT")
	buf.Write(u16(0x18))
	buf.Write(u64(publicOffset))
	buf.Write(u64(privateOffset))
	buf.Write(u64(bitcodeOffset))
}

// airVersionMajor/Minor and languageVersionMajor/Minor are the VERS tag's
// fixed payload: the metallib VERS tag never reflects a stage_args
// language-version request, only the module's own air.language_version
// metadata does (spec's Supplemented Feature #1).
const (
	airVersionMajor      = 2
	airVersionMinor      = 6
	languageVersionMajor = 3
	languageVersionMinor = 1
)

func writeVersionTag(buf *bytes.Buffer) {
	buf.WriteString("VERS")
	buf.Write(u16(0x08))
	buf.Write(u16(airVersionMajor))
	buf.Write(u16(airVersionMinor))
	buf.Write(u16(languageVersionMajor))
	buf.Write(u16(languageVersionMinor))
}

func patchTypeCode(topology string) uint8 {
	if topology == "triangle" {
		return 1
	}
	return 2
}

func writeTessTag(buf *bytes.Buffer, topology string, controlPoints int) {
	buf.WriteString("TESS")
	buf.Write(u16(1))
	packed := (patchTypeCode(topology) & 0x3) | (uint8(controlPoints&0x3F) << 2)
	buf.WriteByte(packed)
}

func writeEndTag(buf *bytes.Buffer) {
	buf.WriteString("ENDT")
}

// vertexAttributeTypeCode maps an AIR vector type name to the VATY tag's
// one-byte type code. Only float4 and uint4 are distinguished; every other
// shape falls back to the generic code the original writer uses, noted
// there as an open generalization (spec's Supplemented Feature #2).
func vertexAttributeTypeCode(typeName string) uint8 {
	switch typeName {
	case "float4":
		return 0x06
	case "uint4":
		return 0x24
	default:
		return 0x20
	}
}

// writeVertexAttributes appends the VATT/VATY tag pair for a vertex
// function's attribute inputs, or nothing at all if attrs is empty
// (spec's Supplemented Feature #2: an empty pair breaks PSO compilation).
func writeVertexAttributes(buf *bytes.Buffer, attrs []codegen.VertexAttribute) {
	if len(attrs) == 0 {
		return
	}

	buf.WriteString("VATT")
	lenOffset := buf.Len()
	buf.Write(u16(0)) // backpatched below
	buf.Write(u16(uint16(len(attrs))))
	for _, a := range attrs {
		buf.WriteString(a.Name)
		buf.WriteByte(0)
		buf.WriteByte(byte(a.Location))
		buf.WriteByte(0x80) // unused:5=0, usage:2=0, active:1=1
	}
	written := buf.Len() - lenOffset
	patchU16(buf, lenOffset, uint16(written-2))

	buf.WriteString("VATY")
	buf.Write(u16(uint16(2 + len(attrs))))
	buf.Write(u16(uint16(len(attrs))))
	for _, a := range attrs {
		buf.WriteByte(vertexAttributeTypeCode(a.TypeName))
	}
}

// patchU16 overwrites the two bytes at offset off in buf's already-written
// content with v, little-endian, for backpatching a length field that
// isn't known until after the bytes following it have been written.
func patchU16(buf *bytes.Buffer, off int, v uint16) {
	b := buf.Bytes()
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}
