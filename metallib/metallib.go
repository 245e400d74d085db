// Package metallib is C11: the metallib v2.7 container writer. It takes a
// finished codegen.Module — every stage/object/mesh function already
// declared, defined and attached to its air.vertex/air.fragment/air.kernel/
// air.object/air.mesh named-metadata stream by binding.AttachFunctionMetadata
// — and serializes it to the function-list/public-metadata/private-metadata/
// bitcode byte layout Metal's loader expects (spec §5).
package metallib

import (
	"bytes"
	"encoding/binary"

	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/errs"
)

// header mirrors MTLBHeader's packed field order exactly; binary.Write
// marshals a struct's fields in declaration order with no inserted padding,
// so this type doubles as the wire format (spec's Supplemented Feature #1).
type header struct {
	Magic                 uint32
	Platform              uint16
	VersionMajor          uint16
	VersionMinor          uint16
	Type                  uint8
	OS                    uint8
	OSVersionMajor        uint16
	OSVersionMinor        uint16
	FileSize              uint64
	FunctionListOffset    uint64
	FunctionListSize      uint64
	PublicMetadataOffset  uint64
	PublicMetadataSize    uint64
	PrivateMetadataOffset uint64
	PrivateMetadataSize   uint64
	BitcodeOffset         uint64
	BitcodeSize           uint64
}

const (
	magic = 0x42_4C_54_4D // "MTLB" read little-endian as a uint32: 'M','T','L','B'

	platformMacOS = 0x8001
	fileTypeExec  = 0x00
	osMacOS       = 0x81

	metallibVersionMajor = 2
	metallibVersionMinor = 7
	osVersionMajor       = 14
	osVersionMinor       = 4
)

// Write serializes m to the metallib v2.7 binary format. The module must
// already have every entry-point function attached to its stage's
// named-metadata stream; functions with no stage tag are ignored (spec §5).
func Write(m *codegen.Module) ([]byte, error) {
	bitcode := m.Bitcode()
	hash := codegen.BitcodeDigest(bitcode)

	functionDef, publicMetadata, privateMetadata, fnCount := buildFunctionRecords(m, bitcode, hash)

	h := header{
		Magic:          magic,
		Platform:       platformMacOS,
		VersionMajor:   metallibVersionMajor,
		VersionMinor:   metallibVersionMinor,
		Type:           fileTypeExec,
		OS:             osMacOS,
		OSVersionMajor: osVersionMajor,
		OSVersionMinor: osVersionMinor,
	}

	headerSize := uint64(binary.Size(h))
	h.FunctionListOffset = headerSize
	h.FunctionListSize = uint64(functionDef.Len()) + 4
	h.PublicMetadataOffset = h.FunctionListOffset + h.FunctionListSize + 4 + 4
	h.PublicMetadataSize = uint64(publicMetadata.Len())
	h.PrivateMetadataOffset = h.PublicMetadataOffset + h.PublicMetadataSize
	h.PrivateMetadataSize = uint64(privateMetadata.Len())
	h.BitcodeOffset = h.PrivateMetadataOffset + h.PrivateMetadataSize
	h.BitcodeSize = uint64(len(bitcode))
	h.FileSize = headerSize + 4 + 4 + uint64(functionDef.Len()) + 4 + h.PublicMetadataSize + h.PrivateMetadataSize + h.BitcodeSize

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, h); err != nil {
		return nil, errs.Wrap(errs.Writer, err, "metallib: encode header")
	}
	out.Write(u32(fnCount))
	out.Write(u32(uint32(h.FunctionListSize)))
	out.Write(functionDef.Bytes())
	out.WriteString("ENDT")
	out.Write(publicMetadata.Bytes())
	out.Write(privateMetadata.Bytes())
	out.Write(bitcode)

	return out.Bytes(), nil
}

// buildFunctionRecords walks m's functions grouped by stage (vertex,
// fragment, kernel, object, mesh, in that fixed order, each group in the
// order its functions were declared) and emits the three parallel byte
// streams metallib's header ties together by offset: the NAME/TYPE/HASH/
// MDSZ/OFFT/VERS/[TESS]/ENDT function-list record, the per-function
// length-prefixed public-metadata blob (VATT/VATY when present, ENDT
// always), and the fixed 8-byte private-metadata record.
func buildFunctionRecords(m *codegen.Module, bitcode []byte, hash [32]byte) (functionDef, publicMetadata, privateMetadata *bytes.Buffer, fnCount uint32) {
	functionDef = &bytes.Buffer{}
	publicMetadata = &bytes.Buffer{}
	privateMetadata = &bytes.Buffer{}

	byStage := map[string][]*codegen.Function{}
	for _, fn := range m.Funcs() {
		tag := fn.StageTag()
		if tag == "" {
			continue
		}
		byStage[tag] = append(byStage[tag], fn)
	}

	for _, stage := range stageOrder {
		ft, ok := functionTypeForStage(stage)
		if !ok {
			continue
		}
		for _, fn := range byStage[stage] {
			fnCount++
			writeNameTag(functionDef, fn.Name)
			writeTypeTag(functionDef, ft)
			writeHashTag(functionDef, hash)
			writeMDSZTag(functionDef, uint64(len(bitcode)))
			writeOffsetTag(functionDef, uint64(publicMetadata.Len()), uint64(privateMetadata.Len()), 0)
			writeVersionTag(functionDef)
			if topology, controlPoints, ok := fn.PatchInfo(); ok {
				writeTessTag(functionDef, topology, controlPoints)
			}
			writeEndTag(functionDef)

			fnPublic := &bytes.Buffer{}
			writeVertexAttributes(fnPublic, fn.VertexAttributes())
			writeEndTag(fnPublic)
			publicMetadata.Write(u32(uint32(fnPublic.Len())))
			publicMetadata.Write(fnPublic.Bytes())

			privateMetadata.Write(u32(4))
			writeEndTag(privateMetadata)
		}
	}

	return functionDef, publicMetadata, privateMetadata, fnCount
}
