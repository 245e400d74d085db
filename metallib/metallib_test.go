package metallib

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mtlshade/dxair/binding"
	"github.com/mtlshade/dxair/codegen"
	"github.com/stretchr/testify/require"
)

func buildSimpleModule(t *testing.T) *codegen.Module {
	t.Helper()
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)

	vs := m.NewFunction("vs_main", m.Types.Vector(m.Types.Float, 4))
	vs.Build(func(b *codegen.Builder, entry *codegen.BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(b.Undef(m.Types.Vector(m.Types.Float, 4)))
	})
	binding.AttachFunctionMetadata(m, binding.StageVertex, vs, nil, nil, nil)
	vs.SetVertexAttributes([]codegen.VertexAttribute{
		{Location: 0, Name: "position", TypeName: "float4"},
	})

	fs := m.NewFunction("fs_main", m.Types.Vector(m.Types.Float, 4))
	fs.Build(func(b *codegen.Builder, entry *codegen.BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(b.Undef(m.Types.Vector(m.Types.Float, 4)))
	})
	binding.AttachFunctionMetadata(m, binding.StageFragment, fs, nil, nil, nil)

	return m
}

func TestWriteHeaderLayout(t *testing.T) {
	m := buildSimpleModule(t)

	out, err := Write(m)
	require.NoError(t, err)
	require.Greater(t, len(out), int(binary.Size(header{})))

	require.Equal(t, []byte("MTLB"), out[0:4])

	var h header
	require.NoError(t, binary.Read(bytes.NewReader(out), binary.LittleEndian, &h))
	require.Equal(t, uint32(magic), h.Magic)
	require.Equal(t, uint16(metallibVersionMajor), h.VersionMajor)
	require.Equal(t, uint16(metallibVersionMinor), h.VersionMinor)
	require.Equal(t, uint64(len(out)), h.FileSize)
	require.Equal(t, uint64(binary.Size(header{})), h.FunctionListOffset)

	fnCountOffset := h.FunctionListOffset
	fnCount := binary.LittleEndian.Uint32(out[fnCountOffset : fnCountOffset+4])
	require.Equal(t, uint32(2), fnCount)

	bitcodeEnd := h.BitcodeOffset + h.BitcodeSize
	require.Equal(t, uint64(len(out)), bitcodeEnd)
}

func TestWriteOmitsVertexAttributesWhenEmpty(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	fn := m.NewFunction("fs_main", m.Types.Void)
	fn.Build(func(b *codegen.Builder, entry *codegen.BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(nil)
	})
	binding.AttachFunctionMetadata(m, binding.StageFragment, fn, nil, nil, nil)

	out, err := Write(m)
	require.NoError(t, err)

	var h header
	require.NoError(t, binary.Read(bytes.NewReader(out), binary.LittleEndian, &h))
	fnPublicLen := binary.LittleEndian.Uint32(out[h.PublicMetadataOffset : h.PublicMetadataOffset+4])
	require.Equal(t, uint32(4), fnPublicLen) // just "ENDT"
}

func TestWriteAttachesTessTagForPatchFunctions(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	fn := m.NewFunction("ms_main", m.Types.Void)
	fn.Build(func(b *codegen.Builder, entry *codegen.BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(nil)
	})
	patch := &binding.PatchInfo{Topology: binding.PatchQuad, ControlPointCount: 4}
	binding.AttachFunctionMetadata(m, binding.StageMesh, fn, nil, nil, patch)

	out, err := Write(m)
	require.NoError(t, err)
	require.Contains(t, string(out), "TESS")
}

func TestIgnoresFunctionsWithNoStageTag(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	fn := m.NewFunction("helper", m.Types.Void)
	fn.Build(func(b *codegen.Builder, entry *codegen.BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(nil)
	})

	out, err := Write(m)
	require.NoError(t, err)

	var h header
	require.NoError(t, binary.Read(bytes.NewReader(out), binary.LittleEndian, &h))
	fnCount := binary.LittleEndian.Uint32(out[h.FunctionListOffset : h.FunctionListOffset+4])
	require.Equal(t, uint32(0), fnCount)
}
