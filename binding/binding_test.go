package binding

import (
	"fmt"
	"testing"

	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
	"github.com/stretchr/testify/require"
)

func TestKeySlotRule(t *testing.T) {
	require.Equal(t, 32, Key{Group: GroupConstantBuffer, Register: 0}.Slot())
	require.Equal(t, 35, Key{Group: GroupConstantBuffer, Register: 3}.Slot())
	require.Equal(t, 2, Key{Group: GroupSampler, Register: 2}.Slot())
	require.Equal(t, 64, Key{Group: GroupUAV, Register: 0}.Slot())
	require.Equal(t, 71, Key{Group: GroupUAV, Register: 7}.Slot())
	require.Equal(t, 128, Key{Group: GroupTexture, Register: 0}.Slot())
	require.Equal(t, 133, Key{Group: GroupTexture, Register: 5}.Slot())
}

func TestCounterSlot(t *testing.T) {
	k := Key{Group: GroupUAV, Register: 1}
	require.Equal(t, k.Slot()+192, CounterSlot(k))
}

func TestBuildInputTupleIncludesOptionalFields(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	in := Input{
		Slot: 0,
		Kind: "air.attribute",
		Name: "position",
		Type: m.Types.Vector(m.Types.Float, 4),
		SemanticKeys: []codegen.MDValue{
			codegen.MDString("air.attribute_index"), codegen.MDInt(0),
		},
		ArraySize:     2,
		HasAddressSpace: true,
		AddressSpace:  air.AddressSpaceDevice,
	}
	tuple := BuildInputTuple(in)
	require.NotEmpty(t, tuple)

	joined := ""
	for _, v := range tuple {
		joined += v.String() + "|"
	}
	require.Contains(t, joined, "air.attribute")
	require.Contains(t, joined, "air.arg_type_size")
	require.Contains(t, joined, "air.array_size")
	require.Contains(t, joined, "air.address_space")
}

func TestBuildOutputTuple(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	out := Output{Kind: "air.position", Name: "out_position", Type: m.Types.Vector(m.Types.Float, 4)}
	tuple := BuildOutputTuple(out)
	require.Equal(t, "air.position", mustString(tuple[0]))
}

func TestBuildArgumentBufferOrdersBySlotDeterministically(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	reg := air.NewRegistry(m)

	members := []ArgumentMember{
		{Key: Key{Group: GroupTexture, Register: 0}, Name: "tex0", Type: reg.TextureHandleType(air.Texture2D)},
		{Key: Key{Group: GroupConstantBuffer, Register: 0}, Name: "cb0", Type: m.Types.Pointer(m.Types.Uint8, air.AddressSpaceConstant)},
		{Key: Key{Group: GroupSampler, Register: 0}, Name: "samp0", Type: reg.SamplerHandleType()},
		{Key: Key{Group: GroupUAV, Register: 0}, Name: "uav0", Type: m.Types.Pointer(m.Types.Uint32, air.AddressSpaceDevice), Counter: true},
	}

	st, tuples := BuildArgumentBuffer(m, "struct.Resources", members)
	require.Equal(t, "struct.Resources", st.TypeName())
	// sampler (slot 0), cb (slot 32), uav (slot 64) + its counter (slot 256), texture (slot 128)
	require.Len(t, tuples, 5)
	require.Equal(t, int64(0), mustInt(t, tuples[0][0]))
	require.Equal(t, int64(32), mustInt(t, tuples[1][0]))
	require.Equal(t, int64(64), mustInt(t, tuples[2][0]))
	require.Equal(t, int64(256), mustInt(t, tuples[3][0]))
	require.Equal(t, int64(128), mustInt(t, tuples[4][0]))
}

func TestAttachFunctionMetadataRecordsTuple(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	fn := m.NewFunction("vs_main", m.Types.Vector(m.Types.Float, 4))
	fn.Build(func(b *codegen.Builder, entry *codegen.BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(b.Float(m.Types.Float, 0))
	})

	outputs := [][]codegen.MDValue{BuildOutputTuple(Output{Kind: "air.position", Name: "pos", Type: m.Types.Vector(m.Types.Float, 4)})}
	inputs := [][]codegen.MDValue{BuildInputTuple(Input{Slot: 0, Kind: "air.attribute", Name: "pos", Type: m.Types.Vector(m.Types.Float, 4)})}

	AttachFunctionMetadata(m, StageVertex, fn, outputs, inputs, nil)

	tuples := m.NamedMetadataTuples("air.vertex")
	require.Len(t, tuples, 1)
	require.Len(t, tuples[0], 3)
}

func TestAttachFunctionMetadataWithPatchTuple(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	fn := m.NewFunction("obj_main", m.Types.Void)
	fn.Build(func(b *codegen.Builder, entry *codegen.BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(nil)
	})

	patch := &PatchInfo{Topology: PatchTriangle, ControlPointCount: 3}
	AttachFunctionMetadata(m, StageObject, fn, nil, nil, patch)

	tuples := m.NamedMetadataTuples("air.object")
	require.Len(t, tuples, 1)
	require.Len(t, tuples[0], 4)
}

func TestPlanResourcesCoversAllGroups(t *testing.T) {
	m := codegen.NewModule("t.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	reg := air.NewRegistry(m)

	refl := shader.Reflection{
		ConstantBuffers: []shader.ConstantBuffer{{Name: "Globals", Register: 0, SizeBytes: 64}},
		Samplers:        []shader.Sampler{{Name: "gSampler", Register: 0}},
		Textures:        []shader.Texture{{Name: "gTexture", Register: 0, Dimension: int(air.Texture2D)}},
		UAVs: []shader.UAV{
			{Name: "gCounter", Register: 0, Structured: true, StructStride: 16, HasCounter: true},
			{Name: "gImage", Register: 1, Dimension: int(air.Texture2D)},
		},
	}

	members := PlanResources(m, reg, refl)
	require.Len(t, members, 4)

	byName := map[string]ArgumentMember{}
	for _, mem := range members {
		byName[mem.Name] = mem
	}
	require.Equal(t, GroupConstantBuffer, byName["Globals"].Key.Group)
	require.Equal(t, GroupSampler, byName["gSampler"].Key.Group)
	require.Equal(t, GroupTexture, byName["gTexture"].Key.Group)
	require.True(t, byName["gCounter"].Counter)
	require.True(t, byName["gImage"].Type.IsPointer())
}

func mustString(v codegen.MDValue) string {
	s := v.String()
	// MDString renders as `!"text"`; strip the leading marker and quotes.
	var out string
	if _, err := fmt.Sscanf(s, "!%q", &out); err == nil {
		return out
	}
	return s
}

func mustInt(t *testing.T, v codegen.MDValue) int64 {
	var i int64
	_, err := fmt.Sscanf(v.String(), "i32 %d", &i)
	require.NoError(t, err)
	return i
}
