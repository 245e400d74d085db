package air

import (
	"testing"

	"github.com/mtlshade/dxair/codegen"
	"github.com/stretchr/testify/require"
)

func newTestModule(t *testing.T) (*codegen.Module, *Registry) {
	t.Helper()
	m := codegen.NewModule("test.air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
	return m, NewRegistry(m)
}

func TestTypeOverloadSuffixScalarsAndVectors(t *testing.T) {
	m, _ := newTestModule(t)
	require.Equal(t, ".f32", TypeOverloadSuffix(m.Types.Float, SignDontCare))
	require.Equal(t, ".f16", TypeOverloadSuffix(m.Types.Half, SignDontCare))
	require.Equal(t, ".u.i32", TypeOverloadSuffix(m.Types.Uint32, SignUnsigned))
	require.Equal(t, ".s.i32", TypeOverloadSuffix(m.Types.Int32, SignSigned))
	require.Equal(t, ".v4f32", TypeOverloadSuffix(m.Types.Vector(m.Types.Float, 4), SignDontCare))
}

func TestTypeOverloadSuffixPointer(t *testing.T) {
	m, _ := newTestModule(t)
	ptr := m.Types.Pointer(m.Types.Float, AddressSpaceDevice)
	require.Equal(t, ".p1f32", TypeOverloadSuffix(ptr, SignDontCare))
}

func TestFastMathName(t *testing.T) {
	require.Equal(t, "air.fast_fma", FastMathName("air.fma"))
	require.Equal(t, "not-air", FastMathName("not-air"))
}

func TestSampleEmitsDeclarationAndCall(t *testing.T) {
	m, reg := newTestModule(t)
	fn := m.NewFunction("frag0", m.Types.Void)
	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		cb.SetInsertPoint(entry)
		b := NewBuilder(cb, reg)

		tex := Texture{Kind: Texture2D, SampleType: SampleFloat, Access: AccessSample}
		handle := cb.Undef(reg.TextureHandleType(Texture2D))
		sampler := cb.Undef(reg.SamplerHandleType())
		coord := cb.Undef(b.coordType(tex))

		result := b.Sample(tex, handle, sampler, coord, SampleArgs{
			OffsetKnown: false,
			Offset:      cb.Int(m.Types.Vector(m.Types.Int32, 2), 0),
			ArgsControl: false,
			Arg1:        cb.Float(m.Types.Float, 0),
			Arg2:        cb.Float(m.Types.Float, 0),
		})
		require.NotNil(t, result)
		cb.Ret(nil)
	})

	_, ok := m.Func("air.sample_texture_2d.v4f32")
	require.True(t, ok)
	require.NoError(t, m.Verify())
}

func TestSanitizePositionBuilds(t *testing.T) {
	m, reg := newTestModule(t)
	fn := m.NewFunction("mesh0", m.Types.Void)
	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		cb.SetInsertPoint(entry)
		b := NewBuilder(cb, reg)
		pos := cb.Undef(m.Types.Vector(m.Types.Float, 4))
		sanitized := b.SanitizePosition(pos)
		require.NotNil(t, sanitized)
		cb.Ret(nil)
	})
	require.NoError(t, m.Verify())
}

func TestBarrierAndAtomicRMW(t *testing.T) {
	m, reg := newTestModule(t)
	fn := m.NewFunction("kernel0", m.Types.Void)
	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		cb.SetInsertPoint(entry)
		b := NewBuilder(cb, reg)
		b.Barrier(MemThreadgroup)

		ptr := cb.Alloca(m.Types.Int32)
		b.AtomicRMW(NTAtomicAdd, ptr, cb.Int(m.Types.Int32, 1), SignSigned, ScopeThreadgroup)
		cb.Ret(nil)
	})
	require.NoError(t, m.Verify())
	_, ok := m.Func("air.wg.barrier")
	require.True(t, ok)
}
