package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAddFunctionVerifies(t *testing.T) {
	m := NewModule("test.air", AIRTargetTriple, AIRDataLayout)

	fn := m.NewFunction("add", m.Types.Int32,
		Param{Name: "a", Type: m.Types.Int32},
		Param{Name: "b", Type: m.Types.Int32},
	)
	fn.Build(func(b *Builder, entry *BasicBlock) {
		b.SetInsertPoint(entry)
		sum := b.Arith(Add, fn.Param(0), fn.Param(1))
		b.Ret(sum)
	})

	require.NoError(t, m.Verify())

	got, ok := m.Func("add")
	require.True(t, ok)
	require.Equal(t, 2, got.NumParams())
}

func TestVerifyCatchesMissingTerminator(t *testing.T) {
	m := NewModule("broken.air", AIRTargetTriple, AIRDataLayout)
	fn := m.NewFunction("empty", m.Types.Void)
	fn.Build(func(b *Builder, entry *BasicBlock) {
		b.Alloca(m.Types.Int32) // no terminator emitted
	})

	err := m.Verify()
	require.Error(t, err)
}

func TestVectorAndPointerTypesCache(t *testing.T) {
	m := NewModule("types.air", AIRTargetTriple, AIRDataLayout)
	v1 := m.Types.Vector(m.Types.Float, 4)
	v2 := m.Types.Vector(m.Types.Float, 4)
	require.Equal(t, v1.TypeName(), v2.TypeName())
	require.True(t, v1.IsVector())
	require.Equal(t, 4, v1.VectorLen())

	p := m.Types.Pointer(m.Types.Int32, 1)
	require.True(t, p.IsPointer())
	require.Equal(t, AddressSpace(1), p.AddrSpace())
}

func TestNamedMetadataAndBitcodeDigest(t *testing.T) {
	m := NewModule("meta.air", AIRTargetTriple, AIRDataLayout)
	fn := m.NewFunction("main0", m.Types.Void)
	fn.Build(func(b *Builder, entry *BasicBlock) {
		b.SetInsertPoint(entry)
		b.Ret(nil)
	})
	m.AddNamedMetadataTuple("air.fragment", MDString("main0"), MDInt(0))

	require.NoError(t, m.Verify())

	tuples := m.NamedMetadataTuples("air.fragment")
	require.Len(t, tuples, 1)

	bc1 := m.Bitcode()
	bc2 := m.Bitcode()
	require.Equal(t, BitcodeDigest(bc1), BitcodeDigest(bc2))
	require.NotEmpty(t, bc1)
}

func TestControlFlowSwitchAndPhi(t *testing.T) {
	m := NewModule("cf.air", AIRTargetTriple, AIRDataLayout)
	fn := m.NewFunction("pick", m.Types.Int32, Param{Name: "x", Type: m.Types.Int32})

	fn.Build(func(b *Builder, entry *BasicBlock) {
		caseA := fn.NewBlock("case_a")
		caseB := fn.NewBlock("case_b")
		def := fn.NewBlock("default")
		join := fn.NewBlock("join")

		b.SetInsertPoint(entry)
		b.Switch(fn.Param(0), def, SwitchCase{Value: 1, Target: caseA}, SwitchCase{Value: 2, Target: caseB})

		b.SetInsertPoint(caseA)
		va := b.Int(m.Types.Int32, 10)
		b.Br(join)

		b.SetInsertPoint(caseB)
		vb := b.Int(m.Types.Int32, 20)
		b.Br(join)

		b.SetInsertPoint(def)
		vd := b.Int(m.Types.Int32, 0)
		b.Br(join)

		b.SetInsertPoint(join)
		phi := b.Phi(m.Types.Int32,
			PhiIncoming{Value: va, Block: caseA},
			PhiIncoming{Value: vb, Block: caseB},
			PhiIncoming{Value: vd, Block: def},
		)
		b.Ret(phi)
	})

	require.NoError(t, m.Verify())
}
