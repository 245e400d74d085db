package air

import (
	"github.com/mtlshade/dxair/codegen"
)

func maybeFastMath(b *Builder, name string) string {
	if b.cb.FastMath() {
		return FastMathName(name)
	}
	return name
}

// FMA emits `air.fma` (or `air.fast_fma`), fused multiply-add.
func (b *Builder) FMA(x, y, z *codegen.Value) *codegen.Value {
	sym := maybeFastMath(b, "air.fma") + TypeOverloadSuffix(x.Type(), SignDontCare)
	return b.call(sym, x.Type(), []*codegen.Value{x, y, z})
}

// DotProduct emits `air.dot`, reducing two same-length float vectors to a
// scalar.
func (b *Builder) DotProduct(lhs, rhs *codegen.Value) *codegen.Value {
	sym := maybeFastMath(b, "air.dot") + TypeOverloadSuffix(lhs.Type(), SignDontCare)
	return b.call(sym, b.reg.m.Types.Float, []*codegen.Value{lhs, rhs})
}

// CountZero emits `air.clz`/`air.ctz` (leading/trailing zero count).
func (b *Builder) CountZero(val *codegen.Value, trailing bool) *codegen.Value {
	verb := "air.clz"
	if trailing {
		verb = "air.ctz"
	}
	sym := verb + TypeOverloadSuffix(val.Type(), SignDontCare)
	return b.call(sym, val.Type(), []*codegen.Value{val})
}

// FPUnOp is the unary floating-point intrinsic family (spec §4.3's
// FPUnOp set): saturate, log2, exp2, sqrt, rsqrt, fract, rint, floor,
// ceil, trunc, cos, sin, fabs.
type FPUnOp int

const (
	FPSaturate FPUnOp = iota
	FPLog2
	FPExp2
	FPSqrt
	FPRsqrt
	FPFract
	FPRint
	FPFloor
	FPCeil
	FPTrunc
	FPCos
	FPSin
	FPFabs
)

func (op FPUnOp) name() string {
	return [...]string{"saturate", "log2", "exp2", "sqrt", "rsqrt", "fract", "rint", "floor", "ceil", "trunc", "cos", "sin", "fabs"}[op]
}

// FPUnOp emits the named unary float intrinsic, fast-math gated by
// fastVariant (the original's default of true for most call sites;
// translate passes the builder's own FastMath() state through this flag
// so SetFastMath(false) call sites still emit the precise symbol).
func (b *Builder) FPUnOp(op FPUnOp, operand *codegen.Value, fastVariant bool) *codegen.Value {
	name := "air." + op.name()
	if fastVariant && b.cb.FastMath() {
		name = FastMathName(name)
	}
	sym := name + TypeOverloadSuffix(operand.Type(), SignDontCare)
	return b.call(sym, operand.Type(), []*codegen.Value{operand})
}

// FPBinOp is the binary float intrinsic family: fmax, fmin.
type FPBinOp int

const (
	FPMax FPBinOp = iota
	FPMin
)

func (op FPBinOp) name() string {
	if op == FPMax {
		return "fmax"
	}
	return "fmin"
}

// FPBinOp emits the named binary float intrinsic.
func (b *Builder) FPBinOp(op FPBinOp, lhs, rhs *codegen.Value, fastVariant bool) *codegen.Value {
	name := "air." + op.name()
	if fastVariant && b.cb.FastMath() {
		name = FastMathName(name)
	}
	sym := name + TypeOverloadSuffix(lhs.Type(), SignDontCare)
	return b.call(sym, lhs.Type(), []*codegen.Value{lhs, rhs})
}

// IntUnOp is the unary integer intrinsic family: reverse_bits, popcount.
type IntUnOp int

const (
	IntReverseBits IntUnOp = iota
	IntPopcount
)

func (op IntUnOp) name() string {
	if op == IntReverseBits {
		return "reverse_bits"
	}
	return "popcount"
}

// IntUnOp emits the named unary integer intrinsic.
func (b *Builder) IntUnOp(op IntUnOp, operand *codegen.Value) *codegen.Value {
	sym := "air." + op.name() + TypeOverloadSuffix(operand.Type(), SignDontCare)
	return b.call(sym, operand.Type(), []*codegen.Value{operand})
}

// IntBinOp is the binary integer intrinsic family: max, min, mul_hi.
type IntBinOp int

const (
	IntMax IntBinOp = iota
	IntMin
	IntMulHi
)

func (op IntBinOp) name() string {
	return [...]string{"max", "min", "mul_hi"}[op]
}

// IntBinOp emits the named binary integer intrinsic, signed selecting the
// `.s.`/`.u.` marker.
func (b *Builder) IntBinOp(op IntBinOp, lhs, rhs *codegen.Value, signed bool) *codegen.Value {
	sign := SignUnsigned
	if signed {
		sign = SignSigned
	}
	sym := "air." + op.name() + TypeOverloadSuffix(lhs.Type(), sign)
	return b.call(sym, lhs.Type(), []*codegen.Value{lhs, rhs})
}

// ConvertToFloat emits `air.convert.<srcSign>.i<n>.f32`, converting an
// integer value to float.
func (b *Builder) ConvertToFloat(val *codegen.Value, srcSign Signedness) *codegen.Value {
	sym := "air.convert" + TypeOverloadSuffix(val.Type(), srcSign) + TypeOverloadSuffix(b.reg.m.Types.Float, SignDontCare)
	return b.call(sym, b.reg.m.Types.Float, []*codegen.Value{val})
}

// ConvertToHalf emits `air.convert` to a half-precision result.
func (b *Builder) ConvertToHalf(val *codegen.Value, srcSign Signedness) *codegen.Value {
	sym := "air.convert" + TypeOverloadSuffix(val.Type(), srcSign) + TypeOverloadSuffix(b.reg.m.Types.Half, SignDontCare)
	return b.call(sym, b.reg.m.Types.Half, []*codegen.Value{val})
}

// ConvertToSigned emits a saturating float-to-signed-int `air.convert`.
func (b *Builder) ConvertToSigned(val *codegen.Value, result codegen.Type) *codegen.Value {
	sym := "air.convert" + TypeOverloadSuffix(val.Type(), SignDontCare) + TypeOverloadSuffix(result, SignSigned)
	return b.call(sym, result, []*codegen.Value{val})
}

// ConvertToUnsigned emits a saturating float-to-unsigned-int `air.convert`.
func (b *Builder) ConvertToUnsigned(val *codegen.Value, result codegen.Type) *codegen.Value {
	sym := "air.convert" + TypeOverloadSuffix(val.Type(), SignDontCare) + TypeOverloadSuffix(result, SignUnsigned)
	return b.call(sym, result, []*codegen.Value{val})
}

// Derivative emits `air.dfdx.v4f32`/`air.dfdy.v4f32`. Valid only in
// fragment shaders; translate enforces that restriction, not this layer.
func (b *Builder) Derivative(val *codegen.Value, yAxis bool) *codegen.Value {
	verb := "air.dfdx"
	if yAxis {
		verb = "air.dfdy"
	}
	sym := verb + TypeOverloadSuffix(val.Type(), SignDontCare)
	return b.call(sym, val.Type(), []*codegen.Value{val})
}

// Discard emits `air.discard_fragment()`.
func (b *Builder) Discard() *codegen.Value {
	return b.call("air.discard_fragment", b.reg.m.Types.Void, nil, codegen.AttrNoUnwind)
}

// SanitizePosition implements spec §4.3's hard invariant: before
// set_position_mesh, if any lane of a float4 position has its 8-bit
// exponent field all-ones (inf or NaN), the *entire* vector is replaced
// with the clipped value (0,0,1,0) — the check is elementwise, the
// replacement is all-or-nothing.
func (b *Builder) SanitizePosition(pos *codegen.Value) *codegen.Value {
	t := b.reg.m.Types
	bits := b.cb.BitCast(pos, t.Vector(t.Uint32, 4))
	expMask := b.cb.Int(t.Uint32, 0x7F800000)

	anyNonFinite := b.cb.Bool(false)
	for lane := 0; lane < 4; lane++ {
		laneBits := b.cb.ExtractElement(bits, lane)
		masked := b.cb.Arith(codegen.And, laneBits, expMask)
		isNonFinite := b.cb.ICmp(codegen.CmpIEQ, masked, expMask)
		anyNonFinite = b.cb.Arith(codegen.Or, anyNonFinite, isNonFinite)
	}

	clipped := b.cb.Undef(pos.Type())
	replacement := [4]float64{0, 0, 1, 0}
	for lane := 0; lane < 4; lane++ {
		clipped = b.cb.InsertElement(clipped, b.cb.Float(t.Float, replacement[lane]), lane)
	}

	out := pos
	for lane := 0; lane < 4; lane++ {
		selected := b.cb.Select(anyNonFinite, b.cb.ExtractElement(clipped, lane), b.cb.ExtractElement(pos, lane))
		out = b.cb.InsertElement(out, selected, lane)
	}
	return out
}
