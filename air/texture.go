package air

import (
	"github.com/mtlshade/dxair/codegen"
)

func texelSign(st SampleType) Signedness {
	switch st {
	case SampleInt:
		return SignSigned
	case SampleUint:
		return SignUnsigned
	default:
		return SignDontCare
	}
}

// TexelType returns the 4-component vector type a texture op reads/writes,
// keyed by the texture's declared sample type.
func (b *Builder) TexelType(tex Texture) codegen.Type {
	t := b.reg.m.Types
	switch tex.SampleType {
	case SampleInt:
		return t.Vector(t.Int32, 4)
	case SampleUint:
		return t.Vector(t.Uint32, 4)
	case SampleHalf:
		return t.Vector(t.Half, 4)
	default:
		return t.Vector(t.Float, 4)
	}
}

func (b *Builder) sampleResultType(tex Texture) codegen.Type {
	// {texel, residency byte}
	return b.reg.m.Types.Struct2(b.TexelType(tex), b.reg.m.Types.Uint8)
}

func (b *Builder) coordType(tex Texture) codegen.Type {
	t := b.reg.m.Types
	switch tex.CoordDim() {
	case 1:
		return t.Float
	default:
		return t.Vector(t.Float, tex.CoordDim())
	}
}

// SampleArgs bundles the operands shared by the Sample/SampleCompare/
// SampleGrad family beyond texture/handle/sampler/coord/array-index.
type SampleArgs struct {
	ArrayIndex  *codegen.Value // nil if tex is not an array kind
	OffsetKnown bool
	Offset      *codegen.Value // int vector of tex.CoordDim() lanes
	ArgsControl bool           // false = {bias,minLOD}; true = exact lod
	Arg1, Arg2  *codegen.Value // float
}

func (b *Builder) sampleCommon(name string, tex Texture, handle, sampler, coord *codegen.Value, alwaysDepthMarker bool, reference *codegen.Value, a SampleArgs) *codegen.Value {
	args := []*codegen.Value{handle, sampler}
	if alwaysDepthMarker || tex.IsDepth() {
		args = append(args, b.cb.Int(b.reg.m.Types.Int32, 1))
	}
	args = append(args, coord)
	if tex.IsArray() {
		args = append(args, a.ArrayIndex)
	}
	if reference != nil {
		args = append(args, reference)
	}
	switch tex.CoordDim() {
	case 1:
		args = append(args, b.cb.Bool(false), b.cb.Int(b.reg.m.Types.Int32, 0))
	default:
		args = append(args, b.cb.Bool(a.OffsetKnown), a.Offset)
	}
	args = append(args, b.cb.Bool(a.ArgsControl), a.Arg1, a.Arg2)
	args = append(args, b.cb.Int(b.reg.m.Types.Int32, 0)) // access = sample

	sym := name + tex.SymbolSuffix() + TypeOverloadSuffix(b.TexelType(tex), texelSign(tex.SampleType))
	result := b.call(sym, b.sampleResultType(tex), args, standardTextureAttrs...)
	return result
}

// Sample emits an `air.sample_<kind>` call, selecting exact-LOD vs
// bias/min-lod-clamp mode via a.ArgsControl. Returns {texel, residency}.
func (b *Builder) Sample(tex Texture, handle, sampler, coord *codegen.Value, a SampleArgs) *codegen.Value {
	return b.sampleCommon("air.sample_", tex, handle, sampler, coord, false, nil, a)
}

// SampleCompare emits an `air.sample_compare_<kind>` call (depth kinds only).
func (b *Builder) SampleCompare(tex Texture, handle, sampler, coord, reference *codegen.Value, a SampleArgs) *codegen.Value {
	return b.sampleCommon("air.sample_compare_", tex, handle, sampler, coord, true, reference, a)
}

// SampleGradArgs bundles the SampleGrad family's operands.
type SampleGradArgs struct {
	ArrayIndex     *codegen.Value
	DerivX, DerivY *codegen.Value
	MinLOD         *codegen.Value
	OffsetKnown    bool
	Offset         *codegen.Value
}

// SampleGrad emits an `air.sample_<kind>_grad` call with explicit
// derivatives, used outside fragment stages where implicit derivatives
// are unavailable (spec §4.3).
func (b *Builder) SampleGrad(tex Texture, handle, sampler, coord *codegen.Value, a SampleGradArgs) *codegen.Value {
	args := []*codegen.Value{handle, sampler}
	if tex.IsDepth() {
		args = append(args, b.cb.Int(b.reg.m.Types.Int32, 1))
	}
	args = append(args, coord)
	if tex.IsArray() {
		args = append(args, a.ArrayIndex)
	}
	args = append(args, a.DerivX, a.DerivY, a.MinLOD)
	switch tex.CoordDim() {
	case 1:
		args = append(args, b.cb.Bool(false), b.cb.Int(b.reg.m.Types.Int32, 0))
	default:
		args = append(args, b.cb.Bool(a.OffsetKnown), a.Offset)
	}
	args = append(args, b.cb.Int(b.reg.m.Types.Int32, 0))

	sym := "air.sample_" + tex.SymbolSuffix() + "_grad" + TypeOverloadSuffix(b.TexelType(tex), texelSign(tex.SampleType))
	return b.call(sym, b.sampleResultType(tex), args, standardTextureAttrs...)
}

// Gather emits an `air.gather_<kind>` call selecting component (0-3).
func (b *Builder) Gather(tex Texture, handle, sampler, coord *codegen.Value, arrayIndex *codegen.Value, offsetKnown bool, offset *codegen.Value, component *codegen.Value) *codegen.Value {
	args := []*codegen.Value{handle, sampler, coord}
	if tex.IsArray() {
		args = append(args, arrayIndex)
	}
	args = append(args, b.cb.Bool(offsetKnown), offset, component, b.cb.Int(b.reg.m.Types.Int32, 0))
	sym := "air.gather_" + tex.SymbolSuffix() + TypeOverloadSuffix(b.TexelType(tex), texelSign(tex.SampleType))
	return b.call(sym, b.sampleResultType(tex), args, readWriteTextureAttrs...)
}

// GatherCompare emits an `air.gather_compare_<kind>` call; always `.f32`.
func (b *Builder) GatherCompare(tex Texture, handle, sampler, coord, reference *codegen.Value, arrayIndex *codegen.Value, offsetKnown bool, offset *codegen.Value) *codegen.Value {
	args := []*codegen.Value{handle, sampler, coord}
	if tex.IsArray() {
		args = append(args, arrayIndex)
	}
	args = append(args, reference, b.cb.Bool(offsetKnown), offset, b.cb.Int(b.reg.m.Types.Int32, 0))
	t := b.reg.m.Types
	sym := "air.gather_compare_" + tex.SymbolSuffix() + TypeOverloadSuffix(t.Vector(t.Float, 4), SignDontCare)
	return b.call(sym, b.sampleResultType(tex), args, readWriteTextureAttrs...)
}

// ReadArgs bundles the Read family's optional operands.
type ReadArgs struct {
	CubeFace       *codegen.Value
	ArrayIndex     *codegen.Value
	SampleIndex    *codegen.Value
	LOD            *codegen.Value
	DeviceCoherent bool
}

// Read emits an `air.read_<kind>` call. Returns {texel, residency}.
func (b *Builder) Read(tex Texture, handle, pos *codegen.Value, a ReadArgs) *codegen.Value {
	args := []*codegen.Value{handle}
	if tex.IsDepth() {
		args = append(args, b.cb.Int(b.reg.m.Types.Int32, 1))
	}
	args = append(args, pos)
	if tex.info().isCube {
		args = append(args, a.CubeFace)
	}
	if tex.IsArray() {
		args = append(args, a.ArrayIndex)
	}
	if tex.IsMS() {
		args = append(args, a.SampleIndex)
	}
	if tex.IsMipmapped() && tex.Kind != TextureBuffer {
		args = append(args, a.LOD)
	}
	args = append(args, b.cb.Int(b.reg.m.Types.Int32, int64(accessOrder(a.DeviceCoherent))))
	sym := "air.read_" + tex.SymbolSuffix() + TypeOverloadSuffix(b.TexelType(tex), texelSign(tex.SampleType))
	return b.call(sym, b.sampleResultType(tex), args, readWriteTextureAttrs...)
}

// WriteArgs bundles the Write family's optional operands.
type WriteArgs struct {
	CubeFace       *codegen.Value
	ArrayIndex     *codegen.Value
	LOD            *codegen.Value
	DeviceCoherent bool
}

// Write emits an `air.write_<kind>` call (void). Disallowed for depth/MS
// kinds (spec §4.3).
func (b *Builder) Write(tex Texture, handle, pos, texel *codegen.Value, a WriteArgs) *codegen.Value {
	args := []*codegen.Value{handle, pos}
	if tex.info().isCube {
		args = append(args, a.CubeFace)
	}
	if tex.IsArray() {
		args = append(args, a.ArrayIndex)
	}
	args = append(args, texel)
	if tex.IsMipmapped() && tex.Kind != TextureBuffer {
		args = append(args, a.LOD)
	}
	args = append(args, b.cb.Int(b.reg.m.Types.Int32, int64(accessOrder(a.DeviceCoherent))))
	sym := "air.write_" + tex.SymbolSuffix() + TypeOverloadSuffix(b.TexelType(tex), texelSign(tex.SampleType))
	return b.call(sym, b.reg.m.Types.Void, args, readWriteTextureAttrs...)
}

func accessOrder(deviceCoherent bool) int {
	if deviceCoherent {
		return 1
	}
	return 0
}

// TextureAtomicOp is the closed op set for `air.atomic_fetch_<op>_explicit`
// on a texture handle (spec §4.3). Forbidden on depth/cube/ms kinds.
type TextureAtomicOp int

const (
	TexAtomicAdd TextureAtomicOp = iota
	TexAtomicSub
	TexAtomicAnd
	TexAtomicOr
	TexAtomicXor
	TexAtomicMaxSigned
	TexAtomicMinSigned
	TexAtomicMaxUnsigned
	TexAtomicMinUnsigned
	TexAtomicExchange
)

func (op TextureAtomicOp) name() string {
	switch op {
	case TexAtomicAdd:
		return "add"
	case TexAtomicSub:
		return "sub"
	case TexAtomicAnd:
		return "and"
	case TexAtomicOr:
		return "or"
	case TexAtomicXor:
		return "xor"
	case TexAtomicMaxSigned, TexAtomicMaxUnsigned:
		return "max"
	case TexAtomicMinSigned, TexAtomicMinUnsigned:
		return "min"
	default:
		return "exchange"
	}
}

// TextureAtomicRMW emits `air.atomic_fetch_<op>_explicit` (or
// `air.atomic_exchange_explicit` for TexAtomicExchange), returning the
// texture's prior texel.
func (b *Builder) TextureAtomicRMW(tex Texture, op TextureAtomicOp, handle, pos, texel *codegen.Value, arrayIndex *codegen.Value) *codegen.Value {
	args := []*codegen.Value{handle, pos}
	if tex.IsArray() {
		args = append(args, arrayIndex)
	}
	args = append(args, texel, b.cb.Int(b.reg.m.Types.Int32, 0), b.cb.Int(b.reg.m.Types.Int32, 0))
	verb := "air.atomic_fetch_" + op.name() + "_explicit"
	if op == TexAtomicExchange {
		verb = "air.atomic_exchange_explicit"
	}
	sym := verb + tex.SymbolSuffix() + TypeOverloadSuffix(texel.Type(), texelSign(tex.SampleType))
	return b.call(sym, texel.Type(), args, atomicAttrs...)
}

// TextureAtomicCmpXchg emits `air.atomic_compare_exchange_weak_explicit`
// on a texture handle, returning the prior texel.
func (b *Builder) TextureAtomicCmpXchg(tex Texture, handle, pos, cmp, newVal *codegen.Value, arrayIndex *codegen.Value) *codegen.Value {
	args := []*codegen.Value{handle, pos}
	if tex.IsArray() {
		args = append(args, arrayIndex)
	}
	args = append(args, cmp, newVal, b.cb.Int(b.reg.m.Types.Int32, 0), b.cb.Int(b.reg.m.Types.Int32, 0))
	sym := "air.atomic_compare_exchange_weak_explicit" + tex.SymbolSuffix() + TypeOverloadSuffix(newVal.Type(), texelSign(tex.SampleType))
	return b.call(sym, newVal.Type(), args, atomicAttrs...)
}

// CalculateLOD emits `air.calculate_clamped_lod`/`_unclamped_lod`, 1D and
// MS kinds are forbidden. Returns (clamped, unclamped).
func (b *Builder) CalculateLOD(tex Texture, handle, sampler, coord *codegen.Value) (clamped, unclamped *codegen.Value) {
	args := []*codegen.Value{handle, sampler, coord, b.cb.Int(b.reg.m.Types.Int32, 0)}
	f32 := b.reg.m.Types.Float
	clamped = b.call("air.calculate_clamped_lod_"+tex.SymbolSuffix(), f32, args, standardTextureAttrs...)
	unclamped = b.call("air.calculate_unclamped_lod_"+tex.SymbolSuffix(), f32, args, standardTextureAttrs...)
	return
}

// TextureQuery emits the texture-info intrinsic for q, with an optional
// mip level (nil when the kind/query doesn't take one).
func (b *Builder) TextureQuery(tex Texture, handle *codegen.Value, q Query, level *codegen.Value) *codegen.Value {
	var verb string
	switch q {
	case QueryWidth:
		verb = "get_width"
	case QueryHeight:
		verb = "get_height"
	case QueryDepth:
		verb = "get_depth"
	case QueryArrayLength:
		verb = "get_array_size"
	case QueryNumMipLevels:
		verb = "get_num_mip_levels"
	case QueryNumSamples:
		verb = "get_num_samples"
	}
	args := []*codegen.Value{handle}
	if level != nil {
		args = append(args, level)
	}
	sym := "air." + verb + "_" + tex.SymbolSuffix()
	return b.call(sym, b.reg.m.Types.Uint32, args, readWriteTextureAttrs...)
}

// TextureFence emits `air.fence_<kind>` over a read-write texture handle.
func (b *Builder) TextureFence(tex Texture, handle *codegen.Value) *codegen.Value {
	sym := "air.fence_" + tex.SymbolSuffix()
	return b.call(sym, b.reg.m.Types.Void, []*codegen.Value{handle}, codegen.AttrNoUnwind)
}
