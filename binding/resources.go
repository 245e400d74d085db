package binding

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
)

// PlanResources turns a decoded shader's global resource tables into the
// argument-buffer members the stage's single buffer-20 struct packs (spec
// §4.7). reg supplies the opaque handle types for textures/samplers; it
// must be the same air.Registry the translator built the rest of the
// function's body against.
func PlanResources(m *codegen.Module, reg *air.Registry, refl shader.Reflection) []ArgumentMember {
	var members []ArgumentMember

	for _, cb := range refl.ConstantBuffers {
		bytes := m.Types.Array(m.Types.Uint8, cb.SizeBytes)
		ptr := m.Types.Pointer(bytes, air.AddressSpaceConstant)
		members = append(members, ArgumentMember{
			Key:  Key{Group: GroupConstantBuffer, Register: cb.Register},
			Name: cb.Name,
			Type: ptr,
		})
	}

	for _, s := range refl.Samplers {
		members = append(members, ArgumentMember{
			Key:  Key{Group: GroupSampler, Register: s.Register},
			Name: s.Name,
			Type: reg.SamplerHandleType(),
		})
	}

	for _, t := range refl.Textures {
		members = append(members, ArgumentMember{
			Key:         Key{Group: GroupTexture, Register: t.Register},
			Name:        t.Name,
			Type:        reg.TextureHandleType(air.ResourceKind(t.Dimension)),
			TextureDesc: air.Texture{Kind: air.ResourceKind(t.Dimension), SampleType: sampleTypeOf(t.ReturnType)},
			IsTexture:   true,
		})
	}

	for _, u := range refl.UAVs {
		isImage := !u.Structured && u.StructStride == 0 && u.Dimension != 0
		members = append(members, ArgumentMember{
			Key:         Key{Group: GroupUAV, Register: u.Register},
			Name:        u.Name,
			Type:        uavType(m, reg, u),
			Counter:     u.HasCounter,
			TextureDesc: air.Texture{Kind: air.ResourceKind(u.Dimension), SampleType: sampleTypeOf(u.ReturnType)},
			IsTexture:   isImage,
		})
	}

	return members
}

// sampleTypeOf maps a decoded resource's reflected return type to the AIR
// sample-type tag that picks a texture intrinsic's signedness/width suffix.
func sampleTypeOf(dt shader.DataType) air.SampleType {
	switch dt {
	case shader.Int, shader.Sint16, shader.Sint12:
		return air.SampleInt
	case shader.Uint, shader.Uint16:
		return air.SampleUint
	case shader.Float16:
		return air.SampleHalf
	default:
		return air.SampleFloat
	}
}

// uavType picks the UAV's argument-buffer member type: an opaque
// read-write texture handle for a typed image UAV, a device pointer to a
// stride-sized byte array for a structured buffer UAV, or a device uint32
// pointer for a byte-address buffer UAV, per the translator's
// atomic-lowering split between the two (spec §4.8's "Atomics on UAVs").
func uavType(m *codegen.Module, reg *air.Registry, u shader.UAV) codegen.Type {
	if u.Structured || u.StructStride > 0 {
		stride := u.StructStride
		if stride == 0 {
			stride = 4
		}
		elem := m.Types.Array(m.Types.Uint8, stride)
		return m.Types.Pointer(elem, air.AddressSpaceDevice)
	}
	if u.Dimension == 0 {
		// raw/byte-address buffer: untyped device pointer.
		return m.Types.Pointer(m.Types.Uint32, air.AddressSpaceDevice)
	}
	return reg.TextureHandleType(air.ResourceKind(u.Dimension))
}
