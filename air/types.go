// Package air is C3/C4: the AIR type registry and builder. It sits on
// top of codegen (C2), adding Metal's opaque handle types, the 16-value
// texture kind table, symbol-mangling rules, and typed constructors for
// every Metal intrinsic family the translator (C9) and tessellation
// rewrite (C10) emit.
package air

import (
	"github.com/mtlshade/dxair/codegen"
)

// AIR's fixed pointer address spaces (spec §4.3, §4.9).
const (
	AddressSpaceThread      codegen.AddressSpace = 0
	AddressSpaceDevice      codegen.AddressSpace = 1
	AddressSpaceConstant    codegen.AddressSpace = 2
	AddressSpaceThreadgroup codegen.AddressSpace = 3
	AddressSpaceObjectData  codegen.AddressSpace = 4
	AddressSpaceMeshGrid    codegen.AddressSpace = 3
	AddressSpaceMesh        codegen.AddressSpace = 7
)

// ResourceKind is the 16-value closed texture-kind enumeration (spec §3).
type ResourceKind int

const (
	TextureBuffer ResourceKind = iota
	Texture1D
	Texture1DArray
	Texture2D
	Texture2DArray
	Texture3D
	TextureCube
	TextureCubeArray
	Texture2DMS
	Texture2DMSArray
	Depth2D
	Depth2DArray
	DepthCube
	DepthCubeArray
	Depth2DMS
	Depth2DMSArray
	numResourceKinds
)

// SampleType is the texel's logical component type.
type SampleType int

const (
	SampleFloat SampleType = iota
	SampleInt
	SampleUint
	SampleHalf
)

// MemoryAccess is how a texture handle is bound (spec §4.3's "access" int
// operand: 0 = sample, carried separately as MemoryAccess for the read/
// write/atomic families below).
type MemoryAccess int

const (
	AccessSample MemoryAccess = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)

// Query names a texture info query (spec §4.3's "Texture info" family).
type Query int

const (
	QueryWidth Query = iota
	QueryHeight
	QueryDepth
	QueryArrayLength
	QueryNumMipLevels
	QueryNumSamples
)

// Signedness selects the signedness marker interposed in a mangled symbol
// (spec §4.3's type-overload suffix rule).
type Signedness int

const (
	SignDontCare Signedness = iota
	SignSigned
	SignUnsigned
)

// MemFlags is the bit-or'd memory-space mask air.wg.barrier and
// air.atomic.fence take (spec §4.3).
type MemFlags int

const (
	MemNone        MemFlags = 0
	MemDevice      MemFlags = 1
	MemThreadgroup MemFlags = 2
	MemTexture     MemFlags = 4
	MemObjectData  MemFlags = 4
)

// ThreadScope is the atomic/barrier scope operand.
type ThreadScope int

const (
	ScopeThread      ThreadScope = 0
	ScopeThreadgroup ThreadScope = 1
	ScopeDevice      ThreadScope = 2
	ScopeSimdgroup   ThreadScope = 4
)

// Texture describes one texture resource binding: its kind, texel sample
// type and how it is accessed.
type Texture struct {
	Kind       ResourceKind
	SampleType SampleType
	Access     MemoryAccess
}

// textureKindInfo is the per-kind lookup table (spec §3's "lookup table
// keyed by kind"), field-for-field grounded on the original's
// TextureOperationInfo[] array.
type textureKindInfo struct {
	symbolSuffix string
	isArray      bool
	coordDim     int
	isCube       bool
	isDepth      bool
	isMS         bool
	isMipmapped  bool
}

var textureInfo = [numResourceKinds]textureKindInfo{
	TextureBuffer:      {"texture_buffer_1d", false, 1, false, false, false, false},
	Texture1D:          {"texture_1d", false, 1, false, false, false, true},
	Texture1DArray:     {"texture_1d_array", true, 1, false, false, false, true},
	Texture2D:          {"texture_2d", false, 2, false, false, false, true},
	Texture2DArray:     {"texture_2d_array", true, 2, false, false, false, true},
	Texture3D:          {"texture_3d", false, 3, false, false, false, true},
	TextureCube:        {"texture_cube", false, 3, true, false, false, true},
	TextureCubeArray:   {"texture_cube_array", true, 3, true, false, false, true},
	Texture2DMS:        {"texture_2d_ms", false, 2, false, false, true, false},
	Texture2DMSArray:   {"texture_2d_ms_array", true, 2, false, false, true, false},
	Depth2D:            {"depth_2d", false, 2, false, true, false, true},
	Depth2DArray:       {"depth_2d_array", true, 2, false, true, false, true},
	DepthCube:          {"depth_cube", false, 3, true, true, false, true},
	DepthCubeArray:     {"depth_cube_array", true, 3, true, true, false, true},
	Depth2DMS:          {"depth_2d_ms", false, 2, false, true, true, false},
	Depth2DMSArray:     {"depth_2d_ms_array", true, 2, false, true, true, false},
}

func (t Texture) info() textureKindInfo { return textureInfo[t.Kind] }

// IsArray reports whether the texture kind carries an array index operand.
func (t Texture) IsArray() bool { return t.info().isArray }

// IsDepth reports whether the texture kind is a depth/shadow kind.
func (t Texture) IsDepth() bool { return t.info().isDepth }

// IsMS reports whether the texture kind is multisampled.
func (t Texture) IsMS() bool { return t.info().isMS }

// IsMipmapped reports whether the texture kind supports mip levels.
func (t Texture) IsMipmapped() bool { return t.info().isMipmapped }

// CoordDim is the coordinate vector width the kind expects.
func (t Texture) CoordDim() int { return t.info().coordDim }

// SymbolSuffix is the kind's fixed `<surface>` component of the mangled
// intrinsic name, e.g. "texture_2d_array".
func (t Texture) SymbolSuffix() string { return t.info().symbolSuffix }

// Registry owns the per-module cache of opaque handle types and declared
// intrinsic functions; one Registry wraps one codegen.Module.
type Registry struct {
	m *codegen.Module

	textureHandle map[ResourceKind]codegen.Type
	samplerHandle codegen.Type
	meshHandle    codegen.Type
	meshGridProps codegen.Type
	intrinsics    map[string]*codegen.Function
}

// NewRegistry returns a Registry bound to m, lazily materializing handle
// types and intrinsic declarations on first use.
func NewRegistry(m *codegen.Module) *Registry {
	return &Registry{
		m:             m,
		textureHandle: map[ResourceKind]codegen.Type{},
		intrinsics:    map[string]*codegen.Function{},
	}
}

// TextureHandleType returns (creating if necessary) the opaque struct
// pointer type `%struct._<suffix>_t addrspace(1)*` used for a texture
// handle of this kind.
func (r *Registry) TextureHandleType(kind ResourceKind) codegen.Type {
	if t, ok := r.textureHandle[kind]; ok {
		return t
	}
	name := "struct._" + textureInfo[kind].symbolSuffix + "_t"
	st := r.m.Types.Struct(name)
	t := r.m.Types.Pointer(st, AddressSpaceDevice)
	r.textureHandle[kind] = t
	return t
}

// SamplerHandleType returns the opaque sampler handle type, address space 2.
func (r *Registry) SamplerHandleType() codegen.Type {
	if r.samplerHandle.TypeName() == "" {
		st := r.m.Types.Struct("struct._sampler_t")
		r.samplerHandle = r.m.Types.Pointer(st, AddressSpaceConstant)
	}
	return r.samplerHandle
}

// MeshHandleType returns the opaque mesh handle type, address space 7.
func (r *Registry) MeshHandleType() codegen.Type {
	if r.meshHandle.TypeName() == "" {
		st := r.m.Types.Struct("struct._mesh_t")
		r.meshHandle = r.m.Types.Pointer(st, AddressSpaceMesh)
	}
	return r.meshHandle
}

// MeshGridPropertiesType returns the opaque mesh-grid-properties handle
// type, address space 3.
func (r *Registry) MeshGridPropertiesType() codegen.Type {
	if r.meshGridProps.TypeName() == "" {
		st := r.m.Types.Struct("struct._mesh_grid_properties_t")
		r.meshGridProps = r.m.Types.Pointer(st, AddressSpaceMeshGrid)
	}
	return r.meshGridProps
}
