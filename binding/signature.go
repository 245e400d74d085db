package binding

import "github.com/mtlshade/dxair/codegen"

// Input describes one function input argument: a vertex attribute (vertex
// stage), an interpolant (fragment stage), or a system-value parameter
// (any stage) (spec §4.7).
type Input struct {
	Slot int
	// Kind is the AIR input tag, e.g. "air.attribute", "air.vertex_id",
	// "air.position", "air.buffer", "air.indirect_buffer".
	Kind         string
	SemanticKeys []codegen.MDValue
	Name         string
	Type         codegen.Type

	BufferSize          int  // 0 means unbounded; omitted when 0
	LocationIndex       int
	HasLocationIndex    bool
	ArraySize           int
	AddressSpace        codegen.AddressSpace
	HasAddressSpace     bool
	RasterOrderGroup    int
	HasRasterOrderGroup bool
}

// Output describes one function output: a per-vertex output, a
// render-target write, or a system-value output (spec §4.7).
type Output struct {
	// Kind is the AIR output semantic tag, e.g. "air.position",
	// "air.vertex_output", "air.render_target", "air.clip_distance",
	// "air.point_size", "air.layer", "air.viewport_array_index",
	// "air.coverage_mask", "air.depth", "air.stencil_ref".
	Kind         string
	SemanticKeys []codegen.MDValue
	Name         string
	Type         codegen.Type
}

// BuildInputTuple assembles one input's metadata tuple: `{slot,
// "air.<kind>", semantic keys…, "air.arg_type_size", size_bytes,
// "air.arg_type_align_size", align_bytes, "air.arg_type_name", type_name,
// "air.arg_name", name}`, plus the optional buffer/array/address-space/
// raster-order-group trailing pairs (spec §4.7).
func BuildInputTuple(in Input) []codegen.MDValue {
	size, align := sizeAlign(in.Type)
	tuple := []codegen.MDValue{
		codegen.MDInt(int64(in.Slot)),
		codegen.MDString(in.Kind),
	}
	tuple = append(tuple, in.SemanticKeys...)
	tuple = append(tuple,
		codegen.MDString("air.arg_type_size"), codegen.MDInt(int64(size)),
		codegen.MDString("air.arg_type_align_size"), codegen.MDInt(int64(align)),
		codegen.MDString("air.arg_type_name"), codegen.MDString(in.Type.TypeName()),
		codegen.MDString("air.arg_name"), codegen.MDString(in.Name),
	)
	if in.BufferSize > 0 {
		tuple = append(tuple, codegen.MDString("air.buffer_size"), codegen.MDInt(int64(in.BufferSize)))
	}
	if in.HasLocationIndex {
		tuple = append(tuple, codegen.MDString("air.location_index"), codegen.MDInt(int64(in.LocationIndex)))
	}
	if in.ArraySize > 0 {
		tuple = append(tuple, codegen.MDString("air.array_size"), codegen.MDInt(int64(in.ArraySize)))
	}
	if in.HasAddressSpace {
		tuple = append(tuple, codegen.MDString("air.address_space"), codegen.MDInt(int64(in.AddressSpace)))
	}
	if in.HasRasterOrderGroup {
		tuple = append(tuple, codegen.MDString("air.raster_order_group"), codegen.MDInt(int64(in.RasterOrderGroup)))
	}
	return tuple
}

// BuildOutputTuple assembles one output's metadata tuple: `{"air.<kind>",
// semantic keys…, "air.arg_type_name", type_name, "air.arg_name", name}`
// (spec §4.7).
func BuildOutputTuple(out Output) []codegen.MDValue {
	tuple := []codegen.MDValue{codegen.MDString(out.Kind)}
	tuple = append(tuple, out.SemanticKeys...)
	tuple = append(tuple,
		codegen.MDString("air.arg_type_name"), codegen.MDString(out.Type.TypeName()),
		codegen.MDString("air.arg_name"), codegen.MDString(out.Name),
	)
	return tuple
}
