package air

import (
	"github.com/mtlshade/dxair/codegen"
)

// SetMeshProperties emits `air.set_threadgroups_per_grid_mesh_properties`
// (the object-shader payload's threadgroup grid-size declaration).
func (b *Builder) SetMeshProperties(gridProps, gridSize *codegen.Value) *codegen.Value {
	return b.call("air.set_threadgroups_per_grid_mesh_properties", b.reg.m.Types.Void,
		[]*codegen.Value{gridProps, gridSize})
}

// SetMeshRenderTargetArrayIndex emits `air.set_render_target_array_index_mesh.i32`.
func (b *Builder) SetMeshRenderTargetArrayIndex(mesh, vertex, arrayIndex *codegen.Value) *codegen.Value {
	return b.call("air.set_render_target_array_index_mesh.i32", b.reg.m.Types.Void,
		[]*codegen.Value{mesh, vertex, arrayIndex})
}

// SetMeshViewportArrayIndex emits `air.set_viewport_array_index_mesh.i32`.
func (b *Builder) SetMeshViewportArrayIndex(mesh, vertex, arrayIndex *codegen.Value) *codegen.Value {
	return b.call("air.set_viewport_array_index_mesh.i32", b.reg.m.Types.Void,
		[]*codegen.Value{mesh, vertex, arrayIndex})
}

// SetMeshPosition emits `air.set_position_mesh`. Callers are expected to
// have run the position through SanitizePosition first (spec §4.3).
func (b *Builder) SetMeshPosition(mesh, vertex, position *codegen.Value) *codegen.Value {
	return b.call("air.set_position_mesh", b.reg.m.Types.Void, []*codegen.Value{mesh, vertex, position})
}

// SetMeshClipDistance emits `air.set_clip_distance_mesh`.
func (b *Builder) SetMeshClipDistance(mesh, vertex, index, value *codegen.Value) *codegen.Value {
	return b.call("air.set_clip_distance_mesh", b.reg.m.Types.Void, []*codegen.Value{mesh, vertex, index, value})
}

// SetMeshVertexData emits `air.set_vertex_data_mesh.<type-overload>`.
func (b *Builder) SetMeshVertexData(mesh, vertex, dataIndex, value *codegen.Value) *codegen.Value {
	sym := "air.set_vertex_data_mesh" + TypeOverloadSuffix(value.Type(), SignDontCare)
	return b.call(sym, b.reg.m.Types.Void, []*codegen.Value{mesh, vertex, dataIndex, value})
}

// SetMeshPrimitiveData emits `air.set_primitive_data_mesh.<type-overload>`.
func (b *Builder) SetMeshPrimitiveData(mesh, primitive, dataIndex, value *codegen.Value) *codegen.Value {
	sym := "air.set_primitive_data_mesh" + TypeOverloadSuffix(value.Type(), SignDontCare)
	return b.call(sym, b.reg.m.Types.Void, []*codegen.Value{mesh, primitive, dataIndex, value})
}

// SetMeshIndex emits `air.set_index_mesh`.
func (b *Builder) SetMeshIndex(mesh, index, vertex *codegen.Value) *codegen.Value {
	return b.call("air.set_index_mesh", b.reg.m.Types.Void, []*codegen.Value{mesh, index, vertex})
}

// SetMeshPrimitiveCount emits `air.set_primitive_count_mesh`.
func (b *Builder) SetMeshPrimitiveCount(mesh, count *codegen.Value) *codegen.Value {
	return b.call("air.set_primitive_count_mesh", b.reg.m.Types.Void, []*codegen.Value{mesh, count})
}

// SetMeshPointSize emits `air.set_point_size_mesh`.
func (b *Builder) SetMeshPointSize(mesh, vertex, size *codegen.Value) *codegen.Value {
	sym := "air.set_point_size_mesh" + TypeOverloadSuffix(size.Type(), SignDontCare)
	return b.call(sym, b.reg.m.Types.Void, []*codegen.Value{mesh, vertex, size})
}
