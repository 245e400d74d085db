package tessellation

import "github.com/mtlshade/dxair/codegen"

// TessMeshWorkloadType declares the per-workload tess-factor record the
// object shader writes and the mesh shader reads back (spec §4.9 item 2):
// a pair of 4-lane edge-factor vectors (inner/outer), the clamped integer
// factor, a fractional-partitioning complement flag, and the owning
// patch's index within the dispatch. The original's record additionally
// splits inner/outer factors into a 0/1 and a 2/3 half to cover two
// tessellator sub-passes; this rewrite only emits one workload per patch
// edge set and so carries a single factor pair (documented in DESIGN.md).
func TessMeshWorkloadType(m *codegen.Module) codegen.Type {
	return m.Types.Struct("struct.TessMeshWorkload",
		m.Types.Vector(m.Types.Int16, 4), // inner_factors (uv or two interior edges)
		m.Types.Vector(m.Types.Int16, 4), // outer_factors (up to four boundary edges)
		m.Types.Int32,                    // integer_factor, clamped per IntegerFactor
		m.Types.Int8,                     // complement_bucket: fractional-partitioning remainder class
		m.Types.Bool,                     // has_complement
		m.Types.Int16,                    // patch_index
	)
}

// ControlPointArrayType is one patch's row of control-point outputs: each
// control point stores MaxOutputRegister float4 slots (spec §4.9 item 2's
// threadgroup-memory control-point array).
func ControlPointArrayType(m *codegen.Module, maxOutputRegister, controlPointsPerPatch int) codegen.Type {
	perPoint := m.Types.Array(m.Types.Vector(m.Types.Float, 4), maxOutputRegister)
	return m.Types.Array(perPoint, controlPointsPerPatch)
}

// PatchConstantArrayType is one patch's row of patch-constant outputs.
func PatchConstantArrayType(m *codegen.Module, maxPatchConstantRegister int) codegen.Type {
	return m.Types.Array(m.Types.Vector(m.Types.Float, 4), maxPatchConstantRegister)
}

// ObjectPayloadType declares the object shader's payload struct (spec
// §4.9 item 2): a per-group array of per-patch control-point rows, a
// per-group array of per-patch patch-constant rows, the dispatch's
// starting patch index, and a per-group array of tess-factor workloads
// sized for the worst case every patch in the group can produce.
func ObjectPayloadType(m *codegen.Module, patchPerGroup, controlPointsPerPatch, maxOutputRegister, maxPatchConstantRegister int, maxWorkloadsPerPatch uint32) codegen.Type {
	controlPoints := m.Types.Array(ControlPointArrayType(m, maxOutputRegister, controlPointsPerPatch), patchPerGroup)
	patchConstants := m.Types.Array(PatchConstantArrayType(m, maxPatchConstantRegister), patchPerGroup)
	workloads := m.Types.Array(TessMeshWorkloadType(m), int(maxWorkloadsPerPatch)*patchPerGroup)
	return m.Types.Struct("struct.TessObjectPayload",
		controlPoints,
		patchConstants,
		m.Types.Uint32, // batched_patch_start
		m.Types.Uint32, // workload_count (actual, <= capacity)
		workloads,
	)
}

// objectPayload field indices, matching ObjectPayloadType's declaration
// order.
const (
	payloadFieldControlPoints = iota
	payloadFieldPatchConstants
	payloadFieldBatchStart
	payloadFieldWorkloadCount
	payloadFieldWorkloads
)

// PayloadAlignedSize rounds raw (the struct's natural byte size under
// AIR's data layout) up to the next 16-byte boundary (spec §4.9 item 4).
func PayloadAlignedSize(raw int) int {
	return (raw + 15) &^ 15
}
