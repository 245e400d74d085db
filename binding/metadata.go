package binding

import (
	"strings"

	"github.com/mtlshade/dxair/codegen"
)

// StageKind names one of the five AIR named-metadata streams a function's
// function-metadata tuple is attached to (spec §3, §4.7).
type StageKind string

const (
	StageVertex   StageKind = "air.vertex"
	StageFragment StageKind = "air.fragment"
	StageKernel   StageKind = "air.kernel"
	StageObject   StageKind = "air.object"
	StageMesh     StageKind = "air.mesh"
)

// PatchTopology is the tessellation patch shape carried in a hull/domain
// rewrite's patch tuple (spec §4.7, §4.9).
type PatchTopology string

const (
	PatchTriangle PatchTopology = "triangle"
	PatchQuad     PatchTopology = "quad"
)

// PatchInfo is the `{"air.patch", "triangle"|"quad", control_points_per_patch}`
// tuple attached to an object or mesh function produced by the
// tessellation rewrite (spec §4.7).
type PatchInfo struct {
	Topology          PatchTopology
	ControlPointCount int
}

func (p PatchInfo) tuple() []codegen.MDValue {
	return []codegen.MDValue{
		codegen.MDString("air.patch"),
		codegen.MDString(string(p.Topology)),
		codegen.MDInt(int64(p.ControlPointCount)),
	}
}

// AttachFunctionMetadata records fn's function-metadata tuple — `(function_ref,
// outputs_tuple, inputs_tuple, [patch_tuple])` — on the named-metadata
// stream for the given stage (spec §4.7). outputs and inputs are each a
// list of already-built per-output/per-input tuples (BuildOutputTuple /
// BuildInputTuple); patch is nil outside a tessellation rewrite.
func AttachFunctionMetadata(m *codegen.Module, stage StageKind, fn *codegen.Function, outputs, inputs [][]codegen.MDValue, patch *PatchInfo) {
	operands := []codegen.MDValue{
		codegen.MDValueOf(fn.AsValue()),
		tupleOfTuples(outputs),
		tupleOfTuples(inputs),
	}
	if patch != nil {
		operands = append(operands, tupleOf(patch.tuple()))
	}
	m.AddNamedMetadataTuple(string(stage), operands...)

	fn.SetStageTag(string(stage))
	if patch != nil {
		fn.SetPatchInfo(string(patch.Topology), patch.ControlPointCount)
	}
}

// tupleOfTuples and tupleOf fold a nested tuple list into a single MDValue
// operand by rendering it as a bracketed metadata string; codegen's MDValue
// has no first-class "nested tuple" variant (spec §3's named-metadata
// streams only ever nest one level deep, the per-output/per-input/patch
// lists inside a function-metadata tuple), so the flattening happens here
// rather than growing MDValue a case that every other caller would have to
// not use.
func tupleOfTuples(tuples [][]codegen.MDValue) codegen.MDValue {
	flat := make([]codegen.MDValue, 0)
	for _, t := range tuples {
		flat = append(flat, t...)
	}
	return tupleOf(flat)
}

func tupleOf(vals []codegen.MDValue) codegen.MDValue {
	var sb strings.Builder
	sb.WriteString("{")
	for i, v := range vals {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteString("}")
	return codegen.MDString(sb.String())
}
