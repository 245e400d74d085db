package dxair

import (
	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
	"github.com/mtlshade/dxair/tessellation"
)

// deriveTessConfig reads a hull shader's global-declaration phase and
// builds the tessellation.Config its object/mesh rewrite needs (spec
// §4.9 item 1). The domain/partitioning/output-primitive enums carry
// raw D3D_TESSELLATOR_* values off the token stream (dxbc.decodeDeclaration
// leaves them untranslated in Declaration.IntValue, matching
// dxbc/decode_test.go's TestDecodeHullTessellationDeclarations fixture);
// this is the one place that remaps them onto tessellation's own enums.
func deriveTessConfig(hull *shader.Shader, opts Options) (tessellation.Config, error) {
	if len(hull.Phases) < 4 {
		return tessellation.Config{}, errs.New(errs.Malformed, "dxair: hull shader is missing its global-decl/fork/join/control-point phases")
	}

	cfg := tessellation.Config{
		Domain:          tessellation.DomainIsoline,
		Partitioning:    tessellation.PartitioningInteger,
		OutputPrimitive: tessellation.OutputTriangleCW,
	}

	global := hull.Phases[0]
	for _, d := range global.Declarations {
		switch d.Op {
		case shader.OpDclTessDomain:
			cfg.Domain = rawTessDomain(d.IntValue)
		case shader.OpDclTessPartitioning:
			cfg.Partitioning = tessellation.Partitioning(d.IntValue)
		case shader.OpDclTessOutputPrimitive:
			cfg.OutputPrimitive = rawTessOutputPrimitive(d.IntValue)
		case shader.OpDclOutputControlPointCount:
			cfg.ControlPointsPerPatch = d.IntValue
		case shader.OpDclHSMaxTessFactor:
			cfg.MaxTessFactor = d.FloatValue
		}
	}
	if cfg.ControlPointsPerPatch == 0 {
		cfg.ControlPointsPerPatch = 1
	}
	if cfg.MaxTessFactor == 0 {
		cfg.MaxTessFactor = 64
	}

	controlPointPhase := hull.Phases[3]
	cfg.MaxInputRegister = maxOperandRegister([]*shader.Phase{controlPointPhase}, shader.OperandInput) + 1
	cfg.MaxOutputRegister = maxOperandRegister([]*shader.Phase{controlPointPhase}, shader.OperandOutput) + 1
	cfg.MaxPatchConstantRegister = maxOperandRegister(hull.Phases[1:3], shader.OperandPatchConstant) + 1

	// DXBC carries no explicit hull-thread-count token distinct from the
	// output control-point count; the object shader dispatches one thread
	// per output control point (see tessellation.BuildObjectShader), so
	// that count is also the thread count this rewrite plans for.
	cfg.HullMaxThreadsPerPatch = cfg.ControlPointsPerPatch

	if opts.HasTessMaxFactorOverride {
		cfg.PSOMaxTessFactorOverride = opts.TessMaxFactorOverride
		cfg.HasPSOOverride = true
	}

	return cfg, nil
}

// rawTessDomain remaps the D3D_TESSELLATOR_DOMAIN wire value
// (UNDEFINED=0, ISOLINE=1, TRI=2, QUAD=3) onto tessellation.Domain
// (Isoline=0, Triangle=1, Quad=2), defaulting undefined to isoline.
func rawTessDomain(raw int) tessellation.Domain {
	if raw < 1 {
		return tessellation.DomainIsoline
	}
	return tessellation.Domain(raw - 1)
}

// rawTessOutputPrimitive remaps the D3D_TESSELLATOR_OUTPUT_PRIMITIVE wire
// value (UNDEFINED=0, POINT=1, LINE=2, TRIANGLE_CW=3, TRIANGLE_CCW=4) onto
// tessellation.OutputPrimitive (Point=0 .. TriangleCCW=3).
func rawTessOutputPrimitive(raw int) tessellation.OutputPrimitive {
	if raw < 1 {
		return tessellation.OutputPoint
	}
	return tessellation.OutputPrimitive(raw - 1)
}

// maxOperandRegister scans every instruction operand of the given kind
// across phases and returns the highest register referenced, or -1 if
// none. Mirrors typeanalysis's maxRegister scan, generalized to any
// operand kind rather than just OperandTemp.
func maxOperandRegister(phases []*shader.Phase, kind shader.OperandKind) int {
	max := -1
	for _, phase := range phases {
		for _, inst := range phase.Instructions {
			for _, o := range inst.Operands {
				if o.Kind == kind && o.Register > max {
					max = o.Register
				}
			}
		}
	}
	return max
}
