// Package dxair is the module root: Convert turns DXBC bytecode into a
// finished Metal .metallib blob (spec §6's external interface), wiring
// together the decoder (dxbc), the analysis/recovery passes
// (typeanalysis, cfg), the translator (translate), the tessellation
// rewrite (tessellation) and the container writer (metallib).
package dxair

import (
	"context"

	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/cfg"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/dxbc"
	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/logx"
	"github.com/mtlshade/dxair/metallib"
	"github.com/mtlshade/dxair/op"
	"github.com/mtlshade/dxair/shader"
	"github.com/mtlshade/dxair/tessellation"
	"github.com/mtlshade/dxair/translate"
	"github.com/mtlshade/dxair/typeanalysis"
)

// VertexPullAttribute is one entry of stage_args' input-assembler layout
// (spec §6, §4.10): which vertex-buffer-table slot an input pulls from,
// its wire format, its byte offset inside one vertex record, and (for an
// instanced attribute) its step rate.
type VertexPullAttribute struct {
	BufferSlot      int
	Format          translate.VertexFormat
	ByteOffset      int
	PerInstance     bool
	InstanceDivisor int
}

// Options is stage_args (spec §6): the caller-supplied configuration a
// Convert call needs beyond the bytecode itself. The zero value is a
// reasonable default for a non-tessellation, non-vertex-pulling stage.
type Options struct {
	// Name is the emitted function's name. Defaults to "main" when empty.
	Name string

	// LanguageVersion is the AIR language version requested for the
	// air.language_version module metadata (spec §3). Defaults to "3.1".
	LanguageVersion string

	// TessMaxFactorOverride, when HasTessMaxFactorOverride is set, clamps
	// a hull/domain pair's declared max tess factor (spec §4.9).
	TessMaxFactorOverride    float32
	HasTessMaxFactorOverride bool

	// VertexPull, when non-empty, routes a vertex-stage shader through
	// the vertex-pulling prologue (spec §4.10) instead of Metal's native
	// stage-in descriptor. Must have one entry per decoded input
	// signature row, in signature order.
	VertexPull []VertexPullAttribute

	// HullBytecode pairs a domain-stage Convert call with its matching
	// hull-stage bytecode, triggering the tessellation rewrite (spec
	// §4.9). Ignored for every stage but domain.
	HullBytecode []byte
}

func (o Options) name() string {
	if o.Name != "" {
		return o.Name
	}
	return "main"
}

func (o Options) languageVersion() string {
	if o.LanguageVersion != "" {
		return o.LanguageVersion
	}
	return "3.1"
}

// Result is Convert's successful output.
type Result struct {
	Metallib []byte
	Stage    shader.Stage
}

// buildEnv is the op.Op environment threaded through Convert's build
// chain (spec §4.1): everything a build step needs to read, held fixed
// for the whole pipeline so each step is a plain function of it.
type buildEnv struct {
	ctx  context.Context
	opts Options
}

// Convert decodes bytecode (a single DXBC container for every stage but
// domain, which additionally consults opts.HullBytecode) and emits a
// finished metallib (spec §6's `Convert(bytecode_ptr, bytecode_size,
// stage_args) -> {metallib_ptr, metallib_size}`). Geometry-stage
// bytecode is rejected with an Unsupported error (spec §1,
// SPEC_FULL.md's Supplemented Feature #7); no partial metallib is ever
// returned on failure (spec §6's error surface).
func Convert(ctx context.Context, bytecode []byte, opts Options) (Result, error) {
	log := logx.From(ctx).With("dxair.Convert")
	env := buildEnv{ctx: ctx, opts: opts}

	build := op.Go(func(y *op.Yield[buildEnv]) convertOutcome {
		sh := op.Do(y, decodeStep(bytecode))
		log.Infof("decoded %s shader, sm%d.%d", sh.Stage, sh.MajorVersion, sh.MinorVersion)

		switch sh.Stage {
		case shader.StageGeometry:
			panic(&yieldFail{unsupported("dxair: geometry-shader stage is not supported")})
		case shader.StageHull:
			panic(&yieldFail{unsupported("dxair: a hull shader must be converted together with its paired domain shader; pass the domain bytecode as the primary input and the hull bytecode via Options.HullBytecode")})
		case shader.StageDomain:
			if len(opts.HullBytecode) > 0 {
				return op.Do(y, tessellationStep(sh))
			}
			return op.Do(y, ordinaryStep(sh))
		default:
			return op.Do(y, ordinaryStep(sh))
		}
	})

	out, err := runBuild(build, env)
	if err != nil {
		return Result{}, err
	}

	lib, err := metallib.Write(out.m)
	if err != nil {
		return Result{}, errs.Wrap(errs.Writer, err, "dxair: metallib serialization failed")
	}
	log.Infof("wrote metallib: %d bytes", len(lib))
	return Result{Metallib: lib, Stage: out.stage}, nil
}

// convertOutcome is what the build chain hands back to Convert once
// every function has been emitted and attached to its named-metadata
// stream, just short of final serialization.
type convertOutcome struct {
	m     *codegen.Module
	stage shader.Stage
}

// yieldFail lets the switch above abort the op.Go body from a plain
// Go-level panic the same way op.Do does internally, instead of
// threading an extra (convertOutcome, error) return through every case.
type yieldFail struct{ err error }

// runBuild executes build against env, translating a yieldFail panic
// (raised directly by Convert's stage switch, rather than through
// op.Do) into the Op's own error the same way op.Go already recovers
// op.Do's *yieldAbort.
func runBuild(build op.Op[buildEnv, convertOutcome], env buildEnv) (result convertOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*yieldFail); ok {
				err = f.err
				return
			}
			panic(r)
		}
	}()
	return build.Build(env)
}

// decodeStep wraps dxbc.Decode as an Op (spec §4.1's "every pass is a
// deferred build step against a fixed environment").
func decodeStep(bytecode []byte) op.Op[buildEnv, *shader.Shader] {
	return op.Func(func(buildEnv) (*shader.Shader, error) {
		return dxbc.Decode(bytecode)
	})
}

// ordinaryStep analyzes and recovers sh's single main phase and lowers
// it through translate.DeclareAndLower (or, when the caller requested
// vertex pulling, translate.DeclareAndLowerPulled), then emits the
// module-level AIR metadata every finished module carries (spec §3).
func ordinaryStep(sh *shader.Shader) op.Op[buildEnv, convertOutcome] {
	return op.Func(func(e buildEnv) (convertOutcome, error) {
		phase := sh.MainPhase()
		if err := analyzeAndRecover(phase); err != nil {
			return convertOutcome{}, err
		}

		m := newModule(e.opts.name())
		reg := air.NewRegistry(m)

		var fn *codegen.Function
		var err error
		if sh.Stage == shader.StageVertex && len(e.opts.VertexPull) > 0 {
			fn, err = translate.DeclareAndLowerPulled(m, reg, sh, e.opts.name(), toTranslateAttrs(e.opts.VertexPull))
		} else {
			fn, err = translate.DeclareAndLower(m, reg, sh, e.opts.name())
		}
		if err != nil {
			return convertOutcome{}, errs.Wrap(errs.Lowering, err, "dxair: lowering %s stage", sh.Stage)
		}
		_ = fn

		emitModuleMetadata(m, e.opts.languageVersion())
		return convertOutcome{m: m, stage: sh.Stage}, nil
	})
}

// tessellationStep decodes the paired hull bytecode, derives a
// tessellation.Config from its declared tokens, and builds the
// object+mesh pipeline that replaces the DXBC hull/domain pair (spec
// §4.9). Both recovered functions are emitted into the same module.
func tessellationStep(domain *shader.Shader) op.Op[buildEnv, convertOutcome] {
	return op.Func(func(e buildEnv) (convertOutcome, error) {
		hull, err := dxbc.Decode(e.opts.HullBytecode)
		if err != nil {
			return convertOutcome{}, errs.Wrap(errs.Malformed, err, "dxair: decoding paired hull bytecode")
		}
		if hull.Stage != shader.StageHull {
			return convertOutcome{}, errs.New(errs.Malformed, "dxair: Options.HullBytecode did not decode to a hull-stage shader (got %s)", hull.Stage)
		}

		cfgIn, err := deriveTessConfig(hull, e.opts)
		if err != nil {
			return convertOutcome{}, err
		}

		for _, phase := range hull.Phases {
			if err := analyzeAndRecoverDecls(phase); err != nil {
				return convertOutcome{}, err
			}
		}
		if err := analyzeAndRecoverDecls(domain.MainPhase()); err != nil {
			return convertOutcome{}, err
		}

		m := newModule(e.opts.name())
		reg := air.NewRegistry(m)

		objRes, err := tessellation.BuildObjectShader(m, reg, hull, cfgIn, e.opts.name()+"_object")
		if err != nil {
			return convertOutcome{}, errs.Wrap(errs.Lowering, err, "dxair: building object shader")
		}
		if _, err := tessellation.BuildMeshShader(m, reg, domain, objRes, cfgIn, e.opts.name()+"_mesh"); err != nil {
			return convertOutcome{}, errs.Wrap(errs.Lowering, err, "dxair: building mesh shader")
		}

		emitModuleMetadata(m, e.opts.languageVersion())
		return convertOutcome{m: m, stage: shader.StageDomain}, nil
	})
}

// analyzeAndRecover runs typeanalysis.Analyze then cfg.Recover over a
// single-phase (non-hull) stage's main phase; DeclareAndLower expects
// both to have already run (it only branches into phase.CFG, never
// builds it).
func analyzeAndRecover(phase *shader.Phase) error {
	if err := typeanalysis.Analyze(phase); err != nil {
		return errs.Wrap(errs.Lowering, err, "dxair: type analysis")
	}
	if len(phase.Instructions) == 0 {
		return nil
	}
	if err := cfg.Recover(phase); err != nil {
		return errs.Wrap(errs.Malformed, err, "dxair: control-flow recovery")
	}
	return nil
}

// analyzeAndRecoverDecls runs type analysis only (spec §4.5); cfg
// recovery for hull/domain phases is left to the tessellation builders
// themselves, which call cfg.Recover on the specific phase(s) they lower
// (the control-point phase inside BuildObjectShader, fork/join inside
// its patch-constant helper, the domain's main phase inside
// BuildMeshShader) once their own seeded input/output addresses are in
// place — running it here a second time would discard that seeding.
func analyzeAndRecoverDecls(phase *shader.Phase) error {
	if err := typeanalysis.Analyze(phase); err != nil {
		return errs.Wrap(errs.Lowering, err, "dxair: type analysis")
	}
	return nil
}

func unsupported(format string, args ...interface{}) error {
	return errs.New(errs.Unsupported, format, args...)
}

func toTranslateAttrs(in []VertexPullAttribute) []translate.VertexAttribute {
	out := make([]translate.VertexAttribute, len(in))
	for i, a := range in {
		out[i] = translate.VertexAttribute{
			BufferSlot:      a.BufferSlot,
			ByteOffset:      a.ByteOffset,
			Format:          a.Format,
			PerInstance:     a.PerInstance,
			InstanceDivisor: a.InstanceDivisor,
		}
	}
	return out
}
