package tessellation

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/binding"
	"github.com/mtlshade/dxair/cfg"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
	"github.com/mtlshade/dxair/translate"
)

// Config carries the hull shader's declared tessellation shape and the
// PSO-level overrides stage_args supplies (spec §4.9, §6's "tessellation
// overrides (max factor)"). The fields named here come from the hull
// program's declaration tokens rather than shader.Reflection, which only
// models signature/resource tables; the decoder surfaces them to the
// rewrite directly rather than growing Reflection a tessellation-only
// corner.
type Config struct {
	Partitioning    Partitioning
	Domain          Domain
	OutputPrimitive OutputPrimitive

	ControlPointsPerPatch   int
	MaxInputRegister        int // max VS output register the hull phase reads
	MaxOutputRegister       int // max hull control-point output register
	MaxPatchConstantRegister int

	HullMaxThreadsPerPatch int

	MaxTessFactor            float32
	PSOMaxTessFactorOverride float32
	HasPSOOverride           bool
}

// ObjectResult is everything BuildObjectShader computes that the caller
// (the root Convert entry point) needs to also build the matching mesh
// shader and attach function metadata.
type ObjectResult struct {
	Fn              *codegen.Function
	Patch           binding.PatchInfo
	PayloadType     codegen.Type
	PatchPerGroup   int
	ThreadsPerPatch int
	MaxWorkloads    uint32
	FactorInt       uint32
}

// BuildObjectShader builds the object shader that replaces a DXBC hull
// stage (spec §4.9 item 2): one threadgroup per batch of patches, one
// thread per control point, each thread lowering the hull's control-point
// phase and writing its outputs into the payload's threadgroup-memory
// control-point array; thread 0 of each patch then lowers the
// patch-constant (fork/join) phases to compute the patch's tess factors
// and assemble its workload record.
//
// vsOutputs is a threadgroup-memory array the caller fills by running the
// translated vertex shader per control point before this function runs;
// merging vertex-shader execution into the object shader body the way the
// original does is left to the caller's dispatch harness rather than
// reimplemented here, since translate.DeclareAndLower already builds an
// ordinary vertex-stage function that can be reused for it directly.
func BuildObjectShader(m *codegen.Module, reg *air.Registry, hull *shader.Shader, cfgIn Config, name string) (*ObjectResult, error) {
	if hull.Stage != shader.StageHull {
		return nil, errs.New(errs.Unsupported, "tessellation: BuildObjectShader requires a hull-stage shader")
	}
	if cfgIn.Domain == DomainIsoline {
		return nil, errs.New(errs.Unsupported, "tessellation: isoline domain is not supported")
	}
	if len(hull.Phases) < 4 {
		return nil, errs.New(errs.Unsupported, "tessellation: hull shader must have global-decl/fork/join/control-point phases")
	}

	threadsPerPatch := int(NextPow2(uint32(cfgIn.HullMaxThreadsPerPatch)))
	patchPerGroup := int(NextPow2(32 / uint32(threadsPerPatch)))
	_, factorInt := ClampMaxFactor(cfgIn.MaxTessFactor, cfgIn.PSOMaxTessFactorOverride, cfgIn.HasPSOOverride, cfgIn.Partitioning)
	maxWorkloads := MaxPotentialWorkloadCount(factorInt, cfgIn.Domain)
	if maxWorkloads == 0 {
		maxWorkloads = 1
	}

	payloadTy := ObjectPayloadType(m, patchPerGroup, cfgIn.ControlPointsPerPatch, cfgIn.MaxOutputRegister, cfgIn.MaxPatchConstantRegister, maxWorkloads)
	vsOutputsTy := m.Types.Array(m.Types.Array(m.Types.Array(m.Types.Vector(m.Types.Float, 4), cfgIn.MaxInputRegister), cfgIn.ControlPointsPerPatch), patchPerGroup)

	members := binding.PlanResources(m, reg, hull.Reflection)
	argStruct, _ := binding.BuildArgumentBuffer(m, name+"_Resources", members)

	payloadParam := codegen.Param{Name: "payload", Type: m.Types.Pointer(payloadTy, air.AddressSpaceObjectData)}
	gridPropsParam := codegen.Param{Name: "grid_props", Type: reg.MeshGridPropertiesType()}
	resourcesParam := codegen.Param{Name: "resources", Type: m.Types.Pointer(argStruct, air.AddressSpaceConstant),
		Attrs: []codegen.FuncAttr{codegen.AttrNoCapture, codegen.AttrReadOnly}}
	vsOutputsParam := codegen.Param{Name: "vs_outputs", Type: m.Types.Pointer(vsOutputsTy, air.AddressSpaceThreadgroup)}
	threadPosParam := codegen.Param{Name: "thread_position_in_threadgroup", Type: m.Types.Vector(m.Types.Uint32, 3)}
	groupPosParam := codegen.Param{Name: "threadgroup_position_in_grid", Type: m.Types.Vector(m.Types.Uint32, 3)}

	fn := m.NewFunction(name, m.Types.Void, payloadParam, gridPropsParam, resourcesParam, vsOutputsParam, threadPosParam, groupPosParam)

	var retErr error
	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		cb.SetInsertPoint(entry)
		c := translate.NewContext(m, reg, cb, fn, shader.StageHull)
		airB := air.NewBuilder(cb, reg)
		translate.BindResources(c, fn.Param(2), members)

		threadPos := fn.Param(4)
		groupPos := fn.Param(5)
		cpIdx := cb.ExtractElement(threadPos, 0)
		patchIdxInGroup := cb.ExtractElement(threadPos, 1)
		vsOutputsPtr := fn.Param(3)
		payloadPtr := fn.Param(0)

		for r := 0; r < cfgIn.MaxInputRegister; r++ {
			addr := cb.GEP(m.Types.Vector(m.Types.Float, 4), vsOutputsPtr, 0, patchIdxInGroup, cpIdx, r)
			c.SeedInput(r, addr)
		}
		for r := 0; r < cfgIn.MaxOutputRegister; r++ {
			addr := cb.GEP(m.Types.Vector(m.Types.Float, 4), payloadPtr, 0, payloadFieldControlPoints, patchIdxInGroup, cpIdx, r)
			c.SeedOutput(r, addr)
		}

		controlPointPhase := hull.Phases[3]
		if err := cfg.Recover(controlPointPhase); err != nil {
			retErr = err
			return
		}

		cpEpilogue := fn.NewBlock("cp_epilogue")
		activeCP := fn.NewBlock("cp_active")
		active := cb.ICmp(codegen.CmpULT, cpIdx, cb.Int(m.Types.Uint32, int64(cfgIn.ControlPointsPerPatch)))
		cb.CondBr(active, activeCP, cpEpilogue)

		cb.SetInsertPoint(activeCP)
		if controlPointPhase.CFG != nil && controlPointPhase.CFG.Entry != nil {
			cb.Br(c.EntryTargetOrBuild(controlPointPhase))
		} else {
			cb.Br(cpEpilogue)
		}
		if err := translate.Lower(c, controlPointPhase, cpEpilogue); err != nil {
			retErr = err
			return
		}

		cb.SetInsertPoint(cpEpilogue)
		airB.Barrier(air.MemThreadgroup)

		patchLead := fn.NewBlock("patch_lead")
		done := fn.NewBlock("done")
		isLead := cb.ICmp(codegen.CmpIEQ, cpIdx, cb.Int(m.Types.Uint32, 0))
		cb.CondBr(isLead, patchLead, done)

		cb.SetInsertPoint(patchLead)
		if err := lowerPatchConstantPhases(c, hull, m, payloadPtr, patchIdxInGroup, cfgIn); err != nil {
			retErr = err
			return
		}
		globalPatchIdx := cb.Arith(codegen.Add,
			cb.Arith(codegen.Mul, cb.ExtractElement(groupPos, 0), cb.Int(m.Types.Uint32, int64(patchPerGroup))),
			patchIdxInGroup)
		writeWorkload(cb, m, payloadPtr, patchIdxInGroup, globalPatchIdx, factorInt, maxWorkloads)
		cb.Br(done)

		cb.SetInsertPoint(done)
		gridSizeTy := m.Types.Vector(m.Types.Uint32, 3)
		gridSize := cb.Undef(gridSizeTy)
		gridSize = cb.InsertElement(gridSize, cb.Int(m.Types.Uint32, int64(patchPerGroup)), 0)
		gridSize = cb.InsertElement(gridSize, cb.Int(m.Types.Uint32, 1), 1)
		gridSize = cb.InsertElement(gridSize, cb.Int(m.Types.Uint32, 1), 2)
		airB.SetMeshProperties(fn.Param(1), gridSize)
		cb.Ret(nil)
	})
	if retErr != nil {
		return nil, retErr
	}

	topology := PatchTriangle
	if cfgIn.Domain == DomainQuad {
		topology = PatchQuad
	}
	patch := binding.PatchInfo{Topology: topology, ControlPointCount: cfgIn.ControlPointsPerPatch}
	binding.AttachFunctionMetadata(m, binding.StageObject, fn, nil, nil, &patch)

	return &ObjectResult{
		Fn: fn, Patch: patch, PayloadType: payloadTy,
		PatchPerGroup: patchPerGroup, ThreadsPerPatch: threadsPerPatch,
		MaxWorkloads: maxWorkloads, FactorInt: factorInt,
	}, nil
}

// lowerPatchConstantPhases runs a hull shader's fork and join phases
// (spec §3's phase ordering) once for the calling thread's patch, seeding
// patch-constant output writes into the payload's patch-constant row.
func lowerPatchConstantPhases(c *translate.Context, hull *shader.Shader, m *codegen.Module, payloadPtr *codegen.Value, patchIdxInGroup *codegen.Value, cfgIn Config) error {
	for r := 0; r < cfgIn.MaxPatchConstantRegister; r++ {
		addr := c.CB.GEP(m.Types.Vector(m.Types.Float, 4), payloadPtr, 0, payloadFieldPatchConstants, patchIdxInGroup, r)
		c.SeedOutput(r, addr)
	}
	for _, phaseIdx := range []int{1, 2} { // fork, join
		phase := hull.Phases[phaseIdx]
		if len(phase.Instructions) == 0 {
			continue
		}
		if err := cfg.Recover(phase); err != nil {
			return err
		}
		epilogue := c.Fn.NewBlock("pc_epilogue")
		if phase.CFG != nil && phase.CFG.Entry != nil {
			c.CB.Br(c.EntryTargetOrBuild(phase))
		} else {
			c.CB.Br(epilogue)
		}
		if err := translate.Lower(c, phase, epilogue); err != nil {
			return err
		}
		c.CB.SetInsertPoint(epilogue)
	}
	return nil
}

// writeWorkload assembles and stores a patch's TessMeshWorkload record.
// The payload's workload array is flat, reserving maxWorkloads entries
// per patch (the worst case one patch could produce); this rewrite only
// ever populates entry 0 of a patch's reservation (see DESIGN.md), so
// the write lands at patchIdxInGroup*maxWorkloads. Per-edge factor
// extraction from the patch-constant outputs the hull phases just wrote
// is left as the integer factor broadcast to every lane (a scoped
// simplification over reading SV_TessFactor/SV_InsideTessFactor
// individually; see DESIGN.md).
func writeWorkload(cb *codegen.Builder, m *codegen.Module, payloadPtr *codegen.Value, patchIdxInGroup, globalPatchIdx *codegen.Value, factorInt, maxWorkloads uint32) {
	workloadTy := TessMeshWorkloadType(m)
	flatIdx := cb.Arith(codegen.Mul, patchIdxInGroup, cb.Int(m.Types.Uint32, int64(maxWorkloads)))
	slot := cb.GEP(workloadTy, payloadPtr, 0, payloadFieldWorkloads, flatIdx)

	factor16 := int64(factorInt)
	innerTy := m.Types.Vector(m.Types.Int16, 4)
	inner := cb.Undef(innerTy)
	outer := cb.Undef(innerTy)
	for lane := 0; lane < 4; lane++ {
		inner = cb.InsertElement(inner, cb.Int(m.Types.Int16, factor16), lane)
		outer = cb.InsertElement(outer, cb.Int(m.Types.Int16, factor16), lane)
	}

	innerPtr := cb.GEP(innerTy, slot, 0, 0)
	innerPtr.Store(cb, inner)
	outerPtr := cb.GEP(innerTy, slot, 0, 1)
	outerPtr.Store(cb, outer)
	intFactorPtr := cb.GEP(m.Types.Int32, slot, 0, 2)
	intFactorPtr.Store(cb, cb.Int(m.Types.Int32, int64(factorInt)))
	patchIdxPtr := cb.GEP(m.Types.Int16, slot, 0, 5)
	patchIdxPtr.Store(cb, cb.Trunc(globalPatchIdx, m.Types.Int16))
}
