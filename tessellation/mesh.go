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

// BuildMeshShader builds the mesh shader that replaces a DXBC domain
// stage (spec §4.9 item 3). One threadgroup runs per patch (one workload
// per patch in this rewrite's simplified payload, see workload.go); each
// thread computes one regular-grid domain point, lowers the domain
// phase to evaluate its final vertex, and — for threads whose index also
// names a grid triangle — assembles one primitive.
//
// Only domain shaders that read patch-constant outputs and at most the
// single control point stored at index 0 of their patch's control-point
// row are supported; a domain shader that blends several control points
// together (the common case for smooth surface patches) needs per-
// operand indexed control-point addressing translate/operand.go does not
// yet implement, and is out of scope for this version (see DESIGN.md).
func BuildMeshShader(m *codegen.Module, reg *air.Registry, domain *shader.Shader, objRes *ObjectResult, cfgIn Config, name string) (*codegen.Function, error) {
	if domain.Stage != shader.StageDomain {
		return nil, errs.New(errs.Unsupported, "tessellation: BuildMeshShader requires a domain-stage shader")
	}
	if cfgIn.Domain == DomainIsoline {
		return nil, errs.New(errs.Unsupported, "tessellation: isoline domain is not supported")
	}

	maxFactor := objRes.FactorInt
	vertexCount := gridVertexCount(maxFactor)
	triCount := gridTriangleCount(maxFactor)
	reserved := ReservedVertexCount(maxFactor)
	if vertexCount > reserved {
		vertexCount = reserved
	}

	members := binding.PlanResources(m, reg, domain.Reflection)
	argStruct, _ := binding.BuildArgumentBuffer(m, name+"_Resources", members)

	payloadParam := codegen.Param{Name: "payload", Type: m.Types.Pointer(objRes.PayloadType, air.AddressSpaceObjectData)}
	meshParam := codegen.Param{Name: "mesh", Type: reg.MeshHandleType()}
	resourcesParam := codegen.Param{Name: "resources", Type: m.Types.Pointer(argStruct, air.AddressSpaceConstant),
		Attrs: []codegen.FuncAttr{codegen.AttrNoCapture, codegen.AttrReadOnly}}
	threadPosParam := codegen.Param{Name: "thread_position_in_threadgroup", Type: m.Types.Vector(m.Types.Uint32, 3)}
	groupPosParam := codegen.Param{Name: "threadgroup_position_in_grid", Type: m.Types.Vector(m.Types.Uint32, 3)}

	fn := m.NewFunction(name, m.Types.Void, payloadParam, meshParam, resourcesParam, threadPosParam, groupPosParam)

	var retErr error
	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		cb.SetInsertPoint(entry)
		c := translate.NewContext(m, reg, cb, fn, shader.StageDomain)
		airB := air.NewBuilder(cb, reg)
		translate.BindResources(c, fn.Param(2), members)

		payloadPtr := fn.Param(0)
		mesh := fn.Param(1)
		patchIdx := cb.ExtractElement(fn.Param(4), 0)
		threadIdx := cb.ExtractElement(fn.Param(3), 0)

		for r := 0; r < cfgIn.MaxPatchConstantRegister; r++ {
			addr := cb.GEP(m.Types.Vector(m.Types.Float, 4), payloadPtr, 0, payloadFieldPatchConstants, patchIdx, r)
			c.SeedOutput(r, addr)
		}
		for r := 0; r < cfgIn.MaxOutputRegister; r++ {
			addr := cb.GEP(m.Types.Vector(m.Types.Float, 4), payloadPtr, 0, payloadFieldControlPoints, patchIdx, 0, r)
			c.SeedInput(r, addr)
		}

		u, v := domainPointUV(cb, m, maxFactor, threadIdx)
		domainLoc := cb.Undef(m.Types.Vector(m.Types.Float, 4))
		domainLoc = cb.InsertElement(domainLoc, u, 0)
		domainLoc = cb.InsertElement(domainLoc, v, 1)
		if cfgIn.Domain == DomainTriangle {
			w := cb.Arith(codegen.FSub, cb.Arith(codegen.FSub, cb.Float(m.Types.Float, 1), u), v)
			domainLoc = cb.InsertElement(domainLoc, w, 2)
		}
		domainLocAddr := cb.Alloca(m.Types.Vector(m.Types.Float, 4))
		domainLocAddr.Store(cb, domainLoc)
		// SV_DomainLocation is seeded one past the last control-point input
		// register this patch uses: the HLSL compiler always allocates
		// control-point inputs starting at register 0, so this index is
		// never aliased by a real control-point read.
		c.SeedInput(cfgIn.MaxOutputRegister, domainLocAddr)

		phase := domain.MainPhase()
		if err := cfg.Recover(phase); err != nil {
			retErr = err
			return
		}

		vertEpilogue := fn.NewBlock("vert_epilogue")
		vertActive := fn.NewBlock("vert_active")
		inBounds := cb.ICmp(codegen.CmpULT, threadIdx, cb.Int(m.Types.Uint32, int64(vertexCount)))
		cb.CondBr(inBounds, vertActive, vertEpilogue)

		cb.SetInsertPoint(vertActive)
		if phase.CFG != nil && phase.CFG.Entry != nil {
			cb.Br(c.EntryTargetOrBuild(phase))
		} else {
			cb.Br(vertEpilogue)
		}
		if err := translate.Lower(c, phase, vertEpilogue); err != nil {
			retErr = err
			return
		}

		cb.SetInsertPoint(vertEpilogue)
		emitVertex(c, airB, cb, m, mesh, threadIdx, domain.Reflection.Outputs)

		primActive := fn.NewBlock("prim_active")
		done := fn.NewBlock("done")
		primInBounds := cb.ICmp(codegen.CmpULT, threadIdx, cb.Int(m.Types.Uint32, int64(triCount)))
		cb.CondBr(primInBounds, primActive, done)

		cb.SetInsertPoint(primActive)
		v0, v1, v2 := triangleVertexIndices(cb, m, maxFactor, threadIdx)
		if cfgIn.OutputPrimitive == OutputTriangleCCW {
			v1, v2 = v2, v1
		}
		base := cb.Arith(codegen.Mul, threadIdx, cb.Int(m.Types.Uint32, 3))
		airB.SetMeshIndex(mesh, base, v0)
		airB.SetMeshIndex(mesh, cb.Arith(codegen.Add, base, cb.Int(m.Types.Uint32, 1)), v1)
		airB.SetMeshIndex(mesh, cb.Arith(codegen.Add, base, cb.Int(m.Types.Uint32, 2)), v2)
		cb.Br(done)

		cb.SetInsertPoint(done)
		setCount := fn.NewBlock("set_count")
		finish := fn.NewBlock("finish")
		isFirst := cb.ICmp(codegen.CmpIEQ, threadIdx, cb.Int(m.Types.Uint32, 0))
		cb.CondBr(isFirst, setCount, finish)

		cb.SetInsertPoint(setCount)
		airB.SetMeshPrimitiveCount(mesh, cb.Int(m.Types.Uint32, int64(triCount)))
		cb.Br(finish)

		cb.SetInsertPoint(finish)
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
	binding.AttachFunctionMetadata(m, binding.StageMesh, fn, nil, nil, &patch)

	return fn, nil
}

// emitVertex writes the domain phase's lowered outputs into the mesh via
// the position/vertex-data API: the output tagged SystemValue==1 goes
// through SetMeshPosition after sanitation, everything else through
// SetMeshVertexData keyed by its declared register.
func emitVertex(c *translate.Context, airB *air.Builder, cb *codegen.Builder, m *codegen.Module, mesh, vertex *codegen.Value, outputs []shader.SignatureEntry) {
	for _, e := range outputs {
		val := c.OutputValue(e.Register, vecTypeFor(m, e.ComponentType))
		if e.SystemValue == 1 {
			val = airB.SanitizePosition(val)
			airB.SetMeshPosition(mesh, vertex, val)
			continue
		}
		airB.SetMeshVertexData(mesh, vertex, cb.Int(m.Types.Uint32, int64(e.Register)), val)
	}
}

func vecTypeFor(m *codegen.Module, dt shader.DataType) codegen.Type {
	switch dt {
	case shader.Float, shader.Float16, shader.Float10, shader.Double:
		return m.Types.Vector(m.Types.Float, 4)
	case shader.Sint16, shader.Int:
		return m.Types.Vector(m.Types.Int32, 4)
	default:
		return m.Types.Vector(m.Types.Uint32, 4)
	}
}
