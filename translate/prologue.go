package translate

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/binding"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
)

// DeclareAndLower builds one stage function end to end: the argument-
// buffer struct and its function signature metadata (binding), the
// function itself with its resource-unpacking prologue, the lowered body
// (dispatch.go's Lower over every recovered block), and an epilogue that
// writes the stage's final output values and returns (spec §4.7, §4.8).
// Hull shaders are handled by the tessellation package instead, since
// their control-point phase needs the rewrite's barrier insertion before
// Lower can run over it.
func DeclareAndLower(m *codegen.Module, reg *air.Registry, sh *shader.Shader, name string) (*codegen.Function, error) {
	if sh.Stage == shader.StageHull {
		return nil, unsupported("translate: hull shaders are lowered by the tessellation rewrite, not DeclareAndLower")
	}

	members := binding.PlanResources(m, reg, sh.Reflection)
	argStruct, _ := binding.BuildArgumentBuffer(m, name+"_Resources", members)
	argPtrTy := m.Types.Pointer(argStruct, air.AddressSpaceConstant)

	c := NewContext(m, reg, nil, nil, sh.Stage)
	resultTy, outputs := c.buildOutputs(sh.Reflection.Outputs)
	inputs := c.buildInputs(sh.Reflection.Inputs)

	fn := m.NewFunction(name, resultTy, codegen.Param{
		Name: "resources", Type: argPtrTy,
		Attrs: []codegen.FuncAttr{codegen.AttrNoCapture, codegen.AttrReadOnly},
	})
	c.Fn = fn

	var retErr error
	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		c.CB = cb
		c.Air = air.NewBuilder(cb, reg)
		BindResources(c, fn.Param(0), members)

		epilogue := fn.NewBlock("epilogue")

		phase := sh.MainPhase()
		cb.SetInsertPoint(entry)
		if phase.CFG != nil && phase.CFG.Entry != nil {
			cb.Br(c.EntryTargetOrBuild(phase))
		} else {
			cb.Br(epilogue)
		}
		if err := Lower(c, phase, epilogue); err != nil {
			retErr = err
			return
		}

		cb.SetInsertPoint(epilogue)
		c.emitReturn(resultTy, sh.Reflection.Outputs)
	})
	if retErr != nil {
		return nil, retErr
	}

	binding.AttachFunctionMetadata(m, stageKindFor(sh.Stage), fn, outputs, inputs, nil)
	if sh.Stage == shader.StageVertex {
		fn.SetVertexAttributes(c.buildVertexAttributes(sh.Reflection.Inputs))
	}
	return fn, nil
}

// buildVertexAttributes mirrors buildInputs' per-input slot/name/type
// assignment into the plain form the metallib writer's VATT/VATY tags need
// (spec §4.7, §5).
func (c *Context) buildVertexAttributes(sig []shader.SignatureEntry) []codegen.VertexAttribute {
	out := make([]codegen.VertexAttribute, 0, len(sig))
	for _, e := range sig {
		out = append(out, codegen.VertexAttribute{
			Location: e.Register,
			Name:     e.SemanticName,
			TypeName: c.vecType(e.ComponentType).TypeName(),
		})
	}
	return out
}

func stageKindFor(s shader.Stage) binding.StageKind {
	switch s {
	case shader.StageVertex:
		return binding.StageVertex
	case shader.StagePixel:
		return binding.StageFragment
	case shader.StageCompute:
		return binding.StageKernel
	default:
		return binding.StageKernel
	}
}

// EntryTargetOrBuild resolves the codegen block for the phase's recovered
// entry block; Lower hasn't run yet at this point so the block map is
// empty, meaning this always creates it (Lower reuses the same map entry
// rather than creating the entry block twice). Exported so the
// tessellation rewrite can chain into a hull phase's recovered graph the
// same way a normal stage function does.
func (c *Context) EntryTargetOrBuild(phase *shader.Phase) *codegen.BasicBlock {
	if blk, ok := c.blocks[phase.CFG.Entry]; ok {
		return blk
	}
	nb := c.Fn.NewBlock(phase.CFG.Entry.Name)
	c.blocks[phase.CFG.Entry] = nb
	return nb
}

func (c *Context) buildInputs(sig []shader.SignatureEntry) [][]codegen.MDValue {
	out := make([][]codegen.MDValue, 0, len(sig))
	for i, e := range sig {
		out = append(out, binding.BuildInputTuple(binding.Input{
			Slot: i,
			Kind: "air.attribute",
			Name: e.SemanticName,
			Type: c.vecType(e.ComponentType),
			SemanticKeys: []codegen.MDValue{
				codegen.MDString("air.attribute_index"), codegen.MDInt(int64(e.Register)),
			},
		}))
	}
	return out
}

func (c *Context) buildOutputs(sig []shader.SignatureEntry) (codegen.Type, [][]codegen.MDValue) {
	if len(sig) == 0 {
		return c.M.Types.Void, nil
	}
	fieldTypes := make([]codegen.Type, 0, len(sig))
	tuples := make([][]codegen.MDValue, 0, len(sig))
	for _, e := range sig {
		ty := c.vecType(e.ComponentType)
		fieldTypes = append(fieldTypes, ty)
		kind := "air.vertex_output"
		if e.SystemValue == 1 {
			kind = "air.position"
		}
		tuples = append(tuples, binding.BuildOutputTuple(binding.Output{
			Kind: kind,
			Name: e.SemanticName,
			Type: ty,
			SemanticKeys: []codegen.MDValue{
				codegen.MDString("air.location_index"), codegen.MDInt(int64(e.Register)),
			},
		}))
	}
	if len(fieldTypes) == 1 {
		return fieldTypes[0], tuples
	}
	return c.M.Types.Struct(c.Fn.Name+".StageOut", fieldTypes...), tuples
}

// BindResources GEPs every argument-buffer member out of the resources
// parameter and records it against its DXBC register in c's resource
// tables, so dispatch.go's opcode lowering can resolve a resource operand
// to the handle/pointer that backs it. Exported so the tessellation
// rewrite can unpack the same argument-buffer struct shape for its hull
// and domain phase lowering (spec §4.9).
func BindResources(c *Context, resourcesPtr *codegen.Value, members []binding.ArgumentMember) {
	sorted := sortedBySlot(members)
	for i, mem := range sorted {
		fieldPtr := c.CB.GEP(mem.Type, resourcesPtr, 0, i)
		switch mem.Key.Group {
		case binding.GroupConstantBuffer:
			c.BindBuffer(mem.Key.Register, fieldPtr)
		case binding.GroupSampler:
			c.BindSampler(mem.Key.Register, fieldPtr.Load(c.CB))
		case binding.GroupTexture:
			c.BindTexture(mem.Key.Register, fieldPtr.Load(c.CB), mem.TextureDesc)
		case binding.GroupUAV:
			if mem.IsTexture {
				c.BindUAVTexture(mem.Key.Register, fieldPtr.Load(c.CB), mem.TextureDesc)
			} else {
				c.BindBuffer(mem.Key.Register, fieldPtr)
			}
		}
	}
}

func sortedBySlot(members []binding.ArgumentMember) []binding.ArgumentMember {
	out := make([]binding.ArgumentMember, len(members))
	copy(out, members)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Key.Slot() > out[j].Key.Slot(); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (c *Context) emitReturn(resultTy codegen.Type, outputs []shader.SignatureEntry) {
	if resultTy.TypeName() == c.M.Types.Void.TypeName() {
		c.CB.Ret(nil)
		return
	}
	if len(outputs) == 1 {
		c.CB.Ret(c.finalOutputValue(outputs[0]))
		return
	}
	agg := c.CB.Undef(resultTy)
	for i, e := range outputs {
		agg = c.CB.InsertValue(agg, c.finalOutputValue(e), int64(i))
	}
	c.CB.Ret(agg)
}

func (c *Context) finalOutputValue(e shader.SignatureEntry) *codegen.Value {
	slot := ioSlot(c, c.outputs, e.Register, c.vecType(e.ComponentType))
	val := slot.Load(c.CB)
	if e.SystemValue == 1 {
		val = c.Air.SanitizePosition(val)
	}
	return val
}
