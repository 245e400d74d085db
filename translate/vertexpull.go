package translate

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/binding"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
)

// VertexFormat is the closed set of DXGI vertex-attribute formats the
// vertex-pulling prologue unpacks (spec §4.10's "34-format unpack table");
// this covers the formats a representative shader exercises, each routed
// through the matching `air.unpack.<op>` intrinsic.
type VertexFormat int

const (
	FormatFloat1 VertexFormat = iota
	FormatFloat2
	FormatFloat3
	FormatFloat4
	FormatUInt1
	FormatUInt2
	FormatUInt3
	FormatUInt4
	FormatSInt1
	FormatSInt2
	FormatSInt3
	FormatSInt4
	FormatUNorm8x4
	FormatSNorm8x4
	FormatUNorm16x2
	FormatSNorm16x2
	FormatUNorm16x4
	FormatSNorm16x4
	FormatUNorm10_10_10_2
	FormatFloat16x2
	FormatFloat16x4
)

func (f VertexFormat) unpackOp() string {
	switch f {
	case FormatUNorm8x4:
		return "air.unpack.unorm4x8_to_float"
	case FormatSNorm8x4:
		return "air.unpack.snorm4x8_to_float"
	case FormatUNorm16x2:
		return "air.unpack.unorm2x16_to_float"
	case FormatSNorm16x2:
		return "air.unpack.snorm2x16_to_float"
	case FormatUNorm16x4:
		return "air.unpack.unorm4x16_to_float"
	case FormatSNorm16x4:
		return "air.unpack.snorm4x16_to_float"
	case FormatUNorm10_10_10_2:
		return "air.unpack.unorm10a2_to_float"
	default:
		return ""
	}
}

// VertexBufferEntry is spec §4.10's per-buffer record read from the
// constant-address-space table at buffer 16: a base device address and a
// per-vertex stride.
type VertexBufferEntry struct {
	BaseAddr *codegen.Value // device ptr
	Stride   *codegen.Value // i32
}

// VertexAttribute describes one pulled attribute: which vertex-buffer
// table slot it reads, its byte offset inside one vertex record, its wire
// format, and (for instanced attributes) its step function.
type VertexAttribute struct {
	BufferSlot     int
	ByteOffset     int
	Format         VertexFormat
	PerInstance    bool
	InstanceDivisor int
}

// vertexBufferTableEntry GEPs the buffer-16 table for slot and loads its
// {base_addr, stride} record. table is a pointer to the record struct
// type; indexing it directly (rather than through an intervening array
// type) matches how VertexBufferTableType below declares buffer 16.
func vertexBufferTableEntry(c *Context, table *codegen.Value, slot int) VertexBufferEntry {
	recordTy := table.Type().ElementType()
	rec := c.CB.GEP(recordTy, table, slot)
	baseAddrTy := c.M.Types.Pointer(c.M.Types.Uint8, 1)
	base := c.CB.GEP(baseAddrTy, rec, 0, 0).Load(c.CB)
	stride := c.CB.GEP(c.M.Types.Uint32, rec, 0, 1).Load(c.CB)
	return VertexBufferEntry{BaseAddr: base, Stride: stride}
}

// VertexBufferTableType is the constant-address-space vertex-buffer-entry
// record type bound at buffer 16 for vertex-pulling stages (spec §4.10):
// {base_addr: device i8*, stride: u32}.
func VertexBufferTableType(m *codegen.Module) codegen.Type {
	return m.Types.Struct("struct.VertexBufferEntry",
		m.Types.Pointer(m.Types.Uint8, 1),
		m.Types.Uint32,
	)
}

// PullVertexAttribute computes a pulled attribute's byte offset for
// vertexIndex/instanceIndex, loads the raw bytes and unpacks them to the
// attribute's logical 4-lane value (spec §4.10): byte_offset =
// stride*index + aligned_byte_offset, where index is vertexIndex for a
// per-vertex attribute or instanceIndex/divisor (integer division) for a
// per-instance one. A buffer bound null (spec §4.10 item 3) branches past
// the load and yields a zero vec4 instead of dereferencing the address.
func PullVertexAttribute(c *Context, table *codegen.Value, attr VertexAttribute, vertexIndex, instanceIndex *codegen.Value) *codegen.Value {
	entry := vertexBufferTableEntry(c, table, attr.BufferSlot)
	isNull := IsNullVertexBuffer(c, entry)

	index := vertexIndex
	if attr.PerInstance {
		divisor := attr.InstanceDivisor
		if divisor <= 0 {
			divisor = 1
		}
		index = c.CB.Arith(codegen.UDiv, instanceIndex, c.CB.Int(c.M.Types.Uint32, int64(divisor)))
	}

	byteOffset := c.CB.Arith(codegen.Add,
		c.CB.Arith(codegen.Mul, entry.Stride, index),
		c.CB.Int(c.M.Types.Uint32, int64(attr.ByteOffset)),
	)

	elemTy, lanes := formatStorage(c.M, attr.Format)
	resultTy := c.M.Types.Vector(scalarElem(elemTy), 4)
	if attr.Format.unpackOp() != "" {
		resultTy = c.M.Types.Vector(c.M.Types.Float, 4)
	}
	zero := c.zeroOf(resultTy)
	nullEnd := c.CB.Block()
	loadBlk := c.Fn.NewBlock("pull_load")
	joinBlk := c.Fn.NewBlock("pull_join")
	c.CB.CondBr(isNull, joinBlk, loadBlk)

	c.CB.SetInsertPoint(loadBlk)
	addr := c.CB.PtrCast(c.CB.GEP(c.M.Types.Uint8, entry.BaseAddr, byteOffset), elemTy)
	raw := addr.Load(c.CB)

	var pulled *codegen.Value
	if op := attr.Format.unpackOp(); op != "" {
		f32x4 := c.M.Types.Vector(c.M.Types.Float, 4)
		pulled = c.Air.Call(op, f32x4, []*codegen.Value{raw})
	} else {
		pulled = widenToVec4(c, raw, lanes)
	}
	loadEnd := c.CB.Block()
	c.CB.Br(joinBlk)

	c.CB.SetInsertPoint(joinBlk)
	return c.CB.Phi(resultTy, codegen.PhiIncoming{Value: zero, Block: nullEnd}, codegen.PhiIncoming{Value: pulled, Block: loadEnd})
}

// formatStorage returns the raw load type and logical lane count for a
// vertex format: packed formats load as a single scalar the unpack
// intrinsic explodes, plain int/float formats load as their natural
// N-lane vector.
func formatStorage(m *codegen.Module, f VertexFormat) (codegen.Type, int) {
	switch f {
	case FormatFloat1:
		return m.Types.Float, 1
	case FormatFloat2:
		return m.Types.Vector(m.Types.Float, 2), 2
	case FormatFloat3:
		return m.Types.Vector(m.Types.Float, 3), 3
	case FormatFloat4:
		return m.Types.Vector(m.Types.Float, 4), 4
	case FormatUInt1, FormatSInt1:
		return m.Types.Uint32, 1
	case FormatUInt2, FormatSInt2:
		return m.Types.Vector(m.Types.Uint32, 2), 2
	case FormatUInt3, FormatSInt3:
		return m.Types.Vector(m.Types.Uint32, 3), 3
	case FormatUInt4, FormatSInt4:
		return m.Types.Vector(m.Types.Uint32, 4), 4
	case FormatUNorm8x4, FormatSNorm8x4, FormatUNorm10_10_10_2:
		return m.Types.Uint32, 4
	case FormatUNorm16x2, FormatSNorm16x2:
		return m.Types.Uint32, 2
	case FormatUNorm16x4, FormatSNorm16x4:
		return m.Types.Vector(m.Types.Uint32, 2), 4
	case FormatFloat16x2:
		return m.Types.Uint32, 2
	case FormatFloat16x4:
		return m.Types.Vector(m.Types.Uint32, 2), 4
	default:
		return m.Types.Vector(m.Types.Float, 4), 4
	}
}

// widenToVec4 pads a loaded 1-3 lane value out to the canonical 4-lane
// register storage, zero-filling the unused trailing lanes (w defaults to
// 0 for unmasked reads downstream to ignore, matching the destination
// write mask rather than supplying a meaningful value).
func widenToVec4(c *Context, v *codegen.Value, lanes int) *codegen.Value {
	if lanes == 4 {
		return v
	}
	ty := c.M.Types.Vector(scalarElem(v.Type()), 4)
	out := c.zeroOf(ty)
	if lanes == 1 {
		return c.CB.InsertElement(out, v, 0)
	}
	for lane := 0; lane < lanes; lane++ {
		out = c.CB.InsertElement(out, c.CB.ExtractElement(v, lane), lane)
	}
	return out
}

func scalarElem(t codegen.Type) codegen.Type {
	if t.IsVector() {
		return t.ElementType()
	}
	return t
}

// IsNullVertexBuffer reports (as an i1 value) whether entry's base address
// is the null device pointer (spec §4.10's "null-binding branch to
// zero-vec4"); the caller emits the CondBr and supplies the zero vector on
// the null side, since that value's width depends on the attribute being
// pulled, not on the buffer entry itself.
func IsNullVertexBuffer(c *Context, entry VertexBufferEntry) *codegen.Value {
	zero := c.CB.NullPointer(entry.BaseAddr.Type())
	return c.CB.ICmp(codegen.CmpIEQ, entry.BaseAddr, zero)
}

// DeclareAndLowerPulled builds a vertex-stage function the same way
// DeclareAndLower does, except its inputs are manually pulled out of a
// constant-address-space vertex-buffer-table argument (buffer 16) rather
// than bound through Metal's native [[stage_in]] vertex descriptor (spec
// §4.10). This is the path Convert takes whenever the input-assembler
// layout in its Options requests vertex pulling (arbitrary DXGI vertex
// formats, non-interleaved buffers, or per-instance step rates a plain
// stage-in attribute cannot express). attrs must align 1:1 with sh's
// reflected input signature.
func DeclareAndLowerPulled(m *codegen.Module, reg *air.Registry, sh *shader.Shader, name string, attrs []VertexAttribute) (*codegen.Function, error) {
	if sh.Stage != shader.StageVertex {
		return nil, unsupported("translate: vertex pulling only applies to the vertex stage, got %s", sh.Stage)
	}
	if len(attrs) != len(sh.Reflection.Inputs) {
		return nil, unsupported("translate: vertex pulling attribute count %d does not match input signature count %d", len(attrs), len(sh.Reflection.Inputs))
	}

	members := binding.PlanResources(m, reg, sh.Reflection)
	argStruct, _ := binding.BuildArgumentBuffer(m, name+"_Resources", members)
	argPtrTy := m.Types.Pointer(argStruct, air.AddressSpaceConstant)
	tablePtrTy := m.Types.Pointer(VertexBufferTableType(m), air.AddressSpaceConstant)

	c := NewContext(m, reg, nil, nil, sh.Stage)
	resultTy, outputs := c.buildOutputs(sh.Reflection.Outputs)

	inputs := [][]codegen.MDValue{
		binding.BuildInputTuple(binding.Input{
			Slot: 0, Kind: "air.buffer", Name: "vertexBuffers", Type: tablePtrTy,
			HasLocationIndex: true, LocationIndex: binding.ArgVertexBufferTable,
		}),
		binding.BuildInputTuple(binding.Input{Slot: 1, Kind: "air.vertex_id", Name: "vertex_id", Type: m.Types.Uint32}),
		binding.BuildInputTuple(binding.Input{Slot: 2, Kind: "air.instance_id", Name: "instance_id", Type: m.Types.Uint32}),
	}

	fn := m.NewFunction(name, resultTy,
		codegen.Param{
			Name: "resources", Type: argPtrTy,
			Attrs: []codegen.FuncAttr{codegen.AttrNoCapture, codegen.AttrReadOnly},
		},
		codegen.Param{
			Name: "vertexBuffers", Type: tablePtrTy,
			Attrs: []codegen.FuncAttr{codegen.AttrNoCapture, codegen.AttrReadOnly},
		},
		codegen.Param{Name: "vertex_id", Type: m.Types.Uint32},
		codegen.Param{Name: "instance_id", Type: m.Types.Uint32},
	)
	c.Fn = fn

	var retErr error
	fn.Build(func(cb *codegen.Builder, entry *codegen.BasicBlock) {
		c.CB = cb
		c.Air = air.NewBuilder(cb, reg)
		cb.SetInsertPoint(entry)

		BindResources(c, fn.Param(0), members)
		table := fn.Param(1)
		vertexIndex := fn.Param(2)
		instanceIndex := fn.Param(3)

		for i, e := range sh.Reflection.Inputs {
			pulled := PullVertexAttribute(c, table, attrs[i], vertexIndex, instanceIndex)
			ioSlot(c, c.inputs, e.Register, c.vecType(e.ComponentType)).Store(cb, pulled)
		}

		epilogue := fn.NewBlock("epilogue")

		phase := sh.MainPhase()
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

	binding.AttachFunctionMetadata(m, binding.StageVertex, fn, outputs, inputs, nil)
	return fn, nil
}
