// Package translate is C9: the DXBC-to-AIR translator. For each phase it
// walks the block graph cfg.Recover built, emitting one codegen basic
// block per shader.Block and lowering every instruction through a dense
// opcode dispatch table (spec §4.8), honoring destination masks, source
// swizzles and abs/neg modifiers, and routing resource access through
// binding's argument-buffer plan.
package translate

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

// Context is the per-function translation state: the codegen builder
// emitting into the function being built, the AIR intrinsic builder bound
// to the same builder, and the live register file (spec §3's Phase/
// Instruction data model come in as values; translate owns their SSA
// storage for the duration of one function body).
type Context struct {
	M   *codegen.Module
	Reg *air.Registry
	Air *air.Builder
	CB  *codegen.Builder
	Fn  *codegen.Function

	Stage shader.Stage

	regs    map[int]*codegen.Value // dense temp register id -> alloca'd vector
	regType map[int]shader.DataType

	blocks map[*shader.Block]*codegen.BasicBlock

	inputs  map[int]*codegen.Value // input register -> alloca'd vec4
	outputs map[int]*codegen.Value // output register -> alloca'd vec4

	textures map[int]textureBinding   // t# register -> handle + kind
	samplers map[int]*codegen.Value  // s# register -> sampler handle
	uavs     map[int]textureBinding   // u# register -> handle + kind (typed UAVs only)
	buffers  map[int]*codegen.Value  // cb#/u# register -> raw device/constant pointer
}

// textureBinding pairs a loaded opaque handle with the air.Texture
// descriptor the sample/load/store/atomic intrinsics need to pick their
// mangled symbol.
type textureBinding struct {
	Handle *codegen.Value
	Tex    air.Texture
}

// BindTexture, BindSampler, BindUAVTexture and BindBuffer record a loaded
// resource handle/pointer against its DXBC register, for later lookup by
// the texture/atomic lowering helpers. prologue.go's BindResources calls
// one of them per resource while unpacking buffer 20's argument-buffer
// struct.
func (c *Context) BindTexture(reg int, handle *codegen.Value, tex air.Texture) {
	c.textures[reg] = textureBinding{Handle: handle, Tex: tex}
}

func (c *Context) BindSampler(reg int, handle *codegen.Value) {
	c.samplers[reg] = handle
}

func (c *Context) BindUAVTexture(reg int, handle *codegen.Value, tex air.Texture) {
	c.uavs[reg] = textureBinding{Handle: handle, Tex: tex}
}

func (c *Context) BindBuffer(reg int, ptr *codegen.Value) {
	c.buffers[reg] = ptr
}

// SeedInput and SeedOutput pre-populate an input/output register's storage
// with a caller-supplied address rather than letting ioSlot allocate a
// private local on first reference. The tessellation rewrite uses this to
// route a hull control-point phase's output writes into a threadgroup
// payload slot, and a domain phase's control-point/patch-constant reads
// out of one, instead of the private-alloca storage a normal stage
// function uses (spec §4.9).
func (c *Context) SeedInput(reg int, ptr *codegen.Value) {
	c.inputs[reg] = ptr
}

func (c *Context) SeedOutput(reg int, ptr *codegen.Value) {
	c.outputs[reg] = ptr
}

// OutputValue loads an output register's current value, allocating its
// storage first if nothing has written it yet. The tessellation rewrite
// uses this after lowering a domain phase to read back its final
// per-vertex outputs for emission through the mesh API.
func (c *Context) OutputValue(reg int, ty codegen.Type) *codegen.Value {
	return ioSlot(c, c.outputs, reg, ty).Load(c.CB)
}

// NewContext wires a fresh Context around fn's body, ready for Lower to
// walk a phase's recovered CFG into it.
func NewContext(m *codegen.Module, reg *air.Registry, cb *codegen.Builder, fn *codegen.Function, stage shader.Stage) *Context {
	return &Context{
		M:       m,
		Reg:     reg,
		Air:     air.NewBuilder(cb, reg),
		CB:      cb,
		Fn:      fn,
		Stage:   stage,
		regs:    map[int]*codegen.Value{},
		regType: map[int]shader.DataType{},
		blocks:  map[*shader.Block]*codegen.BasicBlock{},
		inputs:   map[int]*codegen.Value{},
		outputs:  map[int]*codegen.Value{},
		textures: map[int]textureBinding{},
		samplers: map[int]*codegen.Value{},
		uavs:     map[int]textureBinding{},
		buffers:  map[int]*codegen.Value{},
	}
}

// vecType returns the canonical 4-lane storage type for a DXBC data type:
// int32/uint32/bool lanes all store as a <4 x i32> (reinterpreted at use
// sites by the opcodes that care about signedness), float/half lanes store
// as <4 x float> (half values are widened on load/narrowed on store by the
// instructions that declare a half operand, spec §4.8 does not require
// half storage in registers themselves).
func (c *Context) vecType(t shader.DataType) codegen.Type {
	switch t {
	case shader.Float, shader.Float16, shader.Float10, shader.Double:
		return c.M.Types.Vector(c.M.Types.Float, 4)
	default:
		return c.M.Types.Vector(c.M.Types.Int32, 4)
	}
}

// regSlot returns (allocating on first use) the alloca backing temp
// register reg, typed per phase.TempTypes (populated by typeanalysis
// before cfg/translate ever run — every register translate reads has
// already been split to a single concrete type, spec §3's invariant).
func (c *Context) regSlot(phase *shader.Phase, reg int) *codegen.Value {
	if v, ok := c.regs[reg]; ok {
		return v
	}
	t := phase.TempTypes[reg]
	ty := c.vecType(t)
	slot := c.CB.Alloca(ty)
	zero := c.zeroOf(ty)
	slot.Store(c.CB, zero)
	c.regs[reg] = slot
	c.regType[reg] = t
	return slot
}

func (c *Context) zeroOf(ty codegen.Type) *codegen.Value {
	elem := ty.ElementType()
	var lane *codegen.Value
	if elem.IsFloat() {
		lane = c.CB.Float(elem, 0)
	} else {
		lane = c.CB.Int(elem, 0)
	}
	v := c.CB.Undef(ty)
	for i := 0; i < ty.VectorLen(); i++ {
		v = c.CB.InsertElement(v, lane, i)
	}
	return v
}

// ioSlot returns the alloca backing an input or output register, creating
// a zero-initialized one on first reference.
func ioSlot(c *Context, table map[int]*codegen.Value, reg int, ty codegen.Type) *codegen.Value {
	if v, ok := table[reg]; ok {
		return v
	}
	slot := c.CB.Alloca(ty)
	slot.Store(c.CB, c.zeroOf(ty))
	table[reg] = slot
	return slot
}

func unsupported(format string, args ...interface{}) error {
	return errs.New(errs.Unsupported, format, args...)
}
