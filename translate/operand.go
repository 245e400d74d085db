package translate

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
)

// storageFor resolves the codegen.Value backing an operand's register,
// allocating it if this is the operand's first reference in the function.
func (c *Context) storageFor(phase *shader.Phase, op shader.Operand, dt shader.DataType) *codegen.Value {
	switch op.Kind {
	case shader.OperandTemp:
		return c.regSlot(phase, op.Register)
	case shader.OperandInput, shader.OperandAttribute, shader.OperandControlPoint:
		return ioSlot(c, c.inputs, op.Register, c.vecType(dt))
	case shader.OperandOutput, shader.OperandPatchConstant, shader.OperandDepthOut:
		return ioSlot(c, c.outputs, op.Register, c.vecType(dt))
	default:
		return nil
	}
}

// Read evaluates a source operand under the given data-type interpretation:
// applies the component swizzle, then (for float reads) abs then neg
// source modifiers in that order (spec §4.8). Immediate operands are
// materialized as a constant 4-lane vector directly from their payload.
func (c *Context) Read(phase *shader.Phase, op shader.Operand, dt shader.DataType) *codegen.Value {
	var raw *codegen.Value
	switch op.Kind {
	case shader.OperandImmediate32:
		raw = c.immediateVector(op, dt)
	default:
		slot := c.storageFor(phase, op, dt)
		raw = slot.Load(c.CB)
	}

	swizzled := c.applySwizzle(raw, op.Swizzle)

	if isFloatType(dt) {
		if op.Mod.Abs {
			swizzled = c.Air.FPUnOp(air.FPFabs, swizzled, false)
		}
		if op.Mod.Neg {
			swizzled = c.CB.FNeg(swizzled)
		}
	}
	return swizzled
}

// Write stores val into dest, touching only the lanes named by dest's
// write mask; every other lane of the destination register keeps its
// prior value (spec §4.8's component-mask semantics).
func (c *Context) Write(phase *shader.Phase, dest shader.Operand, val *codegen.Value, dt shader.DataType) {
	if dest.Kind == shader.OperandNull {
		return
	}
	slot := c.storageFor(phase, dest, dt)
	cur := slot.Load(c.CB)
	for lane := 0; lane < 4; lane++ {
		if dest.WriteMask&(1<<uint(lane)) == 0 {
			continue
		}
		cur = c.CB.InsertElement(cur, c.CB.ExtractElement(val, lane), lane)
	}
	slot.Store(c.CB, cur)
}

func (c *Context) applySwizzle(v *codegen.Value, swizzle [4]int) *codegen.Value {
	mask := make([]int, 4)
	identity := true
	for i, s := range swizzle {
		if s < 0 {
			mask[i] = i
		} else {
			mask[i] = s
		}
		if mask[i] != i {
			identity = false
		}
	}
	if identity {
		return v
	}
	return c.CB.ShuffleVector(v, v, mask)
}

func (c *Context) immediateVector(op shader.Operand, dt shader.DataType) *codegen.Value {
	ty := c.vecType(dt)
	elem := ty.ElementType()
	v := c.CB.Undef(ty)
	for lane := 0; lane < 4; lane++ {
		var lv *codegen.Value
		if elem.IsFloat() {
			lv = floatBitsOf(c, op.Imm32[lane])
		} else {
			lv = c.CB.Int(elem, int64(int32(op.Imm32[lane])))
		}
		v = c.CB.InsertElement(v, lv, lane)
	}
	return v
}

// floatBitsOf reinterprets a raw DXBC immediate word as its IEEE-754
// float32 bit pattern (DXBC immediates are always encoded as raw bits,
// never as a decimal float the decoder would need to parse).
func floatBitsOf(c *Context, bits uint32) *codegen.Value {
	iv := c.CB.Int(c.M.Types.Uint32, int64(bits))
	return c.CB.BitCast(iv, c.M.Types.Float)
}

func isFloatType(dt shader.DataType) bool {
	switch dt {
	case shader.Float, shader.Float16, shader.Float10, shader.Double:
		return true
	default:
		return false
	}
}
