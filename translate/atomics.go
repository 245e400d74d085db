package translate

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/shader"
)

// lowerAtomic dispatches ATOMIC_*/IMM_ATOMIC_* (spec §4.8's "Atomics on
// UAVs"): a typed (image) UAV goes through air's texture atomic family, a
// raw/structured buffer UAV goes through air's non-texture atomic family
// over a GEP'd device pointer. IMM_ATOMIC_* variants carry a destination
// for the pre-op value as operand 0; plain ATOMIC_* variants carry no
// destination operand, so their operands start one slot earlier and the
// result is discarded.
func lowerAtomic(c *Context, phase *shader.Phase, in shader.Instruction) error {
	imm := in.Op == shader.OpImmAtomicOp
	var dest shader.Operand
	idxOperandIdx, resOperandIdx, valOperandIdx := 0, 1, 2
	if imm {
		dest = in.Operands[0]
		idxOperandIdx, resOperandIdx, valOperandIdx = 1, 2, 3
	}

	idxOp := in.Operands[idxOperandIdx]
	resourceOp := in.Operands[resOperandIdx]
	valOp := in.Operands[valOperandIdx]

	op := atomicOpFor(in.ResourceKind)

	if tb, ok := c.uavs[resourceOp.Register]; ok {
		coord := c.narrowTo(c.Read(phase, idxOp, shader.Int), tb.Tex.CoordDim())
		texel := c.Read(phase, valOp, shader.Uint)
		prior := c.Air.TextureAtomicRMW(tb.Tex, textureAtomicOpFor(op), tb.Handle, coord, texel, nil)
		if imm {
			c.Write(phase, dest, prior, shader.Uint)
		}
		return nil
	}

	ptr, ok := c.buffers[resourceOp.Register]
	if !ok {
		return unsupported("translate: atomic op references unbound resource %d", resourceOp.Register)
	}
	idx := c.CB.ExtractElement(c.Read(phase, idxOp, shader.Uint), 0)
	val := c.CB.ExtractElement(c.Read(phase, valOp, shader.Uint), 0)
	addr := c.CB.GEP(val.Type(), c.CB.PtrCast(ptr, val.Type()), idx)
	prior := c.Air.AtomicRMW(op, addr, val, air.SignUnsigned, air.ScopeDevice)
	if imm {
		out := c.CB.Undef(c.M.Types.Vector(c.M.Types.Uint32, 4))
		out = c.CB.InsertElement(out, prior, 0)
		c.Write(phase, dest, out, shader.Uint)
	}
	return nil
}

// atomicOpFor maps the decoder's generic resource-kind tag (spec §4.4's
// reflection payload) to the non-texture atomic op it names; the dxbc
// decoder packs the DXBC atomic sub-opcode into Instruction.ResourceKind
// for these two opcodes since they have no declared resource dimension of
// their own to reuse that field for.
func atomicOpFor(code int) air.NonTextureAtomicOp {
	switch code {
	case 0:
		return air.NTAtomicAdd
	case 1:
		return air.NTAtomicAnd
	case 2:
		return air.NTAtomicOr
	case 3:
		return air.NTAtomicXor
	case 4:
		return air.NTAtomicMin
	case 5:
		return air.NTAtomicMax
	case 6:
		return air.NTAtomicExchange
	default:
		return air.NTAtomicAdd
	}
}

func textureAtomicOpFor(op air.NonTextureAtomicOp) air.TextureAtomicOp {
	switch op {
	case air.NTAtomicAdd:
		return air.TexAtomicAdd
	case air.NTAtomicAnd:
		return air.TexAtomicAnd
	case air.NTAtomicOr:
		return air.TexAtomicOr
	case air.NTAtomicXor:
		return air.TexAtomicXor
	case air.NTAtomicMin:
		return air.TexAtomicMinUnsigned
	case air.NTAtomicMax:
		return air.TexAtomicMaxUnsigned
	default:
		return air.TexAtomicExchange
	}
}
