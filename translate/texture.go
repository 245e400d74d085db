package translate

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/codegen"
	"github.com/mtlshade/dxair/shader"
)

// lowerSample dispatches the sample/sample_c/sample_l/sample_b/sample_d/
// gather4 family (spec §4.8's "Texture sample family"). Operand layout:
// [dest, coord, resource, sampler, extra...] where extra holds the
// reference (sample_c), explicit LOD (sample_l), bias (sample_b), or
// gradient pair (sample_d) the variant needs; gather4 reads its component
// selector off the resource operand's first swizzle lane.
func lowerSample(c *Context, phase *shader.Phase, in shader.Instruction) error {
	dest := in.Operands[0]
	coordOp := in.Operands[1]
	resourceOp := in.Operands[2]
	samplerOp := in.Operands[3]

	tb, ok := c.textures[resourceOp.Register]
	if !ok {
		return unsupported("translate: sample op references unbound texture t%d", resourceOp.Register)
	}
	samplerHandle, ok := c.samplers[samplerOp.Register]
	if !ok {
		return unsupported("translate: sample op references unbound sampler s%d", samplerOp.Register)
	}

	coordFull := c.Read(phase, coordOp, shader.Float)
	coord := c.narrowTo(coordFull, tb.Tex.CoordDim())

	var result *codegen.Value
	switch in.Op {
	case shader.OpSampleOp:
		result = c.Air.Sample(tb.Tex, tb.Handle, samplerHandle, coord, air.SampleArgs{})
	case shader.OpSampleCOp:
		reference := c.CB.ExtractElement(c.Read(phase, in.Operands[4], shader.Float), 0)
		result = c.Air.SampleCompare(tb.Tex, tb.Handle, samplerHandle, coord, reference, air.SampleArgs{})
	case shader.OpSampleLOp:
		lod := c.CB.ExtractElement(c.Read(phase, in.Operands[4], shader.Float), 0)
		result = c.Air.Sample(tb.Tex, tb.Handle, samplerHandle, coord, air.SampleArgs{ArgsControl: true, Arg1: lod})
	case shader.OpSampleBOp:
		bias := c.CB.ExtractElement(c.Read(phase, in.Operands[4], shader.Float), 0)
		result = c.Air.Sample(tb.Tex, tb.Handle, samplerHandle, coord, air.SampleArgs{Arg1: bias})
	case shader.OpSampleGOp:
		ddx := c.narrowTo(c.Read(phase, in.Operands[4], shader.Float), tb.Tex.CoordDim())
		ddy := c.narrowTo(c.Read(phase, in.Operands[5], shader.Float), tb.Tex.CoordDim())
		result = c.Air.SampleGrad(tb.Tex, tb.Handle, samplerHandle, coord, air.SampleGradArgs{DerivX: ddx, DerivY: ddy})
	case shader.OpGather4Op:
		component := c.CB.Int(c.M.Types.Int32, int64(maxInt(resourceOp.Swizzle[0], 0)))
		result = c.Air.Gather(tb.Tex, tb.Handle, samplerHandle, coord, nil, false, nil, component)
	}

	texel := c.CB.ExtractValue(result, 0, c.Air.TexelType(tb.Tex))
	c.Write(phase, dest, texel, dest.DataType)
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// lowerResourceLoadStore dispatches ld/store_uav_typed/store (spec §4.8's
// "UAV/resource load-store"). Typed UAV and SRV image loads go through
// air's texture Read/Write family; ld/store against a bound buffer is
// lowered by the pointer-arithmetic path in loadStoreRawBuffer below.
func lowerResourceLoadStore(c *Context, phase *shader.Phase, in shader.Instruction) error {
	dest := in.Operands[0]
	switch in.Op {
	case shader.OpLoadUAVTypedOp:
		coordOp := in.Operands[1]
		resourceOp := in.Operands[2]
		tb, ok := c.uavs[resourceOp.Register]
		if !ok {
			return unsupported("translate: typed load references unbound UAV u%d", resourceOp.Register)
		}
		coord := c.narrowTo(c.Read(phase, coordOp, shader.Int), tb.Tex.CoordDim())
		result := c.Air.Read(tb.Tex, tb.Handle, coord, air.ReadArgs{})
		texel := c.CB.ExtractValue(result, 0, c.Air.TexelType(tb.Tex))
		c.Write(phase, dest, texel, dest.DataType)
		return nil
	case shader.OpStoreUAVTypedOp:
		coordOp := in.Operands[0]
		resourceOp := in.Operands[1]
		valOp := in.Operands[2]
		tb, ok := c.uavs[resourceOp.Register]
		if !ok {
			return unsupported("translate: typed store references unbound UAV u%d", resourceOp.Register)
		}
		coord := c.narrowTo(c.Read(phase, coordOp, shader.Int), tb.Tex.CoordDim())
		texel := c.Read(phase, valOp, shader.Float)
		c.Air.Write(tb.Tex, tb.Handle, coord, texel, air.WriteArgs{})
		return nil
	case shader.OpLoadOp, shader.OpStoreOp:
		if in.Op == shader.OpLoadOp {
			if tb, ok := c.textures[in.Operands[2].Register]; ok {
				coord := c.narrowTo(c.Read(phase, in.Operands[1], shader.Int), tb.Tex.CoordDim())
				result := c.Air.Read(tb.Tex, tb.Handle, coord, air.ReadArgs{})
				c.Write(phase, dest, c.CB.ExtractValue(result, 0, c.Air.TexelType(tb.Tex)), dest.DataType)
				return nil
			}
		}
		return loadStoreRawBuffer(c, phase, in)
	}
	return unsupported("translate: unreachable resource load/store opcode %d", in.Op)
}

// loadStoreRawBuffer lowers ld/store against a buffer bound in c.buffers:
// the index operand's x component is an element index, GEP'd in units of
// the loaded/stored value's type into the bound device pointer, followed
// by a plain load/store (spec §4.8's
// "Atomics on UAVs" buffer-vs-texture split applies identically here).
func loadStoreRawBuffer(c *Context, phase *shader.Phase, in shader.Instruction) error {
	if in.Op == shader.OpLoadOp {
		dest := in.Operands[0]
		idxOp := in.Operands[1]
		resourceOp := in.Operands[2]
		ptr, ok := c.buffers[resourceOp.Register]
		if !ok {
			return unsupported("translate: buffer load references unbound resource %d", resourceOp.Register)
		}
		idx := c.CB.ExtractElement(c.Read(phase, idxOp, shader.Uint), 0)
		elemTy := c.vecType(dest.DataType)
		addr := c.CB.GEP(elemTy, c.CB.PtrCast(ptr, elemTy), idx)
		c.Write(phase, dest, addr.Load(c.CB), dest.DataType)
		return nil
	}
	idxOp := in.Operands[0]
	resourceOp := in.Operands[1]
	valOp := in.Operands[2]
	ptr, ok := c.buffers[resourceOp.Register]
	if !ok {
		return unsupported("translate: buffer store references unbound resource %d", resourceOp.Register)
	}
	idx := c.CB.ExtractElement(c.Read(phase, idxOp, shader.Uint), 0)
	val := c.Read(phase, valOp, shader.Uint)
	elemTy := val.Type()
	addr := c.CB.GEP(elemTy, c.CB.PtrCast(ptr, elemTy), idx)
	addr.Store(c.CB, val)
	return nil
}
