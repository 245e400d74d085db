package tessellation

import "github.com/mtlshade/dxair/codegen"

// domainPointUV computes a regular-grid sample location for vertex index
// idx in a (factor+1)x(factor+1) parametric grid (quad domain) or the
// corresponding triangular half of that grid (triangle domain, third
// barycentric coordinate w = 1-u-v). This approximates the hardware
// fractional tessellator with an integer-factor grid; exact edge-factor
// blending across a patch's four independent edge densities is not
// reproduced (see DESIGN.md).
func domainPointUV(cb *codegen.Builder, m *codegen.Module, factor uint32, idx *codegen.Value) (u, v *codegen.Value) {
	den := factor
	if den == 0 {
		den = 1
	}
	cols := cb.Int(m.Types.Uint32, int64(den)+1)
	row := cb.Arith(codegen.UDiv, idx, cols)
	col := cb.Arith(codegen.URem, idx, cols)
	denom := cb.UIToFP(cb.Int(m.Types.Uint32, int64(den)), m.Types.Float)
	u = cb.Arith(codegen.FDiv, cb.UIToFP(col, m.Types.Float), denom)
	v = cb.Arith(codegen.FDiv, cb.UIToFP(row, m.Types.Float), denom)
	return u, v
}

// gridVertexCount and gridTriangleCount return the vertex and triangle
// count (two per quad cell) of the regular (factor+1)x(factor+1) grid
// domainPointUV walks.
func gridVertexCount(factor uint32) uint32 {
	n := factor + 1
	return n * n
}

func gridTriangleCount(factor uint32) uint32 {
	return 2 * factor * factor
}

// triangleVertexIndices computes, for a runtime triangle index triIdx over
// the regular grid (two triangles per quad cell), the three grid-vertex
// indices of that triangle. cell = triIdx/2, half = triIdx%2 selects the
// top-left or bottom-right half of the cell.
func triangleVertexIndices(cb *codegen.Builder, m *codegen.Module, factor uint32, triIdx *codegen.Value) (v0, v1, v2 *codegen.Value) {
	u32 := m.Types.Uint32
	two := cb.Int(u32, 2)
	cell := cb.Arith(codegen.UDiv, triIdx, two)
	half := cb.Arith(codegen.URem, triIdx, two)
	isSecondHalf := cb.ICmp(codegen.CmpIEQ, half, cb.Int(u32, 1))

	cols := cb.Int(u32, int64(factor)+1)
	row := cb.Arith(codegen.UDiv, cell, cb.Int(u32, int64(factor)))
	col := cb.Arith(codegen.URem, cell, cb.Int(u32, int64(factor)))
	topLeft := cb.Arith(codegen.Add, cb.Arith(codegen.Mul, row, cols), col)
	topRight := cb.Arith(codegen.Add, topLeft, cb.Int(u32, 1))
	botLeft := cb.Arith(codegen.Add, topLeft, cols)
	botRight := cb.Arith(codegen.Add, botLeft, cb.Int(u32, 1))

	v0 = cb.Select(isSecondHalf, topRight, topLeft)
	v1 = cb.Select(isSecondHalf, botRight, topRight)
	v2 = botLeft
	return v0, v1, v2
}
