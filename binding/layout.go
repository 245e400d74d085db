package binding

import "github.com/mtlshade/dxair/codegen"

// sizeAlign returns the byte size and natural alignment of t, covering the
// scalar/vector/pointer shapes the translator ever puts in a signature or
// argument-buffer member. Struct/array members are not sized here; the
// translator only ever places scalars, vectors and opaque handle pointers
// directly into a signature (structured resources pass by pointer).
func sizeAlign(t codegen.Type) (size, align int) {
	if t.IsPointer() {
		return 8, 8
	}
	if t.IsVector() {
		elemSize, _ := sizeAlign(t.ElementType())
		n := t.VectorLen()
		size = elemSize * n
		align = elemSize * vectorAlignWidth(n)
		return size, align
	}
	s := scalarSize(t)
	return s, s
}

func scalarSize(t codegen.Type) int {
	switch t.TypeName() {
	case "bool", "int8", "uint8":
		return 1
	case "int16", "uint16", "half":
		return 2
	case "int64", "uint64", "double":
		return 8
	default: // int32, uint32, float and anything else register-width
		return 4
	}
}

// vectorAlignWidth mirrors AIR's data-layout vector alignment rule (spec
// §3: "vector alignments for v16/v24/v32/..."), rounding a vector's
// element count up to the next alignment class so a float3 aligns like a
// float4 but a float2 does not over-align to float4.
func vectorAlignWidth(n int) int {
	switch {
	case n <= 1:
		return 1
	case n == 2:
		return 2
	default:
		return 4
	}
}
