package air

import (
	"github.com/mtlshade/dxair/codegen"
)

// InterpolateAtCenter emits `air.interpolate_center_{perspective|
// no_perspective}.v4f32`.
func (b *Builder) InterpolateAtCenter(interpolant *codegen.Value, perspective bool) *codegen.Value {
	sym := interpolantSym("center", perspective)
	return b.call(sym, b.reg.m.Types.Vector(b.reg.m.Types.Float, 4), []*codegen.Value{interpolant})
}

// InterpolateAtCentroid emits `air.interpolate_centroid_{perspective|
// no_perspective}.v4f32`.
func (b *Builder) InterpolateAtCentroid(interpolant *codegen.Value, perspective bool) *codegen.Value {
	sym := interpolantSym("centroid", perspective)
	return b.call(sym, b.reg.m.Types.Vector(b.reg.m.Types.Float, 4), []*codegen.Value{interpolant})
}

// InterpolateAtSample emits `air.interpolate_sample_{perspective|
// no_perspective}.v4f32`.
func (b *Builder) InterpolateAtSample(interpolant, sampleIndex *codegen.Value, perspective bool) *codegen.Value {
	sym := interpolantSym("sample", perspective)
	return b.call(sym, b.reg.m.Types.Vector(b.reg.m.Types.Float, 4), []*codegen.Value{interpolant, sampleIndex})
}

// InterpolateAtOffset emits `air.interpolate_offset_{perspective|
// no_perspective}.v4f32`.
func (b *Builder) InterpolateAtOffset(interpolant, offset *codegen.Value, perspective bool) *codegen.Value {
	sym := interpolantSym("offset", perspective)
	return b.call(sym, b.reg.m.Types.Vector(b.reg.m.Types.Float, 4), []*codegen.Value{interpolant, offset})
}

func interpolantSym(kind string, perspective bool) string {
	suffix := "no_perspective"
	if perspective {
		suffix = "perspective"
	}
	return "air.interpolate_" + kind + "_" + suffix + ".v4f32"
}
