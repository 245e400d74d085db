package air

import (
	"github.com/mtlshade/dxair/codegen"
)

// Builder emits AIR intrinsic calls into a codegen.Builder's current
// function, declaring (and caching) each distinct intrinsic signature on
// first use. This mirrors the original's `getModule()->getOrInsertFunction`
// pattern: declarations are deduplicated by name within the module.
type Builder struct {
	cb  *codegen.Builder
	reg *Registry
}

// NewBuilder binds a codegen.Builder to a Registry for the lifetime of one
// function body.
func NewBuilder(cb *codegen.Builder, reg *Registry) *Builder {
	return &Builder{cb: cb, reg: reg}
}

// CB returns the underlying codegen.Builder, for callers that need raw SSA
// primitives (arithmetic, GEP, branches) alongside AIR intrinsics.
func (b *Builder) CB() *codegen.Builder { return b.cb }

// Reg returns the bound type registry.
func (b *Builder) Reg() *Registry { return b.reg }

func (b *Builder) intrinsic(name string, result codegen.Type, paramTypes []codegen.Type, attrs ...codegen.FuncAttr) *codegen.Function {
	if fn, ok := b.reg.intrinsics[name]; ok {
		return fn
	}
	params := make([]codegen.Param, len(paramTypes))
	for i, t := range paramTypes {
		params[i] = codegen.Param{Type: t}
	}
	fn := b.reg.m.NewFunction(name, result, params...)
	fn.SetAttrs(attrs...)
	b.reg.intrinsics[name] = fn
	return fn
}

// call declares (if needed) and invokes the named intrinsic, inferring its
// declared parameter types from the operands actually passed.
func (b *Builder) call(name string, result codegen.Type, args []*codegen.Value, attrs ...codegen.FuncAttr) *codegen.Value {
	ptypes := make([]codegen.Type, len(args))
	for i, a := range args {
		ptypes[i] = a.Type()
	}
	fn := b.intrinsic(name, result, ptypes, attrs...)
	return b.cb.Call(fn, args...)
}

// Call declares (if needed) and invokes an arbitrary named AIR intrinsic,
// for call sites outside this package that need a symbol this facade
// doesn't wrap directly (translate's vertex-pulling unpack family, spec
// §4.10).
func (b *Builder) Call(name string, result codegen.Type, args []*codegen.Value, attrs ...codegen.FuncAttr) *codegen.Value {
	return b.call(name, result, args, attrs...)
}

// standardTextureAttrs is the fixed attribute list shared by every
// sample/sample_compare/calculate_lod call (spec §4.3).
var standardTextureAttrs = []codegen.FuncAttr{
	codegen.AttrArgMemOnly, codegen.AttrConvergent, codegen.AttrNoUnwind, codegen.AttrWillReturn, codegen.AttrReadOnly,
}

// readWriteTextureAttrs is the attribute list for read/write/gather/query
// calls, which are not convergent.
var readWriteTextureAttrs = []codegen.FuncAttr{
	codegen.AttrArgMemOnly, codegen.AttrNoUnwind, codegen.AttrWillReturn, codegen.AttrReadOnly,
}

// atomicAttrs is the attribute list for texture and non-texture atomics.
var atomicAttrs = []codegen.FuncAttr{codegen.AttrNoUnwind, codegen.AttrWillReturn}
