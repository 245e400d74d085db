// Package codegen is the SSA IR facade of C2: a thin, gapid-core/codegen-
// shaped wrapper over a generic LLVM-14-style module/function/basic-block/
// builder, with value handles, a type factory, attribute lists and named
// metadata tuples. Everything above this package (air, translate,
// tessellation, metallib) talks to codegen's own Module/Type/Value/
// Function/Builder types; only this package imports llir/llvm directly —
// the same discipline gapid's core/codegen applies to
// llvm/bindings/go/llvm.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Module is the SSA module under construction.
type Module struct {
	Types Types

	llvm    *ir.Module
	name    string
	funcs   map[string]*Function
	strings map[string]*Value

	namedMD      map[string]*namedMetadata
	namedMDOrder []string
}

// NewModule returns a new, empty module targeting the given triple and
// data layout (see triple.go / datalayout.go for the AIR target values).
func NewModule(name, targetTriple, dataLayout string) *Module {
	m := &ir.Module{
		SourceFilename: name,
		TargetTriple:   targetTriple,
		DataLayout:     dataLayout,
	}
	mod := &Module{
		llvm:    m,
		name:    name,
		funcs:   map[string]*Function{},
		strings: map[string]*Value{},
		namedMD: map[string]*namedMetadata{},
	}
	mod.Types = newTypes(mod)
	return mod
}

// Name returns the module's source-file name.
func (m *Module) Name() string { return m.name }

// LLVM returns the underlying llir/llvm module, for packages (metallib)
// that need to hand the finished module to a serializer.
func (m *Module) LLVM() *ir.Module { return m.llvm }

// Func looks up a previously declared function by name.
func (m *Module) Func(name string) (*Function, bool) {
	f, ok := m.funcs[name]
	return f, ok
}

// Funcs returns every declared function, in declaration order.
func (m *Module) Funcs() []*Function {
	out := make([]*Function, 0, len(m.funcs))
	seen := map[string]bool{}
	for _, f := range m.llvm.Funcs {
		if fn, ok := m.funcs[f.Name()]; ok && !seen[f.Name()] {
			out = append(out, fn)
			seen[f.Name()] = true
		}
	}
	return out
}

// String returns the underlying llir/llvm module's identifier.
func (m *Module) String() string { return m.llvm.Ident() }

func (m *Module) declType(name string, ty types.Type) {
	// reserved for named-type registration; nothing calls it (Types.Struct caches structs itself)
	_ = name
	_ = ty
}

func fail(format string, args ...interface{}) {
	panic(fmt.Sprintf("codegen: "+format, args...))
}
