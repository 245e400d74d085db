package codegen

import (
	"fmt"

	"github.com/mtlshade/dxair/errs"
)

// Verify checks structural correctness of the module: every basic block in
// every defined function must end in a terminator, matching the invariant
// gapid's core/codegen.Module.Verify enforces via llvm.VerifyFunction
// before handing a module to the backend. llir/llvm does not ship an
// equivalent verifier pass, so this walks the blocks directly; translate
// and tessellation are expected to never produce a module that fails this
// check, but convert surfaces it as a Lowering error rather than panicking
// deep in a builder callback.
func (m *Module) Verify() error {
	for _, f := range m.llvm.Funcs {
		if len(f.Blocks) == 0 {
			continue // declaration only, no body to verify
		}
		for _, blk := range f.Blocks {
			if blk.Term == nil {
				return errs.New(errs.Lowering, "function %q: block %q has no terminator", f.Name(), blk.LocalIdent.Name())
			}
		}
	}
	return nil
}

// Assembly renders the full module, functions and named metadata, as LLVM
// assembly text. This textual form is what bitcode.go treats as the
// "bitcode" byte stream embedded in and hashed by the metallib writer
// (see bitcode.go's doc comment for why).
func (m *Module) Assembly() string {
	return fmt.Sprintf("%s\n%s", m.llvm.String(), m.namedMetadataAssembly())
}
