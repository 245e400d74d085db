package codegen

// OptLevel selects the optimization pipeline Optimize runs.
type OptLevel int

const (
	OptNone OptLevel = iota
	OptDefault
)

// Optimize runs the module's optimization passes. gapid's core/codegen
// delegates this to LLVM's MCJIT pass manager (output.go's Optimize);
// llir/llvm has no pass manager, so air-level lowering (translate,
// tessellation) is written to already emit the shapes Metal's own AIR
// optimizer expects (no redundant loads across a single basic block, no
// dead allocas left after mem2reg-equivalent local rewriting), and this
// entry point is kept only so convert's pipeline shape matches gapid's
// (build, verify, optimize, serialize) even though there are currently no
// passes to run at OptNone or OptDefault.
func (m *Module) Optimize(level OptLevel) error {
	switch level {
	case OptNone, OptDefault:
		return nil
	default:
		fail("Optimize: unknown level %d", level)
		return nil
	}
}
