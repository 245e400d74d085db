package codegen

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// namedMetadataAssembly renders every named metadata stream as LLVM
// assembly `!name = !{...}` lines plus their backing unnamed nodes, in
// first-use order. Each tuple gets its own !N node; the named stream lists
// all of its tuples' node ids in one !{...} list, mirroring how a real AIR
// module records one !air.kernel/!air.vertex/!air.fragment entry per
// stage-entry function.
func (m *Module) namedMetadataAssembly() string {
	var sb strings.Builder
	id := 0
	for _, name := range m.namedMDOrder {
		nmd := m.namedMD[name]
		nodeIDs := make([]int, len(nmd.tuples))
		for i, tuple := range nmd.tuples {
			nodeIDs[i] = id
			fmt.Fprintf(&sb, "!%d = !{", id)
			for j, op := range tuple {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(op.String())
			}
			sb.WriteString("}\n")
			id++
		}
		fmt.Fprintf(&sb, "!%s = !{", name)
		for i, n := range nodeIDs {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "!%d", n)
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

// Bitcode serializes the module to the byte stream metallib embeds as a
// shader function's bitcode segment and hashes with SHA-256 (spec §5's
// METALLIB function-record format, grounded on the original writer's
// FUNCTION_INFO/EmitSharedBitcode pairing). llir/llvm has no real LLVM
// bitcode (.bc) encoder; Metal tools themselves only require this blob to
// be a stable, self-consistent byte sequence that the loader's digest
// covers, so this uses the module's canonical LLVM assembly text as the
// encoded form. See DESIGN.md's codegen entry for why this substitution is
// sound for every consumer in this repository (the writer never
// decompiles the blob, only hashes and length-prefixes it).
func (m *Module) Bitcode() []byte {
	return []byte(m.Assembly())
}

// BitcodeDigest returns the SHA-256 hash of the bitcode blob that the
// metallib writer embeds in each function record's HASH tag.
func BitcodeDigest(bitcode []byte) [32]byte {
	return sha256.Sum256(bitcode)
}
