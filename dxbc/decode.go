package dxbc

import (
	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

// Decode parses a complete DXBC byte blob into a shader.Shader, resolving
// the token stream and every reflection chunk this converter consumes.
// It does not run type analysis or control-flow recovery (C6/C7);
// callers run those passes over the result before translation.
func Decode(data []byte) (*shader.Shader, error) {
	chunks, err := parseContainer(data)
	if err != nil {
		return nil, err
	}

	progChunk, ok := findChunk(chunks, tagSHEX, tagSHDR)
	if !ok {
		return nil, errs.New(errs.Malformed, "dxbc: container has no SHEX/SHDR chunk")
	}

	r, err := newTokenReader(progChunk.Payload)
	if err != nil {
		return nil, err
	}
	verTok, err := r.u32()
	if err != nil {
		return nil, err
	}
	stage, major, minor, err := decodeVersionToken(verTok)
	if err != nil {
		return nil, err
	}
	// second word is the chunk's own length in dwords (including itself
	// and the version token); already implied by progChunk.Payload's
	// length, so it is consumed and not separately validated.
	if _, err := r.u32(); err != nil {
		return nil, err
	}

	phases, err := decodeProgram(r, stage)
	if err != nil {
		return nil, err
	}

	sh := &shader.Shader{
		MajorVersion: major,
		MinorVersion: minor,
		Stage:        stage,
		Phases:       phases,
	}

	if err := decodeReflectionChunks(chunks, sh); err != nil {
		return nil, err
	}
	collectTGSMs(sh)
	return sh, nil
}

func decodeReflectionChunks(chunks []chunk, sh *shader.Shader) error {
	if c, ok := findChunk(chunks, tagISG1, tagISGN); ok {
		entries, err := decodeSignature(c.Payload, 0, c.Tag == tagISG1)
		if err != nil {
			return err
		}
		sh.Reflection.Inputs = entries
	}
	if c, ok := findChunk(chunks, tagOSG1, tagOSG5, tagOSGN); ok {
		entries, err := decodeSignature(c.Payload, 0, c.Tag != tagOSGN)
		if err != nil {
			return err
		}
		sh.Reflection.Outputs = entries
	}
	if c, ok := findChunk(chunks, tagPSG1, tagPCSG); ok {
		entries, err := decodeSignature(c.Payload, 0, c.Tag == tagPSG1)
		if err != nil {
			return err
		}
		sh.Reflection.PatchConstants = entries
	}
	if c, ok := findChunk(chunks, tagRDEF); ok {
		refl, err := decodeRDEF(c.Payload)
		if err != nil {
			return err
		}
		sh.Reflection.ConstantBuffers = refl.ConstantBuffers
		sh.Reflection.Textures = refl.Textures
		sh.Reflection.UAVs = refl.UAVs
		sh.Reflection.Samplers = refl.Samplers
	}
	if c, ok := findChunk(chunks, tagSFI0); ok {
		flags, err := decodeSFI0(c.Payload)
		if err != nil {
			return err
		}
		sh.Reflection.GlobalFlags = flags
	}
	// IFCE (interface tables, dynamic linkage for class-instance calls) is
	// read only when a shader actually declares fcall/interface tokens;
	// those opcodes are absent from opcodeTable, so decodeProgram already
	// rejects them with errs.Unsupported and IFCE's own table is never
	// consumed. See DESIGN.md for the scope note.
	return nil
}

// collectTGSMs lifts TGSM declarations out of every phase's declaration
// list into the shader-level TGSMs table, matching the original's
// single flat threadgroup-memory namespace regardless of which phase
// declared it.
func collectTGSMs(sh *shader.Shader) {
	for _, phase := range sh.Phases {
		for _, d := range phase.Declarations {
			if d.Op != shader.OpDclTGSM {
				continue
			}
			sh.TGSMs = append(sh.TGSMs, shader.TGSM{
				Register:     d.Operand.Register,
				Stride:       d.Stride,
				ElementCount: d.NumTemps,
				Structured:   d.Stride > 0,
			})
		}
	}
}
