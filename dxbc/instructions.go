package dxbc

import (
	"math"

	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

// drainRemaining consumes any trailing payload words decodeDeclaration's
// per-opcode case did not itself need, keeping the token reader aligned
// with the outer loop's declared instruction length.
func drainRemaining(body *tokenReader) error {
	for !body.done() {
		if _, err := body.u32(); err != nil {
			return err
		}
	}
	return nil
}

// declOpcodes is the set of raw opcodes that introduce a declaration
// rather than an executable instruction (spec §3's Phase split).
var declOpcodes = map[uint32]bool{
	dxbcOpDclResource:     true,
	dxbcOpDclConstantBuf:  true,
	dxbcOpDclSampler:      true,
	dxbcOpDclIndexRange:   true,
	dxbcOpDclOutputTopo:   true,
	dxbcOpDclInputPrim:    true,
	dxbcOpDclMaxOutVert:   true,
	dxbcOpDclInput:        true,
	dxbcOpDclInputSGV:     true,
	dxbcOpDclInputSIV:     true,
	dxbcOpDclInputPS:      true,
	dxbcOpDclInputPSSGV:   true,
	dxbcOpDclInputPSSIV:   true,
	dxbcOpDclOutput:       true,
	dxbcOpDclOutputSGV:    true,
	dxbcOpDclOutputSIV:    true,
	dxbcOpDclTemps:        true,
	dxbcOpDclIndexableTmp: true,
	dxbcOpDclGlobalFlags:  true,
	dxbcOpDclGSInstances:  true,
	dxbcOpDclStream:       true,
	dxbcOpDclInputCP:      true,
	dxbcOpDclOutputCP:     true,
	dxbcOpDclTessDomain:   true,
	dxbcOpDclTessPart:     true,
	dxbcOpDclTessOutPrim:  true,
	dxbcOpDclTessFactor:   true,
	dxbcOpDclHSMaxTessFac: true,
	dxbcOpDclThreadGrp:    true,
	dxbcOpDclUAVTyped:     true,
	dxbcOpDclUAVRaw:       true,
	dxbcOpDclUAVStruct:    true,
	dxbcOpDclTGSMRaw:      true,
	dxbcOpDclTGSMStruct:   true,
	dxbcOpDclInterface:    true,
	dxbcOpDclFuncBody:     true,
	dxbcOpDclFuncTable:    true,
	dxbcOpHSDeclGlobals:   true,
	dxbcOpHSForkPhaseInst: true,
	dxbcOpDclHSForkPhInst: true,
	dxbcOpDclHSJoinPhInst: true,
}

// phaseBoundaryOpcodes start a new hull-shader phase.
var phaseBoundaryOpcodes = map[uint32]bool{
	dxbcOpHSControlPhase: true,
	dxbcOpHSForkPhase:    true,
	dxbcOpHSJoinPhase:    true,
}

// decodeProgram walks the full SHEX/SHDR token stream (after the version
// and length-in-dwords header words) into one or more shader.Phase
// values, split at hull-shader phase boundaries.
func decodeProgram(r *tokenReader, stage shader.Stage) ([]*shader.Phase, error) {
	phases := []*shader.Phase{{Name: "main"}}
	cur := phases[0]
	phaseIdx := 0

	for !r.done() {
		tok, err := r.u32()
		if err != nil {
			return nil, err
		}
		ot := decodeOpcodeToken(tok)

		if ot.opcode == dxbcOpCustomData {
			// custom-data blocks carry their own length in the next word,
			// not in the opcode token's length field (spec §4.4).
			length, err := r.u32()
			if err != nil {
				return nil, err
			}
			if _, err := r.sub(int(length) - 2); err != nil {
				return nil, err
			}
			continue
		}

		if ot.length < 1 {
			return nil, errs.New(errs.Malformed, "dxbc: instruction at opcode %d has length %d", ot.opcode, ot.length)
		}
		body, err := r.sub(ot.length - 1)
		if err != nil {
			return nil, err
		}

		if stage == shader.StageHull && phaseBoundaryOpcodes[ot.opcode] {
			phaseIdx++
			name := [...]string{"control_point", "fork", "join"}[phaseIdxName(ot.opcode)]
			cur = &shader.Phase{Name: name}
			phases = append(phases, cur)
			continue
		}

		mapped, ok := lookupOpcode(ot.opcode)
		if !ok {
			return nil, errs.New(errs.Unsupported, "dxbc: unrecognized opcode %d", ot.opcode)
		}

		if declOpcodes[ot.opcode] {
			decl, err := decodeDeclaration(body, mapped, ot)
			if err != nil {
				return nil, err
			}
			cur.Declarations = append(cur.Declarations, decl)
			continue
		}

		inst, err := decodeInstruction(body, mapped, ot)
		if err != nil {
			return nil, err
		}
		inst.PhaseTag = phaseIdx
		cur.Instructions = append(cur.Instructions, inst)
	}

	// the shader.Phase for hull shaders starts with an empty "main" stand-in
	// created before any HSDeclGlobals/control-point boundary is seen; a
	// hull program always opens with HSDeclGlobals so that stand-in carries
	// the global declarations and is renamed "global".
	if stage == shader.StageHull && len(phases) > 0 {
		phases[0].Name = "global"
	}

	return phases, nil
}

func phaseIdxName(opcode uint32) int {
	switch opcode {
	case dxbcOpHSControlPhase:
		return 0
	case dxbcOpHSForkPhase:
		return 1
	case dxbcOpHSJoinPhase:
		return 2
	default:
		return 0
	}
}

func decodeDeclaration(body *tokenReader, op shader.Opcode, ot opcodeToken) (shader.Declaration, error) {
	decl := shader.Declaration{Op: op}

	switch ot.opcode {
	case dxbcOpDclTemps:
		n, err := body.u32()
		if err != nil {
			return decl, err
		}
		decl.NumTemps = int(n)
		return decl, nil
	case dxbcOpDclInputCP, dxbcOpDclOutputCP:
		// input/output control-point count lives in the opcode token's
		// extended-info bits rather than a payload word (spec §4.9's
		// Config.ControlPointsPerPatch).
		decl.IntValue = int((ot.raw >> 11) & 0xff)
		return decl, drainRemaining(body)
	case dxbcOpDclTessDomain:
		decl.IntValue = int((ot.raw >> 11) & 0x3)
		return decl, drainRemaining(body)
	case dxbcOpDclTessPart:
		decl.IntValue = int((ot.raw >> 11) & 0x7)
		return decl, drainRemaining(body)
	case dxbcOpDclTessOutPrim:
		decl.IntValue = int((ot.raw >> 11) & 0x7)
		return decl, drainRemaining(body)
	case dxbcOpDclHSMaxTessFac:
		bits, err := body.u32()
		if err != nil {
			return decl, err
		}
		decl.FloatValue = math.Float32frombits(bits)
		return decl, drainRemaining(body)
	case dxbcOpDclThreadGrp:
		for i := 0; i < 3; i++ {
			v, err := body.u32()
			if err != nil {
				return decl, err
			}
			decl.UInt3Value[i] = int(v)
		}
		return decl, nil
	case dxbcOpDclGSInstances, dxbcOpDclMaxOutVert, dxbcOpHSForkPhaseInst,
		dxbcOpDclHSForkPhInst, dxbcOpDclHSJoinPhInst:
		n, err := body.u32()
		if err != nil {
			return decl, err
		}
		decl.IntValue = int(n)
		return decl, drainRemaining(body)
	case dxbcOpDclGlobalFlags, dxbcOpDclOutputTopo, dxbcOpDclInputPrim,
		dxbcOpDclStream, dxbcOpHSDeclGlobals:
		// immediate-payload-only declarations whose value this converter
		// never consumes (GS/stream support is out of scope per spec §1;
		// global flags are read from the authoritative SFI0 chunk instead).
		return decl, drainRemaining(body)
	default:
		opnd, err := decodeOperand(body)
		if err != nil {
			return decl, err
		}
		decl.Operand = opnd
		if ot.opcode == dxbcOpDclTGSMRaw || ot.opcode == dxbcOpDclTGSMStruct {
			if stride, err := body.u32(); err == nil {
				decl.Stride = int(stride)
			}
		}
		if ot.opcode == dxbcOpDclIndexableTmp {
			if n, err := body.u32(); err == nil {
				decl.NumTemps = int(n)
			}
			if stride, err := body.u32(); err == nil {
				decl.Stride = int(stride)
			}
		}
		return decl, nil
	}
}

func decodeInstruction(body *tokenReader, op shader.Opcode, ot opcodeToken) (shader.Instruction, error) {
	inst := shader.Instruction{Op: op, Saturate: ot.saturate}
	for !body.done() {
		opnd, err := decodeOperand(body)
		if err != nil {
			return inst, err
		}
		inst.Operands = append(inst.Operands, opnd)
	}
	return inst, nil
}
