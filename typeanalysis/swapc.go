package typeanalysis

import "github.com/mtlshade/dxair/shader"

// expandSwapC turns every swapc dest0, dest1, selector, src0, src1 into
// the pair of conditional moves it denotes (spec §4.5 step 1):
//
//	dest0 = selector != 0 ? src1 : src0
//	dest1 = selector != 0 ? src0 : src1
//
// so downstream analysis only ever has to reason about movc.
func expandSwapC(phase *shader.Phase) {
	out := make([]shader.Instruction, 0, len(phase.Instructions))
	for _, inst := range phase.Instructions {
		if inst.Op != shader.OpSwapC {
			out = append(out, inst)
			continue
		}
		dest0, dest1, selector, src0, src1 := inst.Operands[0], inst.Operands[1], inst.Operands[2], inst.Operands[3], inst.Operands[4]
		out = append(out,
			shader.Instruction{Op: shader.OpMovc, Operands: []shader.Operand{dest0, selector, src1, src0}, PhaseTag: inst.PhaseTag},
			shader.Instruction{Op: shader.OpMovc, Operands: []shader.Operand{dest1, selector, src0, src1}, PhaseTag: inst.PhaseTag},
		)
	}
	phase.Instructions = out
}

// unvectorizeImmediateMoves splits a mov whose source is a multi-lane
// immediate vector into one single-lane mov per written component
// (spec §4.5 step 2), so per-component type inference sees one
// scalar fact per move instead of one vector fact covering every lane.
func unvectorizeImmediateMoves(phase *shader.Phase) {
	out := make([]shader.Instruction, 0, len(phase.Instructions))
	for _, inst := range phase.Instructions {
		if inst.Op != shader.OpMov || len(inst.Operands) != 2 || inst.Operands[1].Kind != shader.OperandImmediate32 {
			out = append(out, inst)
			continue
		}
		dest := inst.Operands[0]
		if activeLanes(dest.WriteMask) <= 1 {
			out = append(out, inst)
			continue
		}
		for lane := 0; lane < 4; lane++ {
			if dest.WriteMask&(1<<uint(lane)) == 0 {
				continue
			}
			laneDest := dest
			laneDest.WriteMask = 1 << uint(lane)
			laneDest.Swizzle = [4]int{-1, -1, -1, -1}
			laneDest.Swizzle[lane] = lane

			laneSrc := inst.Operands[1]
			val := laneSrc.Imm32[lane]
			laneSrc.Imm32 = [4]uint32{val, val, val, val}

			out = append(out, shader.Instruction{
				Op:         shader.OpMov,
				Operands:   []shader.Operand{laneDest, laneSrc},
				Saturate:   inst.Saturate,
				PhaseTag:   inst.PhaseTag,
				ResourceKind: inst.ResourceKind,
			})
		}
	}
	phase.Instructions = out
}

func activeLanes(mask uint8) int {
	n := 0
	for i := 0; i < 4; i++ {
		if mask&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}
