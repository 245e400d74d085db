// Package typeanalysis is C6: per-phase data-type inference and temp
// splitting. It runs once per shader.Phase before translation, turning
// an initially untyped DXBC instruction stream into one where every
// temp register carries a single consistent type.
package typeanalysis

import "github.com/mtlshade/dxair/shader"

// impliedType reports the data type an opcode's read/write of a temp
// operand implies, independent of any prior analysis. Type-agnostic
// opcodes (mov, bitwise, swizzle-only) return Unknown and inherit their
// type from whichever typed use or def connects to them.
func impliedType(op shader.Opcode) shader.DataType {
	switch op {
	case shader.OpIAdd, shader.OpIMul, shader.OpIMin, shader.OpIMax,
		shader.OpIShl, shader.OpIShr, shader.OpFtoI,
		shader.OpCountBits, shader.OpFirstBitLo, shader.OpFirstBitHi,
		shader.OpFirstBitSHi, shader.OpBfi, shader.OpIBfe:
		return shader.Int
	case shader.OpUMin, shader.OpUMax, shader.OpUShr, shader.OpFtoU, shader.OpUBfe:
		return shader.Uint
	case shader.OpAdd, shader.OpMul, shader.OpMad, shader.OpDiv,
		shader.OpDp2, shader.OpDp3, shader.OpDp4, shader.OpMin, shader.OpMax,
		shader.OpSqrt, shader.OpRsq, shader.OpExp, shader.OpLog,
		shader.OpSinCos, shader.OpFrc, shader.OpRound,
		shader.OpItoF, shader.OpUtoF:
		return shader.Float
	default:
		return shader.Unknown
	}
}

// destOperandIndex returns the index of an instruction's destination
// operand, or -1 if the opcode has none (pure control flow, stores).
func destOperandIndex(op shader.Opcode) int {
	switch op {
	case shader.OpRet, shader.OpRetC, shader.OpIf, shader.OpElse, shader.OpEndIf,
		shader.OpLoop, shader.OpEndLoop, shader.OpBreak, shader.OpBreakC,
		shader.OpContinue, shader.OpContinueC, shader.OpSwitch, shader.OpCase,
		shader.OpDefault, shader.OpEndSwitch, shader.OpDiscard, shader.OpSync,
		shader.OpStoreOp, shader.OpStoreUAVTypedOp, shader.OpNop, shader.OpLabel,
		shader.OpCall, shader.OpCallC:
		return -1
	default:
		return 0
	}
}
