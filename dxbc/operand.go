package dxbc

import (
	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

// operand token component layout (spec §4.4): bits 0-1 component count
// class, bits 2-3 selection mode (mask/swizzle/select1), bits 4-11 the
// selection payload, bits 12-19 register file (operand kind), bits 20-21
// index dimension, bits 22-24/25-27/28-30 per-index representation,
// bit 31 extended-operand-follows marker.
const (
	compSelMask   = 0
	compSelSwiz   = 1
	compSelSelect = 2
)

func decodeOperand(r *tokenReader) (shader.Operand, error) {
	tok, err := r.u32()
	if err != nil {
		return shader.Operand{}, err
	}

	selMode := (tok >> 2) & 0x3
	kindRaw := (tok >> 12) & 0xff
	numIndices := int((tok >> 20) & 0x3)
	extended := tok&(1<<31) != 0

	op := shader.Operand{Swizzle: [4]int{-1, -1, -1, -1}}
	op.Kind = mapOperandKind(kindRaw)

	switch selMode {
	case compSelMask:
		mask := uint8((tok >> 4) & 0xf)
		op.WriteMask = mask
		for i := 0; i < 4; i++ {
			if mask&(1<<uint(i)) != 0 {
				op.Swizzle[i] = i
			}
		}
	case compSelSwiz:
		for i := 0; i < 4; i++ {
			op.Swizzle[i] = int((tok >> uint(4+2*i)) & 0x3)
		}
		op.WriteMask = 0xf
	case compSelSelect:
		comp := int((tok >> 4) & 0x3)
		op.Swizzle[0] = comp
		op.WriteMask = 1 << uint(comp)
	}

	if extended {
		ext, err := r.u32()
		if err != nil {
			return shader.Operand{}, err
		}
		if ext&0x3f == 1 { // modifier extension type
			neg := (ext>>6)&0x1 != 0
			abs := (ext>>6)&0x2 != 0
			op.Mod = shader.SourceModifier{Abs: abs, Neg: neg}
		}
	}

	op.Indices = make([]shader.Index, 0, numIndices)
	for i := 0; i < numIndices; i++ {
		idxRepr := indexRepresentation(tok, i)
		idx, err := decodeIndex(r, idxRepr)
		if err != nil {
			return shader.Operand{}, err
		}
		op.Indices = append(op.Indices, idx)
	}
	if len(op.Indices) > 0 {
		op.Register = int(op.Indices[len(op.Indices)-1].Literal)
	}

	if op.Kind == shader.OperandImmediate32 {
		for i := 0; i < 4; i++ {
			v, err := r.u32()
			if err != nil {
				return shader.Operand{}, err
			}
			op.Imm32[i] = v
		}
	}

	return op, nil
}

func indexRepresentation(tok uint32, index int) uint32 {
	shift := uint(22 + index*3)
	if shift > 28 {
		shift = 28
	}
	return (tok >> shift) & 0x7
}

func decodeIndex(r *tokenReader, repr uint32) (shader.Index, error) {
	switch repr {
	case 0: // immediate 32
		v, err := r.u32()
		if err != nil {
			return shader.Index{}, err
		}
		return shader.Index{Repr: shader.IndexImmediate32, Literal: uint64(v)}, nil
	case 1: // immediate 64 (two words)
		lo, err := r.u32()
		if err != nil {
			return shader.Index{}, err
		}
		hi, err := r.u32()
		if err != nil {
			return shader.Index{}, err
		}
		return shader.Index{Repr: shader.IndexImmediate64, Literal: uint64(lo) | uint64(hi)<<32}, nil
	case 2: // relative (operand follows)
		rel, err := decodeOperand(r)
		if err != nil {
			return shader.Index{}, err
		}
		comp := 0
		for i, s := range rel.Swizzle {
			if s >= 0 {
				comp = i
				break
			}
		}
		return shader.Index{Repr: shader.IndexRelative, RelRegister: rel.Register, RelComp: comp}, nil
	case 3: // immediate + relative
		v, err := r.u32()
		if err != nil {
			return shader.Index{}, err
		}
		rel, err := decodeOperand(r)
		if err != nil {
			return shader.Index{}, err
		}
		comp := 0
		for i, s := range rel.Swizzle {
			if s >= 0 {
				comp = i
				break
			}
		}
		return shader.Index{Repr: shader.IndexRelative, Literal: uint64(v), RelRegister: rel.Register, RelComp: comp}, nil
	default:
		return shader.Index{}, errs.New(errs.Unsupported, "dxbc: unknown index representation %d", repr)
	}
}

func mapOperandKind(raw uint32) shader.OperandKind {
	switch raw {
	case 0:
		return shader.OperandTemp
	case 1:
		return shader.OperandInput
	case 2:
		return shader.OperandOutput
	case 3:
		return shader.OperandInput // indexable temp, treated as temp-addressed input by later passes
	case 4:
		return shader.OperandImmediate32
	case 5:
		return shader.OperandImmediate64
	case 6:
		return shader.OperandSampler
	case 7:
		return shader.OperandResource
	case 8:
		return shader.OperandConstantBuffer
	case 9:
		return shader.OperandImmediateConstantBuffer
	case 10:
		return shader.OperandAttribute
	case 19:
		return shader.OperandUAV
	case 20:
		return shader.OperandTGSM
	case 25:
		return shader.OperandControlPoint
	case 28:
		return shader.OperandPatchConstant
	case 29:
		return shader.OperandControlPoint
	case 34:
		return shader.OperandCoverageMask
	case 35:
		return shader.OperandDepthOut
	case 39:
		return shader.OperandNull
	default:
		return shader.OperandTemp
	}
}
