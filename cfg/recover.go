// Package cfg is C7: control-flow recovery. It turns a phase's flat
// instruction stream back into a reducible basic-block graph by
// replaying DXBC's structured control tokens (if/else/endif,
// loop/endloop, switch/case/default, break*/continue*, ret*) (spec §4.6).
// It does not insert the hull control-point phase barrier.
package cfg

import (
	"fmt"

	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

type builder struct {
	phase   *shader.Phase
	blocks  []*shader.Block
	nextID  int
	retBlk  *shader.Block
}

func (b *builder) newBlock(prefix string, first int) *shader.Block {
	blk := &shader.Block{Name: fmt.Sprintf("%s%d", prefix, b.nextID), FirstInstr: first}
	b.nextID++
	b.blocks = append(b.blocks, blk)
	return blk
}

// frame is one entry of the structured-control stack: it remembers
// enough about the enclosing construct to resolve break/continue/else
// targets when its matching end token is reached.
type frame struct {
	kind        frameKind
	header      *shader.Block // loop header, or the IF's owning block
	trueBlock   *shader.Block // IF: the true-side block
	falseBlock  *shader.Block // IF: block opened at ELSE, nil until then
	afterBlock  *shader.Block // block entered once the construct ends
	switchCases   []shader.SwitchCase
	switchDefault *shader.Block
	switchValue   shader.Operand
	dispatchOpen  bool // true until the switch's dispatch block has been chained to its first case
}

type frameKind int

const (
	frameIf frameKind = iota
	frameLoop
	frameSwitch
)

// Recover builds phase.CFG from phase.Instructions, replacing the flat
// instruction stream's implicit control flow with an explicit graph of
// shader.Block values chained by shader.Terminator (spec §4.6).
func Recover(phase *shader.Phase) error {
	b := &builder{phase: phase}
	entry := b.newBlock("entry", 0)
	retBlock := &shader.Block{Name: "return"}
	retBlock.Term = shader.Terminator{Kind: shader.TermReturn}
	b.retBlk = retBlock

	var stack []frame
	cur := entry

	closeBlock := func(last int, term shader.Terminator) {
		cur.LastInstr = last
		cur.Term = term
	}

	for i, inst := range phase.Instructions {
		switch inst.Op {
		case shader.OpIf:
			t := b.newBlock("if_true", i+1)
			after := b.newBlock("endif", -1) // FirstInstr patched when reached
			closeBlock(i, shader.Terminator{
				Kind:        shader.TermConditional,
				Cond:        inst.Operands[0],
				TestNonzero: true,
				TrueTarget:  t,
				FalseTarget: after,
			})
			stack = append(stack, frame{kind: frameIf, trueBlock: t, afterBlock: after})
			cur = t

		case shader.OpElse:
			top := &stack[len(stack)-1]
			f := b.newBlock("if_false", i+1)
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: top.afterBlock})
			top.falseBlock = f
			// redirect the conditional's false target, which was built
			// pointing straight at afterBlock, to the newly opened else body.
			redirectFalseTarget(b.blocks, top.trueBlock, top.afterBlock, f)
			cur = f

		case shader.OpEndIf:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: top.afterBlock})
			top.afterBlock.FirstInstr = i + 1
			cur = top.afterBlock

		case shader.OpLoop:
			header := b.newBlock("loop_header", i+1)
			after := b.newBlock("loop_exit", -1)
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: header})
			stack = append(stack, frame{kind: frameLoop, header: header, afterBlock: after})
			cur = header

		case shader.OpEndLoop:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: top.header})
			top.afterBlock.FirstInstr = i + 1
			cur = top.afterBlock

		case shader.OpBreak:
			lf := nearestLoop(stack)
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: lf.afterBlock})
			cur = b.newBlock("after_break", i+1)

		case shader.OpBreakC:
			lf := nearestLoop(stack)
			cont := b.newBlock("break_cont", i+1)
			closeBlock(i, shader.Terminator{
				Kind: shader.TermConditional, Cond: inst.Operands[0], TestNonzero: true,
				TrueTarget: lf.afterBlock, FalseTarget: cont,
			})
			cur = cont

		case shader.OpContinue:
			lf := nearestLoop(stack)
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: lf.header})
			cur = b.newBlock("after_continue", i+1)

		case shader.OpContinueC:
			lf := nearestLoop(stack)
			cont := b.newBlock("continue_cont", i+1)
			closeBlock(i, shader.Terminator{
				Kind: shader.TermConditional, Cond: inst.Operands[0], TestNonzero: true,
				TrueTarget: lf.header, FalseTarget: cont,
			})
			cur = cont

		case shader.OpSwitch:
			after := b.newBlock("switch_end", -1)
			stack = append(stack, frame{kind: frameSwitch, afterBlock: after, switchValue: inst.Operands[0], dispatchOpen: true})
			dispatch := b.newBlock("switch_dispatch", i+1)
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: dispatch})
			cur = dispatch

		case shader.OpCase:
			top := &stack[len(stack)-1]
			caseBlk := b.newBlock("case", i+1)
			top.switchCases = append(top.switchCases, shader.SwitchCase{
				Value:  caseValue(inst.Operands[0]),
				Target: caseBlk,
			})
			if top.dispatchOpen {
				closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: caseBlk})
				top.dispatchOpen = false
			} else if cur.Term.Kind == shader.TermUndefined {
				// implicit break: a case body with no explicit terminator
				// falls to the switch's exit rather than the next case.
				closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: top.afterBlock})
			}
			cur = caseBlk

		case shader.OpDefault:
			top := &stack[len(stack)-1]
			defBlk := b.newBlock("default", i+1)
			top.switchDefault = defBlk
			if top.dispatchOpen {
				closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: defBlk})
				top.dispatchOpen = false
			} else if cur.Term.Kind == shader.TermUndefined {
				closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: top.afterBlock})
			}
			cur = defBlk

		case shader.OpEndSwitch:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			closeBlock(i, shader.Terminator{Kind: shader.TermUnconditional, Target: top.afterBlock})
			dispatch := findDispatchBlock(b.blocks, top)
			if dispatch != nil {
				dispatch.Term = shader.Terminator{
					Kind:        shader.TermSwitch,
					SwitchValue: top.switchValue,
					Cases:       top.switchCases,
					Default:     top.switchDefault,
				}
			}
			top.afterBlock.FirstInstr = i + 1
			cur = top.afterBlock

		case shader.OpRet, shader.OpRetC:
			if inst.Op == shader.OpRetC {
				cont := b.newBlock("after_retc", i+1)
				closeBlock(i, shader.Terminator{
					Kind: shader.TermConditional, Cond: inst.Operands[0], TestNonzero: true,
					TrueTarget: retBlock, FalseTarget: cont,
				})
				cur = cont
			} else {
				closeBlock(i, shader.Terminator{Kind: shader.TermReturn})
				cur = b.newBlock("after_ret", i+1)
			}
		}
	}

	if len(stack) != 0 {
		return errs.New(errs.Malformed, "cfg: %d structured control construct(s) left unterminated", len(stack))
	}

	if cur.Term.Kind == shader.TermUndefined {
		cur.LastInstr = len(phase.Instructions)
		cur.Term = shader.Terminator{Kind: shader.TermUnconditional, Target: retBlock}
	}
	b.blocks = append(b.blocks, retBlock)

	for _, blk := range b.blocks {
		if blk.Term.Kind == shader.TermUndefined && blk != retBlock {
			return errs.New(errs.Malformed, "cfg: block %q has no terminator", blk.Name)
		}
	}

	phase.CFG = &shader.ControlFlowGraph{Blocks: b.blocks, Entry: entry}
	return nil
}

func nearestLoop(stack []frame) *frame {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].kind == frameLoop {
			return &stack[i]
		}
	}
	return nil
}

func caseValue(op shader.Operand) int64 {
	if len(op.Indices) > 0 {
		return int64(op.Indices[0].Literal)
	}
	return int64(op.Imm32[0])
}

func redirectFalseTarget(blocks []*shader.Block, trueBlock, oldAfter, newAfter *shader.Block) {
	for _, blk := range blocks {
		if blk.Term.Kind == shader.TermConditional && blk.Term.TrueTarget == trueBlock && blk.Term.FalseTarget == oldAfter {
			blk.Term.FalseTarget = newAfter
		}
	}
}

func findDispatchBlock(blocks []*shader.Block, f frame) *shader.Block {
	// the dispatch block is the one branching unconditionally straight to
	// whichever arm (first case, or default when there are no cases) was
	// opened first, matched by target identity against the stored arms.
	var want *shader.Block
	switch {
	case len(f.switchCases) > 0:
		want = f.switchCases[0].Target
	case f.switchDefault != nil:
		want = f.switchDefault
	default:
		return nil
	}
	for _, blk := range blocks {
		if blk.Term.Kind == shader.TermUnconditional && blk.Term.Target == want {
			return blk
		}
	}
	return nil
}
