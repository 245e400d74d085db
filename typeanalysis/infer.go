package typeanalysis

import (
	"sort"

	"github.com/mtlshade/dxair/shader"
)

// regType is a per-original-register type observation used while
// building use-define chains (spec §4.5 step 3). Distinct types are
// tracked in first-observed order rather than a bare set so that
// split-id assignment stays deterministic across runs (spec §5).
type regType struct {
	seen  map[shader.DataType]bool
	order []shader.DataType
}

func newRegType() *regType { return &regType{seen: map[shader.DataType]bool{}} }

func (r *regType) observe(t shader.DataType) {
	if t == shader.Unknown || r.seen[t] {
		return
	}
	r.seen[t] = true
	r.order = append(r.order, t)
}

// dominant returns the register's single resolved type: its first
// concrete observation, or Unknown if it never saw a typed use or def.
func (r *regType) dominant() shader.DataType {
	if len(r.order) == 0 {
		return shader.Unknown
	}
	return r.order[0]
}

func (r *regType) conflicted() bool { return len(r.order) > 1 }

// inferAndSplit runs use-define type inference over every temp
// register in the phase, splitting any register whose definitions
// disagree on type into one new register per distinct type observed,
// then re-indexes every temp register (split or not) densely and
// records the rebase so later reads of an original register resolve
// to the correct split subregister (spec §4.5 steps 3-4).
func inferAndSplit(phase *shader.Phase) {
	observed := map[int]*regType{}
	regOf := func(r int) *regType {
		rt, ok := observed[r]
		if !ok {
			rt = newRegType()
			observed[r] = rt
		}
		return rt
	}

	// Forward pass: gather every concrete type a register's writes or
	// reads imply. Later passes resolve cross-instruction propagation
	// (e.g. "mov r1, r0" before r0's own typed use), so we iterate to a
	// fixed point (a pass that adds no new observation) rather than
	// assuming definition order.
	for changed := true; changed; {
		changed = false
		for _, inst := range phase.Instructions {
			implied := impliedType(inst.Op)
			for i, o := range inst.Operands {
				if o.Kind != shader.OperandTemp {
					continue
				}
				t := implied
				if t == shader.Unknown {
					t = inferFromNeighbors(inst, i, observed)
				}
				rt := regOf(o.Register)
				before := len(rt.order)
				rt.observe(t)
				changed = changed || len(rt.order) != before
			}
		}
	}

	splitMap := map[int][]int{}
	tempTypes := map[int]shader.DataType{}
	nextReg := maxRegister(phase) + 1

	regs := make([]int, 0, len(observed))
	for reg := range observed {
		regs = append(regs, reg)
	}
	sort.Ints(regs)

	splitID := map[int]map[shader.DataType]int{}
	for _, reg := range regs {
		rt := observed[reg]
		if !rt.conflicted() {
			tempTypes[reg] = rt.dominant()
			continue
		}
		ids := map[shader.DataType]int{}
		var order []int
		for _, t := range rt.order {
			id := reg
			if len(order) > 0 {
				id = nextReg
				nextReg++
			}
			ids[t] = id
			order = append(order, id)
			tempTypes[id] = t
		}
		splitID[reg] = ids
		splitMap[reg] = order
	}

	if len(splitID) > 0 {
		rewriteSplitRegisters(phase, splitID, observed)
	}

	phase.TempTypes = tempTypes
	phase.SplitMap = splitMap
	reindexDense(phase)
}

// inferFromNeighbors infers a type-agnostic operand's type (mov, movc,
// bitwise) from any sibling operand in the same instruction whose
// register already carries a concrete observation.
func inferFromNeighbors(inst shader.Instruction, skip int, observed map[int]*regType) shader.DataType {
	for i, o := range inst.Operands {
		if i == skip || o.Kind != shader.OperandTemp {
			continue
		}
		if rt, ok := observed[o.Register]; ok {
			if t := rt.dominant(); t != shader.Unknown {
				return t
			}
		}
	}
	return shader.Unknown
}

func maxRegister(phase *shader.Phase) int {
	max := -1
	for _, inst := range phase.Instructions {
		for _, o := range inst.Operands {
			if o.Kind == shader.OperandTemp && o.Register > max {
				max = o.Register
			}
		}
	}
	for _, d := range phase.Declarations {
		if d.Op == shader.OpDclTemps && d.NumTemps-1 > max {
			max = d.NumTemps - 1
		}
	}
	return max
}

// rewriteSplitRegisters remaps every temp operand referencing a
// conflicted register to the split subregister matching the type
// implied at that operand's use site, defaulting to the register's
// own (first-split) id when the site is itself type-agnostic — by
// construction the original register number is always the id
// assigned to its first-observed type.
func rewriteSplitRegisters(phase *shader.Phase, splitID map[int]map[shader.DataType]int, observed map[int]*regType) {
	for idx := range phase.Instructions {
		inst := &phase.Instructions[idx]
		implied := impliedType(inst.Op)
		for i := range inst.Operands {
			o := &inst.Operands[i]
			if o.Kind != shader.OperandTemp {
				continue
			}
			ids, ok := splitID[o.Register]
			if !ok {
				continue
			}
			t := implied
			if t == shader.Unknown {
				t = inferFromNeighbors(*inst, i, observed)
			}
			if id, ok := ids[t]; ok {
				o.Register = id
			}
			// else: leave the operand on the register's own number, which
			// is always the first split id (see inferAndSplit).
		}
	}
}

// reindexDense renumbers every temp register referenced in the phase
// to a contiguous 0..N-1 range in first-appearance order, and rewrites
// TempTypes/SplitMap to use the new ids (spec §4.5 step 4).
func reindexDense(phase *shader.Phase) {
	order := []int{}
	seen := map[int]bool{}
	for _, inst := range phase.Instructions {
		for _, o := range inst.Operands {
			if o.Kind == shader.OperandTemp && !seen[o.Register] {
				seen[o.Register] = true
				order = append(order, o.Register)
			}
		}
	}

	rebase := map[int]int{}
	for newID, oldID := range order {
		rebase[oldID] = newID
	}

	for idx := range phase.Instructions {
		inst := &phase.Instructions[idx]
		for i := range inst.Operands {
			o := &inst.Operands[i]
			if o.Kind == shader.OperandTemp {
				if newID, ok := rebase[o.Register]; ok {
					o.Register = newID
				}
			}
		}
	}

	newTypes := map[int]shader.DataType{}
	for old, t := range phase.TempTypes {
		if newID, ok := rebase[old]; ok {
			newTypes[newID] = t
		}
	}
	phase.TempTypes = newTypes

	newSplit := map[int][]int{}
	for old, ids := range phase.SplitMap {
		newIDs := make([]int, len(ids))
		for i, id := range ids {
			if newID, ok := rebase[id]; ok {
				newIDs[i] = newID
			} else {
				newIDs[i] = id
			}
		}
		if newID, ok := rebase[old]; ok {
			newSplit[newID] = newIDs
		}
	}
	phase.SplitMap = newSplit
}

// Analyze runs the complete C6 pipeline over one phase: SWAPC
// expansion, immediate-vector unvectorization, use-define type
// inference with temp splitting, and dense re-indexing.
func Analyze(phase *shader.Phase) error {
	expandSwapC(phase)
	unvectorizeImmediateMoves(phase)
	inferAndSplit(phase)
	return nil
}
