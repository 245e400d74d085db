package translate

import (
	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/shader"
)

// sync flag bits the DXBC SYNC opcode packs into Instruction.ResourceKind
// (spec §4.8's "sync/barrier flags"): UAV memory barrier, TGSM memory
// barrier, and a threadgroup execution barrier, independently settable.
const (
	syncUAVMemory      = 1 << 0
	syncTGSMemory      = 1 << 1
	syncThreadsInGroup = 1 << 3
)

// lowerSync emits the threadgroup barrier and/or memory fence a SYNC
// instruction's flag bits request. A threadgroup barrier already orders
// memory per its mem_flags argument, so the two never both fire for the
// same flag set.
func lowerSync(c *Context, in shader.Instruction) {
	flags := in.ResourceKind

	var mem air.MemFlags
	if flags&syncUAVMemory != 0 {
		mem |= air.MemDevice
	}
	if flags&syncTGSMemory != 0 {
		mem |= air.MemThreadgroup
	}

	if flags&syncThreadsInGroup != 0 {
		c.Air.Barrier(mem)
		return
	}
	if mem != air.MemNone {
		c.Air.AtomicFence(mem, air.ScopeThreadgroup, false)
	}
}
