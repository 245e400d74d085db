package air

import (
	"github.com/mtlshade/dxair/codegen"
)

// NonTextureAtomicOp is the op set for `air.atomic.{global|local}.<op>`
// (spec §4.3's "Atomic (non-texture)" family).
type NonTextureAtomicOp int

const (
	NTAtomicAdd NonTextureAtomicOp = iota
	NTAtomicSub
	NTAtomicAnd
	NTAtomicOr
	NTAtomicXor
	NTAtomicMin
	NTAtomicMax
	NTAtomicExchange
)

func (op NonTextureAtomicOp) name() string {
	switch op {
	case NTAtomicAdd:
		return "add"
	case NTAtomicSub:
		return "sub"
	case NTAtomicAnd:
		return "and"
	case NTAtomicOr:
		return "or"
	case NTAtomicXor:
		return "xor"
	case NTAtomicMin:
		return "min"
	case NTAtomicMax:
		return "max"
	default:
		return "xchg"
	}
}

// memorySpace resolves the fixed namespace component ("global" for address
// space 1, "local" for address space 3) per spec §4.9's address-space
// discipline.
func memorySpace(ptr *codegen.Value) string {
	switch ptr.Type().AddrSpace() {
	case AddressSpaceDevice:
		return "global"
	case AddressSpaceThreadgroup:
		return "local"
	default:
		return "global"
	}
}

// AtomicRMW emits `air.atomic.{global|local}.<op>.{s|u}.i32(ptr, operand,
// order=0, scope, volatile=true)`.
func (b *Builder) AtomicRMW(op NonTextureAtomicOp, ptr, operand *codegen.Value, sign Signedness, scope ThreadScope) *codegen.Value {
	args := []*codegen.Value{ptr, operand,
		b.cb.Int(b.reg.m.Types.Int32, 0),
		b.cb.Int(b.reg.m.Types.Int32, int64(scope)),
		b.cb.Bool(true),
	}
	signMarker := "u"
	if sign == SignSigned {
		signMarker = "s"
	}
	sym := "air.atomic." + memorySpace(ptr) + "." + op.name() + "." + signMarker + ".i32"
	return b.call(sym, operand.Type(), args, atomicAttrs...)
}

// AtomicCmpXchg emits `air.atomic.{global|local}.cmpxchg.{s|u}.i32(ptr,
// expected_ptr, desired, order_success=0, order_failure=0, scope,
// volatile=true)`, writing the observed value back through expected_ptr
// and returning it.
func (b *Builder) AtomicCmpXchg(ptr, expectedPtr, desired *codegen.Value, sign Signedness, scope ThreadScope) *codegen.Value {
	args := []*codegen.Value{ptr, expectedPtr, desired,
		b.cb.Int(b.reg.m.Types.Int32, 0), b.cb.Int(b.reg.m.Types.Int32, 0),
		b.cb.Int(b.reg.m.Types.Int32, int64(scope)),
		b.cb.Bool(true),
	}
	signMarker := "u"
	if sign == SignSigned {
		signMarker = "s"
	}
	sym := "air.atomic." + memorySpace(ptr) + ".cmpxchg." + signMarker + ".i32"
	b.call(sym, b.reg.m.Types.Bool, args, atomicAttrs...)
	return expectedPtr.Load(b.cb)
}

// Barrier emits `air.wg.barrier(mem_flags, scope=1)`, convergent.
func (b *Builder) Barrier(flags MemFlags) *codegen.Value {
	args := []*codegen.Value{
		b.cb.Int(b.reg.m.Types.Int32, int64(flags)),
		b.cb.Int(b.reg.m.Types.Int32, 1),
	}
	return b.call("air.wg.barrier", b.reg.m.Types.Void, args, codegen.AttrConvergent, codegen.AttrNoUnwind)
}

// AtomicFence emits `air.atomic.fence(mem_flags, order, scope)`,
// non-convergent.
func (b *Builder) AtomicFence(flags MemFlags, scope ThreadScope, relaxed bool) *codegen.Value {
	order := int64(0) // relaxed
	if !relaxed {
		order = 6 // sequentially consistent
	}
	args := []*codegen.Value{
		b.cb.Int(b.reg.m.Types.Int32, int64(flags)),
		b.cb.Int(b.reg.m.Types.Int32, order),
		b.cb.Int(b.reg.m.Types.Int32, int64(scope)),
	}
	return b.call("air.atomic.fence", b.reg.m.Types.Void, args, codegen.AttrNoUnwind)
}

// GetNumSamples emits `air.get_num_samples.i32()`, the fragment-shader
// multisample count query.
func (b *Builder) GetNumSamples() *codegen.Value {
	return b.call("air.get_num_samples.i32", b.reg.m.Types.Int32, nil)
}

// DeviceCoherentLoad emits `air.load.device_coherent` over ptr.
func (b *Builder) DeviceCoherentLoad(ptr *codegen.Value, result codegen.Type) *codegen.Value {
	sym := "air.load.device_coherent" + TypeOverloadSuffix(result, SignDontCare)
	return b.call(sym, result, []*codegen.Value{ptr}, codegen.AttrNoUnwind)
}

// DeviceCoherentStore emits `air.store.device_coherent` of val to ptr.
func (b *Builder) DeviceCoherentStore(val, ptr *codegen.Value) *codegen.Value {
	sym := "air.store.device_coherent" + TypeOverloadSuffix(val.Type(), SignDontCare)
	return b.call(sym, b.reg.m.Types.Void, []*codegen.Value{val, ptr}, codegen.AttrNoUnwind)
}
