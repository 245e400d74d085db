// Package binding is C8: the signature and resource-binding planner. It
// assigns the argument-buffer slot for every constant buffer, sampler,
// UAV and texture a shader declares (spec §3's "Binding key"), and
// assembles the AIR function signature metadata tuples translate (C9)
// attaches to a stage function (spec §4.7).
package binding

import "fmt"

// ResourceGroup is the binding-key resource class (spec §3).
type ResourceGroup int

const (
	GroupConstantBuffer ResourceGroup = iota
	GroupSampler
	GroupUAV
	GroupTexture
)

func (g ResourceGroup) String() string {
	switch g {
	case GroupConstantBuffer:
		return "cbuffer"
	case GroupSampler:
		return "sampler"
	case GroupUAV:
		return "uav"
	case GroupTexture:
		return "texture"
	default:
		return "unknown"
	}
}

// Key is a binding key: a resource group paired with its DXBC register
// number (spec §3).
type Key struct {
	Group    ResourceGroup
	Register int
}

// Slot returns the fixed argument-buffer slot this key is assigned inside
// buffer index 20 (spec §3, §6): CB at 32+reg, sampler at reg, UAV at
// 64+reg, texture at 128+reg.
func (k Key) Slot() int {
	switch k.Group {
	case GroupConstantBuffer:
		return 32 + k.Register
	case GroupSampler:
		return k.Register
	case GroupUAV:
		return 64 + k.Register
	case GroupTexture:
		return 128 + k.Register
	default:
		panic(fmt.Sprintf("binding: unknown resource group %d", k.Group))
	}
}

// CounterSlot returns the slot assigned to a UAV's hidden append/consume
// counter, given the UAV's own key (spec §6: "UAV counter at slot+192").
func CounterSlot(k Key) int { return k.Slot() + 192 }

// Fixed AIR argument indices every stage function signature is built
// against (spec §6's "Resource binding ABI").
const (
	ArgVertexAttributesFirst  = 0  // 0-15: vertex attributes (stage-in)
	ArgVertexAttributesLast   = 15
	ArgVertexBufferTable      = 16 // constant-address-space table for vertex pulling
	ArgHullPatchConstantBuf   = 17
	ArgTessFactorBuffer       = 18
	ArgKernelPatchInfo        = 19
	ArgDrawArguments          = 20 // the stage's argument buffer
	ArgObjectArgBufferReexport = 21
)
