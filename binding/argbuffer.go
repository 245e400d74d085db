package binding

import (
	"fmt"
	"sort"

	"github.com/mtlshade/dxair/air"
	"github.com/mtlshade/dxair/codegen"
)

// ArgumentMember is one resource packed into a stage's single
// argument-buffer struct, bound at buffer index 20 (spec §4.7).
type ArgumentMember struct {
	Key     Key
	Name    string
	Type    codegen.Type
	Counter bool // the UAV carries a hidden append/consume counter

	// TextureDesc is set for GroupTexture members and for GroupUAV members
	// backed by an opaque image handle (as opposed to a raw/structured
	// buffer pointer); translate uses it to pick the sample/load/atomic
	// intrinsic variant a bound resource needs (spec §4.3).
	TextureDesc air.Texture
	IsTexture   bool
}

// BuildArgumentBuffer synthesizes the stage's argument-buffer struct type
// and one metadata tuple per member (plus a trailing counter tuple for any
// member with Counter set), in ascending slot order so the struct's field
// layout — and the order metadata tuples are emitted in — never depends on
// the order callers happened to collect resources in (spec §5's
// determinism requirement).
func BuildArgumentBuffer(m *codegen.Module, structName string, members []ArgumentMember) (codegen.Type, [][]codegen.MDValue) {
	sorted := make([]ArgumentMember, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key.Slot() < sorted[j].Key.Slot() })

	fieldTypes := make([]codegen.Type, 0, len(sorted))
	tuples := make([][]codegen.MDValue, 0, len(sorted))
	for _, mem := range sorted {
		fieldTypes = append(fieldTypes, mem.Type)
		size, align := sizeAlign(mem.Type)
		tuples = append(tuples, []codegen.MDValue{
			codegen.MDInt(int64(mem.Key.Slot())),
			codegen.MDString(groupKindTag(mem.Key.Group)),
			codegen.MDString("air.arg_type_size"), codegen.MDInt(int64(size)),
			codegen.MDString("air.arg_type_align_size"), codegen.MDInt(int64(align)),
			codegen.MDString("air.arg_type_name"), codegen.MDString(mem.Type.TypeName()),
			codegen.MDString("air.arg_name"), codegen.MDString(mem.Name),
		})
		if mem.Counter {
			tuples = append(tuples, []codegen.MDValue{
				codegen.MDInt(int64(CounterSlot(mem.Key))),
				codegen.MDString("air.indirect_buffer"),
				codegen.MDString("air.arg_name"), codegen.MDString(mem.Name + "_counter"),
			})
		}
	}
	st := m.Types.Struct(structName, fieldTypes...)
	return st, tuples
}

func groupKindTag(g ResourceGroup) string {
	switch g {
	case GroupConstantBuffer:
		return "air.buffer"
	case GroupSampler:
		return "air.sampler"
	case GroupUAV:
		return "air.indirect_buffer"
	case GroupTexture:
		return "air.texture"
	default:
		panic(fmt.Sprintf("binding: unknown resource group %d", g))
	}
}
