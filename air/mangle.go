package air

import (
	"fmt"
	"strings"

	"github.com/mtlshade/dxair/codegen"
)

// TypeOverloadSuffix builds the `.<type-overload>` tail of a mangled
// intrinsic symbol for type ty under signedness sign (spec §4.3's
// type-overload suffix rule), e.g. ".f32", ".v4f32", ".s.i32", ".p1f32".
func TypeOverloadSuffix(ty codegen.Type, sign Signedness) string {
	var sb strings.Builder
	sb.WriteByte('.')

	addrSpace := -1
	elt := ty
	if ty.IsPointer() {
		addrSpace = int(ty.AddrSpace())
		elt = ty.ElementType()
	}

	vecLen := 0
	scalar := elt
	if elt.IsVector() {
		vecLen = elt.VectorLen()
		scalar = elt.ElementType()
	}

	switch {
	case scalar.IsFloat() && scalar.TypeName() == "half":
		writeSignMarker(&sb, sign)
		writeAddrSpace(&sb, addrSpace)
		writeVecLen(&sb, vecLen)
		sb.WriteString("f16")
	case scalar.IsFloat():
		writeSignMarker(&sb, sign)
		writeAddrSpace(&sb, addrSpace)
		writeVecLen(&sb, vecLen)
		sb.WriteString("f32")
	case scalar.IsInt():
		switch sign {
		case SignSigned:
			sb.WriteString("s.")
		case SignUnsigned:
			sb.WriteString("u.")
		}
		writeAddrSpace(&sb, addrSpace)
		writeVecLen(&sb, vecLen)
		fmt.Fprintf(&sb, "i%d", bitWidth(scalar))
	default:
		sb.WriteString("unknown_type_overload")
	}
	return sb.String()
}

func writeSignMarker(sb *strings.Builder, sign Signedness) {
	if sign != SignDontCare {
		sb.WriteString("f.")
	}
}

func writeAddrSpace(sb *strings.Builder, addrSpace int) {
	if addrSpace >= 0 {
		fmt.Fprintf(sb, "p%d", addrSpace)
	}
}

func writeVecLen(sb *strings.Builder, n int) {
	if n > 0 {
		fmt.Fprintf(sb, "v%d", n)
	}
}

func bitWidth(scalar codegen.Type) int {
	switch scalar.TypeName() {
	case "bool":
		return 1
	case "int8", "uint8":
		return 8
	case "int16", "uint16":
		return 16
	case "int64", "uint64":
		return 64
	default:
		return 32
	}
}

// FastMathName rewrites a base intrinsic name to its fast-math variant
// (spec §4.3: "air.<op>..." becomes "air.fast_<op>...").
func FastMathName(name string) string {
	const prefix = "air."
	if !strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + "fast_" + name[len(prefix):]
}
