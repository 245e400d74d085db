package errs_test

import (
	"testing"

	"github.com/mtlshade/dxair/errs"
)

func TestWrapNilIsNil(t *testing.T) {
	if err := errs.Wrap(errs.Malformed, nil, "x"); err != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", err)
	}
}

func TestIsAndKindOf(t *testing.T) {
	base := errs.New(errs.Unsupported, "opcode %d", 99)
	wrapped := errs.Wrap(errs.Lowering, base, "while lowering r%d", 3)

	if !errs.Is(wrapped, errs.Lowering) {
		t.Errorf("expected wrapped error to be Lowering")
	}
	if !errs.Is(wrapped, errs.Unsupported) {
		t.Errorf("expected wrapped error chain to retain Unsupported cause")
	}
	if got := errs.KindOf(wrapped); got != errs.Lowering {
		t.Errorf("KindOf = %v, want %v", got, errs.Lowering)
	}
}
