package op_test

import (
	"errors"
	"testing"

	"github.com/mtlshade/dxair/op"
)

type env struct{ base int }

func TestBindAndMap(t *testing.T) {
	a := op.Pure[env](2)
	b := op.Bind(a, func(v int) op.Op[env, int] {
		return op.Func[env](func(e env) (int, error) { return v + e.base, nil })
	})
	c := op.Map(b, func(v int) string { return "n=" + string(rune('0'+v)) })

	got, err := c.Build(env{base: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "n=" + string(rune('0'+5))
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildTwicePanics(t *testing.T) {
	o := op.Pure[env](1)
	if _, err := o.Build(env{}); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on second Build")
		}
	}()
	_, _ = o.Build(env{})
}

func TestFailShortCircuits(t *testing.T) {
	sentinel := errors.New("boom")
	a := op.Fail[env, int](sentinel)
	ran := false
	b := op.Bind(a, func(int) op.Op[env, int] {
		ran = true
		return op.Pure[env](0)
	})
	_, err := b.Build(env{})
	if err != sentinel {
		t.Fatalf("got err %v, want %v", err, sentinel)
	}
	if ran {
		t.Fatal("continuation ran after failure")
	}
}

func TestLift2(t *testing.T) {
	a := op.Pure[env](10)
	b := op.Pure[env](20)
	r := op.Lift2(a, b, func(x, y int) int { return x + y })
	got, err := r.Build(env{})
	if err != nil {
		t.Fatal(err)
	}
	if got != 30 {
		t.Fatalf("got %d, want 30", got)
	}
}

func TestGoGeneratorSuccess(t *testing.T) {
	g := op.Go(func(y *op.Yield[env]) int {
		a := op.Do(y, op.Pure[env](4))
		b := op.Do(y, op.Func[env](func(e env) (int, error) { return e.base, nil }))
		return a + b
	})
	got, err := g.Build(env{base: 6})
	if err != nil {
		t.Fatal(err)
	}
	if got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
}

func TestGoGeneratorAbortsOnFailure(t *testing.T) {
	sentinel := errors.New("nope")
	reached := false
	g := op.Go(func(y *op.Yield[env]) int {
		_ = op.Do(y, op.Fail[env, int](sentinel))
		reached = true
		return 0
	})
	_, err := g.Build(env{})
	if err != sentinel {
		t.Fatalf("got err %v, want %v", err, sentinel)
	}
	if reached {
		t.Fatal("generator body continued past failed yield")
	}
}
