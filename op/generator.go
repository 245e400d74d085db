package op

// Yield is handed to a Go body; calling Do(y, sub) builds a sub-Op
// against the generator's environment and returns its result, running
// the sub-build inline on the caller's goroutine. This is the Go
// analogue of monad.hpp's promise_type.yield_value: a single suspension
// point per yielded sub-op, with no cross-yield state beyond the Op's own
// lifetime (the generator body only ever holds plain Go locals).
type Yield[E any] struct {
	env E
}

// Do builds sub against the generator's environment. If sub fails, Do
// panics with the error wrapped in a *yieldAbort, which Go's harness
// recovers and turns into the generator Op's own error — matching
// ReaderIO's trivial_value_awaiter, which aborts coroutine resumption on
// the first failed yield rather than resuming with a zero value.
func Do[E any, T any](y *Yield[E], sub Op[E, T]) T {
	v, err := sub.Build(y.env)
	if err != nil {
		panic(&yieldAbort{err})
	}
	return v
}

type yieldAbort struct{ err error }

// Go builds a shallow coroutine-style Op from an imperative body. body runs
// synchronously inside Build, on the same goroutine: each Do(y, subOp)
// builds subOp in place and returns its value. This "deterministic,
// single-threaded, one suspension per sub-op" contract matches spec §4.1's
// requirement on coroutine sugar implementations.
//
// No goroutine or channel is involved: a failed sub-op unwinds body by
// panicking with a *yieldAbort, which the deferred recover below turns
// into the Op's error; any other panic is re-raised unchanged.
func Go[E any, T any](body func(y *Yield[E]) T) Op[E, T] {
	return Func[E, T](func(e E) (result T, err error) {
		defer func() {
			if r := recover(); r != nil {
				if abort, ok := r.(*yieldAbort); ok {
					err = abort.err
					return
				}
				panic(r)
			}
		}()
		y := &Yield[E]{env: e}
		result = body(y)
		return result, nil
	})
}
