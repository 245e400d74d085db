// Package op implements the monadic builder combinator of C1: a value of
// type Op[E, T] is a deferred build closure from an environment E to a
// Result[T]. It mirrors original_source/src/airconv/monad.hpp's ReaderIO,
// translated from C++20 coroutines into the idiomatic Go substitute spec
// §9 sanctions: explicit bind/lift with early-return-on-error, plus a
// panic/recover-based generator (Go) for callers that want coroutine-style
// sugar.
//
// Every Op is single-shot: Build may be called exactly once. A second call
// panics, matching ReaderIO's "value has been consumed or moved" assertion.
package op

import "fmt"

// Op is a deferred computation from an environment E to a T, or an error.
// The zero value is not usable; construct with Pure, Env, or Func.
type Op[E any, T any] struct {
	fn   func(E) (T, error)
	used bool
}

// Func wraps a plain build function as an Op.
func Func[E any, T any](fn func(E) (T, error)) Op[E, T] {
	return Op[E, T]{fn: fn}
}

// Pure returns an Op that yields v regardless of the environment.
func Pure[E any, T any](v T) Op[E, T] {
	return Func[E, T](func(E) (T, error) { return v, nil })
}

// Fail returns an Op that always fails with err.
func Fail[E any, T any](err error) Op[E, T] {
	return Func[E, T](func(E) (T, error) {
		var zero T
		return zero, err
	})
}

// Env returns an Op that yields the environment itself.
func Env[E any]() Op[E, E] {
	return Func[E, E](func(e E) (E, error) { return e, nil })
}

// Build runs the Op against env. It panics if the Op has already been built
// — this enforces the single-shot discipline original_source's ReaderIO
// enforces via move semantics (a Go value can't prevent re-use by the type
// system alone, so we enforce it dynamically, matching ReaderIO's runtime
// assertion rather than its compile-time move check).
func (o *Op[E, T]) Build(env E) (T, error) {
	if o.used {
		panic("op: Op built more than once")
	}
	o.used = true
	if o.fn == nil {
		var zero T
		return zero, fmt.Errorf("op: built a zero-value Op")
	}
	return o.fn(env)
}

// Bind sequences op then f(result-of-op), threading the environment
// through both and short-circuiting on the first error. This is
// ReaderIO's operator>>=.
func Bind[E any, A any, B any](o Op[E, A], f func(A) Op[E, B]) Op[E, B] {
	return Func[E, B](func(e E) (B, error) {
		a, err := o.Build(e)
		if err != nil {
			var zero B
			return zero, err
		}
		next := f(a)
		return next.Build(e)
	})
}

// Map transforms the result of op with f. This is ReaderIO's operator|.
func Map[E any, A any, B any](o Op[E, A], f func(A) B) Op[E, B] {
	return Bind(o, func(a A) Op[E, B] { return Pure[E](f(a)) })
}

// Lift2 combines two independent ops sequentially (a then b), matching
// monad.hpp's lift(a, b, func).
func Lift2[E any, A any, B any, R any](a Op[E, A], b Op[E, B], f func(A, B) R) Op[E, R] {
	return Bind(a, func(av A) Op[E, R] {
		return Bind(b, func(bv B) Op[E, R] { return Pure[E](f(av, bv)) })
	})
}

// Lift3 combines three independent ops sequentially, matching monad.hpp's
// three-argument lift overload.
func Lift3[E any, A any, B any, C any, R any](a Op[E, A], b Op[E, B], c Op[E, C], f func(A, B, C) R) Op[E, R] {
	return Bind(a, func(av A) Op[E, R] {
		return Bind(b, func(bv B) Op[E, R] {
			return Bind(c, func(cv C) Op[E, R] { return Pure[E](f(av, bv, cv)) })
		})
	})
}

// EnvironmentCast provides a lossless projection from a broader environment
// E to a narrower one E2, letting an Op[E2, T] run nested under an Op[E, _]
// chain. This mirrors monad.hpp's environment_cast<Src, Dst> and the
// ReaderIO(ReaderIO<Env2, V>&&) converting constructor.
func EnvironmentCast[E any, E2 any, T any](inner Op[E2, T], cast func(E) E2) Op[E, T] {
	return Func[E, T](func(e E) (T, error) {
		return inner.Build(cast(e))
	})
}

// Then runs a then b in sequence, discarding a's result, matching
// monad.hpp's in-place sequence operator<<.
func Then[E any, A any, B any](a Op[E, A], b Op[E, B]) Op[E, B] {
	return Bind(a, func(A) Op[E, B] { return b })
}
