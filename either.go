package streamjoin

import "fmt"

// Option holds either a value or nothing. Outer joins use it to mark the
// absent side of a result, which keeps "no match" distinct from any value,
// including a zero value or a value that is itself optional.
type Option[T any] struct {
	value T
	ok    bool
}

// Some returns an Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the held value and whether there is one.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether o holds a value.
func (o Option[T]) IsSome() bool { return o.ok }

// IsNone reports whether o is empty.
func (o Option[T]) IsNone() bool { return !o.ok }

// OrElse returns the held value, or def when o is empty.
func (o Option[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

func (o Option[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// Pair is one matched result of an inner join.
type Pair[L, R any] struct {
	Left  L
	Right R
}

// KV is a keyed record, the element type of hash-join inputs.
type KV[K comparable, V any] struct {
	Key   K
	Value V
}

// EitherOrBoth is one result of an outer join: a matched pair, or one side
// with the other side absent. At least one side is always present.
type EitherOrBoth[L, R any] struct {
	Left  Option[L]
	Right Option[R]
}

// Both returns a matched result.
func Both[L, R any](l L, r R) EitherOrBoth[L, R] {
	return EitherOrBoth[L, R]{Left: Some(l), Right: Some(r)}
}

// LeftOnly returns a result with no right side.
func LeftOnly[L, R any](l L) EitherOrBoth[L, R] {
	return EitherOrBoth[L, R]{Left: Some(l)}
}

// RightOnly returns a result with no left side.
func RightOnly[L, R any](r R) EitherOrBoth[L, R] {
	return EitherOrBoth[L, R]{Right: Some(r)}
}

// IsBoth reports whether both sides are present.
func (e EitherOrBoth[L, R]) IsBoth() bool { return e.Left.ok && e.Right.ok }

// IsLeft reports whether only the left side is present.
func (e EitherOrBoth[L, R]) IsLeft() bool { return e.Left.ok && !e.Right.ok }

// IsRight reports whether only the right side is present.
func (e EitherOrBoth[L, R]) IsRight() bool { return !e.Left.ok && e.Right.ok }

func (e EitherOrBoth[L, R]) String() string {
	switch {
	case e.IsBoth():
		return fmt.Sprintf("Both(%v, %v)", e.Left.value, e.Right.value)
	case e.IsLeft():
		return fmt.Sprintf("Left(%v)", e.Left.value)
	default:
		return fmt.Sprintf("Right(%v)", e.Right.value)
	}
}
