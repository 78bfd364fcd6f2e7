package streamjoin

import "iter"

// Iterator is a single-pass, pull-based sequence.
//
// Next returns the next element and true, or the zero value and false once
// the sequence is exhausted. Exhaustion is sticky: after the first false,
// every later call returns false as well. Iterators are not restartable and
// not safe for concurrent use.
type Iterator[T any] interface {
	Next() (T, bool)
}

// SliceIterator yields the elements of a slice in order.
type SliceIterator[T any] struct {
	items []T
	pos   int
}

// FromSlice returns an Iterator over items. The slice is not copied and
// must not be modified while the iterator is in use.
func FromSlice[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

// Next implements Iterator.
func (s *SliceIterator[T]) Next() (T, bool) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, false
	}
	v := s.items[s.pos]
	s.pos++
	return v, true
}

// SeqIterator adapts a push-style iter.Seq into an Iterator.
//
// The underlying sequence runs as a coroutine (see iter.Pull). Stop must be
// called if the iterator is abandoned before exhaustion; calling Stop after
// exhaustion, or more than once, is harmless.
type SeqIterator[T any] struct {
	next func() (T, bool)
	stop func()
	done bool
}

// Pull returns an Iterator drawing from seq.
func Pull[T any](seq iter.Seq[T]) *SeqIterator[T] {
	next, stop := iter.Pull(seq)
	return &SeqIterator[T]{next: next, stop: stop}
}

// Next implements Iterator.
func (s *SeqIterator[T]) Next() (T, bool) {
	if s.done {
		var zero T
		return zero, false
	}
	v, ok := s.next()
	if !ok {
		s.done = true
		s.stop()
	}
	return v, ok
}

// Stop releases the underlying sequence. Later calls to Next return false.
func (s *SeqIterator[T]) Stop() {
	s.done = true
	s.stop()
}

// Seq returns a range-over-func view of it. Ranging over the result
// consumes it; breaking out of the loop leaves the remaining elements in it.
func Seq[T any](it Iterator[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Collect drains it into a slice.
func Collect[T any](it Iterator[T]) []T {
	var out []T
	for v := range Seq(it) {
		out = append(out, v)
	}
	return out
}

// Count drains it and returns the number of elements it produced.
func Count[T any](it Iterator[T]) int {
	n := 0
	for {
		if _, ok := it.Next(); !ok {
			return n
		}
		n++
	}
}
