package streamjoin

import "cmp"

// MergeJoinInner is the inner merge join of two sorted iterators.
// See NewMergeJoinInner.
type MergeJoinInner[L, R any] struct {
	core mergeCore[L, R]
	prod product[L, R]
}

// NewMergeJoinInner returns the inner join of left and right: every pair of
// a left item and a right item for which cmp returns 0. When a key occurs m
// times on the left and n times on the right, all m*n pairs are produced,
// grouped by left item.
//
// Both inputs must be sorted in non-decreasing order under cmp; unsorted
// input is not detected and yields incomplete or duplicated results. cmp
// returns a negative number when the left item orders before the right one,
// zero when their keys are equal, and a positive number otherwise.
//
// No work is done until Next is called. The join stops pulling as soon as
// either input is exhausted. At most one key group per side is buffered.
func NewMergeJoinInner[L, R any](left Iterator[L], right Iterator[R], cmp func(L, R) int) *MergeJoinInner[L, R] {
	return &MergeJoinInner[L, R]{core: newMergeCore(left, right, cmp, 0)}
}

// Next implements Iterator.
func (m *MergeJoinInner[L, R]) Next() (Pair[L, R], bool) {
	for {
		if p, ok := m.prod.next(); ok {
			return p, true
		}
		s, ok := m.core.next()
		if !ok {
			m.prod.reset(nil, nil)
			return Pair[L, R]{}, false
		}
		if s.kind == stepMatched {
			m.prod.reset(s.leftGroup, s.rightGroup)
		}
	}
}

// MergeJoinLeftExcl is the left-exclusive merge join of two sorted
// iterators. See NewMergeJoinLeftExcl.
type MergeJoinLeftExcl[L, R any] struct {
	core mergeCore[L, R]
}

// NewMergeJoinLeftExcl returns the left items whose key does not occur in
// right, in left input order. Matched groups are skipped without being
// buffered. The same sorting contract as NewMergeJoinInner applies.
func NewMergeJoinLeftExcl[L, R any](left Iterator[L], right Iterator[R], cmp func(L, R) int) *MergeJoinLeftExcl[L, R] {
	core := newMergeCore(left, right, cmp, keepLeftTail)
	core.countOnly = true
	return &MergeJoinLeftExcl[L, R]{core: core}
}

// Next implements Iterator.
func (m *MergeJoinLeftExcl[L, R]) Next() (L, bool) {
	for {
		s, ok := m.core.next()
		if !ok {
			var zero L
			return zero, false
		}
		if s.kind == stepLeft {
			return s.left, true
		}
	}
}

// MergeJoinLeftOuter is the left outer merge join of two sorted iterators.
// See NewMergeJoinLeftOuter.
type MergeJoinLeftOuter[L, R any] struct {
	core mergeCore[L, R]
	prod product[L, R]
}

// NewMergeJoinLeftOuter returns the union of the inner and the
// left-exclusive join, in key order: matched pairs as Both, and left items
// without a match as LeftOnly. The same sorting contract as
// NewMergeJoinInner applies.
func NewMergeJoinLeftOuter[L, R any](left Iterator[L], right Iterator[R], cmp func(L, R) int) *MergeJoinLeftOuter[L, R] {
	return &MergeJoinLeftOuter[L, R]{core: newMergeCore(left, right, cmp, keepLeftTail)}
}

// Next implements Iterator.
func (m *MergeJoinLeftOuter[L, R]) Next() (EitherOrBoth[L, R], bool) {
	for {
		if p, ok := m.prod.next(); ok {
			return Both(p.Left, p.Right), true
		}
		s, ok := m.core.next()
		if !ok {
			m.prod.reset(nil, nil)
			return EitherOrBoth[L, R]{}, false
		}
		switch s.kind {
		case stepLeft:
			return LeftOnly[L, R](s.left), true
		case stepMatched:
			m.prod.reset(s.leftGroup, s.rightGroup)
		}
	}
}

// MergeJoinFullOuter is the full outer merge join of two sorted iterators.
// See NewMergeJoinFullOuter.
type MergeJoinFullOuter[L, R any] struct {
	core mergeCore[L, R]
	prod product[L, R]
}

// NewMergeJoinFullOuter returns every item of both inputs, in key order:
// matched pairs as Both, unmatched left items as LeftOnly and unmatched
// right items as RightOnly. Both inputs are read to the end. The same
// sorting contract as NewMergeJoinInner applies.
//
// Right-exclusive and right outer joins are obtained from
// NewMergeJoinLeftExcl and NewMergeJoinLeftOuter by swapping the inputs and
// passing Flip(cmp).
func NewMergeJoinFullOuter[L, R any](left Iterator[L], right Iterator[R], cmp func(L, R) int) *MergeJoinFullOuter[L, R] {
	return &MergeJoinFullOuter[L, R]{core: newMergeCore(left, right, cmp, keepLeftTail|keepRightTail)}
}

// Next implements Iterator.
func (m *MergeJoinFullOuter[L, R]) Next() (EitherOrBoth[L, R], bool) {
	for {
		if p, ok := m.prod.next(); ok {
			return Both(p.Left, p.Right), true
		}
		s, ok := m.core.next()
		if !ok {
			m.prod.reset(nil, nil)
			return EitherOrBoth[L, R]{}, false
		}
		switch s.kind {
		case stepLeft:
			return LeftOnly[L, R](s.left), true
		case stepRight:
			return RightOnly[L](s.right), true
		case stepMatched:
			m.prod.reset(s.leftGroup, s.rightGroup)
		}
	}
}

// Flip returns a comparator for the swapped argument order of cmp.
func Flip[L, R any](cmp func(L, R) int) func(R, L) int {
	return func(r R, l L) int {
		switch c := cmp(l, r); {
		case c < 0:
			return 1
		case c > 0:
			return -1
		}
		return 0
	}
}

// CompareBy returns a comparator ordering left and right items by the keys
// extracted with leftKey and rightKey.
func CompareBy[L, R any, K cmp.Ordered](leftKey func(L) K, rightKey func(R) K) func(L, R) int {
	return func(l L, r R) int {
		return cmp.Compare(leftKey(l), rightKey(r))
	}
}
