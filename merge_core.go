package streamjoin

// maxRetainedGroup bounds the capacity of a group buffer kept for reuse after
// its key has been emitted. A larger buffer (one unusually frequent key) is
// dropped instead, so a single hot key does not pin memory for the rest of
// the join.
const maxRetainedGroup = 1024

type stepKind uint8

const (
	stepLeft stepKind = iota + 1
	stepRight
	stepMatched
)

// step is one classification emitted by mergeCore.
//
// For stepMatched, leftGroup and rightGroup alias the core's buffers and are
// valid only until the next call to next. In countOnly mode the groups are
// empty and only the counts are set.
type step[L, R any] struct {
	kind       stepKind
	left       L
	right      R
	leftGroup  []L
	rightGroup []R
	leftCount  int
	rightCount int
}

// tailPolicy selects which side's leftovers are still classified once the
// other side is exhausted. A side not selected is simply not pulled any more.
type tailPolicy uint8

const (
	keepLeftTail tailPolicy = 1 << iota
	keepRightTail
)

// pending is the pull-ahead buffer of one input: at most one item that has
// been read from the source but not yet classified.
type pending[T any] struct {
	src  Iterator[T]
	item T
	ok   bool // item is valid
	eof  bool // src is exhausted and must not be pulled again
}

func (p *pending[T]) pull() {
	if p.eof {
		return
	}
	p.item, p.ok = p.src.Next()
	if !p.ok {
		p.eof = true
	}
}

// take returns the buffered item and refills the buffer.
func (p *pending[T]) take() T {
	v := p.item
	p.pull()
	return v
}

func (p *pending[T]) release() {
	var zero T
	p.item, p.ok, p.eof, p.src = zero, false, true, nil
}

// mergeCore advances two comparator-ordered iterators in lock-step and
// classifies every step as left-only, right-only or a matched pair of
// same-key groups.
//
// Both inputs must be non-decreasing under cmp. This is not checked; an
// unsorted input silently yields wrong results.
type mergeCore[L, R any] struct {
	left      pending[L]
	right     pending[R]
	cmp       func(L, R) int
	tail      tailPolicy
	countOnly bool

	started    bool
	done       bool
	leftGroup  []L
	rightGroup []R
}

func newMergeCore[L, R any](left Iterator[L], right Iterator[R], cmp func(L, R) int, tail tailPolicy) mergeCore[L, R] {
	return mergeCore[L, R]{
		left:  pending[L]{src: left},
		right: pending[R]{src: right},
		cmp:   cmp,
		tail:  tail,
	}
}

// next returns the next step, or false once the join is complete.
func (c *mergeCore[L, R]) next() (step[L, R], bool) {
	if c.done {
		return step[L, R]{}, false
	}
	if !c.started {
		c.started = true
		c.left.pull()
		c.right.pull()
	}

	switch {
	case c.left.ok && c.right.ok:
		switch o := c.cmp(c.left.item, c.right.item); {
		case o < 0:
			return step[L, R]{kind: stepLeft, left: c.left.take()}, true
		case o > 0:
			return step[L, R]{kind: stepRight, right: c.right.take()}, true
		default:
			return c.matchGroups(), true
		}
	case c.left.ok && c.tail&keepLeftTail != 0:
		return step[L, R]{kind: stepLeft, left: c.left.take()}, true
	case c.right.ok && c.tail&keepRightTail != 0:
		return step[L, R]{kind: stepRight, right: c.right.take()}, true
	}
	c.finish()
	return step[L, R]{}, false
}

// matchGroups collects the maximal runs of equal keys that start at the two
// pending items. Left items are compared against the first right item of the
// run and right items against the first left item, since cmp only relates a
// left item to a right item.
func (c *mergeCore[L, R]) matchGroups() step[L, R] {
	c.resetGroups()
	firstLeft, firstRight := c.left.item, c.right.item

	s := step[L, R]{kind: stepMatched}
	for c.left.ok && c.cmp(c.left.item, firstRight) == 0 {
		v := c.left.take()
		if !c.countOnly {
			c.leftGroup = append(c.leftGroup, v)
		}
		s.leftCount++
	}
	for c.right.ok && c.cmp(firstLeft, c.right.item) == 0 {
		v := c.right.take()
		if !c.countOnly {
			c.rightGroup = append(c.rightGroup, v)
		}
		s.rightCount++
	}
	s.leftGroup, s.rightGroup = c.leftGroup, c.rightGroup
	return s
}

func (c *mergeCore[L, R]) resetGroups() {
	if cap(c.leftGroup) > maxRetainedGroup {
		c.leftGroup = nil
	} else {
		clear(c.leftGroup)
		c.leftGroup = c.leftGroup[:0]
	}
	if cap(c.rightGroup) > maxRetainedGroup {
		c.rightGroup = nil
	} else {
		clear(c.rightGroup)
		c.rightGroup = c.rightGroup[:0]
	}
}

// finish moves the core to its terminal state and drops every buffered item
// and both sources.
func (c *mergeCore[L, R]) finish() {
	c.done = true
	c.left.release()
	c.right.release()
	c.leftGroup, c.rightGroup = nil, nil
}

// product walks the cartesian product of a matched pair of groups, left
// major: every right item is paired with the first left item, then with the
// second, and so on.
type product[L, R any] struct {
	left  []L
	right []R
	i, j  int
}

func (p *product[L, R]) reset(left []L, right []R) {
	p.left, p.right, p.i, p.j = left, right, 0, 0
}

func (p *product[L, R]) next() (Pair[L, R], bool) {
	if p.i >= len(p.left) || len(p.right) == 0 {
		return Pair[L, R]{}, false
	}
	out := Pair[L, R]{Left: p.left[p.i], Right: p.right[p.j]}
	p.j++
	if p.j == len(p.right) {
		p.j = 0
		p.i++
	}
	return out, true
}
