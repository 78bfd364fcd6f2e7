package streamjoin

type probeResult uint8

const (
	probeMatch probeResult = iota + 1 // left value paired with one right value
	probeMiss                         // left value whose key has no right values
	probeDone                         // left input exhausted
)

// probe streams the left input through a built multimap. A left value with
// n matching right values produces n consecutive matches.
type probe[K comparable, LV, RV any] struct {
	left  Iterator[KV[K, LV]]
	table multimap[K, RV]
	eof   bool

	// fan-out of the current left value over its right values
	lv  LV
	rvs []RV
	pos int
}

func newProbe[K comparable, LV, RV any](left Iterator[KV[K, LV]], right Iterator[KV[K, RV]], opts []HashOption) probe[K, LV, RV] {
	return probe[K, LV, RV]{
		left:  left,
		table: buildMultimap(right, newHashConfig(opts)),
	}
}

func (p *probe[K, LV, RV]) next() (LV, RV, probeResult) {
	var zeroL LV
	var zeroR RV
	for {
		if p.pos < len(p.rvs) {
			rv := p.rvs[p.pos]
			p.pos++
			return p.lv, rv, probeMatch
		}
		if p.eof {
			return zeroL, zeroR, probeDone
		}
		kv, ok := p.left.Next()
		if !ok {
			p.eof = true
			p.left = nil
			p.lv, p.rvs, p.pos = zeroL, nil, 0
			return zeroL, zeroR, probeDone
		}
		b := p.table[kv.Key]
		if b == nil {
			return kv.Value, zeroR, probeMiss
		}
		b.visited = true
		p.lv, p.rvs, p.pos = kv.Value, b.values, 0
	}
}

// takeUnmatched hands over the buckets no left value probed and releases
// the table. It must only be called after next has returned probeDone.
func (p *probe[K, LV, RV]) takeUnmatched() drain[RV] {
	d := drain[RV]{buckets: unmatched(p.table)}
	p.table = nil
	return d
}

// drain emits every value of a list of buckets.
type drain[V any] struct {
	buckets []*bucket[V]
	bi, vi  int
}

func (d *drain[V]) next() (V, bool) {
	for d.bi < len(d.buckets) {
		b := d.buckets[d.bi]
		if d.vi < len(b.values) {
			v := b.values[d.vi]
			d.vi++
			return v, true
		}
		d.buckets[d.bi] = nil
		d.bi++
		d.vi = 0
	}
	var zero V
	return zero, false
}

// HashJoinInner is the inner hash join. See NewHashJoinInner.
type HashJoinInner[K comparable, LV, RV any] struct {
	probe probe[K, LV, RV]
}

// NewHashJoinInner returns, for every left record, one pair per right record
// with an equal key, in left input order; right values of one key keep
// their input order.
//
// The right input is read completely before NewHashJoinInner returns and is
// held in memory for the lifetime of the join. The left input is streamed
// lazily, and neither input needs to be sorted.
func NewHashJoinInner[K comparable, LV, RV any](left Iterator[KV[K, LV]], right Iterator[KV[K, RV]], opts ...HashOption) *HashJoinInner[K, LV, RV] {
	return &HashJoinInner[K, LV, RV]{probe: newProbe(left, right, opts)}
}

// Next implements Iterator.
func (h *HashJoinInner[K, LV, RV]) Next() (Pair[LV, RV], bool) {
	for {
		lv, rv, res := h.probe.next()
		switch res {
		case probeMatch:
			return Pair[LV, RV]{Left: lv, Right: rv}, true
		case probeDone:
			h.probe.table = nil
			return Pair[LV, RV]{}, false
		}
	}
}

// HashJoinLeftExcl is the left-exclusive hash join. See NewHashJoinLeftExcl.
type HashJoinLeftExcl[K comparable, LV any] struct {
	left Iterator[KV[K, LV]]
	keys map[K]struct{}
}

// NewHashJoinLeftExcl returns the values of the left records whose key does
// not occur in right, in left input order.
//
// The right input is read completely before NewHashJoinLeftExcl returns;
// only its distinct keys are kept.
func NewHashJoinLeftExcl[K comparable, LV, RV any](left Iterator[KV[K, LV]], right Iterator[KV[K, RV]], opts ...HashOption) *HashJoinLeftExcl[K, LV] {
	return &HashJoinLeftExcl[K, LV]{
		left: left,
		keys: buildKeySet(right, newHashConfig(opts)),
	}
}

// Next implements Iterator.
func (h *HashJoinLeftExcl[K, LV]) Next() (LV, bool) {
	for h.left != nil {
		kv, ok := h.left.Next()
		if !ok {
			h.left, h.keys = nil, nil
			break
		}
		if _, found := h.keys[kv.Key]; !found {
			return kv.Value, true
		}
	}
	var zero LV
	return zero, false
}

// HashJoinLeftOuter is the left outer hash join. See NewHashJoinLeftOuter.
type HashJoinLeftOuter[K comparable, LV, RV any] struct {
	probe probe[K, LV, RV]
}

// NewHashJoinLeftOuter returns the union of the inner and the
// left-exclusive hash join, in left input order: matches as Both and left
// records without a match as LeftOnly.
//
// The right input is read completely before NewHashJoinLeftOuter returns.
func NewHashJoinLeftOuter[K comparable, LV, RV any](left Iterator[KV[K, LV]], right Iterator[KV[K, RV]], opts ...HashOption) *HashJoinLeftOuter[K, LV, RV] {
	return &HashJoinLeftOuter[K, LV, RV]{probe: newProbe(left, right, opts)}
}

// Next implements Iterator.
func (h *HashJoinLeftOuter[K, LV, RV]) Next() (EitherOrBoth[LV, RV], bool) {
	lv, rv, res := h.probe.next()
	switch res {
	case probeMatch:
		return Both(lv, rv), true
	case probeMiss:
		return LeftOnly[LV, RV](lv), true
	}
	h.probe.table = nil
	return EitherOrBoth[LV, RV]{}, false
}

// HashJoinRightExcl is the right-exclusive hash join. See
// NewHashJoinRightExcl.
type HashJoinRightExcl[K comparable, LV, RV any] struct {
	probe    probe[K, LV, RV]
	drain    drain[RV]
	draining bool
}

// NewHashJoinRightExcl returns the values of the right records whose key
// never occurs in left.
//
// A key is only known to be unmatched once the whole left input has been
// read, so the first call to Next consumes the entire left input before
// anything is returned. Keys are emitted in the lookup table's iteration
// order, which is unspecified and does not follow right input order; the
// values of one key do keep their input order.
//
// The right input is read completely before NewHashJoinRightExcl returns.
func NewHashJoinRightExcl[K comparable, LV, RV any](left Iterator[KV[K, LV]], right Iterator[KV[K, RV]], opts ...HashOption) *HashJoinRightExcl[K, LV, RV] {
	return &HashJoinRightExcl[K, LV, RV]{probe: newProbe(left, right, opts)}
}

// Next implements Iterator.
func (h *HashJoinRightExcl[K, LV, RV]) Next() (RV, bool) {
	if !h.draining {
		// Only the visited markers matter here; skip the fan-out entirely.
		for !h.probe.eof {
			kv, ok := h.probe.left.Next()
			if !ok {
				h.probe.eof = true
				h.probe.left = nil
				break
			}
			if b := h.probe.table[kv.Key]; b != nil {
				b.visited = true
			}
		}
		h.drain = h.probe.takeUnmatched()
		h.draining = true
	}
	return h.drain.next()
}

// HashJoinRightOuter is the right outer hash join. See
// NewHashJoinRightOuter.
type HashJoinRightOuter[K comparable, LV, RV any] struct {
	probe    probe[K, LV, RV]
	drain    drain[RV]
	draining bool
}

// NewHashJoinRightOuter returns the union of the inner and the
// right-exclusive hash join: matches as Both, streamed in left input order
// while left is read, followed by the unmatched right values as RightOnly,
// in the unspecified order described at NewHashJoinRightExcl.
//
// The right input is read completely before NewHashJoinRightOuter returns.
func NewHashJoinRightOuter[K comparable, LV, RV any](left Iterator[KV[K, LV]], right Iterator[KV[K, RV]], opts ...HashOption) *HashJoinRightOuter[K, LV, RV] {
	return &HashJoinRightOuter[K, LV, RV]{probe: newProbe(left, right, opts)}
}

// Next implements Iterator.
func (h *HashJoinRightOuter[K, LV, RV]) Next() (EitherOrBoth[LV, RV], bool) {
	for !h.draining {
		lv, rv, res := h.probe.next()
		switch res {
		case probeMatch:
			return Both(lv, rv), true
		case probeDone:
			h.drain = h.probe.takeUnmatched()
			h.draining = true
		}
	}
	if rv, ok := h.drain.next(); ok {
		return RightOnly[LV](rv), true
	}
	return EitherOrBoth[LV, RV]{}, false
}

// HashJoinFullOuter is the full outer hash join. See NewHashJoinFullOuter.
type HashJoinFullOuter[K comparable, LV, RV any] struct {
	probe    probe[K, LV, RV]
	drain    drain[RV]
	draining bool
}

// NewHashJoinFullOuter returns the left outer hash join, streamed in left
// input order, followed by the unmatched right values as RightOnly in the
// unspecified order described at NewHashJoinRightExcl.
//
// The right input is read completely before NewHashJoinFullOuter returns.
func NewHashJoinFullOuter[K comparable, LV, RV any](left Iterator[KV[K, LV]], right Iterator[KV[K, RV]], opts ...HashOption) *HashJoinFullOuter[K, LV, RV] {
	return &HashJoinFullOuter[K, LV, RV]{probe: newProbe(left, right, opts)}
}

// Next implements Iterator.
func (h *HashJoinFullOuter[K, LV, RV]) Next() (EitherOrBoth[LV, RV], bool) {
	if !h.draining {
		lv, rv, res := h.probe.next()
		switch res {
		case probeMatch:
			return Both(lv, rv), true
		case probeMiss:
			return LeftOnly[LV, RV](lv), true
		}
		h.drain = h.probe.takeUnmatched()
		h.draining = true
	}
	if rv, ok := h.drain.next(); ok {
		return RightOnly[LV](rv), true
	}
	return EitherOrBoth[LV, RV]{}, false
}
