package streamjoin

// bucket holds every right value that arrived under one key, in arrival
// order, and whether any left record probed the key.
type bucket[V any] struct {
	values  []V
	visited bool
}

// multimap is the hash-join lookup table built from the right input.
type multimap[K comparable, V any] map[K]*bucket[V]

// buildMultimap drains right into a multimap. It reads right exactly once
// and to the end; an unbounded right input never returns.
func buildMultimap[K comparable, V any](right Iterator[KV[K, V]], cfg *hashConfig) multimap[K, V] {
	m := make(multimap[K, V], cfg.sizeHint)
	for {
		kv, ok := right.Next()
		if !ok {
			return m
		}
		b := m[kv.Key]
		if b == nil {
			b = &bucket[V]{values: make([]V, 0, 1)}
			m[kv.Key] = b
		}
		b.values = append(b.values, kv.Value)
	}
}

// buildKeySet drains right and keeps only its distinct keys, for joins that
// never emit right values.
func buildKeySet[K comparable, V any](right Iterator[KV[K, V]], cfg *hashConfig) map[K]struct{} {
	set := make(map[K]struct{}, cfg.sizeHint)
	for {
		kv, ok := right.Next()
		if !ok {
			return set
		}
		set[kv.Key] = struct{}{}
	}
}

// unmatched lists the buckets no left record probed. Their order is the
// map's iteration order, which Go leaves unspecified.
func unmatched[K comparable, V any](m multimap[K, V]) []*bucket[V] {
	var out []*bucket[V]
	for _, b := range m {
		if !b.visited {
			out = append(out, b)
		}
	}
	return out
}
