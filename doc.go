// Package streamjoin implements lazy SQL-style joins of two record streams:
// inner, left and right exclusive, left and right outer, and full outer.
//
// Two strategies are provided. Both return pull-based iterators that do no
// work until Next is called, and both are single-pass: once exhausted an
// iterator stays exhausted.
//
// # Merge join
//
// Merge joins read two inputs that are already sorted by join key and walk
// them in lock-step, so they run in constant memory apart from the current
// key group of each side. Keys may repeat on either side; a key occurring m
// times on the left and n times on the right produces m*n matched pairs.
//
//	cmp := streamjoin.CompareBy(
//	    func(o Order) int { return o.CustomerID },
//	    func(c Customer) int { return c.ID },
//	)
//	join := streamjoin.NewMergeJoinInner(
//	    streamjoin.FromSlice(orders), streamjoin.FromSlice(customers), cmp)
//	for p := range streamjoin.Seq(join) {
//	    fmt.Println(p.Left, p.Right)
//	}
//
// Inputs that are not sorted under the comparator are not detected and give
// wrong results. Right-exclusive and right outer merge joins are obtained by
// swapping the inputs and passing Flip(cmp) to the left variants.
//
// # Hash join
//
// Hash joins take KV inputs in any order. The right input is read
// completely when the join is constructed and kept in a lookup table; the
// left input is then streamed through it. This is the only eager step in the
// package, and it needs memory proportional to the right input.
//
//	join := streamjoin.NewHashJoinLeftOuter(
//	    streamjoin.FromSlice(orders), streamjoin.FromSlice(customers))
//	for e := range streamjoin.Seq(join) {
//	    if c, ok := e.Right.Get(); ok {
//	        ...
//	    }
//	}
//
// Matches follow left input order. Right values that no left record matched
// (right-exclusive, right outer and full outer joins) are emitted only after
// the left input is exhausted, in the lookup table's iteration order, which
// is unspecified.
//
// # Package Structure
//
//   - Sequences: iterator.go (Iterator, FromSlice, Pull, Seq, Collect)
//   - Result types: either.go (Option, Pair, KV, EitherOrBoth)
//   - Merge join: merge_core.go (stepping engine), merge_join.go (variants)
//   - Hash join: hash_build.go (lookup table), hash_join.go (variants),
//     hash_options.go (HashOption)
//   - Record layer and tools: internal/keycodec, internal/record,
//     internal/cli, cmd/mjoin, cmd/hjoin, cmd/bench
package streamjoin
