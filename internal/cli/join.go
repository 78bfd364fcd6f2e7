package cli

import (
	"context"

	"github.com/tamirms/streamjoin"
	"github.com/tamirms/streamjoin/internal/record"
)

// joiner writes the results of one join. FILE1 fields always come first in
// the output, whichever side the join engine treats as left.
type joiner struct {
	ctx         context.Context
	w           *record.Writer
	leftFields  int
	rightFields int
	n           int
}

// tick is called once per output record and reports cancellation.
func (j *joiner) tick() error {
	j.n++
	if j.n%checkEvery == 0 {
		return j.ctx.Err()
	}
	return nil
}

func (j *joiner) both(l, r record.Record) error {
	if err := j.w.Both(l, r); err != nil {
		return err
	}
	return j.tick()
}

func (j *joiner) leftOnly(l record.Record, pad int) error {
	if err := j.w.Left(l, pad); err != nil {
		return err
	}
	return j.tick()
}

func (j *joiner) rightOnly(r record.Record, pad int) error {
	if err := j.w.Right(r, pad); err != nil {
		return err
	}
	return j.tick()
}

// outer writes one outer-join result whose Left is FILE1 and Right is FILE2.
func (j *joiner) outer(l, r streamjoin.Option[record.Record]) error {
	lv, hasL := l.Get()
	rv, hasR := r.Get()
	switch {
	case hasL && hasR:
		return j.both(lv, rv)
	case hasL:
		return j.leftOnly(lv, j.rightFields)
	default:
		return j.rightOnly(rv, j.leftFields)
	}
}

func recordOf(o streamjoin.Option[record.Keyed]) streamjoin.Option[record.Record] {
	if k, ok := o.Get(); ok {
		return streamjoin.Some(k.Record)
	}
	return streamjoin.None[record.Record]()
}

// merge runs a merge join. Right-exclusive and right outer joins run the
// left variants with the inputs swapped.
func (j *joiner) merge(mode Mode, left, right streamjoin.Iterator[record.Keyed]) error {
	cmp := record.CompareKeyed
	switch mode {
	case Inner:
		for p := range streamjoin.Seq(streamjoin.NewMergeJoinInner(left, right, cmp)) {
			if err := j.both(p.Left.Record, p.Right.Record); err != nil {
				return err
			}
		}
	case LeftExcl:
		for k := range streamjoin.Seq(streamjoin.NewMergeJoinLeftExcl(left, right, cmp)) {
			if err := j.leftOnly(k.Record, 0); err != nil {
				return err
			}
		}
	case RightExcl:
		for k := range streamjoin.Seq(streamjoin.NewMergeJoinLeftExcl(right, left, streamjoin.Flip(cmp))) {
			if err := j.rightOnly(k.Record, 0); err != nil {
				return err
			}
		}
	case LeftOuter:
		for e := range streamjoin.Seq(streamjoin.NewMergeJoinLeftOuter(left, right, cmp)) {
			if err := j.outer(recordOf(e.Left), recordOf(e.Right)); err != nil {
				return err
			}
		}
	case RightOuter:
		for e := range streamjoin.Seq(streamjoin.NewMergeJoinLeftOuter(right, left, streamjoin.Flip(cmp))) {
			if err := j.outer(recordOf(e.Right), recordOf(e.Left)); err != nil {
				return err
			}
		}
	case FullOuter:
		for e := range streamjoin.Seq(streamjoin.NewMergeJoinFullOuter(left, right, cmp)) {
			if err := j.outer(recordOf(e.Left), recordOf(e.Right)); err != nil {
				return err
			}
		}
	}
	return nil
}

// hashJoin runs a hash join with FILE2 as the build side.
func hashJoin[K comparable](j *joiner, mode Mode, left, right streamjoin.Iterator[streamjoin.KV[K, record.Record]], opts []streamjoin.HashOption) error {
	switch mode {
	case Inner:
		for p := range streamjoin.Seq(streamjoin.NewHashJoinInner(left, right, opts...)) {
			if err := j.both(p.Left, p.Right); err != nil {
				return err
			}
		}
	case LeftExcl:
		for l := range streamjoin.Seq(streamjoin.NewHashJoinLeftExcl(left, right, opts...)) {
			if err := j.leftOnly(l, 0); err != nil {
				return err
			}
		}
	case RightExcl:
		for r := range streamjoin.Seq(streamjoin.NewHashJoinRightExcl(left, right, opts...)) {
			if err := j.rightOnly(r, 0); err != nil {
				return err
			}
		}
	case LeftOuter:
		for e := range streamjoin.Seq(streamjoin.NewHashJoinLeftOuter(left, right, opts...)) {
			if err := j.outer(e.Left, e.Right); err != nil {
				return err
			}
		}
	case RightOuter:
		for e := range streamjoin.Seq(streamjoin.NewHashJoinRightOuter(left, right, opts...)) {
			if err := j.outer(e.Left, e.Right); err != nil {
				return err
			}
		}
	case FullOuter:
		for e := range streamjoin.Seq(streamjoin.NewHashJoinFullOuter(left, right, opts...)) {
			if err := j.outer(e.Left, e.Right); err != nil {
				return err
			}
		}
	}
	return nil
}
