package streamjoin

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a generator seeded from the test name, so every test
// sees its own fixed sequence.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// rec is a keyed test record.
type rec struct {
	key int
	val string
}

func (r rec) String() string { return fmt.Sprintf("(%d,%s)", r.key, r.val) }

func recKey(r rec) int { return r.key }

var cmpRec = CompareBy(recKey, recKey)

func toKV(recs []rec) []KV[int, rec] {
	out := make([]KV[int, rec], len(recs))
	for i, r := range recs {
		out[i] = KV[int, rec]{Key: r.key, Value: r}
	}
	return out
}

// genRecs returns n records with keys in [0, keys), sorted by key when
// sorted is set. Values are unique per side so results can be compared
// exactly.
func genRecs(rng *rand.Rand, side string, n, keys int, sorted bool) []rec {
	out := make([]rec, n)
	for i := range out {
		out[i] = rec{key: rng.IntN(keys), val: fmt.Sprintf("%s%d", side, i)}
	}
	if sorted {
		slices.SortStableFunc(out, func(a, b rec) int { return cmp.Compare(a.key, b.key) })
	}
	return out
}

// refJoin computes every join variant with nested loops. Its results are
// the expected multisets for both join strategies.
type refJoin struct {
	inner     []Pair[rec, rec]
	leftExcl  []rec
	rightExcl []rec
}

func newRefJoin(left, right []rec) refJoin {
	var ref refJoin
	rightMatched := make([]bool, len(right))
	for _, l := range left {
		matched := false
		for j, r := range right {
			if l.key == r.key {
				ref.inner = append(ref.inner, Pair[rec, rec]{Left: l, Right: r})
				rightMatched[j] = true
				matched = true
			}
		}
		if !matched {
			ref.leftExcl = append(ref.leftExcl, l)
		}
	}
	for j, r := range right {
		if !rightMatched[j] {
			ref.rightExcl = append(ref.rightExcl, r)
		}
	}
	return ref
}

func (ref refJoin) leftOuter() []EitherOrBoth[rec, rec] {
	var out []EitherOrBoth[rec, rec]
	for _, p := range ref.inner {
		out = append(out, Both(p.Left, p.Right))
	}
	for _, l := range ref.leftExcl {
		out = append(out, LeftOnly[rec, rec](l))
	}
	return out
}

func (ref refJoin) rightOuter() []EitherOrBoth[rec, rec] {
	var out []EitherOrBoth[rec, rec]
	for _, p := range ref.inner {
		out = append(out, Both(p.Left, p.Right))
	}
	for _, r := range ref.rightExcl {
		out = append(out, RightOnly[rec](r))
	}
	return out
}

func (ref refJoin) fullOuter() []EitherOrBoth[rec, rec] {
	out := ref.leftOuter()
	for _, r := range ref.rightExcl {
		out = append(out, RightOnly[rec](r))
	}
	return out
}

// sortedStrings renders items and sorts the result, for order-insensitive
// comparison of multisets.
func sortedStrings[T any](items []T) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = fmt.Sprint(v)
	}
	slices.Sort(out)
	return out
}

func assertSameMultiset[T, U any](t *testing.T, what string, got []T, want []U) {
	t.Helper()
	g, w := sortedStrings(got), sortedStrings(want)
	if !slices.Equal(g, w) {
		t.Errorf("%s: got %d elements, want %d\n got: %v\nwant: %v", what, len(g), len(w), g, w)
	}
}

func assertEqualStrings[T any](t *testing.T, what string, got []T, want []string) {
	t.Helper()
	g := make([]string, len(got))
	for i, v := range got {
		g[i] = fmt.Sprint(v)
	}
	if !slices.Equal(g, want) {
		t.Errorf("%s:\n got: %v\nwant: %v", what, g, want)
	}
}

// countingIterator wraps an Iterator and counts calls to Next.
type countingIterator[T any] struct {
	src   Iterator[T]
	pulls int
}

func (c *countingIterator[T]) Next() (T, bool) {
	c.pulls++
	return c.src.Next()
}

func counting[T any](items []T) *countingIterator[T] {
	return &countingIterator[T]{src: FromSlice(items)}
}

// Scenario inputs shared by the merge and hash tests.
var (
	scenarioLeft  = []rec{{1, "a"}, {1, "b"}, {2, "c"}}
	scenarioRight = []rec{{1, "x"}, {3, "y"}}
)
