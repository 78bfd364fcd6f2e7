package streamjoin

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Category 1: fixed scenarios
// ---------------------------------------------------------------------------

func TestMergeJoinScenario(t *testing.T) {
	t.Run("Inner", func(t *testing.T) {
		got := Collect(NewMergeJoinInner(FromSlice(scenarioLeft), FromSlice(scenarioRight), cmpRec))
		assertEqualStrings(t, "inner", got, []string{
			"{(1,a) (1,x)}",
			"{(1,b) (1,x)}",
		})
	})
	t.Run("LeftExcl", func(t *testing.T) {
		got := Collect(NewMergeJoinLeftExcl(FromSlice(scenarioLeft), FromSlice(scenarioRight), cmpRec))
		assertEqualStrings(t, "left excl", got, []string{"(2,c)"})
	})
	t.Run("RightExclBySwapping", func(t *testing.T) {
		got := Collect(NewMergeJoinLeftExcl(FromSlice(scenarioRight), FromSlice(scenarioLeft), Flip(cmpRec)))
		assertEqualStrings(t, "right excl", got, []string{"(3,y)"})
	})
	t.Run("LeftOuter", func(t *testing.T) {
		got := Collect(NewMergeJoinLeftOuter(FromSlice(scenarioLeft), FromSlice(scenarioRight), cmpRec))
		assertEqualStrings(t, "left outer", got, []string{
			"Both((1,a), (1,x))",
			"Both((1,b), (1,x))",
			"Left((2,c))",
		})
	})
	t.Run("FullOuter", func(t *testing.T) {
		got := Collect(NewMergeJoinFullOuter(FromSlice(scenarioLeft), FromSlice(scenarioRight), cmpRec))
		assertEqualStrings(t, "full outer", got, []string{
			"Both((1,a), (1,x))",
			"Both((1,b), (1,x))",
			"Left((2,c))",
			"Right((3,y))",
		})
	})
}

func TestMergeJoinDuplicateKeyCrossProduct(t *testing.T) {
	left := []rec{{4, "p"}, {5, "a"}, {5, "b"}, {5, "c"}, {6, "q"}}
	right := []rec{{5, "x"}, {5, "y"}, {7, "r"}}

	got := Collect(NewMergeJoinInner(FromSlice(left), FromSlice(right), cmpRec))
	assertEqualStrings(t, "inner", got, []string{
		"{(5,a) (5,x)}",
		"{(5,a) (5,y)}",
		"{(5,b) (5,x)}",
		"{(5,b) (5,y)}",
		"{(5,c) (5,x)}",
		"{(5,c) (5,y)}",
	})

	full := Collect(NewMergeJoinFullOuter(FromSlice(left), FromSlice(right), cmpRec))
	assertEqualStrings(t, "full outer", full, []string{
		"Left((4,p))",
		"Both((5,a), (5,x))",
		"Both((5,a), (5,y))",
		"Both((5,b), (5,x))",
		"Both((5,b), (5,y))",
		"Both((5,c), (5,x))",
		"Both((5,c), (5,y))",
		"Left((6,q))",
		"Right((7,r))",
	})
}

func TestMergeJoinSelfJoin(t *testing.T) {
	for _, n := range []int{1, 2, 7, 40} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			items := make([]rec, n)
			for i := range items {
				items[i] = rec{key: 9, val: fmt.Sprint(i)}
			}
			got := Count(NewMergeJoinInner(FromSlice(items), FromSlice(items), cmpRec))
			if got != n*n {
				t.Errorf("Expected %d pairs, got %d", n*n, got)
			}
		})
	}
}

// TestMergeJoinHeterogeneousTypes joins items of different types through a
// comparator relating the two.
func TestMergeJoinHeterogeneousTypes(t *testing.T) {
	type order struct {
		customer int
		item     string
	}
	orders := []order{{1, "pen"}, {2, "ink"}, {2, "pad"}, {4, "cap"}}
	customers := []string{"1:ann", "2:bob", "3:cid"}

	customerID := func(s string) int {
		id, _ := strconv.Atoi(s[:strings.IndexByte(s, ':')])
		return id
	}
	join := NewMergeJoinFullOuter(FromSlice(orders), FromSlice(customers), func(o order, c string) int {
		return cmp.Compare(o.customer, customerID(c))
	})

	var lines []string
	for e := range Seq(join) {
		o, hasOrder := e.Left.Get()
		c, hasCustomer := e.Right.Get()
		switch {
		case hasOrder && hasCustomer:
			lines = append(lines, o.item+"@"+c)
		case hasOrder:
			lines = append(lines, o.item+"@-")
		default:
			lines = append(lines, "-@"+c)
		}
	}
	want := []string{"pen@1:ann", "ink@2:bob", "pad@2:bob", "-@3:cid", "cap@-"}
	if !slices.Equal(lines, want) {
		t.Errorf("Expected %v, got %v", want, lines)
	}
}

func TestFlip(t *testing.T) {
	flipped := Flip(func(l int, r string) int { return cmp.Compare(l, len(r)) })
	if got := flipped("ab", 1); got <= 0 {
		t.Errorf("flipped(\"ab\", 1) = %d, want > 0", got)
	}
	if got := flipped("a", 2); got >= 0 {
		t.Errorf("flipped(\"a\", 2) = %d, want < 0", got)
	}
	if got := flipped("ab", 2); got != 0 {
		t.Errorf("flipped(\"ab\", 2) = %d, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// Category 2: boundaries
// ---------------------------------------------------------------------------

func TestMergeJoinEmptyInputs(t *testing.T) {
	right := []rec{{1, "x"}, {2, "y"}, {2, "z"}}

	t.Run("EmptyLeft", func(t *testing.T) {
		if n := Count(NewMergeJoinInner(FromSlice([]rec(nil)), FromSlice(right), cmpRec)); n != 0 {
			t.Errorf("inner: expected 0, got %d", n)
		}
		if n := Count(NewMergeJoinLeftExcl(FromSlice([]rec(nil)), FromSlice(right), cmpRec)); n != 0 {
			t.Errorf("left excl: expected 0, got %d", n)
		}
		if n := Count(NewMergeJoinLeftOuter(FromSlice([]rec(nil)), FromSlice(right), cmpRec)); n != 0 {
			t.Errorf("left outer: expected 0, got %d", n)
		}
		full := Collect(NewMergeJoinFullOuter(FromSlice([]rec(nil)), FromSlice(right), cmpRec))
		assertEqualStrings(t, "full outer", full, []string{"Right((1,x))", "Right((2,y))", "Right((2,z))"})
		rightExcl := Collect(NewMergeJoinLeftExcl(FromSlice(right), FromSlice([]rec(nil)), Flip(cmpRec)))
		assertEqualStrings(t, "right excl", rightExcl, []string{"(1,x)", "(2,y)", "(2,z)"})
	})

	t.Run("EmptyRight", func(t *testing.T) {
		if n := Count(NewMergeJoinInner(FromSlice(right), FromSlice([]rec(nil)), cmpRec)); n != 0 {
			t.Errorf("inner: expected 0, got %d", n)
		}
		excl := Collect(NewMergeJoinLeftExcl(FromSlice(right), FromSlice([]rec(nil)), cmpRec))
		if len(excl) != len(right) {
			t.Errorf("left excl: expected %d, got %d", len(right), len(excl))
		}
		outer := Collect(NewMergeJoinLeftOuter(FromSlice(right), FromSlice([]rec(nil)), cmpRec))
		for _, e := range outer {
			if !e.IsLeft() {
				t.Errorf("left outer: expected only left results, got %v", e)
			}
		}
	})

	t.Run("BothEmpty", func(t *testing.T) {
		if n := Count(NewMergeJoinFullOuter(FromSlice([]rec(nil)), FromSlice([]rec(nil)), cmpRec)); n != 0 {
			t.Errorf("full outer: expected 0, got %d", n)
		}
	})
}

func TestMergeJoinNotRestartable(t *testing.T) {
	inner := NewMergeJoinInner(FromSlice(scenarioLeft), FromSlice(scenarioRight), cmpRec)
	Count(inner)
	for range 3 {
		if p, ok := inner.Next(); ok {
			t.Fatalf("inner produced %v after exhaustion", p)
		}
	}

	full := NewMergeJoinFullOuter(FromSlice(scenarioLeft), FromSlice(scenarioRight), cmpRec)
	Count(full)
	if e, ok := full.Next(); ok {
		t.Fatalf("full outer produced %v after exhaustion", e)
	}

	excl := NewMergeJoinLeftExcl(FromSlice(scenarioLeft), FromSlice(scenarioRight), cmpRec)
	Count(excl)
	if v, ok := excl.Next(); ok {
		t.Fatalf("left excl produced %v after exhaustion", v)
	}
}

// ---------------------------------------------------------------------------
// Category 3: laziness and buffering
// ---------------------------------------------------------------------------

func TestMergeJoinIsLazy(t *testing.T) {
	left := counting(scenarioLeft)
	right := counting(scenarioRight)
	join := NewMergeJoinFullOuter(left, right, cmpRec)
	if left.pulls != 0 || right.pulls != 0 {
		t.Fatalf("constructor pulled %d left and %d right items", left.pulls, right.pulls)
	}

	first, ok := join.Next()
	if !ok || !first.IsBoth() {
		t.Fatalf("Expected a matched first result, got %v, %v", first, ok)
	}
	// The first group of key 1 needs the left run plus one look-ahead item
	// per side; nothing beyond that may have been read.
	if left.pulls != 3 || right.pulls != 2 {
		t.Errorf("Expected 3 left and 2 right pulls, got %d and %d", left.pulls, right.pulls)
	}
}

func TestMergeJoinInnerStopsAtShorterInput(t *testing.T) {
	left := counting([]rec{{1, "a"}})
	rightRecs := make([]rec, 100)
	for i := range rightRecs {
		rightRecs[i] = rec{key: i, val: "r"}
	}
	right := counting(rightRecs)

	if n := Count(NewMergeJoinInner(left, right, cmpRec)); n != 1 {
		t.Fatalf("Expected 1 pair, got %d", n)
	}
	if right.pulls > 3 {
		t.Errorf("inner join kept reading the right input after the left ended: %d pulls", right.pulls)
	}
}

func TestMergeJoinLeftExclDoesNotBuffer(t *testing.T) {
	left := make([]rec, 500)
	right := make([]rec, 500)
	for i := range left {
		left[i] = rec{key: i / 250, val: "l"}
		right[i] = rec{key: 0, val: "r"}
	}
	join := NewMergeJoinLeftExcl(FromSlice(left), FromSlice(right), cmpRec)
	first, ok := join.Next()
	if !ok || first.key != 1 {
		t.Fatalf("Expected an unmatched key 1 item, got %v, %v", first, ok)
	}
	// The key 0 groups were skipped by count alone.
	if len(join.core.leftGroup) != 0 || len(join.core.rightGroup) != 0 {
		t.Errorf("Expected empty group buffers, got %d left and %d right",
			len(join.core.leftGroup), len(join.core.rightGroup))
	}
	if n := Count(join); n != 249 {
		t.Errorf("Expected 249 more unmatched left items, got %d", n)
	}
}

func TestMergeJoinHotKeyBufferReleased(t *testing.T) {
	n := maxRetainedGroup * 2
	left := make([]rec, 0, n+1)
	for i := range n {
		left = append(left, rec{key: 1, val: fmt.Sprint(i)})
	}
	left = append(left, rec{key: 2, val: "tail"})
	right := []rec{{1, "x"}, {2, "y"}}

	join := NewMergeJoinInner(FromSlice(left), FromSlice(right), cmpRec)
	for range n {
		if _, ok := join.Next(); !ok {
			t.Fatal("join ended early")
		}
	}
	// Pulling the key-2 group resets the buffers of the hot key.
	p, ok := join.Next()
	if !ok || p.Left.key != 2 {
		t.Fatalf("Expected key 2 pair, got %v, %v", p, ok)
	}
	if c := cap(join.core.leftGroup); c > maxRetainedGroup {
		t.Errorf("hot key buffer of capacity %d was retained", c)
	}
}

// ---------------------------------------------------------------------------
// Category 4: randomized comparison with a nested-loop reference
// ---------------------------------------------------------------------------

func TestMergeJoinMatchesReference(t *testing.T) {
	for _, tc := range []struct {
		name         string
		nLeft, nRight int
		keys         int
	}{
		{"sparse", 50, 60, 200},
		{"dense", 80, 70, 5},
		{"single key", 12, 9, 1},
		{"left heavy", 300, 10, 30},
		{"right heavy", 10, 300, 30},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rng := newTestRNG(t)
			left := genRecs(rng, "l", tc.nLeft, tc.keys, true)
			right := genRecs(rng, "r", tc.nRight, tc.keys, true)
			ref := newRefJoin(left, right)

			inner := Collect(NewMergeJoinInner(FromSlice(left), FromSlice(right), cmpRec))
			assertSameMultiset(t, "inner", inner, ref.inner)
			if !slices.IsSortedFunc(inner, func(a, b Pair[rec, rec]) int { return cmp.Compare(a.Left.key, b.Left.key) }) {
				t.Errorf("inner results are not in key order")
			}

			leftExcl := Collect(NewMergeJoinLeftExcl(FromSlice(left), FromSlice(right), cmpRec))
			assertSameMultiset(t, "left excl", leftExcl, ref.leftExcl)

			rightExcl := Collect(NewMergeJoinLeftExcl(FromSlice(right), FromSlice(left), Flip(cmpRec)))
			assertSameMultiset(t, "right excl", rightExcl, ref.rightExcl)

			leftOuter := Collect(NewMergeJoinLeftOuter(FromSlice(left), FromSlice(right), cmpRec))
			assertSameMultiset(t, "left outer", leftOuter, ref.leftOuter())

			fullOuter := Collect(NewMergeJoinFullOuter(FromSlice(left), FromSlice(right), cmpRec))
			assertSameMultiset(t, "full outer", fullOuter, ref.fullOuter())

			if len(leftOuter) != len(inner)+len(leftExcl) {
				t.Errorf("left outer %d != inner %d + left excl %d", len(leftOuter), len(inner), len(leftExcl))
			}
			if len(fullOuter) != len(leftExcl)+len(inner)+len(rightExcl) {
				t.Errorf("full outer %d != left excl %d + inner %d + right excl %d",
					len(fullOuter), len(leftExcl), len(inner), len(rightExcl))
			}
		})
	}
}

func TestMergeJoinPairsPerKey(t *testing.T) {
	rng := newTestRNG(t)
	left := genRecs(rng, "l", 400, 20, true)
	right := genRecs(rng, "r", 300, 20, true)

	leftCount := map[int]int{}
	rightCount := map[int]int{}
	for _, r := range left {
		leftCount[r.key]++
	}
	for _, r := range right {
		rightCount[r.key]++
	}

	got := map[int]int{}
	for p := range Seq(NewMergeJoinInner(FromSlice(left), FromSlice(right), cmpRec)) {
		if p.Left.key != p.Right.key {
			t.Fatalf("pair with different keys: %v", p)
		}
		got[p.Left.key]++
	}
	for k := range 20 {
		if want := leftCount[k] * rightCount[k]; got[k] != want {
			t.Errorf("key %d: expected %d*%d = %d pairs, got %d", k, leftCount[k], rightCount[k], want, got[k])
		}
	}
}
