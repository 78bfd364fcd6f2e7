package keycodec

import (
	"cmp"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// key is a decoded composite key used to check ordering.
type key struct {
	n int64
	s string
	u uint64
}

func (k key) encode() string {
	var b []byte
	b = AppendInt64(b, k.n)
	b = AppendString(b, k.s)
	b = AppendUint64(b, k.u)
	return string(b)
}

func compareKeys(a, b key) int {
	if c := cmp.Compare(a.n, b.n); c != 0 {
		return c
	}
	if c := cmp.Compare(a.s, b.s); c != 0 {
		return c
	}
	return cmp.Compare(a.u, b.u)
}

func sign(c int) int {
	return cmp.Compare(c, 0)
}

func TestInt64Order(t *testing.T) {
	values := []int64{math.MinInt64, -1 << 40, -2, -1, 0, 1, 2, 1 << 40, math.MaxInt64}
	for i := 1; i < len(values); i++ {
		a := string(AppendInt64(nil, values[i-1]))
		b := string(AppendInt64(nil, values[i]))
		if Compare(a, b) >= 0 {
			t.Errorf("Expected %d to encode below %d", values[i-1], values[i])
		}
	}
}

func TestUint64Order(t *testing.T) {
	values := []uint64{0, 1, 255, 256, 1 << 32, math.MaxUint64}
	for i := 1; i < len(values); i++ {
		a := string(AppendUint64(nil, values[i-1]))
		b := string(AppendUint64(nil, values[i]))
		if Compare(a, b) >= 0 {
			t.Errorf("Expected %d to encode below %d", values[i-1], values[i])
		}
	}
}

func TestStringOrder(t *testing.T) {
	// Sorted by Go string order, including NUL bytes and prefixes.
	values := []string{"", "\x00", "\x00\x00", "\x00\x01", "a", "a\x00", "a\x00b", "a\x01", "ab", "b", "\xff"}
	for i := 1; i < len(values); i++ {
		a := string(AppendString(nil, values[i-1]))
		b := string(AppendString(nil, values[i]))
		if Compare(a, b) >= 0 {
			t.Errorf("Expected %q to encode below %q", values[i-1], values[i])
		}
	}
}

func TestBytesMatchesString(t *testing.T) {
	for _, s := range []string{"", "abc", "\x00", "x\x00y\x00", "\xff\x00\x01"} {
		got := string(AppendBytes(nil, []byte(s)))
		want := string(AppendString(nil, s))
		if got != want {
			t.Errorf("AppendBytes(%q) = %x, AppendString = %x", s, got, want)
		}
	}
}

// TestFieldBoundaries checks that a string field cannot bleed into the next
// one: ("a", "bc") and ("ab", "c") must encode differently and in order.
func TestFieldBoundaries(t *testing.T) {
	enc := func(a, b string) string {
		return string(AppendString(AppendString(nil, a), b))
	}
	if enc("a", "bc") == enc("ab", "c") {
		t.Fatal("Expected distinct encodings")
	}
	if Compare(enc("a", "bc"), enc("ab", "c")) >= 0 {
		t.Error("Expected (a, bc) to order before (ab, c)")
	}
	if Compare(enc("a", "\xff"), enc("a\x00", "")) >= 0 {
		t.Error("Expected (a, \\xff) to order before (a\\x00, )")
	}
}

func TestCompositeOrderMatchesFieldOrder(t *testing.T) {
	rng := newTestRNG(t)
	alphabet := []string{"", "a", "b", "\x00", "ab", "a\x00"}
	keys := make([]key, 500)
	for i := range keys {
		keys[i] = key{
			n: int64(rng.IntN(7)) - 3,
			s: alphabet[rng.IntN(len(alphabet))],
			u: uint64(rng.IntN(3)),
		}
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		want := sign(compareKeys(a, b))
		if got := sign(Compare(a.encode(), b.encode())); got != want {
			t.Errorf("Compare(%+v, %+v) = %d, want %d", a, b, got, want)
		}
	}

	byEncoding := slices.Clone(keys)
	slices.SortFunc(byEncoding, func(a, b key) int { return Compare(a.encode(), b.encode()) })
	byFields := slices.Clone(keys)
	slices.SortFunc(byFields, compareKeys)
	for i := range byFields {
		if compareKeys(byEncoding[i], byFields[i]) != 0 {
			t.Fatalf("position %d: encoding order %+v, field order %+v", i, byEncoding[i], byFields[i])
		}
	}
}

func TestSum(t *testing.T) {
	a := key{n: 1, s: "x"}.encode()
	b := key{n: 1, s: "y"}.encode()
	if Sum(a) != Sum(a) {
		t.Error("Expected Sum to be deterministic")
	}
	if Sum(a) == Sum(b) {
		t.Error("Expected distinct digests for distinct keys")
	}
	var zero Digest
	if Sum("") == zero {
		t.Error("Expected a non-zero digest of the empty key")
	}
}

func BenchmarkAppendString(b *testing.B) {
	buf := make([]byte, 0, 64)
	for b.Loop() {
		buf = AppendString(buf[:0], "customer-00042\x00north")
	}
}

func BenchmarkSum(b *testing.B) {
	k := key{n: 42, s: "customer-00042", u: 7}.encode()
	for b.Loop() {
		_ = Sum(k)
	}
}
