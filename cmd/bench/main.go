// Bench is a benchmarking tool for measuring join throughput and memory usage
// of the merge join and hash join families.
//
// Usage:
//
//	go run ./cmd/bench -rows 1000000 -keys 100000 -skew 2
//
// Flags:
//
//	-rows      Number of records per side (default: 1,000,000)
//	-keys      Number of distinct key values (default: 100,000)
//	-skew      Key skew exponent, 1 for uniform keys (default: 1)
//	-seed      Seed for key derivation (default: 0x1234)
//
// Every join variant is run once. The merge and hash families run
// concurrently; the result counts of both families are cross-checked and the
// tool exits with status 1 if they disagree.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"runtime/metrics"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/streamjoin"
)

// row is one generated record: a join key and the record id.
type row struct {
	key uint64
	id  uint32
}

func rowKey(r row) uint64 { return r.key }

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// genRows derives the keys of n records from their ids. side keeps the two
// inputs independent. With skew > 1, small key values are drawn more often.
func genRows(n, keys int, skew float64, seed uint32, side byte) []row {
	rows := make([]row, n)
	var buf [5]byte
	buf[4] = side
	for i := range rows {
		binary.LittleEndian.PutUint32(buf[:4], uint32(i))
		u := float64(murmur3.Sum64WithSeed(buf[:], seed)>>11) / (1 << 53)
		rows[i] = row{key: uint64(math.Pow(u, skew) * float64(keys)), id: uint32(i)}
	}
	return rows
}

// expectedInner is the inner join size: the sum over keys of the product of
// the per-side multiplicities.
func expectedInner(left, right []row) int {
	counts := make(map[uint64]int, len(right))
	for _, r := range right {
		counts[r.key]++
	}
	total := 0
	for _, l := range left {
		total += counts[l.key]
	}
	return total
}

// result is the outcome of one join variant.
type result struct {
	name  string
	count int
	took  time.Duration
}

func timed[T any](name string, newIt func() streamjoin.Iterator[T]) result {
	start := time.Now()
	n := streamjoin.Count(newIt())
	return result{name: name, count: n, took: time.Since(start)}
}

func runMerge(left, right []row) []result {
	cmp := streamjoin.CompareBy(rowKey, rowKey)
	l := func() streamjoin.Iterator[row] { return streamjoin.FromSlice(left) }
	r := func() streamjoin.Iterator[row] { return streamjoin.FromSlice(right) }
	return []result{
		timed("inner", func() streamjoin.Iterator[streamjoin.Pair[row, row]] {
			return streamjoin.NewMergeJoinInner(l(), r(), cmp)
		}),
		timed("left-excl", func() streamjoin.Iterator[row] {
			return streamjoin.NewMergeJoinLeftExcl(l(), r(), cmp)
		}),
		timed("left-outer", func() streamjoin.Iterator[streamjoin.EitherOrBoth[row, row]] {
			return streamjoin.NewMergeJoinLeftOuter(l(), r(), cmp)
		}),
		timed("right-excl", func() streamjoin.Iterator[row] {
			return streamjoin.NewMergeJoinLeftExcl(r(), l(), streamjoin.Flip(cmp))
		}),
		timed("right-outer", func() streamjoin.Iterator[streamjoin.EitherOrBoth[row, row]] {
			return streamjoin.NewMergeJoinLeftOuter(r(), l(), streamjoin.Flip(cmp))
		}),
		timed("full-outer", func() streamjoin.Iterator[streamjoin.EitherOrBoth[row, row]] {
			return streamjoin.NewMergeJoinFullOuter(l(), r(), cmp)
		}),
	}
}

func runHash(left, right []streamjoin.KV[uint64, uint32], sizeHint int) []result {
	l := func() streamjoin.Iterator[streamjoin.KV[uint64, uint32]] { return streamjoin.FromSlice(left) }
	r := func() streamjoin.Iterator[streamjoin.KV[uint64, uint32]] { return streamjoin.FromSlice(right) }
	opt := streamjoin.WithSizeHint(sizeHint)
	return []result{
		timed("inner", func() streamjoin.Iterator[streamjoin.Pair[uint32, uint32]] {
			return streamjoin.NewHashJoinInner(l(), r(), opt)
		}),
		timed("left-excl", func() streamjoin.Iterator[uint32] {
			return streamjoin.NewHashJoinLeftExcl(l(), r(), opt)
		}),
		timed("left-outer", func() streamjoin.Iterator[streamjoin.EitherOrBoth[uint32, uint32]] {
			return streamjoin.NewHashJoinLeftOuter(l(), r(), opt)
		}),
		timed("right-excl", func() streamjoin.Iterator[uint32] {
			return streamjoin.NewHashJoinRightExcl(l(), r(), opt)
		}),
		timed("right-outer", func() streamjoin.Iterator[streamjoin.EitherOrBoth[uint32, uint32]] {
			return streamjoin.NewHashJoinRightOuter(l(), r(), opt)
		}),
		timed("full-outer", func() streamjoin.Iterator[streamjoin.EitherOrBoth[uint32, uint32]] {
			return streamjoin.NewHashJoinFullOuter(l(), r(), opt)
		}),
	}
}

// checkCounts verifies the count identities of one family and returns a
// description of each violation.
func checkCounts(family string, res []result, inner int) []string {
	c := make(map[string]int, len(res))
	for _, r := range res {
		c[r.name] = r.count
	}
	var bad []string
	check := func(what string, got, want int) {
		if got != want {
			bad = append(bad, fmt.Sprintf("%s: %s = %d, want %d", family, what, got, want))
		}
	}
	check("inner", c["inner"], inner)
	check("left-outer", c["left-outer"], c["inner"]+c["left-excl"])
	check("right-outer", c["right-outer"], c["inner"]+c["right-excl"])
	check("full-outer", c["full-outer"], c["inner"]+c["left-excl"]+c["right-excl"])
	return bad
}

func main() {
	rowsFlag := flag.Int("rows", 1_000_000, "number of records per side")
	keysFlag := flag.Int("keys", 100_000, "number of distinct key values")
	skewFlag := flag.Float64("skew", 1, "key skew exponent (1 = uniform)")
	seedFlag := flag.Uint("seed", 0x1234, "seed for key derivation")
	flag.Parse()

	if *rowsFlag <= 0 || *keysFlag <= 0 || *skewFlag <= 0 {
		fmt.Println("-rows, -keys and -skew must be positive")
		os.Exit(2)
	}
	numRows, numKeys := *rowsFlag, *keysFlag
	seed := uint32(*seedFlag)

	fmt.Println("Generating records...")
	genStart := time.Now()
	left := genRows(numRows, numKeys, *skewFlag, seed, 'L')
	right := genRows(numRows, numKeys, *skewFlag, seed, 'R')
	genDuration := time.Since(genStart)

	fmt.Println("Sorting records for merge join...")
	sortStart := time.Now()
	byKey := func(a, b row) int {
		if a.key != b.key {
			if a.key < b.key {
				return -1
			}
			return 1
		}
		return int(a.id) - int(b.id)
	}
	sortedLeft := slices.SortedFunc(slices.Values(left), byKey)
	sortedRight := slices.SortedFunc(slices.Values(right), byKey)
	sortDuration := time.Since(sortStart)

	kvLeft := make([]streamjoin.KV[uint64, uint32], len(left))
	for i, r := range left {
		kvLeft[i] = streamjoin.KV[uint64, uint32]{Key: r.key, Value: r.id}
	}
	kvRight := make([]streamjoin.KV[uint64, uint32], len(right))
	for i, r := range right {
		kvRight[i] = streamjoin.KV[uint64, uint32]{Key: r.key, Value: r.id}
	}
	inner := expectedInner(left, right)

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	// 10ms sampling for peak memory (both heap and RSS).
	// Uses runtime/metrics instead of ReadMemStats to avoid stop-the-world pauses.
	var peakAlloc atomic.Uint64
	var peakRSS atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := peakAlloc.Load()
					if heapBytes <= old || peakAlloc.CompareAndSwap(old, heapBytes) {
						break
					}
				}
				rss := getMaxRSS()
				for {
					old := peakRSS.Load()
					if rss <= old || peakRSS.CompareAndSwap(old, rss) {
						break
					}
				}
			}
		}
	}()

	fmt.Println("Running joins...")
	joinStart := time.Now()
	var mergeRes, hashRes []result
	var g errgroup.Group
	g.Go(func() error {
		mergeRes = runMerge(sortedLeft, sortedRight)
		return nil
	})
	g.Go(func() error {
		hashRes = runHash(kvLeft, kvRight, numKeys)
		return nil
	})
	_ = g.Wait() // the families do not fail; Wait is the join point
	joinDuration := time.Since(joinStart)
	close(done)

	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	if final.Alloc > peakAlloc.Load() {
		peakAlloc.Store(final.Alloc)
	}
	if rss := getMaxRSS(); rss > peakRSS.Load() {
		peakRSS.Store(rss)
	}
	peakHeapMem := peakAlloc.Load() - baseline.Alloc
	peakRSSMem := peakRSS.Load() - baselineRSS

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╦══════════════════╗\n")
	fmt.Printf("║ Rows: %-14d║ Keys: %-9d║ Skew: %-11.2f║\n", numRows, numKeys, *skewFlag)
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Join                ║ Results        ║ Time             ║\n")
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	for _, fam := range []struct {
		name string
		res  []result
	}{{"merge", mergeRes}, {"hash", hashRes}} {
		for _, r := range fam.res {
			fmt.Printf("║ %-6s %-12s ║ %14d ║ %9.3f sec    ║\n", fam.name, r.name, r.count, r.took.Seconds())
		}
	}
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Generate time       ║ %6.2f sec     ║ -                ║\n", genDuration.Seconds())
	fmt.Printf("║ Sort time           ║ %6.2f sec     ║ (merge only)     ║\n", sortDuration.Seconds())
	fmt.Printf("║ Join time (wall)    ║ %6.2f sec     ║ -                ║\n", joinDuration.Seconds())
	fmt.Printf("║ Peak heap memory    ║ %6.1f MB      ║ -                ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %6.1f MB      ║ -                ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╩══════════════════╝\n")

	bad := append(checkCounts("merge", mergeRes, inner), checkCounts("hash", hashRes, inner)...)
	for i := range mergeRes {
		if mergeRes[i].count != hashRes[i].count {
			bad = append(bad, fmt.Sprintf("%s: merge = %d, hash = %d", mergeRes[i].name, mergeRes[i].count, hashRes[i].count))
		}
	}
	if len(bad) > 0 {
		fmt.Println("\nCount mismatches:")
		for _, b := range bad {
			fmt.Println("  " + b)
		}
		os.Exit(1)
	}
	fmt.Println("\nAll count identities hold.")
}
