// Mjoin joins the records of two files that are sorted by their join key,
// using the merge join strategy. Memory use is bounded by the largest group
// of records sharing one key.
//
// Usage:
//
//	mjoin [flags] FILE1 FILE2
//
// Example: left outer join of two semicolon-separated files on the integer
// in field 2 of FILE1 and field 1 of FILE2:
//
//	mjoin -F ';' -1 2-i -2 1-i -m left-outer orders.csv customers.csv
//
// Both files must be sorted by their key in the order the key is compared
// in: numerically for -i and -u fields, by bytes (or by the -collate
// collation) for string fields. Unsorted input is not detected and gives
// incomplete results. Run mjoin -h for all flags.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/tamirms/streamjoin/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Main(ctx, cli.Merge, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
