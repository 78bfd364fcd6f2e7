// Hjoin joins the records of two files using the hash join strategy. FILE2
// is read into memory first; FILE1 is then streamed and may be of any size.
// Neither file needs to be sorted.
//
// Usage:
//
//	hjoin [flags] FILE1 FILE2
//
// Example: records of events.tsv whose user id has no entry in users.xlsx:
//
//	hjoin -F '\t' -1 3 -2 1 -m left-excl events.tsv users.xlsx
//
// Matches are written in FILE1 order. In the right-exclusive, right outer
// and full outer modes, FILE2 records without a match are written last, in
// no particular order. Run hjoin -h for all flags.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/tamirms/streamjoin/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Main(ctx, cli.Hash, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
