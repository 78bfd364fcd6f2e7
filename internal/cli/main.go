package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
)

// Exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1 // unreadable input, bad key, write failure
	ExitUsage   = 2 // bad command line
)

// Main runs tool with the command-line arguments args (without the program
// name) and returns the process exit status.
func Main(ctx context.Context, tool Tool, args []string, stdout, stderr io.Writer) int {
	cfg, err := ParseArgs(tool, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintf(stderr, "%s: %v\n", tool, err)
		return ExitUsage
	}

	logger := log.New(stderr, string(tool)+": ", log.LstdFlags)
	if err := Run(ctx, cfg, stdout, logger); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", tool, err)
		var ue usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitFailure
	}
	return ExitOK
}
