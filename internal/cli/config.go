// Package cli implements the mjoin and hjoin command-line tools: flag
// parsing, input setup, and the join loops that write joined records.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	streamerrors "github.com/tamirms/streamjoin/errors"
	"github.com/tamirms/streamjoin/internal/record"
)

// Tool selects the join strategy of a command.
type Tool string

const (
	Merge Tool = "mjoin"
	Hash  Tool = "hjoin"
)

// Mode is an SQL join mode.
type Mode string

const (
	Inner      Mode = "inner"
	LeftExcl   Mode = "left-excl"
	LeftOuter  Mode = "left-outer"
	RightExcl  Mode = "right-excl"
	RightOuter Mode = "right-outer"
	FullOuter  Mode = "full-outer"
)

var modes = []Mode{Inner, LeftExcl, LeftOuter, RightExcl, RightOuter, FullOuter}

// ParseMode returns the Mode named s.
func ParseMode(s string) (Mode, error) {
	if m := Mode(s); slices.Contains(modes, m) {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", streamerrors.ErrInvalidJoinMode, s)
}

// Input describes one input file.
type Input struct {
	Path      string
	Fields    []record.Field
	RecordSep byte
	FieldSep  []byte
}

// Config is the validated configuration of one run.
type Config struct {
	Tool        Tool
	Left, Right Input
	Mode        Mode

	OutRecordSep []byte
	OutFieldSep  []byte

	Collate    string // BCP 47 tag, empty for byte order
	IgnoreCase bool
	Encoding   record.Encoding
	Sheet      string

	DigestKeys bool // hjoin only
	SizeHint   int  // hjoin only

	Verbose bool
}

// flagValues holds raw flag values before validation.
type flagValues struct {
	fields1, fields2 string
	recSep, fieldSep string
	recSepLeft       string
	recSepRight      string
	fieldSepLeft     string
	fieldSepRight    string
	outRecSep        string
	outFieldSep      string
	mode             string
	collate          string
	ignoreCase       bool
	encoding         string
	sheet            string
	digestKeys       bool
	sizeHint         int
	verbose          bool
}

// usageError marks errors caused by the command line rather than the
// inputs; they exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func newFlagSet(tool Tool, v *flagValues, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(string(tool), flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&v.fields1, "1", "1", "join on these comma-separated `FIELDS` of FILE1 (1-based, optional -i/-u/-s type)")
	fs.StringVar(&v.fields2, "2", "1", "join on these comma-separated `FIELDS` of FILE2")
	for _, name := range []string{"R", "in-rec-sep"} {
		fs.StringVar(&v.recSep, name, "\n", "input record separator, exactly one byte")
	}
	for _, name := range []string{"F", "in-field-sep"} {
		fs.StringVar(&v.fieldSep, name, ",", "input field separator, any non-empty string")
	}
	fs.StringVar(&v.recSepLeft, "in-rec-sep-left", "", "record separator of FILE1 (requires -in-rec-sep-right)")
	fs.StringVar(&v.recSepRight, "in-rec-sep-right", "", "record separator of FILE2 (requires -in-rec-sep-left)")
	fs.StringVar(&v.fieldSepLeft, "in-field-sep-left", "", "field separator of FILE1 (requires -in-field-sep-right)")
	fs.StringVar(&v.fieldSepRight, "in-field-sep-right", "", "field separator of FILE2 (requires -in-field-sep-left)")
	fs.StringVar(&v.outRecSep, "out-rec-sep", "", "output record separator (default: input record separator)")
	fs.StringVar(&v.outFieldSep, "out-field-sep", "", "output field separator (default: input field separator)")
	for _, name := range []string{"m", "mode"} {
		fs.StringVar(&v.mode, name, string(Inner), "join `mode`: inner, left-excl, left-outer, right-excl, right-outer, full-outer")
	}
	fs.StringVar(&v.collate, "collate", "", "compare string key fields by the collation of language `TAG`")
	fs.BoolVar(&v.ignoreCase, "ignore-case", false, "compare string key fields case-insensitively")
	fs.StringVar(&v.encoding, "encoding", string(record.UTF8), "input encoding: utf-8, utf-16le, utf-16be")
	fs.StringVar(&v.sheet, "sheet", "", "worksheet to read from .xlsx inputs (default: first sheet)")
	if tool == Hash {
		fs.BoolVar(&v.digestKeys, "digest-keys", false, "index the lookup table by 128-bit key digests")
		fs.IntVar(&v.sizeHint, "size-hint", 0, "expected number of distinct keys in FILE2")
	}
	fs.BoolVar(&v.verbose, "v", false, "print statistics to stderr")

	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: %s [flags] FILE1 FILE2\n\n", tool)
		switch tool {
		case Merge:
			fmt.Fprintln(out, "Join records of two files sorted by key using the merge join strategy.")
		case Hash:
			fmt.Fprintln(out, "Join records of two files using the hash join strategy; FILE2 is held in memory.")
		}
		fmt.Fprintln(out)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs parses the command line of tool. Usage and help text go to out.
// A -h request returns flag.ErrHelp.
func ParseArgs(tool Tool, args []string, out io.Writer) (*Config, error) {
	var v flagValues
	fs := newFlagSet(tool, &v, out)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, usageError{err}
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := v.config(tool, fs.Args(), set)
	if err != nil {
		return nil, usageError{err}
	}
	return cfg, nil
}

func (v *flagValues) config(tool Tool, args []string, set map[string]bool) (*Config, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected FILE1 and FILE2, got %d arguments", len(args))
	}
	shared := func(names ...string) bool {
		return slices.ContainsFunc(names, func(n string) bool { return set[n] })
	}
	if err := pairedFlags(set, "in-rec-sep-left", "in-rec-sep-right", shared("R", "in-rec-sep")); err != nil {
		return nil, err
	}
	if err := pairedFlags(set, "in-field-sep-left", "in-field-sep-right", shared("F", "in-field-sep")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Tool:       tool,
		Left:       Input{Path: args[0]},
		Right:      Input{Path: args[1]},
		Collate:    v.collate,
		IgnoreCase: v.ignoreCase,
		Sheet:      v.sheet,
		DigestKeys: v.digestKeys,
		SizeHint:   v.sizeHint,
		Verbose:    v.verbose,
	}

	var err error
	if cfg.Mode, err = ParseMode(v.mode); err != nil {
		return nil, err
	}
	if cfg.Encoding, err = record.ParseEncoding(v.encoding); err != nil {
		return nil, err
	}
	if cfg.Left.Fields, err = record.ParseFieldSpec(v.fields1); err != nil {
		return nil, fmt.Errorf("-1: %w", err)
	}
	if cfg.Right.Fields, err = record.ParseFieldSpec(v.fields2); err != nil {
		return nil, fmt.Errorf("-2: %w", err)
	}

	recSep, recSepLeft, recSepRight := unescape(v.recSep), unescape(v.recSep), unescape(v.recSep)
	if set["in-rec-sep-left"] {
		recSepLeft, recSepRight = unescape(v.recSepLeft), unescape(v.recSepRight)
	}
	if cfg.Left.RecordSep, err = recordSep(recSepLeft); err != nil {
		return nil, err
	}
	if cfg.Right.RecordSep, err = recordSep(recSepRight); err != nil {
		return nil, err
	}

	fieldSep := unescape(v.fieldSep)
	cfg.Left.FieldSep, cfg.Right.FieldSep = []byte(fieldSep), []byte(fieldSep)
	if set["in-field-sep-left"] {
		cfg.Left.FieldSep, cfg.Right.FieldSep = []byte(unescape(v.fieldSepLeft)), []byte(unescape(v.fieldSepRight))
		fieldSep = string(cfg.Left.FieldSep)
	}
	if set["in-rec-sep-left"] {
		recSep = recSepLeft
	}

	cfg.OutRecordSep = []byte(recSep)
	if set["out-rec-sep"] {
		cfg.OutRecordSep = []byte(unescape(v.outRecSep))
	}
	cfg.OutFieldSep = []byte(fieldSep)
	if set["out-field-sep"] {
		cfg.OutFieldSep = []byte(unescape(v.outFieldSep))
	}
	if cfg.IgnoreCase && cfg.Collate == "" {
		cfg.Collate = "und"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// pairedFlags checks that a left/right flag pair is given together and not
// mixed with the shared flag it overrides.
func pairedFlags(set map[string]bool, left, right string, sharedSet bool) error {
	if set[left] != set[right] {
		return fmt.Errorf("%w: -%s and -%s must be given together", streamerrors.ErrConflictingFlags, left, right)
	}
	if set[left] && sharedSet {
		return fmt.Errorf("%w: -%s/-%s cannot be combined with the shared separator flag",
			streamerrors.ErrConflictingFlags, left, right)
	}
	return nil
}

// unescape interprets Go escape sequences such as \t and \n, so separators
// can be given without shell quoting tricks. Strings that are not valid
// escapes are taken literally.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	u, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return s
	}
	return u
}

func recordSep(s string) (byte, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: %q", streamerrors.ErrInvalidSeparator, s)
	}
	return s[0], nil
}

// Validate checks the settings that do not depend on the inputs.
func (c *Config) Validate() error {
	if len(c.Left.FieldSep) == 0 || len(c.Right.FieldSep) == 0 {
		return fmt.Errorf("%w: field separator must not be empty", streamerrors.ErrInvalidSeparator)
	}
	if !slices.Contains(modes, c.Mode) {
		return fmt.Errorf("%w: %q", streamerrors.ErrInvalidJoinMode, c.Mode)
	}
	if lt, rt := record.KeyTypes(c.Left.Fields), record.KeyTypes(c.Right.Fields); !slices.Equal(lt, rt) {
		return fmt.Errorf("%w: FILE1 %v, FILE2 %v", streamerrors.ErrKeyTypeMismatch, lt, rt)
	}
	if c.Collate != "" {
		if _, err := record.NewCollator(c.Collate, c.IgnoreCase); err != nil {
			return err
		}
	}
	if c.Tool != Hash && (c.DigestKeys || c.SizeHint != 0) {
		return fmt.Errorf("%w: -digest-keys and -size-hint apply to hash joins only", streamerrors.ErrConflictingFlags)
	}
	return nil
}
