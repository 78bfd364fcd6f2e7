package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"

	"github.com/tamirms/streamjoin"
	"github.com/tamirms/streamjoin/internal/record"
)

// checkEvery is how many output records are written between checks for
// cancellation.
const checkEvery = 4096

// side is an opened input.
type side struct {
	name   string
	reader record.Reader
	keyed  *record.KeyedIterator
}

// Run executes one join described by cfg and writes the result to out.
// Statistics are logged to logger when cfg.Verbose is set.
func Run(ctx context.Context, cfg *Config, out io.Writer, logger *log.Logger) (err error) {
	start := time.Now()
	left, right, err := openInputs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, left.reader.Close(), right.reader.Close())
	}()
	if cfg.Verbose {
		logger.Printf("opened %s (%d fields) and %s (%d fields) in %v",
			left.name, left.reader.Fields(), right.name, right.reader.Fields(), time.Since(start).Round(time.Millisecond))
	}

	w := record.NewWriter(out, cfg.OutFieldSep, cfg.OutRecordSep)
	j := &joiner{
		ctx:         ctx,
		w:           w,
		leftFields:  left.reader.Fields(),
		rightFields: right.reader.Fields(),
	}
	joinStart := time.Now()
	switch cfg.Tool {
	case Merge:
		err = j.merge(cfg.Mode, left.keyed, right.keyed)
	default:
		var opts []streamjoin.HashOption
		if cfg.SizeHint > 0 {
			opts = append(opts, streamjoin.WithSizeHint(cfg.SizeHint))
		}
		if cfg.DigestKeys {
			err = hashJoin(j, cfg.Mode, record.ByDigest(left.keyed), record.ByDigest(right.keyed), opts)
		} else {
			err = hashJoin(j, cfg.Mode, record.ByKey(left.keyed), record.ByKey(right.keyed), opts)
		}
	}
	// A failed input ends its stream early and looks like exhaustion to the
	// join, so input errors take precedence over a clean join result.
	if inErr := errors.Join(left.keyed.Err(), right.keyed.Err()); inErr != nil {
		return inErr
	}
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if cfg.Verbose {
		st := w.Stats()
		elapsed := time.Since(joinStart)
		logger.Printf("%s %s: read %d + %d records, wrote %d records (%d bytes) in %v",
			cfg.Tool, cfg.Mode, left.keyed.Records(), right.keyed.Records(), st.Records, st.Bytes, elapsed.Round(time.Millisecond))
		logger.Printf("output checksum %016x", st.Checksum)
	}
	return nil
}

// openInputs opens both inputs concurrently. Mapping and, for UTF-16 or
// workbooks, decoding an input can take a while on large files.
func openInputs(cfg *Config) (left, right side, err error) {
	var g errgroup.Group
	var readers [2]record.Reader
	inputs := [2]Input{cfg.Left, cfg.Right}
	for i := range inputs {
		g.Go(func() error {
			// The hash join reads FILE2 completely before the first output.
			prefault := cfg.Tool == Hash && i == 1
			r, err := openReader(cfg, inputs[i], prefault)
			if err != nil {
				return fmt.Errorf("FILE%d %s: %w", i+1, inputs[i].Path, err)
			}
			readers[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var closeErrs []error
		for _, r := range readers {
			if r != nil {
				closeErrs = append(closeErrs, r.Close())
			}
		}
		return side{}, side{}, errors.Join(append([]error{err}, closeErrs...)...)
	}

	var sides [2]side
	for i, in := range inputs {
		collator, err := collatorFor(cfg)
		if err != nil {
			return side{}, side{}, errors.Join(err, readers[0].Close(), readers[1].Close())
		}
		name := fmt.Sprintf("FILE%d", i+1)
		ext := record.NewKeyExtractor(in.Fields, in.FieldSep, collator)
		sides[i] = side{name: name, reader: readers[i], keyed: record.NewKeyed(name, readers[i], ext)}
	}
	return sides[0], sides[1], nil
}

func openReader(cfg *Config, in Input, prefault bool) (record.Reader, error) {
	if record.IsSheet(in.Path) {
		return record.OpenSheet(in.Path, cfg.Sheet, in.FieldSep)
	}
	return record.OpenText(in.Path, record.TextOptions{
		RecordSep: in.RecordSep,
		FieldSep:  in.FieldSep,
		Encoding:  cfg.Encoding,
		Prefault:  prefault,
	})
}

// collatorFor returns a fresh collator, or nil for byte order. Collators are
// not safe for concurrent use, so each key extractor gets its own.
func collatorFor(cfg *Config) (*collate.Collator, error) {
	if cfg.Collate == "" {
		return nil, nil
	}
	return record.NewCollator(cfg.Collate, cfg.IgnoreCase)
}
