package record

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	streamerrors "github.com/tamirms/streamjoin/errors"
	"github.com/tamirms/streamjoin/internal/keycodec"
)

// NewCollator returns a collator for a BCP 47 language tag such as "de",
// "sv" or "und" (the CLDR root order). String key fields compared through
// it join and sort by the conventions of that language instead of by raw
// bytes; with ignoreCase, keys differing only in case are equal.
func NewCollator(tag string, ignoreCase bool) (*collate.Collator, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", streamerrors.ErrUnknownCollation, tag, err)
	}
	var opts []collate.Option
	if ignoreCase {
		opts = append(opts, collate.IgnoreCase)
	}
	return collate.New(t, opts...), nil
}

// KeyExtractor builds the encoded join key of a record.
//
// A KeyExtractor is not safe for concurrent use: it owns scratch buffers and
// its collator, and collators must not be shared between goroutines.
type KeyExtractor struct {
	fields   []Field // sorted by Index
	types    []DataType
	sep      []byte
	collator *collate.Collator

	byPos [][]byte
	cbuf  collate.Buffer
}

// NewKeyExtractor returns an extractor for fields (as returned by
// ParseFieldSpec) of records separated by sep. A nil collator compares
// string fields by their bytes.
func NewKeyExtractor(fields []Field, sep []byte, collator *collate.Collator) *KeyExtractor {
	return &KeyExtractor{
		fields:   fields,
		types:    KeyTypes(fields),
		sep:      sep,
		collator: collator,
		byPos:    make([][]byte, len(fields)),
	}
}

// AppendKey appends the encoded key of rec to dst.
func (e *KeyExtractor) AppendKey(dst []byte, rec Record) ([]byte, error) {
	defer clear(e.byPos)
	if err := e.split(rec); err != nil {
		return dst, err
	}
	e.cbuf.Reset()
	for pos, raw := range e.byPos {
		switch e.types[pos] {
		case Int:
			v, err := strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				return dst, e.parseError(pos, raw)
			}
			dst = keycodec.AppendInt64(dst, v)
		case Uint:
			v, err := strconv.ParseUint(string(raw), 10, 64)
			if err != nil {
				return dst, e.parseError(pos, raw)
			}
			dst = keycodec.AppendUint64(dst, v)
		default:
			if e.collator != nil {
				raw = e.collator.Key(&e.cbuf, raw)
			}
			dst = keycodec.AppendBytes(dst, raw)
		}
	}
	return dst, nil
}

// split walks the fields of rec once and files each key field under its key
// position.
func (e *KeyExtractor) split(rec Record) error {
	rest := []byte(rec)
	next := 0
	for idx := 0; next < len(e.fields); idx++ {
		i := bytes.Index(rest, e.sep)
		field := rest
		if i >= 0 {
			field = rest[:i]
		}
		if f := e.fields[next]; f.Index == idx {
			e.byPos[f.Pos] = field
			next++
		}
		if i < 0 {
			if next < len(e.fields) {
				return fmt.Errorf("%w: key field %d, record has %d fields",
					streamerrors.ErrMissingField, e.fields[next].Index+1, idx+1)
			}
			break
		}
		rest = rest[i+len(e.sep):]
	}
	return nil
}

func (e *KeyExtractor) parseError(pos int, raw []byte) error {
	var field Field
	for _, f := range e.fields {
		if f.Pos == pos {
			field = f
		}
	}
	return fmt.Errorf("%w: field %d: %q is not a valid %s", streamerrors.ErrKeyParse, field.Index+1, raw, field.Type)
}
