package record

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/text/encoding/unicode"

	streamerrors "github.com/tamirms/streamjoin/errors"
)

// Record is one input record without its record separator. Records returned
// by a Reader stay valid until the Reader is closed.
type Record []byte

// Reader is a source of records.
//
// Next follows the bufio.Scanner convention: it returns false both at the
// end of the input and on failure, and Err reports the failure afterwards.
type Reader interface {
	Next() (Record, bool)
	Err() error
	Close() error
	// Fields returns the number of fields of the first record, or 0 for an
	// empty input. Outer joins pad a missing side with that many fields.
	Fields() int
}

// Encoding is the character encoding of a text input.
type Encoding string

const (
	UTF8    Encoding = "utf-8"
	UTF16LE Encoding = "utf-16le"
	UTF16BE Encoding = "utf-16be"
)

// ParseEncoding accepts the names of the supported encodings, case
// insensitively.
func ParseEncoding(name string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(name)); e {
	case UTF8, UTF16LE, UTF16BE:
		return e, nil
	case "utf8", "":
		return UTF8, nil
	}
	return "", fmt.Errorf("%w: %q", streamerrors.ErrUnsupportedEncoding, name)
}

// TextOptions configures a text input.
type TextOptions struct {
	RecordSep byte
	FieldSep  []byte
	Encoding  Encoding
	// Prefault asks the kernel to read the whole mapping ahead, for inputs
	// that are read completely before any output (the hash-join build side).
	Prefault bool
}

// TextReader reads separator-delimited records from a memory-mapped file.
// Records are slices of the mapping; no record is copied.
type TextReader struct {
	mm     mmap.MMap
	data   []byte
	pos    int
	sep    byte
	fields int
	closed bool
}

// OpenText maps the file at path and prepares it for reading. UTF-16 input
// is decoded into memory up front and the mapping released.
func OpenText(path string, opts TextOptions) (*TextReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	r := &TextReader{sep: opts.RecordSep}
	if stat.Size() > 0 {
		fadviseSequential(int(f.Fd()), 0, stat.Size())
		mm, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("mmap input: %w", err)
		}
		r.mm, r.data = mm, []byte(mm)
		madviseSequential(r.data)
		if opts.Prefault {
			prefaultRegion(r.data)
		}
	}

	if opts.Encoding == UTF16LE || opts.Encoding == UTF16BE {
		if err := r.decodeUTF16(opts.Encoding); err != nil {
			return nil, errors.Join(err, r.Close())
		}
	}
	r.fields = countFields(r.data, r.sep, opts.FieldSep)
	return r, nil
}

// NewTextReader reads records from data held in memory.
func NewTextReader(data []byte, recordSep byte, fieldSep []byte) *TextReader {
	return &TextReader{
		data:   data,
		sep:    recordSep,
		fields: countFields(data, recordSep, fieldSep),
	}
}

func (r *TextReader) decodeUTF16(enc Encoding) error {
	endian := unicode.LittleEndian
	if enc == UTF16BE {
		endian = unicode.BigEndian
	}
	decoded, err := unicode.UTF16(endian, unicode.UseBOM).NewDecoder().Bytes(r.data)
	if err != nil {
		return fmt.Errorf("decode %s input: %w", enc, err)
	}
	if r.mm != nil {
		if err := r.mm.Unmap(); err != nil {
			return fmt.Errorf("unmap input: %w", err)
		}
		r.mm = nil
	}
	r.data = decoded
	return nil
}

func countFields(data []byte, recordSep byte, fieldSep []byte) int {
	if len(data) == 0 {
		return 0
	}
	first := data
	if i := bytes.IndexByte(data, recordSep); i >= 0 {
		first = data[:i]
	}
	return bytes.Count(first, fieldSep) + 1
}

// Next implements Reader. A separator at the very end of the input does not
// start another record.
func (r *TextReader) Next() (Record, bool) {
	if r.closed || r.pos >= len(r.data) {
		return nil, false
	}
	rest := r.data[r.pos:]
	i := bytes.IndexByte(rest, r.sep)
	if i < 0 {
		r.pos = len(r.data)
		return Record(rest[:len(rest):len(rest)]), true
	}
	r.pos += i + 1
	return Record(rest[:i:i]), true
}

// Err implements Reader.
func (r *TextReader) Err() error {
	if r.closed && r.pos < len(r.data) {
		return streamerrors.ErrReaderClosed
	}
	return nil
}

// Fields implements Reader.
func (r *TextReader) Fields() int { return r.fields }

// Close releases the mapping. Records returned earlier become invalid.
func (r *TextReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.mm != nil {
		mm := r.mm
		r.mm = nil
		return mm.Unmap()
	}
	return nil
}
