package record

import (
	"bufio"
	"io"

	"github.com/cespare/xxhash/v2"
)

// WriterStats summarises what a Writer emitted.
type WriterStats struct {
	Records  int64
	Bytes    int64
	Checksum uint64 // xxHash64 of every byte written
}

// Writer writes joined records. A record from one side only is padded with
// an empty field for every field of the absent side, so all outer-join
// output has the same shape.
type Writer struct {
	w        *bufio.Writer
	digest   *xxhash.Digest
	fieldSep []byte
	recSep   []byte
	records  int64
	bytes    int64
	err      error
}

// NewWriter returns a buffered Writer. Call Flush when done.
func NewWriter(w io.Writer, fieldSep, recSep []byte) *Writer {
	return &Writer{
		w:        bufio.NewWriterSize(w, 1<<16),
		digest:   xxhash.New(),
		fieldSep: fieldSep,
		recSep:   recSep,
	}
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.digest.Write(p[:n])
	w.bytes += int64(n)
	w.err = err
}

func (w *Writer) pad(n int) {
	for range n {
		w.write(w.fieldSep)
	}
}

func (w *Writer) end() error {
	w.write(w.recSep)
	if w.err == nil {
		w.records++
	}
	return w.err
}

// Both writes a matched pair: the left record, a field separator, then the
// right record.
func (w *Writer) Both(left, right Record) error {
	w.write(left)
	w.write(w.fieldSep)
	w.write(right)
	return w.end()
}

// Left writes a left record with rightFields empty fields after it.
func (w *Writer) Left(left Record, rightFields int) error {
	w.write(left)
	w.pad(rightFields)
	return w.end()
}

// Right writes a right record with leftFields empty fields before it.
func (w *Writer) Right(right Record, leftFields int) error {
	w.pad(leftFields)
	w.write(right)
	return w.end()
}

// Flush writes any buffered output.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

// Stats returns the counts and checksum of everything written so far.
func (w *Writer) Stats() WriterStats {
	return WriterStats{Records: w.records, Bytes: w.bytes, Checksum: w.digest.Sum64()}
}
