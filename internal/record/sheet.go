package record

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	streamerrors "github.com/tamirms/streamjoin/errors"
)

// IsSheet reports whether path names a spreadsheet workbook.
func IsSheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// SheetReader streams the rows of one worksheet as records, joining the
// cells of a row with the field separator. Rows without any cell are
// skipped. A cell containing the field separator splits into two fields.
type SheetReader struct {
	file *excelize.File
	rows *excelize.Rows
	sep  []byte

	peeked  Record
	hasPeek bool
	fields  int
	eof     bool
	err     error
	closed  bool
}

// OpenSheet opens the workbook at path and positions it on sheet, or on the
// first sheet when sheet is empty.
func OpenSheet(path, sheet string, fieldSep []byte) (*SheetReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if sheet == "" && len(sheets) > 0 {
		sheet = sheets[0]
	}
	if !slices.Contains(sheets, sheet) {
		return nil, errors.Join(fmt.Errorf("%w: %q in %s", streamerrors.ErrSheetNotFound, sheet, path), f.Close())
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("read sheet %q: %w", sheet, err), f.Close())
	}

	r := &SheetReader{file: f, rows: rows, sep: fieldSep}
	if rec, ok := r.read(); ok {
		r.peeked, r.hasPeek = rec, true
		r.fields = bytes.Count(rec, fieldSep) + 1
	}
	if r.err != nil {
		return nil, errors.Join(r.err, r.Close())
	}
	return r, nil
}

func (r *SheetReader) read() (Record, bool) {
	for r.rows.Next() {
		cells, err := r.rows.Columns()
		if err != nil {
			r.err = fmt.Errorf("read row: %w", err)
			return nil, false
		}
		if len(cells) == 0 {
			continue
		}
		var rec []byte
		for i, c := range cells {
			if i > 0 {
				rec = append(rec, r.sep...)
			}
			rec = append(rec, c...)
		}
		return Record(rec), true
	}
	r.eof = true
	if err := r.rows.Error(); err != nil {
		r.err = fmt.Errorf("read rows: %w", err)
	}
	return nil, false
}

// Next implements Reader. Every record is a fresh allocation, so it stays
// valid after Close as well.
func (r *SheetReader) Next() (Record, bool) {
	if r.closed {
		if r.err == nil && !r.eof {
			r.err = streamerrors.ErrReaderClosed
		}
		return nil, false
	}
	if r.hasPeek {
		rec := r.peeked
		r.peeked, r.hasPeek = nil, false
		return rec, true
	}
	if r.eof || r.err != nil {
		return nil, false
	}
	return r.read()
}

// Err implements Reader.
func (r *SheetReader) Err() error { return r.err }

// Fields implements Reader.
func (r *SheetReader) Fields() int { return r.fields }

// Close implements Reader.
func (r *SheetReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.rows.Close(), r.file.Close())
}
