// Package record reads delimited records from files, extracts their join
// keys, and writes joined records back out.
//
// A record is the raw bytes between two record separators. Its fields are
// the pieces between field separators; field numbers are 1-based on the
// command line and 0-based in this package.
package record

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	streamerrors "github.com/tamirms/streamjoin/errors"
)

// DataType is the type a key field is parsed as before encoding.
type DataType uint8

const (
	String DataType = iota // raw bytes, optionally collated
	Int                    // signed 64-bit decimal
	Uint                   // unsigned 64-bit decimal
)

func (t DataType) String() string {
	switch t {
	case Int:
		return "i64"
	case Uint:
		return "u64"
	default:
		return "string"
	}
}

// Field is one key field: which record field it reads, where it goes in the
// composite key, and how it is parsed.
type Field struct {
	Index int // 0-based field index in the record
	Pos   int // 0-based position in the composite key
	Type  DataType
}

// ParseFieldSpec parses a comma-separated list of 1-based field numbers,
// each with an optional type suffix: "-i" (int64), "-u" (uint64) or "-s"
// (string, the default). The key is composed in list order, so "3,1-i"
// keys on field 3 first and the integer in field 1 second.
//
// The result is sorted by Index, the order in which fields appear in a
// record.
func ParseFieldSpec(spec string) ([]Field, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, streamerrors.ErrNoKeyFields
	}
	parts := strings.Split(spec, ",")
	fields := make([]Field, 0, len(parts))
	for pos, part := range parts {
		num, typ, hasType := strings.Cut(strings.TrimSpace(part), "-")
		idx, err := strconv.Atoi(num)
		if err != nil || idx < 1 {
			return nil, fmt.Errorf("%w: %q", streamerrors.ErrInvalidFieldIndex, part)
		}
		f := Field{Index: idx - 1, Pos: pos, Type: String}
		if hasType {
			switch typ {
			case "i":
				f.Type = Int
			case "u":
				f.Type = Uint
			case "s":
			default:
				return nil, fmt.Errorf("%w: %q", streamerrors.ErrInvalidDataType, part)
			}
		}
		fields = append(fields, f)
	}

	slices.SortFunc(fields, func(a, b Field) int { return a.Index - b.Index })
	for i := 1; i < len(fields); i++ {
		if fields[i].Index == fields[i-1].Index {
			return nil, fmt.Errorf("%w: field %d", streamerrors.ErrDuplicateKeyField, fields[i].Index+1)
		}
	}
	return fields, nil
}

// KeyTypes returns the field types of a parsed spec in key position order.
// Two inputs can only be joined when their key types are equal.
func KeyTypes(fields []Field) []DataType {
	types := make([]DataType, len(fields))
	for _, f := range fields {
		types[f.Pos] = f.Type
	}
	return types
}
