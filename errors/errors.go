// Package errors defines all exported error sentinels for the streamjoin
// record layer and command-line tools.
//
// This is the single source of truth for error values. The internal record,
// keycodec and cli packages import from here, so errors.Is checks work
// across package boundaries. The join operators themselves cannot fail.
package errors

import "errors"

// Key specification errors
var (
	ErrNoKeyFields       = errors.New("streamjoin: no key fields given")
	ErrDuplicateKeyField = errors.New("streamjoin: key field listed more than once")
	ErrInvalidFieldIndex = errors.New("streamjoin: key field index must be a positive integer")
	ErrInvalidDataType   = errors.New("streamjoin: unknown key field type (want i, u or s)")
	ErrKeyTypeMismatch   = errors.New("streamjoin: key fields of the two inputs differ in number or type")
)

// Record errors
var (
	ErrMissingField  = errors.New("streamjoin: record has fewer fields than the key requires")
	ErrKeyParse      = errors.New("streamjoin: key field is not a valid number")
	ErrReaderClosed  = errors.New("streamjoin: reader is closed")
	ErrSheetNotFound = errors.New("streamjoin: sheet not found in workbook")
)

// Configuration errors
var (
	ErrInvalidSeparator    = errors.New("streamjoin: record separator must be exactly one byte")
	ErrInvalidJoinMode     = errors.New("streamjoin: unknown join mode")
	ErrConflictingFlags    = errors.New("streamjoin: conflicting flags")
	ErrUnsupportedEncoding = errors.New("streamjoin: unsupported input encoding")
	ErrUnknownCollation    = errors.New("streamjoin: unknown collation language tag")
)
