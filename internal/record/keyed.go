package record

import (
	"errors"
	"fmt"

	"github.com/tamirms/streamjoin"
	"github.com/tamirms/streamjoin/internal/keycodec"
)

// Keyed is a record with its encoded join key.
type Keyed struct {
	Key    string
	Record Record
}

// CompareKeyed orders keyed records by key, for merge joins.
func CompareKeyed(a, b Keyed) int {
	return keycodec.Compare(a.Key, b.Key)
}

// KeyedIterator extracts the key of every record of a Reader. It stops at
// the first record whose key cannot be extracted; Err then reports the
// record number and the cause.
type KeyedIterator struct {
	src  Reader
	ext  *KeyExtractor
	name string
	buf  []byte
	n    int
	err  error
}

// NewKeyed returns a keyed view of src. name identifies the input in errors.
func NewKeyed(name string, src Reader, ext *KeyExtractor) *KeyedIterator {
	return &KeyedIterator{src: src, ext: ext, name: name}
}

// Next implements streamjoin.Iterator.
func (k *KeyedIterator) Next() (Keyed, bool) {
	if k.err != nil {
		return Keyed{}, false
	}
	rec, ok := k.src.Next()
	if !ok {
		return Keyed{}, false
	}
	k.n++
	key, err := k.ext.AppendKey(k.buf[:0], rec)
	k.buf = key
	if err != nil {
		k.err = fmt.Errorf("%s: record %d: %w", k.name, k.n, err)
		return Keyed{}, false
	}
	return Keyed{Key: string(key), Record: rec}, true
}

// Records returns the number of records read so far.
func (k *KeyedIterator) Records() int { return k.n }

// Err returns the key extraction or read error that ended the stream.
func (k *KeyedIterator) Err() error {
	if err := k.src.Err(); err != nil {
		return errors.Join(k.err, fmt.Errorf("%s: %w", k.name, err))
	}
	return k.err
}

// kvIterator presents keyed records as hash-join input.
type kvIterator[K comparable] struct {
	src *KeyedIterator
	key func(string) K
}

func (it kvIterator[K]) Next() (streamjoin.KV[K, Record], bool) {
	k, ok := it.src.Next()
	if !ok {
		return streamjoin.KV[K, Record]{}, false
	}
	return streamjoin.KV[K, Record]{Key: it.key(k.Key), Value: k.Record}, true
}

// ByKey keys hash-join input by the full encoded key.
func ByKey(src *KeyedIterator) streamjoin.Iterator[streamjoin.KV[string, Record]] {
	return kvIterator[string]{src: src, key: func(s string) string { return s }}
}

// ByDigest keys hash-join input by the 128-bit digest of the encoded key,
// which keeps the lookup table small when keys are long.
func ByDigest(src *KeyedIterator) streamjoin.Iterator[streamjoin.KV[keycodec.Digest, Record]] {
	return kvIterator[keycodec.Digest]{src: src, key: keycodec.Sum}
}
