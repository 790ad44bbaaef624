// Package row implements the row codec (C1): a variable-length byte
// record with a tombstone bit, encoded the way internal/storage/filestore's
// format.go encodes rows in the teacher codebase, but with all fields
// stored as text and a fixed-width 64-bit little-endian length prefix
// instead of a native word-width size_t.
package row

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a length prefix claims more bytes than
// remain in the buffer being decoded.
var ErrTruncated = errors.New("row: truncated record")

const lenPrefixSize = 8 // fixed 64-bit little-endian, see SPEC_FULL.md C1

// Row is an ordered list of text field values plus a tombstone flag.
// Row identity is positional, by column order.
type Row struct {
	Values  []string
	Deleted bool
}

// New builds a live (non-deleted) row from field values.
func New(values ...string) Row {
	return Row{Values: values}
}

// Serialize encodes the row as:
//
//	byte   deleted_flag
//	u64le  field_count
//	repeated field_count times:
//	  u64le field_len
//	  byte[] field_bytes
func Serialize(r Row) []byte {
	size := 1 + lenPrefixSize
	for _, v := range r.Values {
		size += lenPrefixSize + len(v)
	}
	buf := make([]byte, size)

	if r.Deleted {
		buf[0] = 1
	}
	off := 1
	binary.LittleEndian.PutUint64(buf[off:], uint64(len(r.Values)))
	off += lenPrefixSize
	for _, v := range r.Values {
		binary.LittleEndian.PutUint64(buf[off:], uint64(len(v)))
		off += lenPrefixSize
		copy(buf[off:], v)
		off += len(v)
	}
	return buf
}

// Deserialize decodes a row from the front of buf and returns the number
// of bytes consumed. Decoding fails with ErrTruncated if any length
// prefix claims more than the remaining buffer holds.
func Deserialize(buf []byte) (Row, int, error) {
	if len(buf) < 1+lenPrefixSize {
		return Row{}, 0, ErrTruncated
	}
	deleted := buf[0] != 0
	off := 1
	fieldCount := binary.LittleEndian.Uint64(buf[off:])
	off += lenPrefixSize

	values := make([]string, 0, fieldCount)
	for i := uint64(0); i < fieldCount; i++ {
		if off+lenPrefixSize > len(buf) {
			return Row{}, 0, ErrTruncated
		}
		fieldLen := binary.LittleEndian.Uint64(buf[off:])
		off += lenPrefixSize
		if fieldLen > uint64(len(buf)-off) {
			return Row{}, 0, ErrTruncated
		}
		values = append(values, string(buf[off:off+int(fieldLen)]))
		off += int(fieldLen)
	}
	return Row{Values: values, Deleted: deleted}, off, nil
}

// EncodedLen reports the byte length Serialize would produce, without
// allocating.
func EncodedLen(values []string) int {
	n := 1 + lenPrefixSize
	for _, v := range values {
		n += lenPrefixSize + len(v)
	}
	return n
}

// ValidateArity checks the row against a declared column count.
func ValidateArity(values []string, columnCount int) error {
	if len(values) != columnCount {
		return fmt.Errorf("row: expected %d values, got %d", columnCount, len(values))
	}
	return nil
}
