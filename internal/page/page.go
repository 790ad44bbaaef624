// Package page implements the fixed 4 KiB page (C2): a slab holding
// length-prefixed row records packed from offset 0, with a zero-length
// prefix marking the free boundary. Modeled on the record-walking style
// of internal/storage/filestore's page.go in the teacher codebase, but
// using the spec's flat sequential layout (no slot directory).
package page

import (
	"encoding/binary"
	"fmt"

	"reldb/internal/row"
)

// Size is the fixed on-disk page size.
const Size = 4096

const lenPrefixSize = 8

// Page is a single 4096-byte slab plus its dirty bit. data is always
// exactly Size bytes.
type Page struct {
	ID    uint64
	data  [Size]byte
	Dirty bool
}

// New returns a fresh, zero-filled page with the given id.
func New(id uint64) *Page {
	return &Page{ID: id, Dirty: true}
}

// Load wraps an existing Size-byte buffer read from disk as a Page.
func Load(id uint64, buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("page: buffer must be %d bytes, got %d", Size, len(buf))
	}
	p := &Page{ID: id}
	copy(p.data[:], buf)
	return p, nil
}

// Bytes returns the page's raw on-disk representation.
func (p *Page) Bytes() []byte {
	return p.data[:]
}

// InsertRow walks the page from offset 0 looking for the free boundary
// (a zero length prefix) and writes the row there. Returns the byte
// offset the row's length prefix starts at, or ok=false if there isn't
// room anywhere in the page.
//
// The stored row_total_len is len(encoded_row) + lenPrefixSize: the
// length prefix counts itself, a deliberate on-disk accounting quirk
// preserved from the original format (see SPEC_FULL.md Design Notes).
func (p *Page) InsertRow(values []string) (offset int, ok bool) {
	encoded := row.Serialize(row.New(values...))
	rowTotalLen := len(encoded) + lenPrefixSize

	pos := 0
	for pos+lenPrefixSize <= Size {
		existing := binary.LittleEndian.Uint64(p.data[pos:])
		if existing == 0 {
			break
		}
		pos += int(existing)
	}
	if pos+lenPrefixSize+len(encoded)+lenPrefixSize > Size {
		return 0, false
	}

	binary.LittleEndian.PutUint64(p.data[pos:], uint64(rowTotalLen))
	copy(p.data[pos+lenPrefixSize:], encoded)
	p.Dirty = true
	return pos, true
}

// RowRecord is a decoded row plus the page offset of its length prefix,
// used by callers (delete_rows, update_rows) that need to mutate the
// record in place afterward.
type RowRecord struct {
	Offset int
	Row    row.Row
}

// IterateRows walks the page in physical order, decoding every record up
// to the first zero-length terminator. A corrupt record aborts the scan
// at that point and returns a DecodeFailure-class error; records already
// yielded via fn are still valid.
func (p *Page) IterateRows(fn func(RowRecord) error) error {
	pos := 0
	for pos+lenPrefixSize <= Size {
		rowTotalLen := binary.LittleEndian.Uint64(p.data[pos:])
		if rowTotalLen == 0 {
			return nil
		}
		if rowTotalLen < lenPrefixSize || pos+int(rowTotalLen) > Size {
			return fmt.Errorf("page: corrupt record length %d at offset %d", rowTotalLen, pos)
		}
		encodedLen := int(rowTotalLen) - lenPrefixSize
		encoded := p.data[pos+lenPrefixSize : pos+lenPrefixSize+encodedLen]
		r, _, err := row.Deserialize(encoded)
		if err != nil {
			return fmt.Errorf("page: %w at offset %d", err, pos)
		}
		if err := fn(RowRecord{Offset: pos, Row: r}); err != nil {
			return err
		}
		pos += lenPrefixSize + encodedLen
	}
	return nil
}

// LiveRows returns the decoded, non-tombstoned rows in physical order.
// A decode failure truncates the result at the first bad record, per
// the read-rows contract (DecodeFailure stops the scan, not the caller).
func (p *Page) LiveRows() []row.Row {
	var out []row.Row
	_ = p.IterateRows(func(rec RowRecord) error {
		if !rec.Row.Deleted {
			out = append(out, rec.Row)
		}
		return nil
	})
	return out
}

// MarkDeleted flips the tombstone byte of the record whose length prefix
// starts at offset, without touching its payload. Monotone: a row
// already deleted stays deleted.
func (p *Page) MarkDeleted(offset int) error {
	if offset < 0 || offset+lenPrefixSize > Size {
		return fmt.Errorf("page: offset %d out of range", offset)
	}
	rowTotalLen := binary.LittleEndian.Uint64(p.data[offset:])
	if rowTotalLen == 0 || offset+int(rowTotalLen) > Size {
		return fmt.Errorf("page: no record at offset %d", offset)
	}
	p.data[offset+lenPrefixSize] = 1
	p.Dirty = true
	return nil
}
