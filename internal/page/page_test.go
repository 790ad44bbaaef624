package page

import "testing"

func TestInsertAndLiveRows(t *testing.T) {
	p := New(1)
	off1, ok := p.InsertRow([]string{"1", "Alice"})
	if !ok {
		t.Fatalf("expected insert to succeed")
	}
	if off1 != 0 {
		t.Fatalf("first insert offset = %d, want 0", off1)
	}
	off2, ok := p.InsertRow([]string{"2", "Bob"})
	if !ok {
		t.Fatalf("expected second insert to succeed")
	}
	if off2 <= off1 {
		t.Fatalf("second offset %d should be past first %d", off2, off1)
	}

	rows := p.LiveRows()
	if len(rows) != 2 {
		t.Fatalf("got %d live rows, want 2", len(rows))
	}
	if rows[0].Values[1] != "Alice" || rows[1].Values[1] != "Bob" {
		t.Fatalf("unexpected row contents: %+v", rows)
	}
}

func TestInsertRowRespectsPageBoundary(t *testing.T) {
	p := New(1)
	big := make([]byte, Size)
	for i := range big {
		big[i] = 'x'
	}
	_, ok := p.InsertRow([]string{string(big)})
	if ok {
		t.Fatalf("expected oversized row to be rejected")
	}
}

func TestMarkDeletedHidesRowFromLiveRows(t *testing.T) {
	p := New(1)
	off, ok := p.InsertRow([]string{"1", "Alice"})
	if !ok {
		t.Fatalf("expected insert to succeed")
	}
	if err := p.MarkDeleted(off); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}
	if rows := p.LiveRows(); len(rows) != 0 {
		t.Fatalf("expected tombstoned row hidden, got %+v", rows)
	}
}

func TestLoadRoundTripsBytes(t *testing.T) {
	p := New(7)
	p.InsertRow([]string{"a", "b"})

	loaded, err := Load(7, p.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rows := loaded.LiveRows()
	if len(rows) != 1 || rows[0].Values[0] != "a" {
		t.Fatalf("unexpected rows after load: %+v", rows)
	}
}

func TestLoadRejectsWrongSize(t *testing.T) {
	if _, err := Load(1, make([]byte, Size-1)); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
}

func TestIterateRowsPreservesPhysicalOrder(t *testing.T) {
	p := New(1)
	p.InsertRow([]string{"1"})
	p.InsertRow([]string{"2"})
	p.InsertRow([]string{"3"})

	var seen []string
	err := p.IterateRows(func(rec RowRecord) error {
		seen = append(seen, rec.Row.Values[0])
		return nil
	})
	if err != nil {
		t.Fatalf("IterateRows: %v", err)
	}
	if len(seen) != 3 || seen[0] != "1" || seen[1] != "2" || seen[2] != "3" {
		t.Fatalf("unexpected order: %v", seen)
	}
}
