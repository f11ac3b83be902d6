package column

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

func newTestBlock(t *testing.T, cols ...[2]string) *Block {
	t.Helper()
	b := NewBlock()
	for _, c := range cols {
		if err := b.AddColumn(c[0], c[1]); err != nil {
			t.Fatalf("AddColumn(%q, %q): %v", c[0], c[1], err)
		}
	}
	return b
}

func TestBlockAppendRow(t *testing.T) {
	b := newTestBlock(t, [2]string{"id", "UInt64"}, [2]string{"name", "String"})
	for i := 0; i < 3; i++ {
		if err := b.SetPlaceholder(0, uint64(i)); err != nil {
			t.Fatal(err)
		}
		if err := b.SetPlaceholder(1, "row"); err != nil {
			t.Fatal(err)
		}
		if err := b.AppendRow(); err != nil {
			t.Fatal(err)
		}
	}
	if b.Rows() != 3 {
		t.Fatalf("Rows() = %d, want 3", b.Rows())
	}
	for _, col := range b.Columns() {
		if col.Rows() != 3 {
			t.Fatalf("column %q has %d rows", col.Name, col.Rows())
		}
	}
}

func TestBlockConstShiftsPlaceholders(t *testing.T) {
	b := newTestBlock(t,
		[2]string{"a", "UInt8"},
		[2]string{"b", "UInt8"},
		[2]string{"c", "UInt8"},
	)
	// Bind a const at column 1; placeholder 1 must now land on column 2.
	if err := b.SetConst(1, uint8(99)); err != nil {
		t.Fatal(err)
	}
	if err := b.SetPlaceholder(0, uint8(10)); err != nil {
		t.Fatal(err)
	}
	if err := b.SetPlaceholder(1, uint8(30)); err != nil {
		t.Fatal(err)
	}
	if err := b.AppendRow(); err != nil {
		t.Fatal(err)
	}
	want := []uint8{10, 99, 30}
	for i, col := range b.Columns() {
		if got := col.Value(0).(uint8); got != want[i] {
			t.Errorf("column %d = %d, want %d", i, got, want[i])
		}
	}
}

func TestBlockConstAtSameIndexShiftsAgain(t *testing.T) {
	b := newTestBlock(t,
		[2]string{"a", "UInt8"},
		[2]string{"b", "UInt8"},
		[2]string{"c", "UInt8"},
	)
	if err := b.SetConst(0, uint8(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.SetConst(1, uint8(2)); err != nil {
		t.Fatal(err)
	}
	// Both leading columns are bound; the only placeholder left is column 2.
	if err := b.SetPlaceholder(0, uint8(3)); err != nil {
		t.Fatal(err)
	}
	if err := b.AppendRow(); err != nil {
		t.Fatal(err)
	}
	want := []uint8{1, 2, 3}
	for i, col := range b.Columns() {
		if got := col.Value(0).(uint8); got != want[i] {
			t.Errorf("column %d = %d, want %d", i, got, want[i])
		}
	}
}

func TestBlockAppendFailurePoisons(t *testing.T) {
	b := newTestBlock(t, [2]string{"a", "UInt8"}, [2]string{"b", "UInt8"})
	if err := b.SetPlaceholder(0, uint8(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.SetPlaceholder(1, "not a number"); err != nil {
		t.Fatal(err)
	}
	err := b.AppendRow()
	if err == nil {
		t.Fatal("append of an unconvertible value must fail")
	}
	if !errors.HasCode(err, ErrAppendFailed) {
		t.Fatalf("error code = %v", err)
	}
	if b.Rows() != 0 {
		t.Fatalf("row count advanced to %d after a failed append", b.Rows())
	}
	if !b.Poisoned() {
		t.Fatal("block must be poisoned after a failed append")
	}
	if err := b.AppendRow(); err == nil {
		t.Fatal("poisoned block must reject further appends")
	}
	var out bytes.Buffer
	if err := b.WriteTo(binary.NewWriter(&out), true); err == nil {
		t.Fatal("poisoned block must not serialize")
	}
}

func TestBlockRoundTrip(t *testing.T) {
	b := newTestBlock(t,
		[2]string{"id", "UInt64"},
		[2]string{"tag", "Nullable(String)"},
		[2]string{"scores", "Array(Int32)"},
	)
	rows := []struct {
		id     uint64
		tag    interface{}
		scores []interface{}
	}{
		{1, "alpha", []interface{}{int32(1), int32(2)}},
		{2, nil, []interface{}{}},
	}
	for _, row := range rows {
		if err := b.SetPlaceholder(0, row.id); err != nil {
			t.Fatal(err)
		}
		if err := b.SetPlaceholder(1, row.tag); err != nil {
			t.Fatal(err)
		}
		if err := b.SetPlaceholder(2, row.scores); err != nil {
			t.Fatal(err)
		}
		if err := b.AppendRow(); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	w := binary.NewWriter(&out)
	if err := b.WriteTo(w, true); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	decoded, err := ReadBlock(binary.NewReader(bufio.NewReader(&out)), true)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if decoded.Rows() != 2 {
		t.Fatalf("decoded %d rows, want 2", decoded.Rows())
	}
	tag, ok := decoded.ColumnByName("tag")
	if !ok {
		t.Fatal("column tag missing after decode")
	}
	if !bytes.Equal(tag.Value(0).([]byte), []byte("alpha")) {
		t.Fatalf("tag[0] = %v", tag.Value(0))
	}
	if tag.Value(1) != nil {
		t.Fatalf("tag[1] = %v, want nil", tag.Value(1))
	}
	scores, _ := decoded.ColumnByName("scores")
	if got := scores.Value(0).([]interface{}); len(got) != 2 || got[1] != int32(2) {
		t.Fatalf("scores[0] = %v", got)
	}
}

func TestBlockSettingsWire(t *testing.T) {
	s := DefaultBlockSettings()
	var out bytes.Buffer
	w := binary.NewWriter(&out)
	if err := s.WriteTo(w); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	// Default header is bare: bucketNum of -1 and isOverflows false are
	// both defaults, so only the terminator travels.
	if !bytes.Equal(out.Bytes(), []byte{0x00}) {
		t.Fatalf("default header = % x, want 00", out.Bytes())
	}

	out.Reset()
	s.IsOverflows = true
	s.BucketNum = 7
	w = binary.NewWriter(&out)
	if err := s.WriteTo(w); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x01, 0x01, // isOverflows = true
		0x02, 0x07, 0x00, 0x00, 0x00, // bucketNum = 7
		0x00,
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("header = % x, want % x", out.Bytes(), want)
	}

	var decoded BlockSettings
	if err := decoded.ReadFrom(binary.NewReader(bufio.NewReader(bytes.NewReader(want)))); err != nil {
		t.Fatal(err)
	}
	if !decoded.IsOverflows || decoded.BucketNum != 7 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestBlockRejectsDuplicateColumn(t *testing.T) {
	b := NewBlock()
	if err := b.AddColumn("x", "UInt8"); err != nil {
		t.Fatal(err)
	}
	if err := b.AddColumn("x", "UInt16"); err == nil {
		t.Fatal("duplicate column name must be rejected")
	}
	if err := b.AddColumn("", "UInt8"); err == nil {
		t.Fatal("empty column name must be rejected")
	}
}
