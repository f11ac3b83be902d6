package column

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

// Block is an ordered set of columns sharing one row count, plus the
// staging machinery for row-at-a-time inserts: a staging row holding the
// next row's cells and a placeholder index map that routes positional
// parameters around const-bound columns.
type Block struct {
	Settings BlockSettings

	columns        []*Column
	nameToPosition map[string]int

	rowCnt             int
	stagingRow         []interface{}
	placeholderIndexes []int
	poisoned           bool
}

// NewBlock creates an empty block for writing.
func NewBlock() *Block {
	return &Block{
		Settings:       DefaultBlockSettings(),
		nameToPosition: make(map[string]int),
	}
}

// AddColumn appends a column parsed from its ClickHouse type name. Names
// must be unique within the block; columns can only be added while the
// block is empty.
func (b *Block) AddColumn(name, typeName string) error {
	if b.rowCnt > 0 {
		return errors.New(ErrBlockCorrupt, "cannot add columns to a non-empty block")
	}
	if name == "" {
		return errors.New(ErrValueConversion, "column name must not be empty")
	}
	if _, dup := b.nameToPosition[name]; dup {
		return errors.Newf(ErrValueConversion, "duplicate column name %q", name)
	}
	t, err := Parse(typeName)
	if err != nil {
		return err
	}
	b.nameToPosition[name] = len(b.columns)
	b.columns = append(b.columns, NewColumn(name, t))
	b.stagingRow = append(b.stagingRow, nil)
	b.placeholderIndexes = append(b.placeholderIndexes, len(b.placeholderIndexes))
	return nil
}

// Columns returns the columns in declaration order.
func (b *Block) Columns() []*Column {
	return b.columns
}

// ColumnByName finds a column by its name.
func (b *Block) ColumnByName(name string) (*Column, bool) {
	pos, ok := b.nameToPosition[name]
	if !ok {
		return nil, false
	}
	return b.columns[pos], true
}

// Rows is the number of committed rows.
func (b *Block) Rows() int {
	return b.rowCnt
}

// Poisoned reports whether a failed append left the block with columns of
// unequal length. A poisoned block must be discarded.
func (b *Block) Poisoned() bool {
	return b.poisoned
}

// SetConst binds a literal to the column at columnIdx. Every subsequent
// placeholder position at or past columnIdx shifts right by one, so
// positional parameters skip the bound column.
func (b *Block) SetConst(columnIdx int, v interface{}) error {
	if columnIdx < 0 || columnIdx >= len(b.columns) {
		return errors.Newf(ErrValueConversion, "column index %d outside block of %d columns",
			columnIdx, len(b.columns))
	}
	b.stagingRow[columnIdx] = v
	for i := range b.placeholderIndexes {
		if b.placeholderIndexes[i] >= columnIdx {
			b.placeholderIndexes[i]++
		}
	}
	return nil
}

// SetPlaceholder writes v into the staging row at the column the
// placeholder currently routes to.
func (b *Block) SetPlaceholder(placeholderIdx int, v interface{}) error {
	if placeholderIdx < 0 || placeholderIdx >= len(b.placeholderIndexes) {
		return errors.Newf(ErrValueConversion, "placeholder index %d outside block of %d columns",
			placeholderIdx, len(b.columns))
	}
	pos := b.placeholderIndexes[placeholderIdx]
	if pos >= len(b.columns) {
		return errors.Newf(ErrValueConversion,
			"placeholder %d routes past the last column", placeholderIdx)
	}
	b.stagingRow[pos] = v
	return nil
}

// AppendRow commits the staging row into every column and bumps the row
// count. On a conversion failure the row count stays put, but columns
// appended before the failing one keep the partial row, so the block is
// poisoned and must not be written.
func (b *Block) AppendRow() error {
	if b.poisoned {
		return errors.New(ErrAppendFailed, "block is poisoned by an earlier failed append")
	}
	for i, col := range b.columns {
		if err := col.Append(b.stagingRow[i]); err != nil {
			b.poisoned = true
			return errors.Wrapf(ErrAppendFailed, err, "column %q row %d", col.Name, b.rowCnt)
		}
	}
	b.rowCnt++
	return nil
}

// AdoptColumnRows sets the row count to the shared column length after
// column-wise appends. Columns of unequal length poison the block.
func (b *Block) AdoptColumnRows() error {
	if len(b.columns) == 0 {
		return nil
	}
	want := b.columns[0].Rows()
	for _, col := range b.columns[1:] {
		if col.Rows() != want {
			b.poisoned = true
			return errors.Newf(ErrBlockCorrupt,
				"column %q holds %d rows, %q holds %d", b.columns[0].Name, want, col.Name, col.Rows())
		}
	}
	b.rowCnt = want
	return nil
}

// Reset drops committed rows while keeping the column structure, const
// bindings and placeholder routing.
func (b *Block) Reset() {
	for _, col := range b.columns {
		col.Reset()
	}
	b.rowCnt = 0
	b.poisoned = false
}

// WriteTo serializes the block: optional settings header, column count,
// row count, then each column in order. withSettings follows the
// negotiated revision of the session.
func (b *Block) WriteTo(w *binary.Writer, withSettings bool) error {
	if b.poisoned {
		return errors.New(ErrBlockCorrupt, "refusing to serialize a poisoned block")
	}
	if withSettings {
		if err := b.Settings.WriteTo(w); err != nil {
			return err
		}
	}
	if err := w.UVarInt(uint64(len(b.columns))); err != nil {
		return err
	}
	if err := w.UVarInt(uint64(b.rowCnt)); err != nil {
		return err
	}
	for _, col := range b.columns {
		if err := col.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadBlock decodes a block from the stream.
func ReadBlock(r *binary.Reader, withSettings bool) (*Block, error) {
	b := NewBlock()
	if withSettings {
		if err := b.Settings.ReadFrom(r); err != nil {
			return nil, err
		}
	}
	columnCnt, err := r.UVarInt()
	if err != nil {
		return nil, err
	}
	rowCnt, err := r.UVarInt()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < columnCnt; i++ {
		col, err := ReadColumn(r, int(rowCnt))
		if err != nil {
			return nil, err
		}
		if _, dup := b.nameToPosition[col.Name]; dup {
			return nil, errors.Newf(ErrBlockCorrupt, "duplicate column name %q", col.Name)
		}
		b.nameToPosition[col.Name] = len(b.columns)
		b.columns = append(b.columns, col)
		b.stagingRow = append(b.stagingRow, nil)
		b.placeholderIndexes = append(b.placeholderIndexes, len(b.placeholderIndexes))
	}
	b.rowCnt = int(rowCnt)
	return b, nil
}
