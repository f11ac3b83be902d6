package column

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

// Column is one named, typed vector of values in a block. Values live in
// their logical Go representation until WriteTo serializes them.
type Column struct {
	Name string
	Type *Type

	values []interface{}
}

// NewColumn builds an empty column for a parsed descriptor.
func NewColumn(name string, t *Type) *Column {
	return &Column{Name: name, Type: t}
}

// Rows is the number of values appended or decoded so far.
func (c *Column) Rows() int {
	return len(c.values)
}

// Append converts v into the column's logical domain and stores it. On a
// conversion failure the column is left exactly as it was.
func (c *Column) Append(v interface{}) error {
	converted, err := convertValue(c.Type, v)
	if err != nil {
		return err
	}
	c.values = append(c.values, converted)
	return nil
}

// AppendRaw stores an already-converted value without validation. Callers
// own the invariant that v matches the codec's expected representation.
func (c *Column) AppendRaw(v interface{}) {
	c.values = append(c.values, v)
}

// Value returns the logical value at row i.
func (c *Column) Value(i int) interface{} {
	return c.values[i]
}

// Values exposes the backing slice for bulk consumers.
func (c *Column) Values() []interface{} {
	return c.values
}

// Reset drops all values but keeps the name and type.
func (c *Column) Reset() {
	c.values = c.values[:0]
}

// WriteTo serializes the column header (name, type) followed by the
// columnar payload, side-band vectors first.
func (c *Column) WriteTo(w *binary.Writer) error {
	if err := w.String(c.Name); err != nil {
		return err
	}
	if err := w.String(c.Type.Name); err != nil {
		return err
	}
	return encodeInto(c.Type, c.values, w)
}

// ReadColumn decodes a column of n rows: name string, type string, then
// the payload.
func ReadColumn(r *binary.Reader, n int) (*Column, error) {
	name, err := r.String()
	if err != nil {
		return nil, err
	}
	typeName, err := r.String()
	if err != nil {
		return nil, err
	}
	t, err := Parse(typeName)
	if err != nil {
		return nil, errors.Wrapf(ErrTypeParse, err, "column %q", name)
	}
	values, err := decodeBulk(t, n, r)
	if err != nil {
		return nil, err
	}
	return &Column{Name: name, Type: t, values: values}, nil
}
