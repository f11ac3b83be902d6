package column

import (
	"bytes"
	"fmt"

	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

// Codec bulk-serializes and bulk-deserializes one type family. Codecs hold
// no state across calls; everything they need arrives in the descriptor.
type Codec interface {
	// Encode writes values in columnar wire layout. Side-band vectors
	// (null-maps, array offsets) go to buf.Side, the payload to
	// buf.Primary; the flush order is side-band first.
	Encode(t *Type, values []interface{}, buf *WriterBuffer) error

	// Decode reads n values from the stream.
	Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error)
}

var codecs = map[Kind]Codec{}

// RegisterCodec installs the codec for a kind. Called at package init.
func RegisterCodec(k Kind, c Codec) {
	if _, dup := codecs[k]; dup {
		panic(fmt.Sprintf("column: duplicate codec registration for kind %d", k))
	}
	codecs[k] = c
}

func codecFor(t *Type) (Codec, error) {
	c, ok := codecs[t.Kind]
	if !ok {
		return nil, errors.Newf(ErrUnsupportedType, "no codec for type %s", t.Name)
	}
	return c, nil
}

// WriterBuffer is the per-column staging area used while serializing: one
// byte buffer for the primary payload and one for side-band vectors. The
// side-band is flushed before the payload, which puts null-maps and array
// offsets ahead of the data they describe.
type WriterBuffer struct {
	side    bytes.Buffer
	primary bytes.Buffer

	Side    *binary.Writer
	Primary *binary.Writer
}

// NewWriterBuffer allocates an empty staging buffer.
func NewWriterBuffer() *WriterBuffer {
	b := &WriterBuffer{}
	b.Side = binary.NewWriter(&b.side)
	b.Primary = binary.NewWriter(&b.primary)
	return b
}

// Reset drops all staged bytes.
func (b *WriterBuffer) Reset() {
	b.side.Reset()
	b.primary.Reset()
	b.Side.Reset(&b.side)
	b.Primary.Reset(&b.primary)
}

// WriteTo flushes the side-band and then the primary payload into w.
func (b *WriterBuffer) WriteTo(w *binary.Writer) error {
	if err := b.Side.Flush(); err != nil {
		return err
	}
	if err := b.Primary.Flush(); err != nil {
		return err
	}
	if err := w.Fixed(b.side.Bytes()); err != nil {
		return err
	}
	return w.Fixed(b.primary.Bytes())
}

// encodeInto serializes a full column payload into a fresh staging buffer
// and appends it, correctly ordered, to dst. Composite codecs use it to
// keep each sub-column's side-band local to that sub-column.
func encodeInto(t *Type, values []interface{}, dst *binary.Writer) error {
	c, err := codecFor(t)
	if err != nil {
		return err
	}
	buf := NewWriterBuffer()
	if err := c.Encode(t, values, buf); err != nil {
		return err
	}
	return buf.WriteTo(dst)
}

// decodeBulk reads n values of t from r.
func decodeBulk(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	c, err := codecFor(t)
	if err != nil {
		return nil, err
	}
	return c.Decode(t, n, r)
}
