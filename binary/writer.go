package binary

import (
	"io"
	"math"

	"github.com/gear6io/chnative/pkg/errors"
)

// Writer encodes the primitive wire types of the native protocol into a
// byte stream. Values accumulate in an internal buffer until Flush.
type Writer struct {
	output io.Writer
	buf    []byte
}

// NewWriter creates a writer over output.
func NewWriter(output io.Writer) *Writer {
	return &Writer{
		output: output,
		buf:    make([]byte, 0, 4096),
	}
}

// Reset drops any buffered output and rebinds the writer to output.
func (w *Writer) Reset(output io.Writer) {
	w.output = output
	w.buf = w.buf[:0]
}

// Buffered returns the number of bytes waiting to be flushed.
func (w *Writer) Buffered() int {
	return len(w.buf)
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// UVarInt appends an unsigned LEB128 integer.
func (w *Writer) UVarInt(v uint64) error {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
	return nil
}

// Bool appends one byte, 1 for true and 0 for false.
func (w *Writer) Bool(v bool) error {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

// UInt8 appends one unsigned byte.
func (w *Writer) UInt8(v uint8) error {
	return w.WriteByte(v)
}

// Int8 appends one signed byte.
func (w *Writer) Int8(v int8) error {
	return w.WriteByte(byte(v))
}

// UInt16 appends a little-endian 16-bit unsigned integer.
func (w *Writer) UInt16(v uint16) error {
	w.buf = append(w.buf, byte(v), byte(v>>8))
	return nil
}

// Int16 appends a little-endian 16-bit signed integer.
func (w *Writer) Int16(v int16) error {
	return w.UInt16(uint16(v))
}

// UInt32 appends a little-endian 32-bit unsigned integer.
func (w *Writer) UInt32(v uint32) error {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	return nil
}

// Int32 appends a little-endian 32-bit signed integer.
func (w *Writer) Int32(v int32) error {
	return w.UInt32(uint32(v))
}

// UInt64 appends a little-endian 64-bit unsigned integer.
func (w *Writer) UInt64(v uint64) error {
	w.buf = append(w.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
	return nil
}

// Int64 appends a little-endian 64-bit signed integer.
func (w *Writer) Int64(v int64) error {
	return w.UInt64(uint64(v))
}

// Float32 appends a little-endian IEEE-754 single.
func (w *Writer) Float32(v float32) error {
	return w.UInt32(math.Float32bits(v))
}

// Float64 appends a little-endian IEEE-754 double.
func (w *Writer) Float64(v float64) error {
	return w.UInt64(math.Float64bits(v))
}

// String appends a varint length prefix followed by the raw bytes of s.
func (w *Writer) String(s string) error {
	if err := w.UVarInt(uint64(len(s))); err != nil {
		return err
	}
	w.buf = append(w.buf, s...)
	return nil
}

// Bytes appends a varint length prefix followed by b.
func (w *Writer) Bytes(b []byte) error {
	if err := w.UVarInt(uint64(len(b))); err != nil {
		return err
	}
	w.buf = append(w.buf, b...)
	return nil
}

// Fixed appends b with no length prefix.
func (w *Writer) Fixed(b []byte) error {
	w.buf = append(w.buf, b...)
	return nil
}

// Flush writes the buffered bytes to the underlying stream.
func (w *Writer) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := w.output.Write(w.buf); err != nil {
		return errors.Wrap(ErrWriteFailed, err, "flush to stream")
	}
	w.buf = w.buf[:0]
	return nil
}
