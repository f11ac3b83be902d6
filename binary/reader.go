package binary

import (
	"bufio"
	"io"
	"math"

	"github.com/gear6io/chnative/pkg/errors"
)

// maxVarintLen is the longest legal LEB128 encoding of a 64-bit value.
const maxVarintLen = 10

// Reader decodes the primitive wire types of the native protocol from a
// byte stream. All multi-byte integers are little-endian; string lengths
// are byte counts, and string payloads are returned verbatim (the wire
// allows arbitrary bytes, not only valid UTF-8).
type Reader struct {
	input *bufio.Reader
	fixed [8]byte
}

// NewReader creates a reader over input.
func NewReader(input io.Reader) *Reader {
	if br, ok := input.(*bufio.Reader); ok {
		return &Reader{input: br}
	}
	return &Reader{input: bufio.NewReader(input)}
}

// Reset discards any buffered input and rebinds the reader to input.
func (r *Reader) Reset(input io.Reader) {
	r.input.Reset(input)
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.input.ReadByte()
	if err != nil {
		return 0, errors.Wrap(ErrShortRead, err, "read byte")
	}
	return b, nil
}

// UVarInt reads an unsigned LEB128 integer of at most ten bytes.
func (r *Reader) UVarInt() (uint64, error) {
	var value uint64
	var shift uint
	for i := 0; i < maxVarintLen; i++ {
		b, err := r.input.ReadByte()
		if err != nil {
			return 0, errors.Wrap(ErrShortRead, err, "read varint")
		}
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, nil
		}
		shift += 7
	}
	return 0, errors.New(ErrMalformedVarint, "varint exceeds ten bytes")
}

// Bool reads a single byte and interprets any non-zero value as true.
func (r *Reader) Bool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) fill(n int) ([]byte, error) {
	buf := r.fixed[:n]
	if _, err := io.ReadFull(r.input, buf); err != nil {
		return nil, errors.Wrapf(ErrShortRead, err, "read %d bytes", n)
	}
	return buf, nil
}

// UInt8 reads one unsigned byte.
func (r *Reader) UInt8() (uint8, error) {
	return r.ReadByte()
}

// Int8 reads one signed byte.
func (r *Reader) Int8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// UInt16 reads a little-endian 16-bit unsigned integer.
func (r *Reader) UInt16() (uint16, error) {
	buf, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

// Int16 reads a little-endian 16-bit signed integer.
func (r *Reader) Int16() (int16, error) {
	v, err := r.UInt16()
	return int16(v), err
}

// UInt32 reads a little-endian 32-bit unsigned integer.
func (r *Reader) UInt32() (uint32, error) {
	buf, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}

// Int32 reads a little-endian 32-bit signed integer.
func (r *Reader) Int32() (int32, error) {
	v, err := r.UInt32()
	return int32(v), err
}

// UInt64 reads a little-endian 64-bit unsigned integer.
func (r *Reader) UInt64() (uint64, error) {
	buf, err := r.fill(8)
	if err != nil {
		return 0, err
	}
	return uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 | uint64(buf[3])<<24 |
		uint64(buf[4])<<32 | uint64(buf[5])<<40 | uint64(buf[6])<<48 | uint64(buf[7])<<56, nil
}

// Int64 reads a little-endian 64-bit signed integer.
func (r *Reader) Int64() (int64, error) {
	v, err := r.UInt64()
	return int64(v), err
}

// Float32 reads a little-endian IEEE-754 single.
func (r *Reader) Float32() (float32, error) {
	v, err := r.UInt32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Float64 reads a little-endian IEEE-754 double.
func (r *Reader) Float64() (float64, error) {
	v, err := r.UInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Bytes reads a varint length prefix followed by that many raw bytes.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.UVarInt()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.input, buf); err != nil {
		return nil, errors.Wrapf(ErrShortRead, err, "read %d string bytes", n)
	}
	return buf, nil
}

// String reads a length-prefixed string. The bytes are returned as-is;
// no UTF-8 validation happens at this layer.
func (r *Reader) String() (string, error) {
	buf, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Fixed reads exactly n raw bytes.
func (r *Reader) Fixed(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.input, buf); err != nil {
		return nil, errors.Wrapf(ErrShortRead, err, "read %d fixed bytes", n)
	}
	return buf, nil
}

// ReadFull fills buf from the stream.
func (r *Reader) ReadFull(buf []byte) error {
	if _, err := io.ReadFull(r.input, buf); err != nil {
		return errors.Wrapf(ErrShortRead, err, "read %d bytes", len(buf))
	}
	return nil
}
