package column

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/google/uuid"
)

// stringCodec: length-prefixed byte values. The wire permits arbitrary
// bytes, so nothing here validates UTF-8.
type stringCodec struct{}

// fixedStringCodec: n·N raw bytes, right-padded with zeros on write.
type fixedStringCodec struct{}

// uuidCodec: 16 bytes per value, the two halves stored as little-endian
// 64-bit words.
type uuidCodec struct{}

func init() {
	RegisterCodec(KindString, stringCodec{})
	RegisterCodec(KindFixedString, fixedStringCodec{})
	RegisterCodec(KindUUID, uuidCodec{})
}

func (stringCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	for _, v := range values {
		if err := buf.Primary.Bytes(v.([]byte)); err != nil {
			return err
		}
	}
	return nil
}

func (stringCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		b, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		if b == nil {
			b = []byte{}
		}
		values[i] = b
	}
	return values, nil
}

func (fixedStringCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	padded := make([]byte, t.FixedLen)
	for i, v := range values {
		b := v.([]byte)
		if len(b) > t.FixedLen {
			return errors.Newf(ErrValueConversion,
				"row %d: %d bytes exceed FixedString(%d)", i, len(b), t.FixedLen)
		}
		copy(padded, b)
		for j := len(b); j < t.FixedLen; j++ {
			padded[j] = 0
		}
		if err := buf.Primary.Fixed(padded); err != nil {
			return err
		}
	}
	return nil
}

func (fixedStringCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		b, err := r.Fixed(t.FixedLen)
		if err != nil {
			return nil, err
		}
		values[i] = b
	}
	return values, nil
}

func (uuidCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	var swapped [16]byte
	for _, v := range values {
		u := v.(uuid.UUID)
		swapUUIDBytes(swapped[:], u[:])
		if err := buf.Primary.Fixed(swapped[:]); err != nil {
			return err
		}
	}
	return nil
}

func (uuidCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		raw, err := r.Fixed(16)
		if err != nil {
			return nil, err
		}
		var u uuid.UUID
		swapUUIDBytes(u[:], raw)
		values[i] = u
	}
	return values, nil
}

// swapUUIDBytes reverses each 8-byte half, converting between the textual
// big-endian layout and the on-wire pair of little-endian words.
func swapUUIDBytes(dst, src []byte) {
	for i := 0; i < 8; i++ {
		dst[i] = src[7-i]
		dst[8+i] = src[15-i]
	}
}
