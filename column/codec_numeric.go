package column

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

// numericCodec handles the fixed-width integer and float families: raw
// little-endian values back to back, no framing.
type numericCodec struct{}

func init() {
	for _, k := range []Kind{
		KindUInt8, KindUInt16, KindUInt32, KindUInt64,
		KindInt8, KindInt16, KindInt32, KindInt64,
		KindFloat32, KindFloat64,
		KindEnum8, KindEnum16,
	} {
		RegisterCodec(k, numericCodec{})
	}
}

func (numericCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	w := buf.Primary
	for i, v := range values {
		var err error
		switch t.Kind {
		case KindUInt8:
			err = w.UInt8(v.(uint8))
		case KindUInt16:
			err = w.UInt16(v.(uint16))
		case KindUInt32:
			err = w.UInt32(v.(uint32))
		case KindUInt64:
			err = w.UInt64(v.(uint64))
		case KindInt8, KindEnum8:
			err = w.Int8(v.(int8))
		case KindInt16, KindEnum16:
			err = w.Int16(v.(int16))
		case KindInt32:
			err = w.Int32(v.(int32))
		case KindInt64:
			err = w.Int64(v.(int64))
		case KindFloat32:
			err = w.Float32(v.(float32))
		case KindFloat64:
			err = w.Float64(v.(float64))
		default:
			return errors.Newf(ErrUnsupportedType, "numeric codec cannot encode %s", t.Name)
		}
		if err != nil {
			return errors.Wrapf(ErrValueConversion, err, "encode %s row %d", t.Name, i)
		}
	}
	return nil
}

func (numericCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		var v interface{}
		var err error
		switch t.Kind {
		case KindUInt8:
			v, err = r.UInt8()
		case KindUInt16:
			v, err = r.UInt16()
		case KindUInt32:
			v, err = r.UInt32()
		case KindUInt64:
			v, err = r.UInt64()
		case KindInt8, KindEnum8:
			v, err = r.Int8()
		case KindInt16, KindEnum16:
			v, err = r.Int16()
		case KindInt32:
			v, err = r.Int32()
		case KindInt64:
			v, err = r.Int64()
		case KindFloat32:
			v, err = r.Float32()
		case KindFloat64:
			v, err = r.Float64()
		default:
			return nil, errors.Newf(ErrUnsupportedType, "numeric codec cannot decode %s", t.Name)
		}
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
