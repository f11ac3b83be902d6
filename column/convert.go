package column

import (
	"time"

	"github.com/gear6io/chnative/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// convertValue projects a caller-supplied value into the logical domain of
// t. The returned value is what the codec for t knows how to serialize.
func convertValue(t *Type, v interface{}) (interface{}, error) {
	switch t.Kind {
	case KindUInt8:
		u, err := asUint64(t, v, 1<<8-1)
		return uint8(u), err
	case KindUInt16:
		u, err := asUint64(t, v, 1<<16-1)
		return uint16(u), err
	case KindUInt32:
		u, err := asUint64(t, v, 1<<32-1)
		return uint32(u), err
	case KindUInt64:
		return asUint64(t, v, ^uint64(0))
	case KindInt8:
		i, err := asInt64(t, v, -1<<7, 1<<7-1)
		return int8(i), err
	case KindInt16:
		i, err := asInt64(t, v, -1<<15, 1<<15-1)
		return int16(i), err
	case KindInt32:
		i, err := asInt64(t, v, -1<<31, 1<<31-1)
		return int32(i), err
	case KindInt64:
		return asInt64(t, v, -1<<63, 1<<63-1)

	case KindFloat32:
		switch x := v.(type) {
		case float32:
			return x, nil
		case float64:
			return float32(x), nil
		case int:
			return float32(x), nil
		}
		return nil, conversionError(t, v)
	case KindFloat64:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		}
		return nil, conversionError(t, v)

	case KindString:
		switch x := v.(type) {
		case string:
			return []byte(x), nil
		case []byte:
			return x, nil
		}
		return nil, conversionError(t, v)

	case KindFixedString:
		var b []byte
		switch x := v.(type) {
		case string:
			b = []byte(x)
		case []byte:
			b = x
		default:
			return nil, conversionError(t, v)
		}
		if len(b) > t.FixedLen {
			return nil, errors.Newf(ErrValueConversion,
				"value of %d bytes exceeds FixedString(%d)", len(b), t.FixedLen)
		}
		return b, nil

	case KindDate, KindDateTime, KindDateTime64:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case int64:
			return time.Unix(x, 0).UTC(), nil
		}
		return nil, conversionError(t, v)

	case KindDecimal:
		switch x := v.(type) {
		case decimal.Decimal:
			return x, nil
		case string:
			d, err := decimal.NewFromString(x)
			if err != nil {
				return nil, errors.Wrapf(ErrValueConversion, err, "parse decimal %q", x)
			}
			return d, nil
		case float64:
			return decimal.NewFromFloat(x), nil
		case int:
			return decimal.NewFromInt(int64(x)), nil
		case int64:
			return decimal.NewFromInt(x), nil
		}
		return nil, conversionError(t, v)

	case KindEnum8:
		value, err := enumLookup(t, v, -1<<7, 1<<7-1)
		return int8(value), err
	case KindEnum16:
		return enumLookup(t, v, -1<<15, 1<<15-1)

	case KindUUID:
		switch x := v.(type) {
		case uuid.UUID:
			return x, nil
		case string:
			u, err := uuid.Parse(x)
			if err != nil {
				return nil, errors.Wrapf(ErrValueConversion, err, "parse uuid %q", x)
			}
			return u, nil
		case [16]byte:
			return uuid.UUID(x), nil
		}
		return nil, conversionError(t, v)

	case KindNullable:
		if v == nil {
			return nil, nil
		}
		return convertValue(t.Elem, v)

	case KindArray:
		items, ok := v.([]interface{})
		if !ok {
			return nil, conversionError(t, v)
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			converted, err := convertValue(t.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil

	case KindTuple:
		items, ok := v.([]interface{})
		if !ok || len(items) != len(t.Elems) {
			return nil, conversionError(t, v)
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			converted, err := convertValue(t.Elems[i], item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil

	case KindMap:
		switch x := v.(type) {
		case [][2]interface{}:
			out := make([][2]interface{}, len(x))
			for i, kv := range x {
				k, err := convertValue(t.Key, kv[0])
				if err != nil {
					return nil, err
				}
				val, err := convertValue(t.Value, kv[1])
				if err != nil {
					return nil, err
				}
				out[i] = [2]interface{}{k, val}
			}
			return out, nil
		case map[string]interface{}:
			out := make([][2]interface{}, 0, len(x))
			for k, val := range x {
				ck, err := convertValue(t.Key, k)
				if err != nil {
					return nil, err
				}
				cv, err := convertValue(t.Value, val)
				if err != nil {
					return nil, err
				}
				out = append(out, [2]interface{}{ck, cv})
			}
			return out, nil
		}
		return nil, conversionError(t, v)

	case KindLowCardinality:
		return convertValue(t.Elem, v)
	}

	return nil, errors.Newf(ErrUnsupportedType, "no conversion for type %s", t.Name)
}

// defaultValue is the placeholder the inner column of Nullable(T) carries
// for null rows.
func defaultValue(t *Type) interface{} {
	switch t.Kind {
	case KindUInt8:
		return uint8(0)
	case KindUInt16:
		return uint16(0)
	case KindUInt32:
		return uint32(0)
	case KindUInt64:
		return uint64(0)
	case KindInt8:
		return int8(0)
	case KindInt16:
		return int16(0)
	case KindInt32:
		return int32(0)
	case KindInt64:
		return int64(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	case KindString, KindFixedString:
		return []byte(nil)
	case KindDate, KindDateTime, KindDateTime64:
		return time.Unix(0, 0).UTC()
	case KindDecimal:
		return decimal.Zero
	case KindEnum8:
		return int8(0)
	case KindEnum16:
		return int16(0)
	case KindUUID:
		return uuid.UUID{}
	default:
		return nil
	}
}

func enumLookup(t *Type, v interface{}, min, max int64) (int16, error) {
	switch x := v.(type) {
	case string:
		value, ok := t.EnumValue(x)
		if !ok {
			return 0, errors.Newf(ErrValueConversion, "unknown member %q of %s", x, t.Name)
		}
		return value, nil
	default:
		i, err := asInt64(t, v, min, max)
		if err != nil {
			return 0, err
		}
		if _, ok := t.EnumName(int16(i)); !ok {
			return 0, errors.Newf(ErrValueConversion, "value %d is not a member of %s", i, t.Name)
		}
		return int16(i), nil
	}
}

func asUint64(t *Type, v interface{}, max uint64) (uint64, error) {
	var u uint64
	switch x := v.(type) {
	case uint8:
		u = uint64(x)
	case uint16:
		u = uint64(x)
	case uint32:
		u = uint64(x)
	case uint64:
		u = x
	case uint:
		u = uint64(x)
	case int8:
		if x < 0 {
			return 0, conversionError(t, v)
		}
		u = uint64(x)
	case int16:
		if x < 0 {
			return 0, conversionError(t, v)
		}
		u = uint64(x)
	case int32:
		if x < 0 {
			return 0, conversionError(t, v)
		}
		u = uint64(x)
	case int64:
		if x < 0 {
			return 0, conversionError(t, v)
		}
		u = uint64(x)
	case int:
		if x < 0 {
			return 0, conversionError(t, v)
		}
		u = uint64(x)
	default:
		return 0, conversionError(t, v)
	}
	if u > max {
		return 0, errors.Newf(ErrValueConversion, "value %d overflows %s", u, t.Name)
	}
	return u, nil
}

func asInt64(t *Type, v interface{}, min, max int64) (int64, error) {
	var i int64
	switch x := v.(type) {
	case int8:
		i = int64(x)
	case int16:
		i = int64(x)
	case int32:
		i = int64(x)
	case int64:
		i = x
	case int:
		i = int64(x)
	case uint8:
		i = int64(x)
	case uint16:
		i = int64(x)
	case uint32:
		i = int64(x)
	case uint64:
		if x > 1<<63-1 {
			return 0, conversionError(t, v)
		}
		i = int64(x)
	default:
		return 0, conversionError(t, v)
	}
	if i < min || i > max {
		return 0, errors.Newf(ErrValueConversion, "value %d out of range for %s", i, t.Name)
	}
	return i, nil
}

func conversionError(t *Type, v interface{}) *errors.Error {
	return errors.Newf(ErrValueConversion, "cannot convert %T into %s", v, t.Name)
}
