package column

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

// nullableCodec: one byte per row (1 = null) on the side-band, then the
// full inner column with type defaults standing in for null rows.
type nullableCodec struct{}

// arrayCodec: n cumulative end-offsets as UInt64 on the side-band, then
// the flattened element column.
type arrayCodec struct{}

// tupleCodec: each element column serialized in full, back to back.
type tupleCodec struct{}

// mapCodec: the same framing as Array(Tuple(K, V)) with the keys column
// ahead of the values column.
type mapCodec struct{}

func init() {
	RegisterCodec(KindNullable, nullableCodec{})
	RegisterCodec(KindArray, arrayCodec{})
	RegisterCodec(KindTuple, tupleCodec{})
	RegisterCodec(KindMap, mapCodec{})
}

func (nullableCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	inner := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			if err := buf.Side.UInt8(1); err != nil {
				return err
			}
			inner[i] = defaultValue(t.Elem)
			continue
		}
		if err := buf.Side.UInt8(0); err != nil {
			return err
		}
		inner[i] = v
	}
	c, err := codecFor(t.Elem)
	if err != nil {
		return err
	}
	return c.Encode(t.Elem, inner, buf)
}

func (nullableCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	nulls := make([]bool, n)
	for i := 0; i < n; i++ {
		b, err := r.UInt8()
		if err != nil {
			return nil, err
		}
		nulls[i] = b != 0
	}
	inner, err := decodeBulk(t.Elem, n, r)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		if nulls[i] {
			values[i] = nil
		} else {
			values[i] = inner[i]
		}
	}
	return values, nil
}

func (arrayCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	var flat []interface{}
	var end uint64
	for i, v := range values {
		items, ok := v.([]interface{})
		if !ok {
			return errors.Newf(ErrValueConversion, "row %d: %T is not an array value", i, v)
		}
		end += uint64(len(items))
		if err := buf.Side.UInt64(end); err != nil {
			return err
		}
		flat = append(flat, items...)
	}
	c, err := codecFor(t.Elem)
	if err != nil {
		return err
	}
	return c.Encode(t.Elem, flat, buf)
}

func (arrayCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	offsets := make([]uint64, n)
	var prev uint64
	for i := 0; i < n; i++ {
		end, err := r.UInt64()
		if err != nil {
			return nil, err
		}
		if end < prev {
			return nil, errors.Newf(ErrBlockCorrupt,
				"array offsets not monotonic: %d after %d", end, prev)
		}
		offsets[i] = end
		prev = end
	}
	var total int
	if n > 0 {
		total = int(offsets[n-1])
	}
	flat, err := decodeBulk(t.Elem, total, r)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, n)
	var start uint64
	for i := 0; i < n; i++ {
		values[i] = append([]interface{}{}, flat[start:offsets[i]]...)
		start = offsets[i]
	}
	return values, nil
}

func (tupleCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	for idx, elem := range t.Elems {
		col := make([]interface{}, len(values))
		for i, v := range values {
			items, ok := v.([]interface{})
			if !ok || len(items) != len(t.Elems) {
				return errors.Newf(ErrValueConversion,
					"row %d: %T does not match %s", i, v, t.Name)
			}
			col[i] = items[idx]
		}
		if err := encodeInto(elem, col, buf.Primary); err != nil {
			return err
		}
	}
	return nil
}

func (tupleCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	cols := make([][]interface{}, len(t.Elems))
	for idx, elem := range t.Elems {
		col, err := decodeBulk(elem, n, r)
		if err != nil {
			return nil, err
		}
		cols[idx] = col
	}
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		row := make([]interface{}, len(t.Elems))
		for idx := range t.Elems {
			row[idx] = cols[idx][i]
		}
		values[i] = row
	}
	return values, nil
}

func (mapCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	var keys, vals []interface{}
	var end uint64
	for i, v := range values {
		pairs, ok := v.([][2]interface{})
		if !ok {
			return errors.Newf(ErrValueConversion, "row %d: %T is not a map value", i, v)
		}
		end += uint64(len(pairs))
		if err := buf.Side.UInt64(end); err != nil {
			return err
		}
		for _, kv := range pairs {
			keys = append(keys, kv[0])
			vals = append(vals, kv[1])
		}
	}
	if err := encodeInto(t.Key, keys, buf.Primary); err != nil {
		return err
	}
	return encodeInto(t.Value, vals, buf.Primary)
}

func (mapCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	offsets := make([]uint64, n)
	var prev uint64
	for i := 0; i < n; i++ {
		end, err := r.UInt64()
		if err != nil {
			return nil, err
		}
		if end < prev {
			return nil, errors.Newf(ErrBlockCorrupt,
				"map offsets not monotonic: %d after %d", end, prev)
		}
		offsets[i] = end
		prev = end
	}
	var total int
	if n > 0 {
		total = int(offsets[n-1])
	}
	keys, err := decodeBulk(t.Key, total, r)
	if err != nil {
		return nil, err
	}
	vals, err := decodeBulk(t.Value, total, r)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, n)
	var start uint64
	for i := 0; i < n; i++ {
		pairs := make([][2]interface{}, 0, offsets[i]-start)
		for j := start; j < offsets[i]; j++ {
			pairs = append(pairs, [2]interface{}{keys[j], vals[j]})
		}
		values[i] = pairs
		start = offsets[i]
	}
	return values, nil
}
