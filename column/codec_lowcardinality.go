package column

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

// Serialization header of a LowCardinality column. Version 1 is the only
// shared-dictionary scheme servers emit; the flags word carries the index
// width in its low bits plus the has-additional-keys marker.
const (
	lcSharedDictionariesWithAdditionalKeys = 1
	lcHasAdditionalKeysBit                 = 1 << 9

	lcIndexUInt8  = 0
	lcIndexUInt16 = 1
	lcIndexUInt32 = 2
	lcIndexUInt64 = 3
)

// lowCardinalityCodec writes a dictionary of the distinct values followed
// by one index per row. An empty column writes the version word only.
type lowCardinalityCodec struct{}

func init() {
	RegisterCodec(KindLowCardinality, lowCardinalityCodec{})
}

func (lowCardinalityCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	w := buf.Primary
	if err := w.UInt64(lcSharedDictionariesWithAdditionalKeys); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	// Build the dictionary in first-appearance order. Distinctness keys on
	// the serialized form since not every logical value is comparable.
	var dict []interface{}
	index := make([]uint64, len(values))
	seen := make(map[string]uint64, len(values))
	probe := NewWriterBuffer()
	for i, v := range values {
		probe.Reset()
		if err := encodeInto(t.Elem, []interface{}{v}, probe.Primary); err != nil {
			return err
		}
		if err := probe.Primary.Flush(); err != nil {
			return err
		}
		key := probe.primary.String()
		pos, ok := seen[key]
		if !ok {
			pos = uint64(len(dict))
			seen[key] = pos
			dict = append(dict, v)
		}
		index[i] = pos
	}

	indexType := lcIndexUInt8
	switch {
	case len(dict) > 1<<32-1:
		indexType = lcIndexUInt64
	case len(dict) > 1<<16-1:
		indexType = lcIndexUInt32
	case len(dict) > 1<<8-1:
		indexType = lcIndexUInt16
	}
	if err := w.UInt64(uint64(indexType) | lcHasAdditionalKeysBit); err != nil {
		return err
	}
	if err := w.UInt64(uint64(len(dict))); err != nil {
		return err
	}
	if err := encodeInto(t.Elem, dict, w); err != nil {
		return err
	}
	if err := w.UInt64(uint64(len(values))); err != nil {
		return err
	}
	for _, pos := range index {
		var err error
		switch indexType {
		case lcIndexUInt8:
			err = w.UInt8(uint8(pos))
		case lcIndexUInt16:
			err = w.UInt16(uint16(pos))
		case lcIndexUInt32:
			err = w.UInt32(uint32(pos))
		default:
			err = w.UInt64(pos)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (lowCardinalityCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	version, err := r.UInt64()
	if err != nil {
		return nil, err
	}
	if version != lcSharedDictionariesWithAdditionalKeys {
		return nil, errors.Newf(ErrBlockCorrupt,
			"unsupported LowCardinality serialization version %d", version)
	}
	if n == 0 {
		return []interface{}{}, nil
	}
	flags, err := r.UInt64()
	if err != nil {
		return nil, err
	}
	indexType := int(flags & 0xff)
	if indexType > lcIndexUInt64 {
		return nil, errors.Newf(ErrBlockCorrupt,
			"unknown LowCardinality index width %d", indexType)
	}
	dictSize, err := r.UInt64()
	if err != nil {
		return nil, err
	}
	dict, err := decodeBulk(t.Elem, int(dictSize), r)
	if err != nil {
		return nil, err
	}
	indexCount, err := r.UInt64()
	if err != nil {
		return nil, err
	}
	if int(indexCount) != n {
		return nil, errors.Newf(ErrBlockCorrupt,
			"LowCardinality index count %d does not match row count %d", indexCount, n)
	}
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		var pos uint64
		switch indexType {
		case lcIndexUInt8:
			v, err := r.UInt8()
			if err != nil {
				return nil, err
			}
			pos = uint64(v)
		case lcIndexUInt16:
			v, err := r.UInt16()
			if err != nil {
				return nil, err
			}
			pos = uint64(v)
		case lcIndexUInt32:
			v, err := r.UInt32()
			if err != nil {
				return nil, err
			}
			pos = uint64(v)
		default:
			v, err := r.UInt64()
			if err != nil {
				return nil, err
			}
			pos = v
		}
		if pos >= dictSize {
			return nil, errors.Newf(ErrBlockCorrupt,
				"LowCardinality index %d outside dictionary of %d entries", pos, dictSize)
		}
		values[i] = dict[pos]
	}
	return values, nil
}
