package column

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
)

// BlockSettings is the block header: a keyed sequence of fields terminated
// by a zero key. Only non-default fields travel on the wire.
type BlockSettings struct {
	// IsOverflows marks a block produced after GROUP BY overflow.
	IsOverflows bool

	// BucketNum is the two-level aggregation bucket, -1 when unset.
	BucketNum int32
}

const (
	blockSettingIsOverflows = 1
	blockSettingBucketNum   = 2
)

// settingField describes one registered header key so that readers can
// consume fields they do not act on.
type settingField struct {
	read  func(s *BlockSettings, r *binary.Reader) error
	write func(s *BlockSettings, w *binary.Writer) error
	isSet func(s *BlockSettings) bool
}

var settingFields = map[uint64]settingField{
	blockSettingIsOverflows: {
		read: func(s *BlockSettings, r *binary.Reader) error {
			v, err := r.Bool()
			if err != nil {
				return err
			}
			s.IsOverflows = v
			return nil
		},
		write: func(s *BlockSettings, w *binary.Writer) error {
			return w.Bool(s.IsOverflows)
		},
		isSet: func(s *BlockSettings) bool { return s.IsOverflows },
	},
	blockSettingBucketNum: {
		read: func(s *BlockSettings, r *binary.Reader) error {
			v, err := r.Int32()
			if err != nil {
				return err
			}
			s.BucketNum = v
			return nil
		},
		write: func(s *BlockSettings, w *binary.Writer) error {
			return w.Int32(s.BucketNum)
		},
		isSet: func(s *BlockSettings) bool { return s.BucketNum != -1 },
	},
}

// DefaultBlockSettings returns the header every fresh block starts with.
func DefaultBlockSettings() BlockSettings {
	return BlockSettings{BucketNum: -1}
}

// WriteTo emits the non-default fields in key order, then the terminator.
func (s *BlockSettings) WriteTo(w *binary.Writer) error {
	for _, key := range []uint64{blockSettingIsOverflows, blockSettingBucketNum} {
		f := settingFields[key]
		if !f.isSet(s) {
			continue
		}
		if err := w.UVarInt(key); err != nil {
			return err
		}
		if err := f.write(s, w); err != nil {
			return err
		}
	}
	return w.UVarInt(0)
}

// ReadFrom consumes fields until the zero terminator. A key outside the
// registry cannot be sized and aborts the block.
func (s *BlockSettings) ReadFrom(r *binary.Reader) error {
	*s = DefaultBlockSettings()
	for {
		key, err := r.UVarInt()
		if err != nil {
			return err
		}
		if key == 0 {
			return nil
		}
		f, ok := settingFields[key]
		if !ok {
			return errors.Newf(ErrBlockCorrupt, "unknown block header field %d", key)
		}
		if err := f.read(s, r); err != nil {
			return err
		}
	}
}
