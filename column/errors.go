package column

import "github.com/gear6io/chnative/pkg/errors"

// Type-system and codec error codes
var (
	ErrTypeParse              = errors.MustNewCode("codec.type_parse")
	ErrUnsupportedType        = errors.MustNewCode("codec.unsupported_type")
	ErrUnsupportedComposition = errors.MustNewCode("codec.unsupported_composition")
	ErrValueConversion        = errors.MustNewCode("codec.value_conversion")
	ErrAppendFailed           = errors.MustNewCode("codec.append_failed")
	ErrBlockCorrupt           = errors.MustNewCode("codec.block_corrupt")
)
