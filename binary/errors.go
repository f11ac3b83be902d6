package binary

import "github.com/gear6io/chnative/pkg/errors"

// Byte-codec error codes
var (
	ErrShortRead       = errors.MustNewCode("transport.short_read")
	ErrWriteFailed     = errors.MustNewCode("transport.write_failed")
	ErrMalformedVarint = errors.MustNewCode("codec.malformed_varint")
)
