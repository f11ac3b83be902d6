package compress

import (
	"github.com/gear6io/chnative/pkg/errors"
)

// Error codes of the frame layer.
var (
	ErrChecksumMismatch = errors.MustNewCode("checksum.mismatch")
	ErrUnknownMethod    = errors.MustNewCode("compress.unknown_method")
	ErrFrameCorrupt     = errors.MustNewCode("compress.frame_corrupt")
)
