package protocol

import (
	"github.com/gear6io/chnative/pkg/errors"
)

// Error codes of the packet layer.
var (
	ErrUnexpectedSignal = errors.MustNewCode("protocol.unexpected_signal")
	ErrMalformedSignal  = errors.MustNewCode("protocol.malformed_signal")
	ErrRevisionTooOld   = errors.MustNewCode("protocol.revision_too_old")
)
