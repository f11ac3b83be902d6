package sdk

import (
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol/signals"
)

// Error codes of the client layer.
var (
	ErrInvalidState    = errors.MustNewCode("usage.invalid_state")
	ErrConnect         = errors.MustNewCode("sdk.connect")
	ErrServerException = errors.MustNewCode("server.exception")
	ErrUnknownSetting  = errors.MustNewCode("sdk.unknown_setting")
	ErrBadDSN          = errors.MustNewCode("sdk.bad_dsn")
	ErrPoolClosed      = errors.MustNewCode("sdk.pool_closed")
	ErrBatchSent       = errors.MustNewCode("sdk.batch_sent")
	ErrScanMismatch    = errors.MustNewCode("sdk.scan_mismatch")
	ErrNoRows          = errors.MustNewCode("sdk.no_rows")
)

// Exception is a server-side error surfaced to the caller. The wrapped
// signal keeps the full nested chain.
type Exception struct {
	*signals.ServerException
}

// exceptionError wraps a server exception into the driver error domain.
func exceptionError(e *signals.ServerException) error {
	return errors.Wrap(ErrServerException, &Exception{ServerException: e}, "server raised an exception")
}

// AsException extracts a server exception from an error chain.
func AsException(err error) (*Exception, bool) {
	for err != nil {
		if e, ok := err.(*Exception); ok {
			return e, true
		}
		driverErr, ok := err.(*errors.Error)
		if !ok {
			return nil, false
		}
		err = driverErr.Cause
	}
	return nil, false
}
