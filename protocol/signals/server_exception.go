package signals

import (
	"fmt"

	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ServerException is a server-side error. Exceptions chain: the wire
// carries a has-nested flag after the stack trace, and each nested entry
// repeats the full layout.
type ServerException struct {
	Code       int32
	Name       string
	Message    string
	StackTrace string
	Nested     *ServerException
}

func NewServerException() *ServerException {
	return &ServerException{}
}

func (e *ServerException) Type() protocol.SignalType {
	return protocol.ServerException
}

func (e *ServerException) ReadFrom(r *binary.Reader, revision uint64) error {
	var err error
	if e.Code, err = r.Int32(); err != nil {
		return err
	}
	if e.Name, err = r.String(); err != nil {
		return err
	}
	if e.Message, err = r.String(); err != nil {
		return err
	}
	if e.StackTrace, err = r.String(); err != nil {
		return err
	}
	nested, err := r.Bool()
	if err != nil {
		return err
	}
	if nested {
		e.Nested = NewServerException()
		return e.Nested.ReadFrom(r, revision)
	}
	return nil
}

// Error renders the exception, including the innermost cause.
func (e *ServerException) Error() string {
	if e.Nested != nil {
		return fmt.Sprintf("%s (code %d): %s: %s", e.Name, e.Code, e.Message, e.Nested.Error())
	}
	return fmt.Sprintf("%s (code %d): %s", e.Name, e.Code, e.Message)
}
