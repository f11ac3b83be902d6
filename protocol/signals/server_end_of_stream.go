package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ServerEndOfStream closes a response stream. No payload.
type ServerEndOfStream struct{}

func NewServerEndOfStream() *ServerEndOfStream {
	return &ServerEndOfStream{}
}

func (e *ServerEndOfStream) Type() protocol.SignalType {
	return protocol.ServerEndOfStream
}

func (e *ServerEndOfStream) ReadFrom(*binary.Reader, uint64) error {
	return nil
}
