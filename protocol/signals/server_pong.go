package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ServerPong answers a ping. No payload.
type ServerPong struct{}

func NewServerPong() *ServerPong {
	return &ServerPong{}
}

func (p *ServerPong) Type() protocol.SignalType {
	return protocol.ServerPong
}

func (p *ServerPong) ReadFrom(*binary.Reader, uint64) error {
	return nil
}
