package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ClientPing is a keepalive probe; the server answers with Pong.
type ClientPing struct{}

func NewClientPing() *ClientPing {
	return &ClientPing{}
}

func (p *ClientPing) Type() protocol.SignalType {
	return protocol.ClientPing
}

func (p *ClientPing) WriteTo(w *binary.Writer, _ uint64) error {
	return w.UVarInt(uint64(p.Type()))
}
