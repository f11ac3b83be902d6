package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ClientCancel asks the server to abort the running query. The server
// still finishes the response stream, normally with EndOfStream.
type ClientCancel struct{}

func NewClientCancel() *ClientCancel {
	return &ClientCancel{}
}

func (c *ClientCancel) Type() protocol.SignalType {
	return protocol.ClientCancel
}

func (c *ClientCancel) WriteTo(w *binary.Writer, _ uint64) error {
	return w.UVarInt(uint64(c.Type()))
}
