package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ClientHello opens the handshake: client identity, protocol revision and
// the credentials of the session.
type ClientHello struct {
	ClientName   string
	VersionMajor uint64
	VersionMinor uint64
	Revision     uint64
	Database     string
	User         string
	Password     string
}

// NewClientHello creates a hello signal at this driver's revision.
func NewClientHello(database, user, password string) *ClientHello {
	return &ClientHello{
		ClientName:   protocol.ClientName,
		VersionMajor: protocol.ClientVersionMajor,
		VersionMinor: protocol.ClientVersionMinor,
		Revision:     protocol.ClientRevision,
		Database:     database,
		User:         user,
		Password:     password,
	}
}

func (h *ClientHello) Type() protocol.SignalType {
	return protocol.ClientHello
}

func (h *ClientHello) WriteTo(w *binary.Writer, _ uint64) error {
	if err := w.UVarInt(uint64(h.Type())); err != nil {
		return err
	}
	if err := w.String(h.ClientName); err != nil {
		return err
	}
	if err := w.UVarInt(h.VersionMajor); err != nil {
		return err
	}
	if err := w.UVarInt(h.VersionMinor); err != nil {
		return err
	}
	if err := w.UVarInt(h.Revision); err != nil {
		return err
	}
	if err := w.String(h.Database); err != nil {
		return err
	}
	if err := w.String(h.User); err != nil {
		return err
	}
	return w.String(h.Password)
}
