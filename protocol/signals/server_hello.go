package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ServerHello is the server's half of the handshake. The optional fields
// are gated on the revision the server itself declares, not on the
// negotiated one, since negotiation completes only after this signal.
type ServerHello struct {
	Name         string
	VersionMajor uint64
	VersionMinor uint64
	Revision     uint64
	Timezone     string
	DisplayName  string
	VersionPatch uint64
}

func NewServerHello() *ServerHello {
	return &ServerHello{}
}

func (h *ServerHello) Type() protocol.SignalType {
	return protocol.ServerHello
}

func (h *ServerHello) ReadFrom(r *binary.Reader, _ uint64) error {
	var err error
	if h.Name, err = r.String(); err != nil {
		return err
	}
	if h.VersionMajor, err = r.UVarInt(); err != nil {
		return err
	}
	if h.VersionMinor, err = r.UVarInt(); err != nil {
		return err
	}
	if h.Revision, err = r.UVarInt(); err != nil {
		return err
	}
	if h.Revision >= protocol.RevisionWithServerTimezone {
		if h.Timezone, err = r.String(); err != nil {
			return err
		}
	}
	if h.Revision >= protocol.RevisionWithServerDisplayName {
		if h.DisplayName, err = r.String(); err != nil {
			return err
		}
	}
	if h.Revision >= protocol.RevisionWithVersionPatch {
		if h.VersionPatch, err = r.UVarInt(); err != nil {
			return err
		}
	}
	return nil
}
