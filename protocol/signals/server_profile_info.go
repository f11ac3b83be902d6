package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ServerProfileInfo summarizes the result set after execution.
type ServerProfileInfo struct {
	Rows                      uint64
	Blocks                    uint64
	Bytes                     uint64
	AppliedLimit              bool
	RowsBeforeLimit           uint64
	CalculatedRowsBeforeLimit bool
}

func NewServerProfileInfo() *ServerProfileInfo {
	return &ServerProfileInfo{}
}

func (p *ServerProfileInfo) Type() protocol.SignalType {
	return protocol.ServerProfileInfo
}

func (p *ServerProfileInfo) ReadFrom(r *binary.Reader, _ uint64) error {
	var err error
	if p.Rows, err = r.UVarInt(); err != nil {
		return err
	}
	if p.Blocks, err = r.UVarInt(); err != nil {
		return err
	}
	if p.Bytes, err = r.UVarInt(); err != nil {
		return err
	}
	if p.AppliedLimit, err = r.Bool(); err != nil {
		return err
	}
	if p.RowsBeforeLimit, err = r.UVarInt(); err != nil {
		return err
	}
	p.CalculatedRowsBeforeLimit, err = r.Bool()
	return err
}
