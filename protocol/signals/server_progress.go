package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ServerProgress reports rows and bytes the server has processed since
// the previous progress signal.
type ServerProgress struct {
	Rows      uint64
	Bytes     uint64
	TotalRows uint64

	// Write-side counters, present on newer revisions.
	WroteRows  uint64
	WroteBytes uint64
}

func NewServerProgress() *ServerProgress {
	return &ServerProgress{}
}

func (p *ServerProgress) Type() protocol.SignalType {
	return protocol.ServerProgress
}

func (p *ServerProgress) ReadFrom(r *binary.Reader, revision uint64) error {
	var err error
	if p.Rows, err = r.UVarInt(); err != nil {
		return err
	}
	if p.Bytes, err = r.UVarInt(); err != nil {
		return err
	}
	if revision >= protocol.RevisionWithTotalRowsInProgress {
		if p.TotalRows, err = r.UVarInt(); err != nil {
			return err
		}
	}
	if revision >= protocol.RevisionWithClientWriteInfo {
		if p.WroteRows, err = r.UVarInt(); err != nil {
			return err
		}
		if p.WroteBytes, err = r.UVarInt(); err != nil {
			return err
		}
	}
	return nil
}
