package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/protocol"
)

// ServerData is one inbound block: a result chunk, totals, extremes, or a
// server log block, depending on the signal kind that framed it.
type ServerData struct {
	TableName string
	Block     *column.Block
}

func NewServerData() *ServerData {
	return &ServerData{}
}

func (d *ServerData) Type() protocol.SignalType {
	return protocol.ServerData
}

func (d *ServerData) ReadFrom(r *binary.Reader, revision uint64) error {
	var err error
	if revision >= protocol.RevisionWithTemporaryTables {
		if d.TableName, err = r.String(); err != nil {
			return err
		}
	}
	d.Block, err = column.ReadBlock(r, revision >= protocol.RevisionWithBlockInfo)
	return err
}
