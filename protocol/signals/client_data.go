package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/protocol"
)

// ClientData carries one block to the server. An empty block with an
// empty table name terminates the data stream of a query.
type ClientData struct {
	TableName string
	Block     *column.Block
}

// NewClientData wraps a block for sending.
func NewClientData(tableName string, block *column.Block) *ClientData {
	return &ClientData{TableName: tableName, Block: block}
}

// NewClientDataEnd is the empty terminator block.
func NewClientDataEnd() *ClientData {
	return &ClientData{Block: column.NewBlock()}
}

func (d *ClientData) Type() protocol.SignalType {
	return protocol.ClientData
}

func (d *ClientData) WriteTo(w *binary.Writer, revision uint64) error {
	if err := w.UVarInt(uint64(d.Type())); err != nil {
		return err
	}
	if revision >= protocol.RevisionWithTemporaryTables {
		if err := w.String(d.TableName); err != nil {
			return err
		}
	}
	return d.Block.WriteTo(w, revision >= protocol.RevisionWithBlockInfo)
}
