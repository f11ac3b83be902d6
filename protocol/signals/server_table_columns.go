package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// ServerTableColumns carries table metadata ahead of an insert: the table
// name and a textual column description.
type ServerTableColumns struct {
	Table       string
	Description string
}

func NewServerTableColumns() *ServerTableColumns {
	return &ServerTableColumns{}
}

func (t *ServerTableColumns) Type() protocol.SignalType {
	return protocol.ServerTableColumns
}

func (t *ServerTableColumns) ReadFrom(r *binary.Reader, _ uint64) error {
	var err error
	if t.Table, err = r.String(); err != nil {
		return err
	}
	t.Description, err = r.String()
	return err
}
