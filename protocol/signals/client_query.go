package signals

import (
	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/protocol"
)

// Setting is one query-scoped server setting. Values travel as strings;
// below RevisionWithSettingsSerializedAsString no settings are sent.
type Setting struct {
	Name      string
	Value     string
	Important bool
}

const settingFlagImportant uint8 = 0x01

// ClientQuery carries a SQL statement together with the client identity,
// settings, and execution knobs. The session follows it with data signals
// for external tables and a terminating empty one.
type ClientQuery struct {
	QueryID     string
	Info        protocol.ClientInfo
	Settings    []Setting
	Secret      string
	Stage       uint64
	Compression uint64
	Body        string
}

// NewClientQuery builds a query signal executing to completion.
func NewClientQuery(queryID, body string, compression uint64) *ClientQuery {
	return &ClientQuery{
		QueryID:     queryID,
		Info:        protocol.NewClientInfo(),
		Stage:       protocol.StageComplete,
		Compression: compression,
		Body:        body,
	}
}

func (q *ClientQuery) Type() protocol.SignalType {
	return protocol.ClientQuery
}

func (q *ClientQuery) WriteTo(w *binary.Writer, revision uint64) error {
	if err := w.UVarInt(uint64(q.Type())); err != nil {
		return err
	}
	if err := w.String(q.QueryID); err != nil {
		return err
	}
	if revision >= protocol.RevisionWithClientInfo {
		if err := q.Info.WriteTo(w, revision); err != nil {
			return err
		}
	}
	if err := q.writeSettings(w, revision); err != nil {
		return err
	}
	if revision >= protocol.RevisionWithInterServerSecret {
		if err := w.String(q.Secret); err != nil {
			return err
		}
	}
	if err := w.UVarInt(q.Stage); err != nil {
		return err
	}
	if err := w.UVarInt(q.Compression); err != nil {
		return err
	}
	return w.String(q.Body)
}

func (q *ClientQuery) writeSettings(w *binary.Writer, revision uint64) error {
	if revision >= protocol.RevisionWithSettingsSerializedAsString {
		for _, s := range q.Settings {
			if err := w.String(s.Name); err != nil {
				return err
			}
			var flags uint8
			if s.Important {
				flags |= settingFlagImportant
			}
			if err := w.UInt8(flags); err != nil {
				return err
			}
			if err := w.String(s.Value); err != nil {
				return err
			}
		}
	}
	// Empty name terminates the list.
	return w.String("")
}
