package signals

import (
	"github.com/gear6io/chnative/protocol"
)

// NewServerRegistry builds a registry knowing every server signal this
// driver decodes. Totals, Extremes and Log share the ServerData layout;
// they differ only in the framing kind.
func NewServerRegistry() *protocol.Registry {
	r := protocol.NewRegistry()
	for t, ctor := range map[protocol.SignalType]func() protocol.ServerSignal{
		protocol.ServerHello:       func() protocol.ServerSignal { return NewServerHello() },
		protocol.ServerData:        func() protocol.ServerSignal { return NewServerData() },
		protocol.ServerException:   func() protocol.ServerSignal { return NewServerException() },
		protocol.ServerProgress:    func() protocol.ServerSignal { return NewServerProgress() },
		protocol.ServerPong:        func() protocol.ServerSignal { return NewServerPong() },
		protocol.ServerEndOfStream: func() protocol.ServerSignal { return NewServerEndOfStream() },
		protocol.ServerProfileInfo: func() protocol.ServerSignal { return NewServerProfileInfo() },
		protocol.ServerTableColumns: func() protocol.ServerSignal {
			return NewServerTableColumns()
		},
	} {
		if err := r.RegisterServerSignal(t, ctor); err != nil {
			panic(err)
		}
	}
	return r
}
