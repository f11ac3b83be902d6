package protocol

import (
	"sync"

	"github.com/gear6io/chnative/pkg/errors"
)

// Registry maps server signal kinds to constructors so the session can
// instantiate the right decoder for an inbound kind varint.
type Registry struct {
	mu           sync.RWMutex
	constructors map[SignalType]func() ServerSignal
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[SignalType]func() ServerSignal)}
}

// RegisterServerSignal installs a constructor for a server signal kind.
func (r *Registry) RegisterServerSignal(t SignalType, ctor func() ServerSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.constructors[t]; dup {
		return errors.Newf(ErrUnexpectedSignal, "server signal %s already registered", ServerSignalName(t))
	}
	r.constructors[t] = ctor
	return nil
}

// NewServerSignal instantiates a decoder for an inbound kind.
func (r *Registry) NewServerSignal(t SignalType) (ServerSignal, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[t]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(ErrUnexpectedSignal, "no decoder for server signal %d (%s)", t, ServerSignalName(t))
	}
	return ctor(), nil
}
