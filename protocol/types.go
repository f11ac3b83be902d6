package protocol

import (
	"github.com/gear6io/chnative/binary"
)

// SignalType identifies a protocol signal within its direction.
type SignalType byte

// ClientSignal is a message the driver sends. WriteTo emits the kind
// varint followed by the payload; revision selects which gated fields
// travel.
type ClientSignal interface {
	Type() SignalType
	WriteTo(w *binary.Writer, revision uint64) error
}

// ServerSignal is a message the driver receives. The kind varint has
// already been consumed when ReadFrom runs.
type ServerSignal interface {
	Type() SignalType
	ReadFrom(r *binary.Reader, revision uint64) error
}
