package protocol

import (
	"os"
	"os/user"

	"github.com/gear6io/chnative/binary"
)

// Query kinds carried in ClientInfo.
const (
	QueryKindNone      byte = 0
	QueryKindInitial   byte = 1
	QueryKindSecondary byte = 2
)

// TCP is the only interface this driver speaks.
const interfaceTCP byte = 1

// ClientInfo describes the originating client inside a Query signal.
// Field order and gating follow the server's ClientInfo::write.
type ClientInfo struct {
	QueryKind byte

	InitialUser    string
	InitialQueryID string
	InitialAddress string

	OSUser   string
	Hostname string

	ClientName   string
	VersionMajor uint64
	VersionMinor uint64
	VersionPatch uint64
	Revision     uint64

	QuotaKey         string
	DistributedDepth uint64
}

// NewClientInfo fills in the environment-derived fields.
func NewClientInfo() ClientInfo {
	info := ClientInfo{
		QueryKind:      QueryKindInitial,
		InitialAddress: "0.0.0.0:0",
		ClientName:     ClientName,
		VersionMajor:   ClientVersionMajor,
		VersionMinor:   ClientVersionMinor,
		VersionPatch:   ClientVersionPatch,
		Revision:       ClientRevision,
	}
	if u, err := user.Current(); err == nil {
		info.OSUser = u.Username
	}
	if host, err := os.Hostname(); err == nil {
		info.Hostname = host
	}
	return info
}

// WriteTo emits the client info block. revision is the negotiated session
// revision, which must already be >= RevisionWithClientInfo.
func (c *ClientInfo) WriteTo(w *binary.Writer, revision uint64) error {
	if err := w.UInt8(c.QueryKind); err != nil {
		return err
	}
	if c.QueryKind == QueryKindNone {
		return nil
	}
	for _, s := range []string{c.InitialUser, c.InitialQueryID, c.InitialAddress} {
		if err := w.String(s); err != nil {
			return err
		}
	}
	if err := w.UInt8(interfaceTCP); err != nil {
		return err
	}
	for _, s := range []string{c.OSUser, c.Hostname, c.ClientName} {
		if err := w.String(s); err != nil {
			return err
		}
	}
	if err := w.UVarInt(c.VersionMajor); err != nil {
		return err
	}
	if err := w.UVarInt(c.VersionMinor); err != nil {
		return err
	}
	if err := w.UVarInt(c.Revision); err != nil {
		return err
	}
	if revision >= RevisionWithQuotaKey {
		if err := w.String(c.QuotaKey); err != nil {
			return err
		}
	}
	if revision >= RevisionWithDistributedDepth {
		if err := w.UVarInt(c.DistributedDepth); err != nil {
			return err
		}
	}
	if revision >= RevisionWithVersionPatch {
		if err := w.UVarInt(c.VersionPatch); err != nil {
			return err
		}
	}
	if revision >= RevisionWithOpenTelemetry {
		// No trace context to propagate.
		if err := w.UInt8(0); err != nil {
			return err
		}
	}
	return nil
}
