package protocol

// Signal kinds of the native TCP protocol. Client and server numbering
// overlap, so a kind is only meaningful together with its direction.
// See https://github.com/ClickHouse/ClickHouse/blob/master/src/Core/Protocol.h
const (
	// Client signals (Client -> Server)
	ClientHello  SignalType = 0
	ClientQuery  SignalType = 1
	ClientData   SignalType = 2
	ClientCancel SignalType = 3
	ClientPing   SignalType = 4

	// Server signals (Server -> Client)
	ServerHello           SignalType = 0
	ServerData            SignalType = 1
	ServerException       SignalType = 2
	ServerProgress        SignalType = 3
	ServerPong            SignalType = 4
	ServerEndOfStream     SignalType = 5
	ServerProfileInfo     SignalType = 6
	ServerTotals          SignalType = 7
	ServerExtremes        SignalType = 8
	ServerTablesStatus    SignalType = 9
	ServerLog             SignalType = 10
	ServerTableColumns    SignalType = 11
	ServerPartUUIDs       SignalType = 12
	ServerReadTaskRequest SignalType = 13
)

// Revisions at which optional wire fields appeared. A field gated at
// revision r travels iff the negotiated revision is >= r.
const (
	RevisionWithTemporaryTables            = 50264
	RevisionWithTotalRowsInProgress        = 51554
	RevisionWithBlockInfo                  = 51903
	RevisionWithClientInfo                 = 54032
	RevisionWithServerTimezone             = 54058
	RevisionWithQuotaKey                   = 54060
	RevisionWithServerDisplayName          = 54372
	RevisionWithVersionPatch               = 54401
	RevisionWithServerLogs                 = 54406
	RevisionWithClientWriteInfo            = 54420
	RevisionWithSettingsSerializedAsString = 54429
	RevisionWithInterServerSecret          = 54441
	RevisionWithOpenTelemetry              = 54442
	RevisionWithDistributedDepth           = 54448
)

// ClientRevision is the protocol revision this driver speaks. The
// handshake negotiates min(ClientRevision, server revision).
const ClientRevision = RevisionWithDistributedDepth

// Client version advertised in Hello and ClientInfo.
const (
	ClientVersionMajor = 1
	ClientVersionMinor = 0
	ClientVersionPatch = 0

	ClientName = "chnative"
)

// Query processing stages.
const (
	StageFetchColumns       uint64 = 0
	StageWithMergeableState uint64 = 1
	StageComplete           uint64 = 2
)

// Compression flag of the Query packet.
const (
	CompressionDisabled uint64 = 0
	CompressionEnabled  uint64 = 1
)

var clientSignalNames = map[SignalType]string{
	ClientHello:  "ClientHello",
	ClientQuery:  "ClientQuery",
	ClientData:   "ClientData",
	ClientCancel: "ClientCancel",
	ClientPing:   "ClientPing",
}

var serverSignalNames = map[SignalType]string{
	ServerHello:           "ServerHello",
	ServerData:            "ServerData",
	ServerException:       "ServerException",
	ServerProgress:        "ServerProgress",
	ServerPong:            "ServerPong",
	ServerEndOfStream:     "ServerEndOfStream",
	ServerProfileInfo:     "ServerProfileInfo",
	ServerTotals:          "ServerTotals",
	ServerExtremes:        "ServerExtremes",
	ServerTablesStatus:    "ServerTablesStatus",
	ServerLog:             "ServerLog",
	ServerTableColumns:    "ServerTableColumns",
	ServerPartUUIDs:       "ServerPartUUIDs",
	ServerReadTaskRequest: "ServerReadTaskRequest",
}

// ClientSignalName is the human-readable name of a client signal kind.
func ClientSignalName(t SignalType) string {
	if name, ok := clientSignalNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ServerSignalName is the human-readable name of a server signal kind.
func ServerSignalName(t SignalType) string {
	if name, ok := serverSignalNames[t]; ok {
		return name
	}
	return "Unknown"
}
