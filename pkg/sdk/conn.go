package sdk

import (
	"bufio"
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/compress"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
	"github.com/gear6io/chnative/protocol/signals"
)

// connState tracks where a session is in its lifecycle. Signals may only
// be sent from the states that allow them; everything else is a usage
// error, not a protocol one.
type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateHandshakeSent
	stateReady
	stateQuerySent
	stateStreaming
	stateFailed
	stateClosed
)

var stateNames = map[connState]string{
	stateDisconnected:  "Disconnected",
	stateConnecting:    "Connecting",
	stateHandshakeSent: "HandshakeSent",
	stateReady:         "Ready",
	stateQuerySent:     "QuerySent",
	stateStreaming:     "Streaming",
	stateFailed:        "Failed",
	stateClosed:        "Closed",
}

func (s connState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// connection is one native-protocol session over a TCP stream. Signal
// framing always travels uncompressed; when compression is negotiated,
// block bodies detour through the frame codec while the rest of the
// stream stays on the plain reader and writer.
type connection struct {
	id   int
	conn net.Conn
	opt  *Options
	log  *zap.Logger

	reader *binary.Reader
	writer *binary.Writer

	compression    compress.Method
	compressWriter *compress.Writer
	blockWriter    *binary.Writer
	blockReader    *binary.Reader

	registry *protocol.Registry

	server   *signals.ServerHello
	revision uint64
	location *time.Location

	state       connState
	connectedAt time.Time
}

// dial opens a TCP stream and completes the handshake.
func dial(ctx context.Context, id int, addr string, opt *Options) (*connection, error) {
	var (
		netConn net.Conn
		err     error
	)
	if opt.DialContext != nil {
		netConn, err = opt.DialContext(ctx, addr)
	} else {
		d := net.Dialer{Timeout: opt.DialTimeout}
		netConn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrConnect, err, "dial %s", addr)
	}

	compression := compress.None
	if opt.Compression != nil {
		compression = opt.Compression.Method
	}
	stream := bufio.NewReader(netConn)
	c := &connection{
		id:          id,
		conn:        netConn,
		opt:         opt,
		log:         opt.Logger.With(zap.Int("conn_id", id), zap.String("addr", addr)),
		reader:      binary.NewReader(stream),
		writer:      binary.NewWriter(netConn),
		compression: compression,
		registry:    signals.NewServerRegistry(),
		state:       stateConnecting,
		connectedAt: time.Now(),
	}
	if err := c.handshake(ctx); err != nil {
		_ = netConn.Close()
		return nil, err
	}
	if compression != compress.None {
		w, err := compress.NewWriter(netConn, compression)
		if err != nil {
			_ = netConn.Close()
			return nil, err
		}
		c.compressWriter = w
		c.blockWriter = binary.NewWriter(w)
		c.blockReader = binary.NewReader(compress.NewReader(stream))
	}
	c.log.Debug("session established",
		zap.String("server", c.server.Name),
		zap.Uint64("server_revision", c.server.Revision),
		zap.Uint64("negotiated_revision", c.revision))
	return c, nil
}

func (c *connection) handshake(ctx context.Context) error {
	hello := signals.NewClientHello(c.opt.Auth.Database, c.opt.Auth.Username, c.opt.Auth.Password)
	if err := c.writeDeadline(ctx); err != nil {
		return err
	}
	if err := hello.WriteTo(c.writer, protocol.ClientRevision); err != nil {
		return err
	}
	if err := c.writer.Flush(); err != nil {
		c.state = stateFailed
		return err
	}
	c.state = stateHandshakeSent

	if err := c.readDeadline(ctx); err != nil {
		return err
	}
	kind, err := c.reader.UVarInt()
	if err != nil {
		c.state = stateFailed
		return err
	}
	switch t := protocol.SignalType(kind); t {
	case protocol.ServerHello:
		srv := signals.NewServerHello()
		if err := srv.ReadFrom(c.reader, 0); err != nil {
			c.state = stateFailed
			return err
		}
		if srv.Revision < protocol.RevisionWithClientInfo {
			c.state = stateFailed
			return errors.Newf(protocol.ErrRevisionTooOld,
				"server %s speaks revision %d, minimum supported is %d",
				srv.Name, srv.Revision, protocol.RevisionWithClientInfo)
		}
		c.server = srv
		c.revision = protocol.ClientRevision
		if srv.Revision < c.revision {
			c.revision = srv.Revision
		}
		if srv.Timezone != "" {
			if loc, err := time.LoadLocation(srv.Timezone); err == nil {
				c.location = loc
			}
		}
		c.state = stateReady
		return nil
	case protocol.ServerException:
		e := signals.NewServerException()
		if err := e.ReadFrom(c.reader, 0); err != nil {
			c.state = stateFailed
			return err
		}
		c.state = stateFailed
		return exceptionError(e)
	default:
		c.state = stateFailed
		return errors.Newf(protocol.ErrUnexpectedSignal,
			"handshake answered with %s", protocol.ServerSignalName(t))
	}
}

func (c *connection) readDeadline(ctx context.Context) error {
	deadline := time.Now().Add(c.opt.ReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return errors.Wrap(ErrConnect, err, "set read deadline")
	}
	return nil
}

func (c *connection) writeDeadline(ctx context.Context) error {
	deadline := time.Now().Add(c.opt.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(ErrConnect, err, "set write deadline")
	}
	return nil
}

// receive reads one server signal. Data-carrying kinds are decoded here
// instead of through the registry because their block bodies may arrive
// compressed; log blocks never do.
func (c *connection) receive(ctx context.Context) (protocol.ServerSignal, error) {
	if err := c.readDeadline(ctx); err != nil {
		return nil, err
	}
	kind, err := c.reader.UVarInt()
	if err != nil {
		c.state = stateFailed
		return nil, err
	}
	t := protocol.SignalType(kind)
	switch t {
	case protocol.ServerData, protocol.ServerTotals, protocol.ServerExtremes, protocol.ServerLog:
		d, err := c.readData(t)
		if err != nil {
			c.state = stateFailed
			return nil, err
		}
		return d, nil
	}
	sig, err := c.registry.NewServerSignal(t)
	if err != nil {
		c.state = stateFailed
		return nil, err
	}
	if err := sig.ReadFrom(c.reader, c.revision); err != nil {
		c.state = stateFailed
		return nil, err
	}
	return sig, nil
}

func (c *connection) readData(t protocol.SignalType) (*dataSignal, error) {
	d := &dataSignal{kind: t}
	var err error
	if c.revision >= protocol.RevisionWithTemporaryTables {
		if d.TableName, err = c.reader.String(); err != nil {
			return nil, err
		}
	}
	r := c.reader
	if c.compression != compress.None && t != protocol.ServerLog {
		r = c.blockReader
	}
	d.Block, err = column.ReadBlock(r, c.revision >= protocol.RevisionWithBlockInfo)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// dataSignal carries an inbound block together with the framing kind that
// distinguishes result chunks from totals, extremes and log blocks.
type dataSignal struct {
	kind      protocol.SignalType
	TableName string
	Block     *column.Block
}

func (d *dataSignal) Type() protocol.SignalType { return d.kind }

// ReadFrom satisfies protocol.ServerSignal so dataSignal can be returned
// and type-switched on as one. Decoding normally happens in readData,
// which has access to the connection's compression state; this mirrors
// the same steps for the uncompressed case.
func (d *dataSignal) ReadFrom(r *binary.Reader, revision uint64) error {
	var err error
	if revision >= protocol.RevisionWithTemporaryTables {
		if d.TableName, err = r.String(); err != nil {
			return err
		}
	}
	d.Block, err = column.ReadBlock(r, revision >= protocol.RevisionWithBlockInfo)
	return err
}

// sendData writes one Data signal. The kind and table name always travel
// plain; the block body goes through the frame codec when compression is
// on.
func (c *connection) sendData(ctx context.Context, tableName string, block *column.Block) error {
	if err := c.writeDeadline(ctx); err != nil {
		return err
	}
	if err := c.writer.UVarInt(uint64(protocol.ClientData)); err != nil {
		return err
	}
	if c.revision >= protocol.RevisionWithTemporaryTables {
		if err := c.writer.String(tableName); err != nil {
			return err
		}
	}
	if c.compression != compress.None {
		if err := c.writer.Flush(); err != nil {
			return err
		}
		if err := block.WriteTo(c.blockWriter, c.revision >= protocol.RevisionWithBlockInfo); err != nil {
			return err
		}
		if err := c.blockWriter.Flush(); err != nil {
			return err
		}
		return c.compressWriter.Flush()
	}
	if err := block.WriteTo(c.writer, c.revision >= protocol.RevisionWithBlockInfo); err != nil {
		return err
	}
	return c.writer.Flush()
}

// sendQuery dispatches a statement followed by the empty Data signal that
// tells the server no external tables follow.
func (c *connection) sendQuery(ctx context.Context, queryID, body string) error {
	if c.state != stateReady {
		return errors.Newf(ErrInvalidState, "query dispatched in state %s", c.state)
	}
	compression := protocol.CompressionDisabled
	if c.compression != compress.None {
		compression = protocol.CompressionEnabled
	}
	q := signals.NewClientQuery(queryID, body, compression)
	q.Settings = querySettings(c.opt.Settings)
	if err := c.writeDeadline(ctx); err != nil {
		return err
	}
	if err := q.WriteTo(c.writer, c.revision); err != nil {
		c.state = stateFailed
		return err
	}
	if err := c.writer.Flush(); err != nil {
		c.state = stateFailed
		return err
	}
	c.state = stateQuerySent
	if err := c.sendData(ctx, "", column.NewBlock()); err != nil {
		c.state = stateFailed
		return err
	}
	return nil
}

func querySettings(settings Settings) []signals.Setting {
	out := make([]signals.Setting, 0, len(settings))
	for name := range settings {
		out = append(out, signals.Setting{Name: name, Value: settings.GetString(name)})
	}
	return out
}

// ping round-trips a Ping signal, tolerating stray progress reports.
func (c *connection) ping(ctx context.Context) error {
	if c.state != stateReady {
		return errors.Newf(ErrInvalidState, "ping in state %s", c.state)
	}
	if err := c.writeDeadline(ctx); err != nil {
		return err
	}
	if err := c.writer.UVarInt(uint64(protocol.ClientPing)); err != nil {
		return err
	}
	if err := c.writer.Flush(); err != nil {
		c.state = stateFailed
		return err
	}
	for {
		sig, err := c.receive(ctx)
		if err != nil {
			return err
		}
		switch s := sig.(type) {
		case *signals.ServerPong:
			return nil
		case *signals.ServerProgress:
			continue
		default:
			c.state = stateFailed
			return errors.Newf(protocol.ErrUnexpectedSignal,
				"ping answered with %s", protocol.ServerSignalName(s.Type()))
		}
	}
}

// cancel asks the server to abort the in-flight query. Only meaningful
// while result blocks are still streaming.
func (c *connection) cancel(ctx context.Context) error {
	if c.state != stateStreaming {
		return errors.Newf(ErrInvalidState, "cancel in state %s", c.state)
	}
	if err := c.writeDeadline(ctx); err != nil {
		return err
	}
	if err := c.writer.UVarInt(uint64(protocol.ClientCancel)); err != nil {
		return err
	}
	if err := c.writer.Flush(); err != nil {
		c.state = stateFailed
		return err
	}
	return nil
}

// drain consumes the stream to EndOfStream. An exception is captured and
// returned once the stream is cleanly finished; the session returns to
// Ready unless the stream dies first.
func (c *connection) drain(ctx context.Context) error {
	var exception error
	for {
		sig, err := c.receive(ctx)
		if err != nil {
			return err
		}
		switch s := sig.(type) {
		case *signals.ServerEndOfStream:
			c.state = stateReady
			return exception
		case *signals.ServerException:
			if exception == nil {
				exception = exceptionError(s)
			}
		case *signals.ServerProgress:
			c.notifyProgress(s)
		case *signals.ServerProfileInfo:
			c.notifyProfile(s)
		case *dataSignal:
			c.notifyData(s)
		case *signals.ServerTableColumns:
			// Structure metadata, nothing to do outside an insert.
		default:
			c.state = stateFailed
			return errors.Newf(protocol.ErrUnexpectedSignal,
				"drain met %s", protocol.ServerSignalName(s.Type()))
		}
	}
}

func (c *connection) notifyProgress(p *signals.ServerProgress) {
	if c.opt.OnProgress != nil {
		c.opt.OnProgress(p)
	}
}

func (c *connection) notifyProfile(p *signals.ServerProfileInfo) {
	if c.opt.OnProfileInfo != nil {
		c.opt.OnProfileInfo(p)
	}
}

func (c *connection) notifyData(d *dataSignal) {
	if d.kind == protocol.ServerLog && c.opt.OnServerLog != nil {
		c.opt.OnServerLog(d.Block)
	}
}

// expired reports whether the session outlived the pool's max lifetime.
func (c *connection) expired(lifetime time.Duration) bool {
	return lifetime > 0 && time.Since(c.connectedAt) > lifetime
}

func (c *connection) bad() bool {
	return c.state == stateFailed || c.state == stateClosed
}

func (c *connection) close() error {
	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed
	c.log.Debug("session closed")
	return c.conn.Close()
}
