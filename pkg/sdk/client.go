package sdk

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gear6io/chnative/pkg/errors"
)

// Client is a pooled set of native-protocol sessions. Sessions are
// created on demand up to MaxOpenConns, parked when idle up to
// MaxIdleConns, and retired once they exceed ConnMaxLifetime or fail.
type Client struct {
	opt *Options
	log *zap.Logger

	idle chan *connection
	open chan struct{}
	exit chan struct{}

	connID  int64
	addrIdx int64

	closeOnce sync.Once
}

// Open creates a client from options. No session is dialed until the
// first operation needs one.
func Open(opt *Options) (*Client, error) {
	if opt == nil {
		opt = &Options{}
	}
	opt.SetDefaults()
	c := &Client{
		opt:  opt,
		log:  opt.Logger.Named("sdk"),
		idle: make(chan *connection, opt.MaxIdleConns),
		open: make(chan struct{}, opt.MaxOpenConns),
		exit: make(chan struct{}),
	}
	for _, addr := range opt.Addr {
		if _, port, err := net.SplitHostPort(addr); err == nil && port == "8123" {
			c.log.Warn("address uses the HTTP port, the native protocol listens on 9000 by default",
				zap.String("addr", addr))
		}
	}
	go c.reapIdle()
	return c, nil
}

// OpenDSN creates a client from a connection string.
func OpenDSN(dsn string) (*Client, error) {
	opt, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return Open(opt)
}

func newQueryID() string {
	return uuid.NewString()
}

// chooseAddr walks the configured addresses per the open strategy.
func (c *Client) chooseAddr() string {
	switch c.opt.ConnOpenStrategy {
	case ConnOpenRoundRobin:
		n := atomic.AddInt64(&c.addrIdx, 1)
		return c.opt.Addr[int(n)%len(c.opt.Addr)]
	default:
		return c.opt.Addr[0]
	}
}

// dialWithRetry opens a session, backing off across the address list
// until the retry budget or the context gives up.
func (c *Client) dialWithRetry(ctx context.Context) (*connection, error) {
	id := int(atomic.AddInt64(&c.connID, 1))
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(), uint64(2*len(c.opt.Addr))), ctx)
	var conn *connection
	err := backoff.Retry(func() error {
		addr := c.chooseAddr()
		dialed, err := dial(ctx, id, addr, c.opt)
		if err != nil {
			c.log.Debug("dial failed", zap.String("addr", addr), zap.Error(err))
			if errors.HasCode(err, ErrConnect) {
				return err
			}
			// Handshake-level failures will not heal by retrying.
			return backoff.Permanent(err)
		}
		conn = dialed
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// acquire hands out an idle session or dials a new one within the open
// budget.
func (c *Client) acquire(ctx context.Context) (*connection, error) {
	select {
	case <-c.exit:
		return nil, errors.New(ErrPoolClosed, "client is closed")
	default:
	}
	for {
		select {
		case conn := <-c.idle:
			if conn.bad() || conn.expired(c.opt.ConnMaxLifetime) {
				c.discard(conn)
				continue
			}
			return conn, nil
		default:
		}
		select {
		case c.open <- struct{}{}:
			conn, err := c.dialWithRetry(ctx)
			if err != nil {
				<-c.open
				return nil, err
			}
			return conn, nil
		case conn := <-c.idle:
			if conn.bad() || conn.expired(c.opt.ConnMaxLifetime) {
				c.discard(conn)
				continue
			}
			return conn, nil
		case <-ctx.Done():
			return nil, errors.Wrap(ErrPoolClosed, ctx.Err(), "waiting for a session")
		case <-c.exit:
			return nil, errors.New(ErrPoolClosed, "client is closed")
		}
	}
}

// release parks a healthy session or retires a broken one.
func (c *Client) release(conn *connection, err error) {
	if err != nil || conn.state != stateReady || conn.expired(c.opt.ConnMaxLifetime) {
		c.discard(conn)
		return
	}
	select {
	case <-c.exit:
		c.discard(conn)
		return
	default:
	}
	select {
	case c.idle <- conn:
	default:
		c.discard(conn)
	}
}

// discard closes a session and frees its slot in the open budget.
func (c *Client) discard(conn *connection) {
	_ = conn.close()
	select {
	case <-c.open:
	default:
	}
}

// reapIdle retires idle sessions that outlive ConnMaxLifetime.
func (c *Client) reapIdle() {
	lifetime := c.opt.ConnMaxLifetime
	if lifetime <= 0 {
		return
	}
	ticker := time.NewTicker(lifetime / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for i := len(c.idle); i > 0; i-- {
				select {
				case conn := <-c.idle:
					if conn.expired(lifetime) || conn.bad() {
						c.discard(conn)
						continue
					}
					select {
					case c.idle <- conn:
					default:
						c.discard(conn)
					}
				default:
				}
			}
		case <-c.exit:
			return
		}
	}
}

// Ping checks that a session can be acquired and the server answers.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	err = conn.ping(ctx)
	c.release(conn, err)
	return err
}

// ServerVersion describes the server side of a handshake.
type ServerVersion struct {
	Name        string
	DisplayName string
	Major       uint64
	Minor       uint64
	Patch       uint64
	Revision    uint64
	Timezone    string
}

func (v *ServerVersion) String() string {
	return fmt.Sprintf("%s %d.%d.%d (revision %d)", v.Name, v.Major, v.Minor, v.Patch, v.Revision)
}

// ServerVersion reports the server identity from a pooled session's
// handshake.
func (c *Client) ServerVersion(ctx context.Context) (*ServerVersion, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	v := &ServerVersion{
		Name:        conn.server.Name,
		DisplayName: conn.server.DisplayName,
		Major:       conn.server.VersionMajor,
		Minor:       conn.server.VersionMinor,
		Patch:       conn.server.VersionPatch,
		Revision:    conn.server.Revision,
		Timezone:    conn.server.Timezone,
	}
	c.release(conn, nil)
	return v, nil
}

// Query dispatches a statement and streams its result. The session stays
// bound to the returned Rows until Close.
func (c *Client) Query(ctx context.Context, query string) (*Rows, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.sendQuery(ctx, newQueryID(), query); err != nil {
		c.release(conn, err)
		return nil, err
	}
	rows := newRows(ctx, conn, func(err error) {
		c.release(conn, releaseErr(err))
	})
	if err := rows.prime(); err != nil {
		c.release(conn, err)
		return nil, err
	}
	return rows, nil
}

// QueryRow dispatches a statement expected to yield a single row.
func (c *Client) QueryRow(ctx context.Context, query string) *Row {
	rows, err := c.Query(ctx, query)
	if err != nil {
		return &Row{err: err}
	}
	return &Row{rows: rows}
}

// Exec dispatches a statement and drains the session, surfacing a server
// exception if the statement failed.
func (c *Client) Exec(ctx context.Context, query string) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	if err := conn.sendQuery(ctx, newQueryID(), query); err != nil {
		c.release(conn, err)
		return err
	}
	err = conn.drain(ctx)
	c.release(conn, releaseErr(err))
	return err
}

// releaseErr separates stream failures from server exceptions: a session
// that drained an exception cleanly is still usable.
func releaseErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsException(err); ok {
		return nil
	}
	return err
}

// PrepareBatch starts an insert and returns the staging batch seeded
// from the server's header block. INSERT statements without an explicit
// VALUES clause get one appended.
func (c *Client) PrepareBatch(ctx context.Context, query string) (*Batch, error) {
	normalized := strings.TrimSpace(query)
	if !strings.HasSuffix(strings.ToUpper(normalized), "VALUES") {
		normalized += " VALUES"
	}
	conn, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	batch, err := prepareBatch(ctx, conn, normalized, func(err error) {
		c.release(conn, releaseErr(err))
	})
	if err != nil {
		c.release(conn, releaseErr(err))
		return nil, err
	}
	return batch, nil
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Open int
	Idle int
}

// Stats reports how many sessions exist and how many are parked.
func (c *Client) Stats() Stats {
	return Stats{Open: len(c.open), Idle: len(c.idle)}
}

// Close shuts the pool and every idle session. Sessions still in use are
// closed as they are released.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.exit)
		for {
			select {
			case conn := <-c.idle:
				c.discard(conn)
			default:
				return
			}
		}
	})
	return nil
}
