package sdk

import (
	"context"

	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
	"github.com/gear6io/chnative/protocol/signals"
)

// Batch accumulates rows for an insert. The server answers the INSERT
// statement with a header block describing the target table; that block
// becomes the staging area for appended rows until Send ships them.
type Batch struct {
	ctx     context.Context
	conn    *connection
	onClose func(err error)

	block *column.Block
	sent  bool
}

// prepareBatch dispatches the INSERT statement and waits for the header
// block that carries the table structure.
func prepareBatch(ctx context.Context, conn *connection, query string, onClose func(error)) (*Batch, error) {
	if err := conn.sendQuery(ctx, newQueryID(), query); err != nil {
		return nil, err
	}
	for {
		sig, err := conn.receive(ctx)
		if err != nil {
			return nil, err
		}
		if conn.state == stateQuerySent {
			conn.state = stateStreaming
		}
		switch s := sig.(type) {
		case *dataSignal:
			if s.kind == protocol.ServerData {
				return &Batch{ctx: ctx, conn: conn, onClose: onClose, block: s.Block}, nil
			}
			conn.notifyData(s)
		case *signals.ServerTableColumns:
			// Structure metadata precedes the header block on some
			// servers; the header block is still authoritative.
		case *signals.ServerProgress:
			conn.notifyProgress(s)
		case *signals.ServerException:
			excErr := exceptionError(s)
			if drainErr := conn.drain(ctx); drainErr != nil {
				return nil, drainErr
			}
			return nil, excErr
		default:
			conn.state = stateFailed
			return nil, errors.Newf(protocol.ErrUnexpectedSignal,
				"insert preamble met %s", protocol.ServerSignalName(s.Type()))
		}
	}
}

// Append stages one row, in column order, and commits it.
func (b *Batch) Append(values ...interface{}) error {
	if b.sent {
		return errors.New(ErrBatchSent, "batch already sent")
	}
	if len(values) != len(b.block.Columns()) {
		return errors.Newf(ErrScanMismatch,
			"append of %d values into %d columns", len(values), len(b.block.Columns()))
	}
	for i, v := range values {
		if err := b.block.SetPlaceholder(i, v); err != nil {
			return err
		}
	}
	return b.block.AppendRow()
}

// Column exposes one column for bulk column-wise appends. Rows appended
// this way are adopted at Flush or Send; all columns must end up with
// the same length.
func (b *Batch) Column(idx int) (*BatchColumn, error) {
	if idx < 0 || idx >= len(b.block.Columns()) {
		return nil, errors.Newf(ErrScanMismatch,
			"column index %d outside batch of %d columns", idx, len(b.block.Columns()))
	}
	return &BatchColumn{batch: b, col: b.block.Columns()[idx]}, nil
}

// Rows is the number of rows staged so far.
func (b *Batch) Rows() int {
	if n := b.block.Columns(); len(n) > 0 {
		return n[0].Rows()
	}
	return 0
}

// IsSent reports whether Send already shipped the batch.
func (b *Batch) IsSent() bool { return b.sent }

// Flush ships the staged rows without finishing the insert, so a large
// load can travel in several blocks.
func (b *Batch) Flush() error {
	if b.sent {
		return errors.New(ErrBatchSent, "batch already sent")
	}
	if err := b.block.AdoptColumnRows(); err != nil {
		return err
	}
	if b.block.Rows() == 0 {
		return nil
	}
	if err := b.conn.sendData(b.ctx, "", b.block); err != nil {
		b.conn.state = stateFailed
		return err
	}
	b.block.Reset()
	return nil
}

// Send ships the remaining rows, terminates the data stream and drains
// the session back to Ready.
func (b *Batch) Send() error {
	if b.sent {
		return errors.New(ErrBatchSent, "batch already sent")
	}
	err := b.send()
	b.sent = true
	if b.onClose != nil {
		b.onClose(err)
	}
	return err
}

func (b *Batch) send() error {
	if err := b.Flush(); err != nil {
		return err
	}
	if err := b.conn.sendData(b.ctx, "", column.NewBlock()); err != nil {
		b.conn.state = stateFailed
		return err
	}
	return b.conn.drain(b.ctx)
}

// Abort abandons the batch and the session carrying it.
func (b *Batch) Abort() error {
	if b.sent {
		return errors.New(ErrBatchSent, "batch already sent")
	}
	b.sent = true
	b.conn.state = stateFailed
	if b.onClose != nil {
		b.onClose(errors.New(ErrBatchSent, "batch aborted"))
	}
	return nil
}

// BatchColumn appends values to a single column of a batch.
type BatchColumn struct {
	batch *Batch
	col   *column.Column
}

// Append stages values onto the column.
func (c *BatchColumn) Append(values ...interface{}) error {
	if c.batch.sent {
		return errors.New(ErrBatchSent, "batch already sent")
	}
	for _, v := range values {
		if err := c.col.Append(v); err != nil {
			return err
		}
	}
	return nil
}
