package sdk

import (
	"context"
	"reflect"
	"time"

	"github.com/gear6io/chnative/column"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/gear6io/chnative/protocol"
	"github.com/gear6io/chnative/protocol/signals"
)

// Rows streams the result blocks of a query. Blocks are pulled from the
// session lazily as Next advances, so a caller that stops early must
// Close to put the session back in a usable state.
type Rows struct {
	ctx     context.Context
	conn    *connection
	onClose func(err error)

	structure *column.Block
	block     *column.Block
	rowIdx    int

	totals   *column.Block
	extremes *column.Block
	profile  *signals.ServerProfileInfo

	err    error
	done   bool
	closed bool
}

func newRows(ctx context.Context, conn *connection, onClose func(error)) *Rows {
	return &Rows{ctx: ctx, conn: conn, onClose: onClose, rowIdx: -1}
}

// prime pulls signals up to the first data block so the column structure
// is known before the caller starts iterating. A stream failure is
// returned; a server exception is captured for Err instead.
func (r *Rows) prime() error {
	if err := r.fetch(); err != nil {
		r.err = err
		r.done = true
		return err
	}
	return nil
}

// Next advances to the following row, fetching blocks from the session
// as needed. It returns false once the stream is exhausted or broken;
// Err tells the two apart.
func (r *Rows) Next() bool {
	if r.closed || r.done {
		return false
	}
	if r.block != nil && r.rowIdx+1 < r.block.Rows() {
		r.rowIdx++
		return true
	}
	for {
		if err := r.fetch(); err != nil {
			r.err = err
			r.done = true
			return false
		}
		if r.done {
			return false
		}
		if r.block != nil && r.block.Rows() > 0 {
			r.rowIdx = 0
			return true
		}
	}
}

// fetch consumes server signals until a result block, the end of the
// stream, or a failure. Exceptions are captured and the stream is still
// drained so the session lands back in Ready.
func (r *Rows) fetch() error {
	r.block = nil
	for {
		sig, err := r.conn.receive(r.ctx)
		if err != nil {
			return err
		}
		if r.conn.state == stateQuerySent {
			r.conn.state = stateStreaming
		}
		switch s := sig.(type) {
		case *dataSignal:
			switch s.kind {
			case protocol.ServerData:
				if s.Block.Rows() == 0 {
					// Header block: structure only.
					if r.structure == nil {
						r.structure = s.Block
					}
					continue
				}
				r.block = s.Block
				return nil
			case protocol.ServerTotals:
				r.totals = s.Block
			case protocol.ServerExtremes:
				r.extremes = s.Block
			case protocol.ServerLog:
				r.conn.notifyData(s)
			}
		case *signals.ServerProgress:
			r.conn.notifyProgress(s)
		case *signals.ServerProfileInfo:
			r.conn.notifyProfile(s)
			r.profile = s
		case *signals.ServerException:
			if r.err == nil {
				r.err = exceptionError(s)
			}
		case *signals.ServerEndOfStream:
			r.conn.state = stateReady
			r.done = true
			return nil
		default:
			return errors.Newf(protocol.ErrUnexpectedSignal,
				"result stream met %s", protocol.ServerSignalName(s.Type()))
		}
	}
}

// Columns lists the result column names, available once the header block
// or the first data block has arrived.
func (r *Rows) Columns() []string {
	block := r.block
	if block == nil {
		block = r.structure
	}
	if block == nil {
		return nil
	}
	cols := block.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// ColumnTypes lists the canonical type names of the result columns.
func (r *Rows) ColumnTypes() []string {
	block := r.block
	if block == nil {
		block = r.structure
	}
	if block == nil {
		return nil
	}
	cols := block.Columns()
	types := make([]string, len(cols))
	for i, c := range cols {
		types[i] = c.Type.Name
	}
	return types
}

// Scan copies the current row into dest, one pointer per column.
func (r *Rows) Scan(dest ...interface{}) error {
	if r.block == nil || r.rowIdx < 0 || r.rowIdx >= r.block.Rows() {
		return errors.New(ErrInvalidState, "Scan called without a row; call Next first")
	}
	cols := r.block.Columns()
	if len(dest) != len(cols) {
		return errors.Newf(ErrScanMismatch, "scan wants %d destinations, row has %d columns", len(dest), len(cols))
	}
	for i, col := range cols {
		if err := scanValue(dest[i], r.projectValue(col, col.Value(r.rowIdx))); err != nil {
			return errors.Wrapf(ErrScanMismatch, err, "column %q", col.Name)
		}
	}
	return nil
}

// projectValue rebuilds Date values at midnight in the server timezone.
// The wire carries a bare day count, so the zone is a session property,
// unlike DateTime whose descriptor names its own.
func (r *Rows) projectValue(col *column.Column, v interface{}) interface{} {
	loc := r.conn.location
	if loc == nil || !isDateType(col.Type) {
		return v
	}
	ts, ok := v.(time.Time)
	if !ok {
		return v
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func isDateType(t *column.Type) bool {
	switch t.Kind {
	case column.KindDate:
		return true
	case column.KindNullable, column.KindLowCardinality:
		return isDateType(t.Elem)
	}
	return false
}

// Totals is the totals block, when the query produced one.
func (r *Rows) Totals() *column.Block { return r.totals }

// Extremes is the extremes block, when the query produced one.
func (r *Rows) Extremes() *column.Block { return r.extremes }

// ProfileInfo is the final profile report, when the server sent one.
func (r *Rows) ProfileInfo() *signals.ServerProfileInfo { return r.profile }

// Err reports a stream failure or a captured server exception.
func (r *Rows) Err() error { return r.err }

// Close releases the session. If the stream is still open the query is
// cancelled and the remaining signals drained first.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.err
	if !r.done {
		if r.conn.state == stateStreaming {
			if cancelErr := r.conn.cancel(r.ctx); cancelErr != nil && err == nil {
				err = cancelErr
			}
		}
		if r.conn.state != stateFailed {
			if drainErr := r.conn.drain(r.ctx); drainErr != nil && err == nil {
				err = drainErr
			}
		}
	}
	if r.onClose != nil {
		r.onClose(err)
	}
	return err
}

// Row is a single-row result. Scan both reads and closes it.
type Row struct {
	rows *Rows
	err  error
}

// Scan reads the first result row into dest and closes the stream. With
// no rows it returns ErrNoRows.
func (r *Row) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	defer func() { _ = r.rows.Close() }()
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return err
		}
		return errors.New(ErrNoRows, "query returned no rows")
	}
	return r.rows.Scan(dest...)
}

// Err surfaces a dispatch failure without scanning.
func (r *Row) Err() error { return r.err }

// scanValue assigns a decoded column value to a destination pointer.
// Nullable columns yield nil, which maps to the zero value through a
// plain pointer and to nil through a pointer-to-pointer.
func scanValue(dest, value interface{}) error {
	if dest == nil {
		return errors.New(ErrScanMismatch, "nil destination")
	}
	if d, ok := dest.(*interface{}); ok {
		*d = value
		return nil
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return errors.Newf(ErrScanMismatch, "destination %T is not a pointer", dest)
	}
	elem := dv.Elem()
	if value == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	sv := reflect.ValueOf(value)
	// Pointer destinations receive a freshly allocated value.
	if elem.Kind() == reflect.Ptr {
		target := elem.Type().Elem()
		if !sv.Type().AssignableTo(target) && !sv.Type().ConvertibleTo(target) {
			return errors.Newf(ErrScanMismatch, "cannot scan %T into %T", value, dest)
		}
		p := reflect.New(target)
		p.Elem().Set(sv.Convert(target))
		elem.Set(p)
		return nil
	}
	if sv.Type().AssignableTo(elem.Type()) {
		elem.Set(sv)
		return nil
	}
	if sv.Type().ConvertibleTo(elem.Type()) {
		converted := sv.Convert(elem.Type())
		// Refuse lossy numeric-to-string conversions reflect allows;
		// String columns arrive as []byte and convert as-is.
		if elem.Kind() == reflect.String && sv.Kind() != reflect.String && sv.Type() != reflect.TypeOf([]byte(nil)) {
			return errors.Newf(ErrScanMismatch, "cannot scan %T into %T", value, dest)
		}
		elem.Set(converted)
		return nil
	}
	return errors.Newf(ErrScanMismatch, "cannot scan %T into %T", value, dest)
}
