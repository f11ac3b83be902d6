package column

import (
	"time"

	"github.com/gear6io/chnative/binary"
)

const secondsPerDay = 24 * 3600

// dateCodec: UInt16 day count since the epoch, timezone-free.
type dateCodec struct{}

// dateTimeCodec: UInt32 seconds since the epoch. The timezone parameter of
// DateTime('TZ') annotates presentation only; the wire value is UTC.
type dateTimeCodec struct{}

// dateTime64Codec: Int64 tick count where one tick is 10^-P seconds.
type dateTime64Codec struct{}

func init() {
	RegisterCodec(KindDate, dateCodec{})
	RegisterCodec(KindDateTime, dateTimeCodec{})
	RegisterCodec(KindDateTime64, dateTime64Codec{})
}

func (dateCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	for _, v := range values {
		days := v.(time.Time).Unix() / secondsPerDay
		if err := buf.Primary.UInt16(uint16(days)); err != nil {
			return err
		}
	}
	return nil
}

func (dateCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		days, err := r.UInt16()
		if err != nil {
			return nil, err
		}
		values[i] = time.Unix(int64(days)*secondsPerDay, 0).UTC()
	}
	return values, nil
}

func (dateTimeCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	for _, v := range values {
		if err := buf.Primary.UInt32(uint32(v.(time.Time).Unix())); err != nil {
			return err
		}
	}
	return nil
}

func (dateTimeCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	loc := t.location()
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		sec, err := r.UInt32()
		if err != nil {
			return nil, err
		}
		values[i] = time.Unix(int64(sec), 0).In(loc)
	}
	return values, nil
}

func (dateTime64Codec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	div := int64(1)
	for p := t.Scale; p < 9; p++ {
		div *= 10
	}
	for _, v := range values {
		ts := v.(time.Time)
		ticks := ts.Unix()*pow10(t.Scale) + int64(ts.Nanosecond())/div
		if err := buf.Primary.Int64(ticks); err != nil {
			return err
		}
	}
	return nil
}

func (dateTime64Codec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	loc := t.location()
	scale := pow10(t.Scale)
	nanoMul := int64(1)
	for p := t.Scale; p < 9; p++ {
		nanoMul *= 10
	}
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		ticks, err := r.Int64()
		if err != nil {
			return nil, err
		}
		sec := ticks / scale
		frac := ticks % scale
		if frac < 0 {
			sec--
			frac += scale
		}
		values[i] = time.Unix(sec, frac*nanoMul).In(loc)
	}
	return values, nil
}

func pow10(p int) int64 {
	v := int64(1)
	for i := 0; i < p; i++ {
		v *= 10
	}
	return v
}

// location resolves the presentation timezone of a DateTime descriptor.
// The wire value stays UTC regardless.
func (t *Type) location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
