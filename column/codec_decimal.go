package column

import (
	"math/big"

	"github.com/gear6io/chnative/binary"
	"github.com/gear6io/chnative/pkg/errors"
	"github.com/shopspring/decimal"
)

// decimalCodec serializes Decimal(P, S) as a fixed-width two's-complement
// little-endian integer holding round(value * 10^S). The width follows the
// precision: up to 9 digits in 32 bits, 18 in 64, 38 in 128, 76 in 256.
// Wide values travel as consecutive little-endian 64-bit limbs, least
// significant first; every limb comes from the converted integer.
type decimalCodec struct{}

func init() {
	RegisterCodec(KindDecimal, decimalCodec{})
}

// decimalByteWidth picks the storage width in bytes from the precision.
func decimalByteWidth(precision int) int {
	switch {
	case precision <= 9:
		return 4
	case precision <= 18:
		return 8
	case precision <= 38:
		return 16
	default:
		return 32
	}
}

func (decimalCodec) Encode(t *Type, values []interface{}, buf *WriterBuffer) error {
	width := decimalByteWidth(t.Precision)
	w := buf.Primary
	for i, v := range values {
		d := v.(decimal.Decimal)
		// Scale to an integer with half-up rounding.
		scaled := d.Shift(int32(t.Scale)).Round(0).BigInt()
		switch width {
		case 4:
			if !scaled.IsInt64() || scaled.Int64() > 1<<31-1 || scaled.Int64() < -1<<31 {
				return decimalOverflow(t, i, d)
			}
			if err := w.Int32(int32(scaled.Int64())); err != nil {
				return err
			}
		case 8:
			if !scaled.IsInt64() {
				return decimalOverflow(t, i, d)
			}
			if err := w.Int64(scaled.Int64()); err != nil {
				return err
			}
		default:
			limbs, err := bigIntToLE(scaled, width)
			if err != nil {
				return decimalOverflow(t, i, d)
			}
			if err := w.Fixed(limbs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (decimalCodec) Decode(t *Type, n int, r *binary.Reader) ([]interface{}, error) {
	width := decimalByteWidth(t.Precision)
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		var unscaled *big.Int
		switch width {
		case 4:
			v, err := r.Int32()
			if err != nil {
				return nil, err
			}
			unscaled = big.NewInt(int64(v))
		case 8:
			v, err := r.Int64()
			if err != nil {
				return nil, err
			}
			unscaled = big.NewInt(v)
		default:
			raw, err := r.Fixed(width)
			if err != nil {
				return nil, err
			}
			unscaled = bigIntFromLE(raw)
		}
		values[i] = decimal.NewFromBigInt(unscaled, -int32(t.Scale))
	}
	return values, nil
}

// bigIntToLE renders v as a two's-complement little-endian integer of
// size bytes.
func bigIntToLE(v *big.Int, size int) ([]byte, error) {
	bits := uint(size * 8)
	half := new(big.Int).Lsh(big.NewInt(1), bits-1)
	if v.Cmp(half) >= 0 || v.Cmp(new(big.Int).Neg(half)) < 0 {
		return nil, errors.Newf(ErrValueConversion, "integer does not fit in %d bits", bits)
	}
	twos := new(big.Int).Set(v)
	if twos.Sign() < 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), bits)
		twos.Add(twos, modulus)
	}
	be := make([]byte, size)
	twos.FillBytes(be)
	le := make([]byte, size)
	for i := range be {
		le[i] = be[size-1-i]
	}
	return le, nil
}

// bigIntFromLE reads a two's-complement little-endian integer.
func bigIntFromLE(le []byte) *big.Int {
	size := len(le)
	be := make([]byte, size)
	for i := range le {
		be[i] = le[size-1-i]
	}
	v := new(big.Int).SetBytes(be)
	if be[0]&0x80 != 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
		v.Sub(v, modulus)
	}
	return v
}

func decimalOverflow(t *Type, row int, d decimal.Decimal) error {
	return errors.Newf(ErrValueConversion, "row %d: %s does not fit %s", row, d.String(), t.Name)
}
