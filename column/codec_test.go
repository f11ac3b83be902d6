package column

import (
	"bufio"
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/gear6io/chnative/binary"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func encodeColumn(t *testing.T, typeName string, values []interface{}) []byte {
	t.Helper()
	typ := MustParse(typeName)
	converted := make([]interface{}, len(values))
	for i, v := range values {
		c, err := convertValue(typ, v)
		if err != nil {
			t.Fatalf("convert %v into %s: %v", v, typeName, err)
		}
		converted[i] = c
	}
	var out bytes.Buffer
	w := binary.NewWriter(&out)
	if err := encodeInto(typ, converted, w); err != nil {
		t.Fatalf("encode %s: %v", typeName, err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return out.Bytes()
}

func decodeColumn(t *testing.T, typeName string, n int, wire []byte) []interface{} {
	t.Helper()
	typ := MustParse(typeName)
	r := binary.NewReader(bufio.NewReader(bytes.NewReader(wire)))
	values, err := decodeBulk(typ, n, r)
	if err != nil {
		t.Fatalf("decode %s: %v", typeName, err)
	}
	return values
}

func roundTrip(t *testing.T, typeName string, values []interface{}) []interface{} {
	t.Helper()
	wire := encodeColumn(t, typeName, values)
	return decodeColumn(t, typeName, len(values), wire)
}

func TestNumericWireLayout(t *testing.T) {
	wire := encodeColumn(t, "UInt32", []interface{}{uint32(1), uint32(258)})
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x01, 0x00, 0x00}
	if !bytes.Equal(wire, want) {
		t.Fatalf("UInt32 column = % x, want % x", wire, want)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	cases := []struct {
		typeName string
		values   []interface{}
	}{
		{"UInt8", []interface{}{uint8(0), uint8(255)}},
		{"UInt64", []interface{}{uint64(0), uint64(1) << 63}},
		{"Int8", []interface{}{int8(-128), int8(127)}},
		{"Int64", []interface{}{int64(-1), int64(1) << 62}},
		{"Float32", []interface{}{float32(1.5), float32(-0.25)}},
		{"Float64", []interface{}{3.14159, -2.5}},
	}
	for _, c := range cases {
		got := roundTrip(t, c.typeName, c.values)
		if !reflect.DeepEqual(got, c.values) {
			t.Errorf("%s round trip = %v, want %v", c.typeName, got, c.values)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	values := []interface{}{"", "hello", string([]byte{0xff, 0x00, 0xfe})}
	got := roundTrip(t, "String", values)
	for i, v := range got {
		if !bytes.Equal(v.([]byte), []byte(values[i].(string))) {
			t.Errorf("row %d = %q, want %q", i, v, values[i])
		}
	}
}

func TestFixedStringPadding(t *testing.T) {
	wire := encodeColumn(t, "FixedString(4)", []interface{}{"ab"})
	want := []byte{'a', 'b', 0x00, 0x00}
	if !bytes.Equal(wire, want) {
		t.Fatalf("FixedString(4) = % x, want % x", wire, want)
	}

	typ := MustParse("FixedString(2)")
	if _, err := convertValue(typ, "abc"); err == nil {
		t.Fatal("oversized FixedString value must be rejected")
	}
}

func TestDateRoundTrip(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got := roundTrip(t, "Date", []interface{}{day})
	if !got[0].(time.Time).Equal(day) {
		t.Fatalf("Date round trip = %v, want %v", got[0], day)
	}
}

func TestDateTime64RoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)
	got := roundTrip(t, "DateTime64(3)", []interface{}{ts})
	if !got[0].(time.Time).Equal(ts) {
		t.Fatalf("DateTime64(3) round trip = %v, want %v", got[0], ts)
	}
}

func TestDateTime64NegativeTicks(t *testing.T) {
	ts := time.Date(1969, 12, 31, 23, 59, 59, 900000000, time.UTC)
	got := roundTrip(t, "DateTime64(1)", []interface{}{ts})
	if !got[0].(time.Time).Equal(ts) {
		t.Fatalf("pre-epoch DateTime64 round trip = %v, want %v", got[0], ts)
	}
}

func TestDecimalWidths(t *testing.T) {
	cases := []struct {
		typeName string
		value    string
		width    int
	}{
		{"Decimal(9, 2)", "12345.67", 4},
		{"Decimal(18, 4)", "-1.5", 8},
		{"Decimal(38, 10)", "12345678901234567890.123", 16},
		{"Decimal(76, 20)", "-1", 32},
	}
	for _, c := range cases {
		d := decimal.RequireFromString(c.value)
		wire := encodeColumn(t, c.typeName, []interface{}{d})
		if len(wire) != c.width {
			t.Errorf("%s: wire width %d, want %d", c.typeName, len(wire), c.width)
			continue
		}
		got := decodeColumn(t, c.typeName, 1, wire)
		typ := MustParse(c.typeName)
		want := d.Round(int32(typ.Scale))
		if !got[0].(decimal.Decimal).Equal(want) {
			t.Errorf("%s round trip = %s, want %s", c.typeName, got[0], want)
		}
	}
}

func TestDecimalNegativeWideLimbs(t *testing.T) {
	// -1 scaled by 10^0 must be all-ones across every limb.
	wire := encodeColumn(t, "Decimal(76, 0)", []interface{}{decimal.NewFromInt(-1)})
	for i, b := range wire {
		if b != 0xff {
			t.Fatalf("byte %d = %#x, want 0xff", i, b)
		}
	}
}

func TestDecimalOverflow(t *testing.T) {
	typ := MustParse("Decimal(9, 2)")
	d := decimal.RequireFromString("99999999.99")
	var buf = NewWriterBuffer()
	if err := (decimalCodec{}).Encode(typ, []interface{}{d.Mul(decimal.NewFromInt(10))}, buf); err == nil {
		t.Fatal("value past the precision must not encode")
	}
}

func TestEnumRoundTrip(t *testing.T) {
	typeName := "Enum8('a' = 1, 'b' = 2)"
	got := roundTrip(t, typeName, []interface{}{"a", "b", int8(1)})
	want := []interface{}{int8(1), int8(2), int8(1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("enum round trip = %v, want %v", got, want)
	}

	typ := MustParse(typeName)
	if _, err := convertValue(typ, "c"); err == nil {
		t.Fatal("unknown enum member must be rejected")
	}
	if _, err := convertValue(typ, int8(3)); err == nil {
		t.Fatal("non-member enum value must be rejected")
	}
}

func TestUUIDWireLayout(t *testing.T) {
	u := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	wire := encodeColumn(t, "UUID", []interface{}{u})
	want := []byte{
		0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, 0x00,
		0xff, 0xee, 0xdd, 0xcc, 0xbb, 0xaa, 0x99, 0x88,
	}
	if !bytes.Equal(wire, want) {
		t.Fatalf("UUID = % x, want % x", wire, want)
	}
	got := decodeColumn(t, "UUID", 1, wire)
	if got[0].(uuid.UUID) != u {
		t.Fatalf("UUID round trip = %s, want %s", got[0], u)
	}
}

func TestNullableWireLayout(t *testing.T) {
	wire := encodeColumn(t, "Nullable(UInt8)", []interface{}{uint8(1), nil, uint8(3)})
	want := []byte{
		0x00, 0x01, 0x00, // null-map
		0x01, 0x00, 0x03, // inner column, default at the null row
	}
	if !bytes.Equal(wire, want) {
		t.Fatalf("Nullable(UInt8) = % x, want % x", wire, want)
	}
	got := decodeColumn(t, "Nullable(UInt8)", 3, wire)
	wantValues := []interface{}{uint8(1), nil, uint8(3)}
	if !reflect.DeepEqual(got, wantValues) {
		t.Fatalf("round trip = %v, want %v", got, wantValues)
	}
}

func TestArrayWireLayout(t *testing.T) {
	values := []interface{}{
		[]interface{}{uint8(1), uint8(2)},
		[]interface{}{},
		[]interface{}{uint8(3)},
	}
	wire := encodeColumn(t, "Array(UInt8)", values)
	want := []byte{
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // end offset 2
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // end offset 2
		0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // end offset 3
		0x01, 0x02, 0x03,
	}
	if !bytes.Equal(wire, want) {
		t.Fatalf("Array(UInt8) = % x, want % x", wire, want)
	}
}

func TestArrayOfNullableOrdering(t *testing.T) {
	values := []interface{}{
		[]interface{}{uint8(7), nil},
	}
	wire := encodeColumn(t, "Array(Nullable(UInt8))", values)
	want := []byte{
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // offsets
		0x00, 0x01, // null-map of the flattened elements
		0x07, 0x00, // payload
	}
	if !bytes.Equal(wire, want) {
		t.Fatalf("Array(Nullable(UInt8)) = % x, want % x", wire, want)
	}
	got := decodeColumn(t, "Array(Nullable(UInt8))", 1, wire)
	if !reflect.DeepEqual(got, []interface{}{[]interface{}{uint8(7), nil}}) {
		t.Fatalf("round trip = %v", got)
	}
}

func TestNestedArrayRoundTrip(t *testing.T) {
	values := []interface{}{
		[]interface{}{
			[]interface{}{int32(1)},
			[]interface{}{int32(2), int32(3)},
		},
		[]interface{}{},
	}
	got := roundTrip(t, "Array(Array(Int32))", values)
	if !reflect.DeepEqual(got, values) {
		t.Fatalf("round trip = %v, want %v", got, values)
	}
}

func TestTupleRoundTrip(t *testing.T) {
	values := []interface{}{
		[]interface{}{uint8(1), "one"},
		[]interface{}{uint8(2), "two"},
	}
	got := roundTrip(t, "Tuple(UInt8, String)", values)
	want := []interface{}{
		[]interface{}{uint8(1), []byte("one")},
		[]interface{}{uint8(2), []byte("two")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %v, want %v", got, want)
	}
}

func TestTupleOfNullableKeepsSubColumnOrder(t *testing.T) {
	// Each element's null-map must sit directly ahead of that element's
	// payload, not pooled at the front of the tuple.
	values := []interface{}{
		[]interface{}{nil, uint8(9)},
	}
	wire := encodeColumn(t, "Tuple(Nullable(UInt8), Nullable(UInt8))", values)
	want := []byte{
		0x01, 0x00, // first element: null-map, payload
		0x00, 0x09, // second element: null-map, payload
	}
	if !bytes.Equal(wire, want) {
		t.Fatalf("tuple wire = % x, want % x", wire, want)
	}
}

func TestMapRoundTrip(t *testing.T) {
	values := []interface{}{
		[][2]interface{}{{"a", int64(1)}, {"b", int64(2)}},
		[][2]interface{}{},
	}
	typ := MustParse("Map(String, Int64)")
	converted := make([]interface{}, len(values))
	for i, v := range values {
		c, err := convertValue(typ, v)
		if err != nil {
			t.Fatalf("convert: %v", err)
		}
		converted[i] = c
	}
	var out bytes.Buffer
	w := binary.NewWriter(&out)
	if err := encodeInto(typ, converted, w); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got := decodeColumn(t, "Map(String, Int64)", 2, out.Bytes())
	first := got[0].([][2]interface{})
	if len(first) != 2 || !bytes.Equal(first[0][0].([]byte), []byte("a")) || first[0][1] != int64(1) {
		t.Fatalf("row 0 = %v", first)
	}
	if len(got[1].([][2]interface{})) != 0 {
		t.Fatalf("row 1 = %v, want empty", got[1])
	}
}

func TestLowCardinalityWireLayout(t *testing.T) {
	values := []interface{}{"x", "y", "x"}
	wire := encodeColumn(t, "LowCardinality(String)", values)
	want := []byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // version
		0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // flags: UInt8 indices | additional keys
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // dictionary size
		0x01, 'x', 0x01, 'y', // dictionary
		0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // index count
		0x00, 0x01, 0x00, // indices
	}
	if !bytes.Equal(wire, want) {
		t.Fatalf("LowCardinality(String) = % x, want % x", wire, want)
	}
	got := decodeColumn(t, "LowCardinality(String)", 3, wire)
	for i, s := range []string{"x", "y", "x"} {
		if !bytes.Equal(got[i].([]byte), []byte(s)) {
			t.Errorf("row %d = %q, want %q", i, got[i], s)
		}
	}
}

func TestLowCardinalityEmpty(t *testing.T) {
	wire := encodeColumn(t, "LowCardinality(String)", nil)
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(wire, want) {
		t.Fatalf("empty LowCardinality = % x, want % x", wire, want)
	}
	got := decodeColumn(t, "LowCardinality(String)", 0, wire)
	if len(got) != 0 {
		t.Fatalf("decoded %d rows from an empty column", len(got))
	}
}

func TestArrayOffsetsNotMonotonic(t *testing.T) {
	wire := []byte{
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	typ := MustParse("Array(UInt8)")
	r := binary.NewReader(bufio.NewReader(bytes.NewReader(wire)))
	if _, err := decodeBulk(typ, 2, r); err == nil {
		t.Fatal("shrinking offsets must not decode")
	}
}
