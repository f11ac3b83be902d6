package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/gear6io/chnative/pkg/errors"
)

func frameRoundTrip(t *testing.T, method Method, payload []byte) []byte {
	t.Helper()
	var wire bytes.Buffer
	w, err := NewWriter(&wire, method)
	if err != nil {
		t.Fatalf("NewWriter(%s): %v", method, err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := io.ReadAll(NewReader(&wire))
	if err != nil && err != io.EOF {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("%s round trip yielded %d bytes, want %d", method, len(got), len(payload))
	}
	return got
}

func testPayload() []byte {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 7)
	}
	return payload
}

func TestFrameRoundTrip(t *testing.T) {
	for _, method := range []Method{None, LZ4, ZSTD} {
		frameRoundTrip(t, method, testPayload())
	}
}

func TestFrameLayout(t *testing.T) {
	payload := []byte("hello")
	var wire bytes.Buffer
	w, err := NewWriter(&wire, None)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	frame := wire.Bytes()
	if len(frame) != checksumSize+headerSize+len(payload) {
		t.Fatalf("frame length = %d", len(frame))
	}
	if frame[checksumSize] != byte(None) {
		t.Fatalf("method byte = %#x", frame[checksumSize])
	}
	// compressedSize counts the 9-byte header.
	if got := frame[checksumSize+1]; got != byte(headerSize+len(payload)) {
		t.Fatalf("compressed size = %d", got)
	}
	if got := frame[checksumSize+5]; got != byte(len(payload)) {
		t.Fatalf("uncompressed size = %d", got)
	}
}

func TestLZ4StoresIncompressibleInput(t *testing.T) {
	// A few bytes are below lz4's minimum match length, so lz4 cannot
	// shrink them and the frame must carry the plaintext instead.
	payload := []byte{0x01, 0x02, 0x03}
	var wire bytes.Buffer
	w, err := NewWriter(&wire, LZ4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	frame := wire.Bytes()
	if frame[checksumSize] != byte(None) {
		t.Fatalf("method byte = %#x, want stored frame %#x", frame[checksumSize], byte(None))
	}
	if !bytes.Equal(frame[checksumSize+headerSize:], payload) {
		t.Fatal("stored frame body differs from the plaintext")
	}

	got, err := io.ReadAll(NewReader(&wire))
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("stored frame round trip yielded %v", got)
	}
}

func TestChecksumMismatch(t *testing.T) {
	var wire bytes.Buffer
	w, err := NewWriter(&wire, LZ4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(testPayload()); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	frame := wire.Bytes()
	frame[checksumSize+headerSize] ^= 0xff

	_, err = io.ReadAll(NewReader(bytes.NewReader(frame)))
	if !errors.HasCode(err, ErrChecksumMismatch) {
		t.Fatalf("corrupted frame error = %v, want checksum mismatch", err)
	}
}

func TestMultipleFrames(t *testing.T) {
	var wire bytes.Buffer
	w, err := NewWriter(&wire, LZ4)
	if err != nil {
		t.Fatal(err)
	}
	first := bytes.Repeat([]byte("abc"), 100)
	second := bytes.Repeat([]byte("xyz"), 200)
	if _, err := w.Write(first); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(second); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	got, err := io.ReadAll(NewReader(&wire))
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if !bytes.Equal(got, append(append([]byte{}, first...), second...)) {
		t.Fatal("concatenated frames did not round trip")
	}
}

func TestEmptyFlushWritesNothing(t *testing.T) {
	var wire bytes.Buffer
	w, err := NewWriter(&wire, LZ4)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if wire.Len() != 0 {
		t.Fatalf("empty flush wrote %d bytes", wire.Len())
	}
}

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"":     None,
		"none": None,
		"lz4":  LZ4,
		"LZ4":  LZ4,
		"zstd": ZSTD,
	}
	for in, want := range cases {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMethod("snappy"); err == nil {
		t.Fatal("unknown method must be rejected")
	}
}
