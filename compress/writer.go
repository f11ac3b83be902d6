package compress

import (
	"encoding/binary"
	"io"

	"github.com/go-faster/city"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/gear6io/chnative/pkg/errors"
)

// Writer buffers plaintext and emits it as one checksummed frame per
// Flush. It satisfies io.Writer so a binary writer can stack on top.
type Writer struct {
	dst    io.Writer
	method Method

	plain []byte
	frame []byte

	lz4  lz4.Compressor
	zstd *zstd.Encoder
}

// NewWriter creates a frame writer for the method.
func NewWriter(dst io.Writer, method Method) (*Writer, error) {
	w := &Writer{dst: dst, method: method}
	if method == ZSTD {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errors.Wrap(ErrFrameCorrupt, err, "init zstd encoder")
		}
		w.zstd = enc
	}
	return w, nil
}

// Write stages plaintext for the next frame.
func (w *Writer) Write(p []byte) (int, error) {
	w.plain = append(w.plain, p...)
	return len(p), nil
}

// Flush compresses the staged plaintext into a single frame and writes
// it out. A flush with nothing staged is a no-op.
func (w *Writer) Flush() error {
	if len(w.plain) == 0 {
		return nil
	}
	method, body, err := w.compress(w.plain)
	if err != nil {
		return err
	}

	total := checksumSize + headerSize + len(body)
	if cap(w.frame) < total {
		w.frame = make([]byte, total)
	}
	frame := w.frame[:total]

	frame[checksumSize] = byte(method)
	binary.LittleEndian.PutUint32(frame[checksumSize+1:], uint32(headerSize+len(body)))
	binary.LittleEndian.PutUint32(frame[checksumSize+5:], uint32(len(w.plain)))
	copy(frame[checksumSize+headerSize:], body)

	sum := city.CH128(frame[checksumSize:])
	binary.LittleEndian.PutUint64(frame[0:], sum.Low)
	binary.LittleEndian.PutUint64(frame[8:], sum.High)

	w.plain = w.plain[:0]
	if _, err := w.dst.Write(frame); err != nil {
		return errors.Wrap(ErrFrameCorrupt, err, "write frame")
	}
	return nil
}

// compress returns the frame body and the method byte to stamp on it.
// The method can differ from the configured one: input that lz4 does not
// shrink is stored as-is under method None.
func (w *Writer) compress(plain []byte) (Method, []byte, error) {
	switch w.method {
	case None:
		return None, plain, nil
	case LZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(plain)))
		n, err := w.lz4.CompressBlock(plain, dst)
		if err != nil {
			return 0, nil, errors.Wrap(ErrFrameCorrupt, err, "lz4 compress")
		}
		if n == 0 || n >= len(plain) {
			return None, plain, nil
		}
		return LZ4, dst[:n], nil
	case ZSTD:
		return ZSTD, w.zstd.EncodeAll(plain, nil), nil
	default:
		return 0, nil, errors.Newf(ErrUnknownMethod, "method %#x", byte(w.method))
	}
}
