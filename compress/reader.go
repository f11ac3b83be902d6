package compress

import (
	"encoding/binary"
	"io"

	"github.com/go-faster/city"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/gear6io/chnative/pkg/errors"
)

// Reader turns a stream of checksummed frames back into plaintext. It
// satisfies io.Reader, pulling one frame at a time from the source; the
// checksum is verified before any byte of a frame is handed out.
type Reader struct {
	src io.Reader

	plain []byte
	pos   int

	raw  []byte
	zstd *zstd.Decoder
}

// NewReader creates a frame reader.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= len(r.plain) {
		if err := r.readFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.plain[r.pos:])
	r.pos += n
	return n, nil
}

func (r *Reader) readFrame() error {
	var head [checksumSize + headerSize]byte
	if _, err := io.ReadFull(r.src, head[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return errors.Wrap(ErrFrameCorrupt, err, "read frame header")
	}

	method := Method(head[checksumSize])
	compressedSize := binary.LittleEndian.Uint32(head[checksumSize+1:])
	plainSize := binary.LittleEndian.Uint32(head[checksumSize+5:])
	if compressedSize < headerSize || compressedSize > maxFrameSize || plainSize > maxFrameSize {
		return errors.Newf(ErrFrameCorrupt, "implausible frame of %d/%d bytes", compressedSize, plainSize)
	}

	bodyLen := int(compressedSize) - headerSize
	if cap(r.raw) < headerSize+bodyLen {
		r.raw = make([]byte, headerSize+bodyLen)
	}
	raw := r.raw[:headerSize+bodyLen]
	copy(raw, head[checksumSize:])
	if _, err := io.ReadFull(r.src, raw[headerSize:]); err != nil {
		return errors.Wrap(ErrFrameCorrupt, err, "read frame body")
	}

	sum := city.CH128(raw)
	wantLow := binary.LittleEndian.Uint64(head[0:])
	wantHigh := binary.LittleEndian.Uint64(head[8:])
	if sum.Low != wantLow || sum.High != wantHigh {
		return errors.Newf(ErrChecksumMismatch,
			"frame checksum %016x%016x does not match %016x%016x",
			sum.High, sum.Low, wantHigh, wantLow)
	}

	body := raw[headerSize:]
	switch method {
	case None:
		if int(plainSize) != len(body) {
			return errors.Newf(ErrFrameCorrupt, "raw frame declares %d bytes, carries %d", plainSize, len(body))
		}
		r.plain = append(r.plain[:0], body...)
	case LZ4:
		if cap(r.plain) < int(plainSize) {
			r.plain = make([]byte, plainSize)
		}
		r.plain = r.plain[:plainSize]
		n, err := lz4.UncompressBlock(body, r.plain)
		if err != nil {
			return errors.Wrap(ErrFrameCorrupt, err, "lz4 decompress")
		}
		if n != int(plainSize) {
			return errors.Newf(ErrFrameCorrupt, "lz4 frame declares %d bytes, yields %d", plainSize, n)
		}
	case ZSTD:
		if r.zstd == nil {
			dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
			if err != nil {
				return errors.Wrap(ErrFrameCorrupt, err, "init zstd decoder")
			}
			r.zstd = dec
		}
		plain, err := r.zstd.DecodeAll(body, r.plain[:0])
		if err != nil {
			return errors.Wrap(ErrFrameCorrupt, err, "zstd decompress")
		}
		if len(plain) != int(plainSize) {
			return errors.Newf(ErrFrameCorrupt, "zstd frame declares %d bytes, yields %d", plainSize, len(plain))
		}
		r.plain = plain
	default:
		return errors.Newf(ErrUnknownMethod, "frame method %#x", byte(method))
	}

	r.pos = 0
	return nil
}
