package compress

import (
	"strings"

	"github.com/gear6io/chnative/pkg/errors"
)

// Method is the one-byte compression tag of a frame header.
type Method byte

const (
	None Method = 0x02
	LZ4  Method = 0x82
	ZSTD Method = 0x90
)

func (m Method) String() string {
	switch m {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseMethod resolves a configuration string into a method tag.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return 0, errors.Newf(ErrUnknownMethod, "unknown compression method %q", s)
	}
}

// Frame header geometry. The checksum covers everything past itself:
// method byte, both size words, and the body.
const (
	checksumSize = 16
	headerSize   = 9
	maxFrameSize = 128 << 20
)
