package row_block

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/DataDog/zstd"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/golang/snappy"
)

const zstdLevel = 3

// CompressionType is the per-block compression algorithm. Its value is stored
// in the block trailer.
type CompressionType byte

const (
	NoCompression CompressionType = iota
	SnappyCompression
	ZstdCompression
)

func (c CompressionType) String() string {
	switch c {
	case NoCompression:
		return "none"
	case SnappyCompression:
		return "snappy"
	case ZstdCompression:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

type ICompression interface {
	GetType() CompressionType
	// Compress a block, appending the compressed data to dst[:0].
	Compress(dst, src []byte) []byte
	// Decompress decompresses compressed into buf. The buf slice must have the
	// exact size as the decompressed value.
	Decompress(buf, compressed []byte) error
	// DecompressedLen returns the length of the provided block once
	// decompressed.
	DecompressedLen(b []byte) (int, error)
}

type snappyCompressor struct{}

func (s *snappyCompressor) GetType() CompressionType {
	return SnappyCompression
}

func (s *snappyCompressor) Compress(dst, src []byte) []byte {
	dst = dst[:cap(dst):cap(dst)]
	return snappy.Encode(dst, src)
}

func (s *snappyCompressor) Decompress(buf, compressed []byte) error {
	res, err := snappy.Decode(buf, compressed)
	if err != nil {
		return fmt.Errorf("%w: snappy: %v", common.CorruptionError, err)
	}
	if len(res) != len(buf) || (len(res) > 0 && &res[0] != &buf[0]) {
		return fmt.Errorf("%w: snappy: decompressed length mismatch", common.CorruptionError)
	}
	return nil
}

func (s *snappyCompressor) DecompressedLen(b []byte) (int, error) {
	n, err := snappy.DecodedLen(b)
	if err != nil {
		return 0, fmt.Errorf("%w: snappy: %v", common.CorruptionError, err)
	}
	return n, nil
}

// zstdCompressor prefixes the zstd frame with the uvarint length of the
// uncompressed block.
type zstdCompressor struct{}

func (z *zstdCompressor) GetType() CompressionType {
	return ZstdCompression
}

func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	bound := zstd.CompressBound(len(src))
	if cap(dst) < binary.MaxVarintLen64+bound {
		dst = make([]byte, 0, binary.MaxVarintLen64+bound)
	}
	dst = dst[:binary.MaxVarintLen64+bound]

	varIntLen := binary.PutUvarint(dst, uint64(len(src)))
	result, err := zstd.NewCtx().CompressLevel(dst[varIntLen:varIntLen+bound], src, zstdLevel)
	if err != nil {
		panic(fmt.Sprintf("zstd: %v", err))
	}
	if len(result) > 0 && &result[0] != &dst[varIntLen] {
		panic("zstd: allocated a new buffer despite CompressBound")
	}
	return dst[:varIntLen+len(result)]
}

func (z *zstdCompressor) Decompress(buf, compressed []byte) error {
	_, prefixLen := binary.Uvarint(compressed)
	if prefixLen <= 0 {
		return fmt.Errorf("%w: zstd: bad length prefix", common.CorruptionError)
	}
	compressed = compressed[prefixLen:]
	if len(compressed) == 0 {
		return fmt.Errorf("%w: zstd: empty src buffer", common.CorruptionError)
	}
	n, err := zstd.NewCtx().DecompressInto(buf, compressed)
	if err != nil {
		return fmt.Errorf("%w: zstd: %v", common.CorruptionError, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: zstd: decompressed %d bytes, want %d", common.CorruptionError, n, len(buf))
	}
	return nil
}

func (z *zstdCompressor) DecompressedLen(b []byte) (int, error) {
	n, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: zstd: bad decompressed length", common.CorruptionError)
	}
	return int(n), nil
}

// NewCompressor returns the codec of ct, or nil for NoCompression.
func NewCompressor(ct CompressionType) (ICompression, error) {
	switch ct {
	case NoCompression:
		return nil, nil
	case SnappyCompression:
		return &snappyCompressor{}, nil
	case ZstdCompression:
		return &zstdCompressor{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression type %s", common.InvalidArgumentError, ct)
	}
}

var (
	_ ICompression = (*snappyCompressor)(nil)
	_ ICompression = (*zstdCompressor)(nil)
)
