package row_block

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	bufferpool "github.com/datnguyenzzz/nogodb/lib/go-bytesbufferpool"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"go.uber.org/zap"
)

// A physical block is the (possibly compressed) payload followed by a
// trailer:
//
//	+---------------------+-------------------------+------------------------+
//	| payload (varlen)    | compression type (1 B)  | crc32 checksum (4 B)   |
//	+---------------------+-------------------------+------------------------+
//
// The checksum covers the payload and the compression type.
const blockTrailerLen = 5

func checksum(payload []byte, ct CompressionType) uint32 {
	c := crc32.ChecksumIEEE(payload)
	return crc32.Update(c, crc32.IEEETable, []byte{byte(ct)})
}

func appendTrailer(dst, payload []byte, ct CompressionType) []byte {
	dst = append(dst, byte(ct))
	return binary.LittleEndian.AppendUint32(dst, checksum(payload, ct))
}

// Block is the uncompressed content of a row block.
type Block struct {
	data   []byte
	pooled bool
}

func (b *Block) Data() []byte {
	return b.data
}

// Release hands a decompression buffer back to the pool. Keys and values read
// from the block must not be used afterwards.
func (b *Block) Release() {
	if b.pooled {
		bufferpool.Put(b.data)
	}
	b.data = nil
	b.pooled = false
}

// ReadBlock verifies the trailer of a physical block and decompresses its
// payload. An uncompressed payload is borrowed from physical.
func ReadBlock(physical []byte) (*Block, error) {
	if len(physical) < blockTrailerLen {
		return nil, fmt.Errorf("%w: block too small, size=%d", common.CorruptionError, len(physical))
	}
	payload := physical[:len(physical)-blockTrailerLen]
	trailer := physical[len(physical)-blockTrailerLen:]
	ct := CompressionType(trailer[0])

	if want, got := binary.LittleEndian.Uint32(trailer[1:]), checksum(payload, ct); want != got {
		zap.L().Error("block checksum mismatch", zap.Uint32("want", want), zap.Uint32("got", got))
		return nil, fmt.Errorf("%w: block checksum mismatch, want %#x got %#x", common.CorruptionError, want, got)
	}

	compressor, err := NewCompressor(ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.CorruptionError, err)
	}
	if compressor == nil {
		return &Block{data: payload}, nil
	}

	n, err := compressor.DecompressedLen(payload)
	if err != nil {
		zap.L().Error("failed to decode block length", zap.Error(err))
		return nil, err
	}
	buf := bufferpool.Get(n)
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]
	if err := compressor.Decompress(buf, payload); err != nil {
		zap.L().Error("failed to decompress block", zap.Stringer("compression", ct), zap.Error(err))
		bufferpool.Put(buf)
		return nil, err
	}
	return &Block{data: buf, pooled: true}, nil
}

// restartLayout validates the restart array at the end of a raw block and
// returns the offset where it begins and the number of restart points.
func restartLayout(data []byte) (int, int, error) {
	if len(data) < 4 {
		return 0, 0, fmt.Errorf("%w: row block too small, size=%d", common.CorruptionError, len(data))
	}
	numRestarts := int(binary.LittleEndian.Uint32(data[len(data)-4:]))
	if numRestarts == 0 || numRestarts > (len(data)-4)/4 {
		return 0, 0, fmt.Errorf("%w: invalid restart count %d for block of size %d",
			common.CorruptionError, numRestarts, len(data))
	}
	return len(data) - 4*(numRestarts+1), numRestarts, nil
}
