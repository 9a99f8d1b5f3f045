package row_block

import (
	"encoding/binary"
	"fmt"

	bufferpool "github.com/datnguyenzzz/nogodb/lib/go-bytesbufferpool"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
)

const (
	// maximumRestartOffset is the largest offset a restart point can encode.
	// Adding entries past it would make the restart array unable to address
	// them.
	maximumRestartOffset = 1<<31 - 1

	initialBufferSize = 4 << 10
)

// Writer builds a row block: internal keys in increasing order, each stored as
// the length of the prefix it shares with the previous key plus the rest.
// Every restartInterval entries a key is stored in full and its offset is
// recorded as a restart point.
//
//	+-----------------+---------------------+--------------------+--------------+----------------+
//	| shared (varint) | not shared (varint) | value len (varint) | key (varlen) | value (varlen) |
//	+-----------------+---------------------+--------------------+--------------+----------------+
//
// The entries are followed by the restart offsets and their count, each a
// fixed 4 bytes.
type Writer struct {
	opts options

	nEntries int
	// curKey and prevKey are in their stored form, without the timestamp
	// when the writer strips it.
	curKey  []byte
	prevKey []byte

	nextRestartEntry int
	restartOffset    []uint32

	buf []byte

	filter *FilterWriter
}

func NewWriter(opts ...OptionFn) *Writer {
	w := &Writer{
		opts: buildOptions(opts),
		buf:  bufferpool.Get(initialBufferSize),
	}
	if w.opts.prefixExtractor != nil {
		w.filter = newFilterWriter(w.opts.prefixExtractor, w.opts.bitsPerKey, w.opts.tsSize)
	}
	return w
}

func (w *Writer) EntryCount() int {
	return w.nEntries
}

// Add appends an encoded internal key and its value. Keys must be added in
// increasing internal key order.
func (w *Writer) Add(key, value []byte) error {
	minLen := common.InternalKeyTrailerLen + w.opts.tsSize
	if len(key) < minLen {
		return fmt.Errorf("%w: key of %d bytes is shorter than %d", common.InvalidArgumentError, len(key), minLen)
	}
	if len(w.buf) > maximumRestartOffset {
		return fmt.Errorf("%w: row block is too large to address, size=%d", common.InvalidArgumentError, len(w.buf))
	}

	w.prevKey, w.curKey = w.curKey, w.prevKey[:0]
	if w.opts.stripsTimestamp() {
		w.curKey = common.StripTimestampFromInternalKey(w.curKey, key, w.opts.tsSize)
	} else {
		w.curKey = append(w.curKey, key...)
	}

	w.writeEntry(value)
	w.nEntries++
	if w.filter != nil {
		w.filter.Add(key)
	}
	return nil
}

func (w *Writer) writeEntry(value []byte) {
	var shared int
	if w.nEntries == w.nextRestartEntry {
		w.nextRestartEntry = w.nEntries + w.opts.restartInterval
		w.restartOffset = append(w.restartOffset, uint32(len(w.buf)))
	} else {
		n := min(len(w.curKey), len(w.prevKey))
		for ; shared+8 <= n; shared += 8 {
			// compare 8 bytes at once
			if binary.LittleEndian.Uint64(w.curKey[shared:]) != binary.LittleEndian.Uint64(w.prevKey[shared:]) {
				break
			}
		}
		for ; shared < n && w.curKey[shared] == w.prevKey[shared]; shared++ {
		}
	}

	needed := 3*binary.MaxVarintLen32 + len(w.curKey) - shared + len(value)
	w.grow(needed)

	w.buf = binary.AppendUvarint(w.buf, uint64(shared))
	w.buf = binary.AppendUvarint(w.buf, uint64(len(w.curKey)-shared))
	w.buf = binary.AppendUvarint(w.buf, uint64(len(value)))
	w.buf = append(w.buf, w.curKey[shared:]...)
	w.buf = append(w.buf, value...)
}

func (w *Writer) grow(needed int) {
	n := len(w.buf)
	if cap(w.buf) >= n+needed {
		return
	}
	newCap := max(cap(w.buf), initialBufferSize)
	for newCap < n+needed {
		newCap *= 2
	}
	tmp := bufferpool.Get(newCap)
	if cap(tmp) < newCap {
		tmp = make([]byte, 0, newCap)
	}
	tmp = append(tmp[:0], w.buf...)
	bufferpool.Put(w.buf)
	w.buf = tmp
}

// EstimateSize returns the size of the uncompressed block if it were
// finished now.
func (w *Writer) EstimateSize() int {
	return len(w.buf) + 4*max(len(w.restartOffset), 1) + 4
}

// Finish appends the physical block to dst and resets the writer for reuse.
func (w *Writer) Finish(dst []byte) ([]byte, error) {
	if len(w.restartOffset) == 0 {
		w.restartOffset = append(w.restartOffset, 0)
	}
	w.grow(4*len(w.restartOffset) + 4)
	for _, restart := range w.restartOffset {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, restart)
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(w.restartOffset)))
	defer w.Reset()

	compressor, err := NewCompressor(w.opts.compression)
	if err != nil {
		return dst, err
	}
	if compressor == nil {
		start := len(dst)
		dst = append(dst, w.buf...)
		return appendTrailer(dst, dst[start:], NoCompression), nil
	}

	scratch := bufferpool.Get(len(w.buf))
	defer bufferpool.Put(scratch)
	compressed := compressor.Compress(scratch, w.buf)
	if len(compressed) >= len(w.buf) {
		// not worth it
		start := len(dst)
		dst = append(dst, w.buf...)
		return appendTrailer(dst, dst[start:], NoCompression), nil
	}
	start := len(dst)
	dst = append(dst, compressed...)
	return appendTrailer(dst, dst[start:], compressor.GetType()), nil
}

// FinishFilter appends the prefix filter of the keys added since the last
// call to dst. Without WithPrefixFilter it returns dst unchanged.
func (w *Writer) FinishFilter(dst []byte) []byte {
	if w.filter == nil {
		return dst
	}
	return w.filter.Finish(dst)
}

// Reset empties the writer and keeps its buffers. The pending prefix filter
// is kept until FinishFilter.
func (w *Writer) Reset() {
	w.nEntries = 0
	w.nextRestartEntry = 0
	w.restartOffset = w.restartOffset[:0]
	w.curKey = w.curKey[:0]
	w.prevKey = w.prevKey[:0]
	w.buf = w.buf[:0]
}

// Release hands the block buffer back to the pool. The writer must not be
// used afterwards.
func (w *Writer) Release() {
	bufferpool.Put(w.buf)
	w.buf = nil
}
