package row_block

import (
	"encoding/binary"
	"fmt"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/key_builder"
	"go.uber.org/zap"
)

// BlockIterator walks the entries of a single row block in order. It returns
// every entry, tombstones included.
//
// Keys are rebuilt in a KeyBuilder: at a restart point the key is pinned to
// the block bytes, the following entries are delta decoded on top of it.
// Blocks written without timestamps get the minimum timestamp padded back
// into every key.
type BlockIterator struct {
	cmp  *common.InternalKeyComparator
	opts options

	// data represents the entire uncompressed block
	data []byte
	// restarts is the offset of the restart array
	restarts    int
	numRestarts int

	// offset of the current entry, and of the one after it
	offset     int
	nextOffset int

	key   key_builder.KeyBuilder
	value []byte
	valid bool
	err   error

	// scratch holds a padded restart key during a seek
	scratch []byte
}

func NewBlockIterator(cmp *common.InternalKeyComparator, block []byte, opts ...OptionFn) (*BlockIterator, error) {
	restarts, numRestarts, err := restartLayout(block)
	if err != nil {
		zap.L().Error("failed to decode row block", zap.Error(err))
		return nil, err
	}
	i := &BlockIterator{
		cmp:         cmp,
		opts:        buildOptions(opts),
		data:        block,
		restarts:    restarts,
		numRestarts: numRestarts,
	}
	i.key.SetIsUserKey(false)
	return i, nil
}

func (i *BlockIterator) Valid() bool {
	return i.valid
}

// Key returns the current internal key. It stays valid until the iterator
// moves and, if pinned, as long as the block.
func (i *BlockIterator) Key() []byte {
	return i.key.Key()
}

func (i *BlockIterator) Value() []byte {
	return i.value
}

// Error returns the corruption that stopped the iteration, if any. Every
// positioning call starts afresh.
func (i *BlockIterator) Error() error {
	return i.err
}

func (i *BlockIterator) First() bool {
	i.err = nil
	i.seekToRestart(0)
	return i.readEntry()
}

func (i *BlockIterator) Last() bool {
	i.err = nil
	i.seekToRestart(i.numRestarts - 1)
	if !i.readEntry() {
		return false
	}
	for i.nextOffset < i.restarts {
		i.offset = i.nextOffset
		if !i.readEntry() {
			return false
		}
	}
	return true
}

func (i *BlockIterator) Next() bool {
	if !i.valid {
		return false
	}
	i.offset = i.nextOffset
	return i.readEntry()
}

// SeekGE moves to the first entry whose key is greater than or equal to
// target under the internal key order.
func (i *BlockIterator) SeekGE(target []byte) bool {
	i.err = nil
	if i.restarts == 0 {
		// a block without entries still has its single restart point at 0
		i.valid = false
		return false
	}

	// find the first restart point whose key is >= target, the answer is
	// in the interval before it or at it
	lo, hi := 0, i.numRestarts
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		key, err := i.restartKey(mid)
		if err != nil {
			i.fail(err)
			return false
		}
		if i.cmp.Compare(key, target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	i.seekToRestart(max(lo-1, 0))
	if !i.readEntry() {
		return false
	}
	for i.cmp.Compare(i.key.Key(), target) < 0 {
		if !i.Next() {
			return false
		}
	}
	return true
}

func (i *BlockIterator) Close() error {
	i.key.Release()
	i.value = nil
	i.data = nil
	i.valid = false
	return i.err
}

func (i *BlockIterator) seekToRestart(idx int) {
	i.offset = int(binary.LittleEndian.Uint32(i.data[i.restarts+4*idx:]))
	i.key.Clear()
}

// restartKey returns the full key stored at a restart point, padded with the
// minimum timestamp when the block strips timestamps.
func (i *BlockIterator) restartKey(idx int) ([]byte, error) {
	offset := int(binary.LittleEndian.Uint32(i.data[i.restarts+4*idx:]))
	shared, nonShared, _, _, err := i.decodeEntry(offset)
	if err != nil {
		return nil, err
	}
	if shared != 0 {
		return nil, fmt.Errorf("%w: restart point %d shares %d bytes", common.CorruptionError, idx, shared)
	}
	if !i.opts.stripsTimestamp() {
		return nonShared, nil
	}
	i.scratch = common.PadInternalKeyWithMinTimestamp(i.scratch[:0], nonShared, i.opts.tsSize)
	return i.scratch, nil
}

// decodeEntry parses the entry header at offset and returns the shared length,
// the non shared key bytes, the value, and the offset of the next entry.
func (i *BlockIterator) decodeEntry(offset int) (int, []byte, []byte, int, error) {
	if offset < 0 || offset >= i.restarts {
		return 0, nil, nil, 0, fmt.Errorf("%w: entry offset %d outside of [0, %d)", common.CorruptionError, offset, i.restarts)
	}
	entries := i.data[:i.restarts]
	var header [3]uint64
	pos := offset
	for h := range header {
		v, n := binary.Uvarint(entries[pos:])
		if n <= 0 {
			return 0, nil, nil, 0, fmt.Errorf("%w: bad entry header at offset %d", common.CorruptionError, offset)
		}
		header[h] = v
		pos += n
	}
	shared, nonSharedLen, valueLen := header[0], header[1], header[2]
	if shared > uint64(len(entries)) || nonSharedLen > uint64(len(entries)) || valueLen > uint64(len(entries)) ||
		nonSharedLen+valueLen > uint64(len(entries)-pos) {
		return 0, nil, nil, 0, fmt.Errorf("%w: entry at offset %d overflows the block", common.CorruptionError, offset)
	}
	keyEnd := pos + int(nonSharedLen)
	valueEnd := keyEnd + int(valueLen)
	return int(shared), entries[pos:keyEnd:keyEnd], entries[keyEnd:valueEnd:valueEnd], valueEnd, nil
}

// readEntry decodes the entry at i.offset on top of the current key.
func (i *BlockIterator) readEntry() bool {
	if i.offset >= i.restarts {
		i.valid = false
		return false
	}
	shared, nonShared, value, next, err := i.decodeEntry(i.offset)
	if err != nil {
		i.fail(err)
		return false
	}

	if i.opts.stripsTimestamp() {
		storedLen := max(i.key.Size()-i.opts.tsSize, 0)
		if shared > storedLen || shared+len(nonShared) < common.InternalKeyTrailerLen {
			i.fail(fmt.Errorf("%w: bad key lengths at offset %d, shared=%d nonShared=%d",
				common.CorruptionError, i.offset, shared, len(nonShared)))
			return false
		}
		i.key.TrimAppendWithPaddedTimestamp(shared, nonShared, i.opts.tsSize)
	} else {
		if shared > i.key.Size() || shared+len(nonShared) < common.InternalKeyTrailerLen {
			i.fail(fmt.Errorf("%w: bad key lengths at offset %d, shared=%d nonShared=%d",
				common.CorruptionError, i.offset, shared, len(nonShared)))
			return false
		}
		if shared == 0 {
			i.key.SetInternalKey(nonShared, false)
		} else {
			i.key.TrimAppend(shared, nonShared)
		}
	}

	i.value = value
	i.nextOffset = next
	i.valid = true
	return true
}

func (i *BlockIterator) fail(err error) {
	zap.L().Error("failed to decode row block entry", zap.Int("offset", i.offset), zap.Error(err))
	i.err = err
	i.valid = false
}
