package key_builder

import (
	"encoding/binary"

	bufferpool "github.com/datnguyenzzz/nogodb/lib/go-bytesbufferpool"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
	"go.uber.org/zap"
)

// inlineCapacity is the size of the embedded buffer. Keys up to this size
// never allocate.
const inlineCapacity = 39

// KeyBuilder materializes successive keys for an iterator, typically from a
// stream of shared-prefix deltas, without allocating per key.
//
// The current key either lives in the builder's own buffer or is pinned: it
// aliases bytes owned by someone else, which must stay untouched while the
// builder refers to them. The own buffer is the inline array until a key
// outgrows it, then an exactly sized heap buffer.
//
// A KeyBuilder is not safe for concurrent use and must not be copied once
// used.
type KeyBuilder struct {
	space [inlineCapacity]byte
	// buf is the owned buffer, space[:] or a heap allocation.
	buf []byte
	// key is the current key, either buf[:n] or pinned external bytes.
	key    []byte
	pinned bool

	isUserKey bool
	usePool   bool

	// scratch holds the materialized segments of a timestamp splice.
	scratch []byte
}

func NewKeyBuilder(opts ...OptionFn) *KeyBuilder {
	b := &KeyBuilder{isUserKey: true}
	for _, o := range opts {
		o(b)
	}
	b.buf = b.space[:]
	b.key = b.buf[:0]
	return b
}

func (b *KeyBuilder) init() {
	if b.buf == nil {
		b.buf = b.space[:]
		b.key = b.buf[:0]
	}
}

// SetIsUserKey sets the mode picked up by the next SetKey.
func (b *KeyBuilder) SetIsUserKey(isUserKey bool) {
	b.isUserKey = isUserKey
}

func (b *KeyBuilder) IsUserKey() bool {
	return b.isUserKey
}

// IsPinned reports whether the current key aliases external bytes.
func (b *KeyBuilder) IsPinned() bool {
	return b.pinned
}

// Key returns the current key in whichever form it was provided. The slice is
// valid until the next mutation of the builder.
func (b *KeyBuilder) Key() []byte {
	return b.key
}

func (b *KeyBuilder) InternalKey() []byte {
	invariants.Check(!b.isUserKey, "builder holds a user key")
	return b.key
}

// UserKey returns the user key, with its timestamp if it has one.
func (b *KeyBuilder) UserKey() []byte {
	if b.isUserKey {
		return b.key
	}
	return common.ExtractUserKey(b.key)
}

func (b *KeyBuilder) Size() int {
	return len(b.key)
}

func (b *KeyBuilder) Clear() {
	b.key = b.key[:0]
}

// TrimAppend keeps the first sharedLen bytes of the current key and appends
// nonShared. This is the delta decoding step of a prefix-compressed block.
func (b *KeyBuilder) TrimAppend(sharedLen int, nonShared []byte) {
	if invariants.Enabled && sharedLen > len(b.key) {
		invariants.Violation("shared prefix longer than the current key",
			zap.Int("sharedLen", sharedLen), zap.Int("keyLen", len(b.key)))
	}
	b.init()
	total := sharedLen + len(nonShared)

	switch {
	case b.pinned:
		// the shared bytes are external, copy them in
		b.enlargeBufferIfNeeded(total)
		copy(b.buf, b.key[:sharedLen])
	case total > len(b.buf):
		p := b.allocate(total)
		copy(p, b.key[:sharedLen])
		b.releaseHeap()
		b.buf = p
	}

	copy(b.buf[sharedLen:], nonShared)
	b.key = b.buf[:total]
	b.pinned = false
}

// TrimAppendWithPaddedTimestamp is TrimAppend for blocks whose keys were
// written without their timestamps. The current key carries a timestamp of
// tsSize bytes that the shared prefix does not count, and the decoded key gets
// a minimum timestamp of tsSize bytes in front of its trailer (or at its end
// for a user key).
func (b *KeyBuilder) TrimAppendWithPaddedTimestamp(sharedLen int, nonShared []byte, tsSize int) {
	b.init()
	var s segments
	if b.isUserKey {
		invariants.Check(sharedLen <= len(b.key), "shared prefix longer than the current key")
		s.add(b.key[:sharedLen])
		s.add(nonShared)
		s.add(common.MinTimestamp(tsSize))
	} else {
		s = paddedKeySegments(b.key, sharedLen, nonShared, tsSize)
	}

	// The segments may alias buf, so they are materialized elsewhere first.
	if cap(b.scratch) < s.size() {
		b.scratch = make([]byte, 0, s.size())
	}
	b.scratch = s.appendTo(b.scratch[:0])
	b.setKeyImpl(b.scratch, true)
}

// SetKey replaces the current key. With copy unset, the builder pins key
// instead of copying it. The user key flag is left as is.
func (b *KeyBuilder) SetKey(key []byte, copy bool) []byte {
	return b.setKeyImpl(key, copy)
}

func (b *KeyBuilder) SetUserKey(key []byte, copy bool) []byte {
	b.isUserKey = true
	return b.setKeyImpl(key, copy)
}

func (b *KeyBuilder) SetInternalKey(key []byte, copy bool) []byte {
	b.isUserKey = false
	return b.setKeyImpl(key, copy)
}

// SetInternalKeyAndParse copies key and points ikey.UserKey at the copy.
func (b *KeyBuilder) SetInternalKeyAndParse(key []byte, ikey *common.InternalKey) []byte {
	invariants.Check(len(key) >= common.InternalKeyTrailerLen, "internal key too small")
	b.SetInternalKey(key, true)
	ikey.UserKey = b.key[:len(key)-common.InternalKeyTrailerLen]
	return b.key
}

// SetInternalKeyParts encodes keyPrefix + userKey + ts + trailer into the own
// buffer. ts may be nil, in which case userKey is expected to already carry
// its timestamp if any.
func (b *KeyBuilder) SetInternalKeyParts(keyPrefix, userKey []byte, seq common.SeqNum, kind common.KeyKind, ts []byte) []byte {
	b.init()
	size := len(keyPrefix) + len(userKey) + len(ts) + common.InternalKeyTrailerLen
	b.enlargeBufferIfNeeded(size)

	n := copy(b.buf, keyPrefix)
	n += copy(b.buf[n:], userKey)
	n += copy(b.buf[n:], ts)
	binary.LittleEndian.PutUint64(b.buf[n:], uint64(common.PackSequenceAndType(seq, kind)))

	b.key = b.buf[:size]
	b.pinned = false
	b.isUserKey = false
	return b.key
}

func (b *KeyBuilder) SetInternalKeyFromParsed(ikey common.InternalKey) []byte {
	return b.SetInternalKeyParts(nil, ikey.UserKey, ikey.SeqNum(), ikey.KeyKind(), nil)
}

// Own copies a pinned key into the own buffer. It is a no-op for owned keys.
func (b *KeyBuilder) Own() {
	if !b.pinned {
		return
	}
	b.init()
	b.enlargeBufferIfNeeded(len(b.key))
	n := copy(b.buf, b.key)
	b.key = b.buf[:n]
	b.pinned = false
}

// UpdateInternalKey rewrites the trailer of the current key and, when ts is
// not nil, the len(ts) bytes right in front of it. The key is neither resized
// nor moved, so slices into it stay valid. The key must be owned.
func (b *KeyBuilder) UpdateInternalKey(seq common.SeqNum, kind common.KeyKind, ts []byte) {
	invariants.Check(!b.pinned, "updating a pinned key in place")
	if invariants.Enabled && len(b.key) < common.InternalKeyTrailerLen+len(ts) {
		invariants.Violation("key too small to update",
			zap.Int("keyLen", len(b.key)), zap.Int("tsSize", len(ts)))
	}
	if ts != nil {
		copy(common.ExtractTimestampFromKey(b.key, len(ts)), ts)
	}
	common.UpdateInternalKey(b.key, seq, kind)
}

// Reserve makes the own buffer hold size bytes, discarding the current key,
// and exposes them as the key.
func (b *KeyBuilder) Reserve(size int) []byte {
	b.init()
	b.enlargeBufferIfNeeded(size)
	b.key = b.buf[:size]
	b.pinned = false
	return b.key
}

// EncodeLengthPrefixedKey stores varint32(len(key)) + key as a user key.
func (b *KeyBuilder) EncodeLengthPrefixedKey(key []byte) []byte {
	b.init()
	var lenBuf [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(lenBuf[:], uint64(uint32(len(key))))
	b.enlargeBufferIfNeeded(n + len(key))
	copy(b.buf, lenBuf[:n])
	copy(b.buf[n:], key)
	b.key = b.buf[:n+len(key)]
	b.pinned = false
	b.isUserKey = true
	return b.key
}

// Release drops any heap buffer and empties the builder.
func (b *KeyBuilder) Release() {
	b.init()
	b.releaseHeap()
	b.buf = b.space[:]
	b.key = b.buf[:0]
	b.pinned = false
	b.scratch = nil
}

func (b *KeyBuilder) setKeyImpl(key []byte, copyKey bool) []byte {
	b.init()
	if !copyKey {
		b.key = key
		b.pinned = true
		return b.key
	}
	b.enlargeBufferIfNeeded(len(key))
	n := copy(b.buf, key)
	b.key = b.buf[:n]
	b.pinned = false
	return b.key
}

// enlargeBufferIfNeeded makes room for size bytes. The content of the own
// buffer is not preserved when it grows.
func (b *KeyBuilder) enlargeBufferIfNeeded(size int) {
	if size <= len(b.buf) {
		return
	}
	p := b.allocate(size)
	b.releaseHeap()
	b.buf = p
}

func (b *KeyBuilder) allocate(size int) []byte {
	if b.usePool {
		// pooled buffers may come back smaller than their class
		if p := bufferpool.Get(size); cap(p) >= size {
			return p[:cap(p)]
		}
	}
	return make([]byte, size)
}

func (b *KeyBuilder) releaseHeap() {
	if len(b.buf) == 0 || &b.buf[0] == &b.space[0] {
		return
	}
	if b.usePool {
		bufferpool.Put(b.buf)
	}
	b.buf = nil
}
