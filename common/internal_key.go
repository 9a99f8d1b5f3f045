package common

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
	"go.uber.org/zap"
)

// InternalKeyTrailer encodes a [SeqNum (7) + KeyKind (1)].
type InternalKeyTrailer uint64

// InternalKeyTrailerLen is the width of the trailer appended to every user key.
const InternalKeyTrailerLen = 8

// PackSequenceAndType packs a sequence number and a kind into a trailer. The
// sequence number must not exceed SeqNumMax and the kind must be an extended
// kind.
func PackSequenceAndType(seq SeqNum, kind KeyKind) InternalKeyTrailer {
	if invariants.Enabled && seq > SeqNumMax {
		invariants.Violation("sequence number overflows the trailer",
			zap.Uint64("seqNum", uint64(seq)))
	}
	if invariants.Enabled && !IsExtendedKind(kind) {
		invariants.Violation("packing a non-extended key kind",
			zap.Stringer("kind", kind))
	}
	return (InternalKeyTrailer(seq) << 8) | InternalKeyTrailer(kind)
}

// UnpackSequenceAndType splits a trailer without validating either half.
// Checksum verification over deliberately corrupted keys relies on this never
// failing.
func UnpackSequenceAndType(packed uint64) (SeqNum, KeyKind) {
	return SeqNum(packed >> 8), KeyKind(packed & 0xFF)
}

func (t InternalKeyTrailer) SeqNum() SeqNum {
	return SeqNum(t >> 8)
}

func (t InternalKeyTrailer) KeyKind() KeyKind {
	return KeyKind(t & 0xFF) // trailer & (2^8 - 1)
}

// InternalKey or internal key. Due to the LSM structure, keys are never updated in place, but overwritten with new
// versions. An InternalKey is composed of the user key, a sequence number (7 bytes) and a kind (1 byte).
//
//	+-------------+------------+----------+
//	| UserKey (N) | SeqNum (7) | Kind (1) |
//	+-------------+------------+----------+
//
// The trailer is stored as a little-endian uint64. An InternalKey never owns
// UserKey: it is valid for as long as the bytes it was built or parsed from.
// If user-defined timestamps are enabled, UserKey ends with the timestamp.
type InternalKey struct {
	UserKey []byte
	Trailer InternalKeyTrailer
}

func MakeKey(userKey []byte, num SeqNum, kind KeyKind) InternalKey {
	return InternalKey{
		UserKey: userKey,
		Trailer: PackSequenceAndType(num, kind),
	}
}

func (k *InternalKey) SeqNum() SeqNum {
	return k.Trailer.SeqNum()
}

func (k *InternalKey) KeyKind() KeyKind {
	return k.Trailer.KeyKind()
}

// Size returns the length of the encoding of the key.
func (k *InternalKey) Size() int {
	return len(k.UserKey) + InternalKeyTrailerLen
}

// SerializeTo serialise an internal key into give buffer. Caller must ensure buf has enough size to hold
func (k *InternalKey) SerializeTo(buf []byte) {
	i := copy(buf, k.UserKey)
	binary.LittleEndian.PutUint64(buf[i:], uint64(k.Trailer))
}

func (k *InternalKey) Clear() {
	k.UserKey = nil
	k.Trailer = 0
}

// SetTimestamp overwrites the trailing len(ts) bytes of the user key. It
// writes through to the bytes the key was parsed from.
func (k *InternalKey) SetTimestamp(ts []byte) {
	invariants.Check(len(ts) <= len(k.UserKey), "timestamp larger than user key")
	copy(k.UserKey[len(k.UserKey)-len(ts):], ts)
}

func (k *InternalKey) GetTimestamp(tsSize int) []byte {
	invariants.Check(tsSize <= len(k.UserKey), "timestamp larger than user key")
	return k.UserKey[len(k.UserKey)-tsSize:]
}

// DebugString renders the key for diagnostics. When hex is false the user key
// is printed as-is.
func (k *InternalKey) DebugString(hex bool) string {
	var sb strings.Builder
	if hex {
		fmt.Fprintf(&sb, "'%X'", k.UserKey)
	} else {
		fmt.Fprintf(&sb, "'%s'", k.UserKey)
	}
	fmt.Fprintf(&sb, " seq:%s, type:%d", k.SeqNum(), k.KeyKind())
	return sb.String()
}

func (k InternalKey) String() string {
	return k.DebugString(false)
}

// DecodeInternalKey splits an encoded key without any validation. Keys shorter
// than the trailer decode to a nil user key with KeyKindMaxValue, which no
// valid key carries.
func DecodeInternalKey(key []byte) InternalKey {
	n := len(key) - InternalKeyTrailerLen
	if n >= 0 {
		return InternalKey{
			UserKey: key[:n:n],
			Trailer: InternalKeyTrailer(binary.LittleEndian.Uint64(key[n:])),
		}
	}

	return InternalKey{
		Trailer: InternalKeyTrailer(KeyKindMaxValue),
	}
}

// ParseInternalKey decodes and validates an encoded key. The returned key
// borrows from the input. With logErrKey set, the error carries a hex dump of
// the offending key.
func ParseInternalKey(key []byte, logErrKey bool) (InternalKey, error) {
	n := len(key)
	if n < InternalKeyTrailerLen {
		return InternalKey{}, fmt.Errorf("%w: internal key too small, size=%d", CorruptionError, n)
	}

	ikey := DecodeInternalKey(key)
	if IsExtendedKind(ikey.KeyKind()) {
		return ikey, nil
	}

	if logErrKey {
		dump := ikey.DebugString(true)
		zap.L().Debug("failed to parse internal key", zap.String("key", dump))
		return InternalKey{}, fmt.Errorf("%w: invalid key kind %d in %s", CorruptionError, ikey.KeyKind(), dump)
	}
	return InternalKey{}, fmt.Errorf("%w: invalid key kind %d", CorruptionError, ikey.KeyKind())
}

// AppendInternalKey appends the encoding of key to dst.
//
//	input [internal key]: <user_key | seqno + kind>
//	output:               dst + <user_key | seqno + kind>
func AppendInternalKey(dst []byte, key InternalKey) []byte {
	dst = append(dst, key.UserKey...)
	return binary.LittleEndian.AppendUint64(dst, uint64(key.Trailer))
}

// AppendInternalKeyWithDifferentTimestamp appends the encoding of key to dst,
// replacing the trailing len(ts) bytes of its user key by ts.
//
//	input [internal key]: <user_provided_key | original_ts | seqno + kind>
//	output:               dst + <user_provided_key | ts | seqno + kind>
func AppendInternalKeyWithDifferentTimestamp(dst []byte, key InternalKey, ts []byte) []byte {
	invariants.Check(len(ts) <= len(key.UserKey), "timestamp larger than user key")
	dst = append(dst, key.UserKey[:len(key.UserKey)-len(ts)]...)
	dst = append(dst, ts...)
	return binary.LittleEndian.AppendUint64(dst, uint64(key.Trailer))
}

// AppendInternalKeyFooter appends the trailer to dst, which is expected to
// already end with the user key.
func AppendInternalKeyFooter(dst []byte, seq SeqNum, kind KeyKind) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(PackSequenceAndType(seq, kind)))
}

// UpdateInternalKey rewrites the trailer of an encoded key in place. The
// length and the backing array of ikey are untouched, so slices into its user
// key stay valid.
func UpdateInternalKey(ikey []byte, seq SeqNum, kind KeyKind) {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen, "internal key too small to update")
	binary.LittleEndian.PutUint64(ikey[len(ikey)-InternalKeyTrailerLen:], uint64(PackSequenceAndType(seq, kind)))
}

// ExtractUserKey returns the user key portion of an internal key.
func ExtractUserKey(ikey []byte) []byte {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen, "internal key too small")
	return ikey[:len(ikey)-InternalKeyTrailerLen]
}

// ExtractInternalKeyFooter returns the raw trailer of an internal key.
func ExtractInternalKeyFooter(ikey []byte) InternalKeyTrailer {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen, "internal key too small")
	return InternalKeyTrailer(binary.LittleEndian.Uint64(ikey[len(ikey)-InternalKeyTrailerLen:]))
}

func ExtractKeyKind(ikey []byte) KeyKind {
	return ExtractInternalKeyFooter(ikey).KeyKind()
}

func ExtractSeqNum(ikey []byte) SeqNum {
	return ExtractInternalKeyFooter(ikey).SeqNum()
}
