package common

import (
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
)

// EncodedKey owns one fully encoded internal key. The zero value holds no
// key and is invalid, which is distinct from an encoded key with an empty
// user key.
type EncodedKey struct {
	rep []byte
}

func NewEncodedKey(userKey []byte, seq SeqNum, kind KeyKind) EncodedKey {
	var k EncodedKey
	k.Set(userKey, seq, kind)
	return k
}

// NewEncodedKeyWithTimestamp encodes userKey with its trailing len(ts) bytes
// replaced by ts.
func NewEncodedKeyWithTimestamp(userKey []byte, seq SeqNum, kind KeyKind, ts []byte) EncodedKey {
	var k EncodedKey
	k.SetWithTimestamp(userKey, seq, kind, ts)
	return k
}

// MaxPossibleKey returns a key that sorts after every internal key of
// userKey.
func MaxPossibleKey(userKey []byte) EncodedKey {
	var k EncodedKey
	k.SetMaxPossibleForUserKey(userKey)
	return k
}

// MinPossibleKey returns a key that sorts before every internal key of
// userKey.
func MinPossibleKey(userKey []byte) EncodedKey {
	var k EncodedKey
	k.SetMinPossibleForUserKey(userKey)
	return k
}

// SetMaxPossibleForUserKey sets the key to be bigger or equal to all internal
// keys with this user key.
func (k *EncodedKey) SetMaxPossibleForUserKey(userKey []byte) {
	k.Set(userKey, SeqNumZero, KeyKindDelete)
}

// SetMinPossibleForUserKey sets the key to be smaller or equal to all internal
// keys with this user key.
func (k *EncodedKey) SetMinPossibleForUserKey(userKey []byte) {
	k.Set(userKey, SeqNumMax, KeyKindForSeek)
}

func (k *EncodedKey) Set(userKey []byte, seq SeqNum, kind KeyKind) {
	k.SetFrom(MakeKey(userKey, seq, kind))
}

// SetWithTimestamp encodes userKey with its timestamp replaced by ts. userKey
// is not modified.
func (k *EncodedKey) SetWithTimestamp(userKey []byte, seq SeqNum, kind KeyKind, ts []byte) {
	k.SetFromWithTimestamp(MakeKey(userKey, seq, kind), ts)
}

func (k *EncodedKey) SetFrom(ikey InternalKey) {
	k.rep = AppendInternalKey(k.rep[:0], ikey)
}

func (k *EncodedKey) SetFromWithTimestamp(ikey InternalKey, ts []byte) {
	k.rep = AppendInternalKeyWithDifferentTimestamp(k.rep[:0], ikey, ts)
}

// DecodeFrom copies an already encoded key.
func (k *EncodedKey) DecodeFrom(encoded []byte) {
	k.rep = append(k.rep[:0], encoded...)
}

// Encode returns the encoded bytes. The key must be valid.
func (k EncodedKey) Encode() []byte {
	invariants.Check(len(k.rep) > 0, "encoding an empty internal key")
	return k.rep
}

func (k EncodedKey) UserKey() []byte {
	return ExtractUserKey(k.rep)
}

func (k EncodedKey) SeqNum() SeqNum {
	return ExtractSeqNum(k.rep)
}

func (k EncodedKey) KeyKind() KeyKind {
	return ExtractKeyKind(k.rep)
}

func (k EncodedKey) Size() int {
	return len(k.rep)
}

// Valid reports whether the key holds anything at all. Use Parse to check
// that the content is well-formed.
func (k EncodedKey) Valid() bool {
	return len(k.rep) > 0
}

func (k EncodedKey) Parse(logErrKey bool) (InternalKey, error) {
	return ParseInternalKey(k.rep, logErrKey)
}

func (k *EncodedKey) Clear() {
	k.rep = k.rep[:0]
}

// SetUserKey stores a bare user key, to be turned into an internal key by
// ConvertFromUserKey.
func (k *EncodedKey) SetUserKey(userKey []byte) {
	k.rep = append(k.rep[:0], userKey...)
}

// ConvertFromUserKey appends a trailer to the user key stored by SetUserKey,
// saving the copy that Set would make.
func (k *EncodedKey) ConvertFromUserKey(seq SeqNum, kind KeyKind) {
	k.rep = AppendInternalKeyFooter(k.rep, seq, kind)
}

// UpdateSeqNumAndKind rewrites the trailer without moving the key.
func (k *EncodedKey) UpdateSeqNumAndKind(seq SeqNum, kind KeyKind) {
	UpdateInternalKey(k.rep, seq, kind)
}

// SetTimestamp overwrites the timestamp in front of the trailer in place.
func (k *EncodedKey) SetTimestamp(ts []byte) {
	invariants.Check(len(k.rep) >= InternalKeyTrailerLen+len(ts), "internal key too small for timestamp")
	copy(ExtractTimestampFromKey(k.rep, len(ts)), ts)
}

func (k EncodedKey) DebugString(hex bool) string {
	ikey, err := ParseInternalKey(k.rep, false)
	if err != nil {
		return "(bad)" + err.Error()
	}
	return ikey.DebugString(hex)
}

func (k EncodedKey) String() string {
	return k.DebugString(false)
}
