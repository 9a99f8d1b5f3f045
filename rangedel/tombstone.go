package rangedel

import (
	"fmt"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
	"go.uber.org/zap"
)

// Tombstone deletes the user keys in [StartKey, EndKey) written before
// SeqNum.
//
// StartKey and EndKey either borrow the caller's bytes or, when the tombstone
// carries a timestamp, point at private copies.
type Tombstone struct {
	StartKey  []byte
	EndKey    []byte
	SeqNum    common.SeqNum
	Timestamp []byte

	pinnedStartKey []byte
	pinnedEndKey   []byte
}

// NewTombstone borrows start and end.
func NewTombstone(start, end []byte, seq common.SeqNum) Tombstone {
	return Tombstone{StartKey: start, EndKey: end, SeqNum: seq}
}

// NewTombstoneWithTimestamp takes start and end with their timestamps and
// replaces those timestamps by ts in private copies. ts must not be empty.
func NewTombstoneWithTimestamp(start, end []byte, seq common.SeqNum, ts []byte) Tombstone {
	invariants.Check(len(ts) > 0, "tombstone timestamp is empty")
	if invariants.Enabled && (len(start) < len(ts) || len(end) < len(ts)) {
		invariants.Violation("tombstone bound shorter than its timestamp",
			zap.Int("startLen", len(start)), zap.Int("endLen", len(end)), zap.Int("tsSize", len(ts)))
	}

	t := Tombstone{SeqNum: seq, Timestamp: ts}
	t.pinnedStartKey = replaceTimestamp(make([]byte, 0, len(start)), start, ts)
	t.pinnedEndKey = replaceTimestamp(make([]byte, 0, len(end)), end, ts)
	t.StartKey = t.pinnedStartKey
	t.EndKey = t.pinnedEndKey
	return t
}

// NewTombstoneFromParsed rebuilds a tombstone from its stored form: the range
// deletion key holds the start key, its value holds the end key. Both are
// borrowed.
func NewTombstoneFromParsed(ikey common.InternalKey, value []byte) (Tombstone, error) {
	if ikey.KeyKind() != common.KeyKindRangeDelete {
		return Tombstone{}, fmt.Errorf("%w: expected a range deletion, got %s",
			common.InvalidArgumentError, ikey.KeyKind())
	}
	return Tombstone{StartKey: ikey.UserKey, EndKey: value, SeqNum: ikey.SeqNum()}, nil
}

func replaceTimestamp(dst, userKey, ts []byte) []byte {
	dst = append(dst, userKey[:len(userKey)-len(ts)]...)
	return append(dst, ts...)
}

// Serialize returns the stored form of the tombstone: the encoded start key
// and the end key as value. It allocates.
func (t *Tombstone) Serialize() (common.EncodedKey, []byte) {
	return t.SerializeKey(), t.EndKey
}

// SerializeKey encodes the start key. It allocates.
func (t *Tombstone) SerializeKey() common.EncodedKey {
	return common.NewEncodedKey(t.StartKey, t.SeqNum, common.KeyKindRangeDelete)
}

// SerializeEndKey encodes the exclusive end bound. The maximum sequence
// number, and the maximum timestamp when the tombstone has one, make it sort
// before every real internal key of EndKey. It allocates.
func (t *Tombstone) SerializeEndKey() common.EncodedKey {
	if len(t.Timestamp) > 0 {
		return common.NewEncodedKeyWithTimestamp(t.EndKey, common.SeqNumMax, common.KeyKindRangeDelete,
			common.MaxTimestamp(len(t.Timestamp)))
	}
	return common.NewEncodedKey(t.EndKey, common.SeqNumMax, common.KeyKindRangeDelete)
}

// Contains reports whether userKey falls in [StartKey, EndKey).
func (t *Tombstone) Contains(cmp common.IComparer, userKey []byte) bool {
	return cmp.Compare(t.StartKey, userKey) <= 0 && cmp.Compare(userKey, t.EndKey) < 0
}

// Deletes reports whether the tombstone shadows ikey.
func (t *Tombstone) Deletes(cmp common.IComparer, ikey common.InternalKey) bool {
	return ikey.SeqNum() < t.SeqNum && t.Contains(cmp, ikey.UserKey)
}

func (t Tombstone) String() string {
	return fmt.Sprintf("[%q, %q)#%s", t.StartKey, t.EndKey, t.SeqNum)
}
