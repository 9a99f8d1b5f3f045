package rangedel

import (
	"errors"
	"testing"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var realSeqs = []common.SeqNum{0, 1, 5, 6, 1 << 32, common.SeqNumMax - 1}

var realKinds = []common.KeyKind{
	common.KeyKindDelete, common.KeyKindSet, common.KeyKindMerge,
	common.KeyKindSingleDelete, common.KeyKindWideColumnEntity, common.KeyKindBlobIndex,
}

func encode(userKey []byte, seq common.SeqNum, kind common.KeyKind) []byte {
	return common.AppendInternalKey(nil, common.MakeKey(userKey, seq, kind))
}

func TestTombstone_EndKeyIsExclusive(t *testing.T) {
	cmp := common.NewInternalKeyComparator(common.NewComparer())
	tomb := NewTombstone([]byte("a"), []byte("m"), 5)
	end := tomb.SerializeEndKey()

	for _, seq := range realSeqs {
		for _, kind := range realKinds {
			k := encode([]byte("m"), seq, kind)
			assert.Equal(t, -1, cmp.Compare(end.Encode(), k), "end bound vs %s", common.DecodeInternalKey(k))
		}
	}
	// every key strictly inside the range sorts before the end bound
	assert.Equal(t, +1, cmp.Compare(end.Encode(), encode([]byte("lzzz"), 0, common.KeyKindDelete)))
	assert.Equal(t, common.SeqNumMax, end.SeqNum())
	assert.Equal(t, common.KeyKindRangeDelete, end.KeyKind())
}

func TestTombstone_StartKey(t *testing.T) {
	cmp := common.NewInternalKeyComparator(common.NewComparer())
	tomb := NewTombstone([]byte("a"), []byte("m"), 5)
	start, value := tomb.Serialize()

	assert.Equal(t, encode([]byte("a"), 5, common.KeyKindRangeDelete), start.Encode())
	assert.Equal(t, []byte("m"), value)
	assert.Equal(t, start.Encode(), tomb.SerializeKey().Encode())

	// older writes to the start key sort after the tombstone, newer ones before
	assert.Equal(t, -1, cmp.Compare(start.Encode(), encode([]byte("a"), 4, common.KeyKindSet)))
	assert.Equal(t, +1, cmp.Compare(start.Encode(), encode([]byte("a"), 6, common.KeyKindSet)))
}

func TestTombstone_WithTimestamp(t *testing.T) {
	const tsSize = 2
	cmp := common.NewInternalKeyComparator(common.NewTimestampComparer(tsSize))

	start := []byte("a\x01\x01")
	end := []byte("m\x01\x01")
	tomb := NewTombstoneWithTimestamp(start, end, 5, []byte{0x10, 0x20})

	assert.Equal(t, []byte("a\x10\x20"), tomb.StartKey)
	assert.Equal(t, []byte("m\x10\x20"), tomb.EndKey)
	assert.Equal(t, []byte("a\x01\x01"), start, "caller bytes are untouched")
	assert.NotSame(t, &start[0], &tomb.StartKey[0])

	endKey := tomb.SerializeEndKey()
	assert.Equal(t, []byte("m\xFF\xFF"), endKey.UserKey())

	for _, ts := range [][]byte{{0, 0}, {0x10, 0x20}, {0xFE, 0xFF}, {0xFF, 0xFF}} {
		for _, seq := range realSeqs {
			k := encode(append([]byte("m"), ts...), seq, common.KeyKindSet)
			assert.Equal(t, -1, cmp.Compare(endKey.Encode(), k), "end bound vs %s", common.DecodeInternalKey(k))
		}
	}
	assert.Equal(t, +1, cmp.Compare(endKey.Encode(), encode([]byte("l\xFF\xFF"), 0, common.KeyKindSet)))
}

func TestTombstone_FromParsed(t *testing.T) {
	stored := encode([]byte("from"), 42, common.KeyKindRangeDelete)
	ikey, err := common.ParseInternalKey(stored, false)
	require.NoError(t, err)

	tomb, err := NewTombstoneFromParsed(ikey, []byte("to"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from"), tomb.StartKey)
	assert.Equal(t, []byte("to"), tomb.EndKey)
	assert.Equal(t, common.SeqNum(42), tomb.SeqNum)
	assert.Same(t, &stored[0], &tomb.StartKey[0], "start key is borrowed")

	start, value := tomb.Serialize()
	assert.Equal(t, stored, start.Encode())
	assert.Equal(t, []byte("to"), value)

	point, err := common.ParseInternalKey(encode([]byte("from"), 42, common.KeyKindSet), false)
	require.NoError(t, err)
	_, err = NewTombstoneFromParsed(point, []byte("to"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.InvalidArgumentError))
}

func TestTombstone_Deletes(t *testing.T) {
	ucmp := common.NewComparer()
	tomb := NewTombstone([]byte("b"), []byte("d"), 10)

	tests := []struct {
		desc string
		key  common.InternalKey
		want bool
	}{
		{desc: "start is inclusive", key: common.MakeKey([]byte("b"), 3, common.KeyKindSet), want: true},
		{desc: "inside", key: common.MakeKey([]byte("c"), 9, common.KeyKindMerge), want: true},
		{desc: "end is exclusive", key: common.MakeKey([]byte("d"), 3, common.KeyKindSet), want: false},
		{desc: "before range", key: common.MakeKey([]byte("a"), 3, common.KeyKindSet), want: false},
		{desc: "same seq is not shadowed", key: common.MakeKey([]byte("c"), 10, common.KeyKindSet), want: false},
		{desc: "newer write survives", key: common.MakeKey([]byte("c"), 11, common.KeyKindSet), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, tomb.Deletes(ucmp, tc.key))
		})
	}
	assert.Equal(t, `["b", "d")#10`, tomb.String())
}
