package common

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allExtendedKinds = []KeyKind{
	KeyKindDelete, KeyKindSet, KeyKindMerge, KeyKindSingleDelete,
	KeyKindRangeDelete, KeyKindDeleteWithTimestamp, KeyKindWideColumnEntity,
	KeyKindBlobIndex, KeyKindMaxValid,
}

func TestKeyKind_Classification(t *testing.T) {
	inline := map[KeyKind]bool{
		KeyKindDelete: true, KeyKindSet: true, KeyKindMerge: true,
		KeyKindSingleDelete: true, KeyKindBlobIndex: true,
		KeyKindDeleteWithTimestamp: true, KeyKindWideColumnEntity: true,
	}
	for k := KeyKind(0); k <= KeyKindMaxValue; k++ {
		assert.Equal(t, inline[k], IsInlineKind(k), "IsInlineKind(%s)", k)
		extended := inline[k] || k == KeyKindRangeDelete || k == KeyKindMaxValid
		assert.Equal(t, extended, IsExtendedKind(k), "IsExtendedKind(%s)", k)
	}
}

func TestKeyKind_StableValues(t *testing.T) {
	assert.Equal(t, KeyKind(0x0), KeyKindDelete)
	assert.Equal(t, KeyKind(0x1), KeyKindSet)
	assert.Equal(t, KeyKind(0x7), KeyKindSingleDelete)
	assert.Equal(t, KeyKind(0xF), KeyKindRangeDelete)
	assert.Equal(t, KeyKind(0x14), KeyKindDeleteWithTimestamp)
	assert.Equal(t, KeyKind(0x16), KeyKindWideColumnEntity)
	assert.Equal(t, KeyKind(0x18), KeyKindBlobIndex)
	assert.Equal(t, KeyKind(0x19), KeyKindMaxValid)
	assert.Less(t, uint8(KeyKindMaxValid), uint8(0x80), "top bit is reserved")
	assert.Equal(t, "RANGEDEL", KeyKindRangeDelete.String())
	assert.Equal(t, "UNKNOWN:100", KeyKind(100).String())
}

func TestSeqNum_Sentinels(t *testing.T) {
	assert.Equal(t, SeqNum(1<<56-1), SeqNumMax)
	assert.Equal(t, SeqNum(^uint64(0)), DisableGlobalSeqNum)
	assert.NotEqual(t, SeqNumMax, DisableGlobalSeqNum)
	assert.Equal(t, "max", SeqNumMax.String())
	assert.Equal(t, "disabled", DisableGlobalSeqNum.String())
	assert.Equal(t, "42", SeqNum(42).String())
}

func TestPackAndUnpack(t *testing.T) {
	tests := []struct {
		desc string
		seq  SeqNum
		kind KeyKind
	}{
		{desc: "zero", seq: 0, kind: KeyKindDelete},
		{desc: "small set", seq: 1, kind: KeyKindSet},
		{desc: "max valid seq", seq: SeqNumMax - 1, kind: KeyKindMerge},
		{desc: "max seq range del", seq: SeqNumMax, kind: KeyKindRangeDelete},
		{desc: "max valid kind", seq: 100, kind: KeyKindMaxValid},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			packed := PackSequenceAndType(tc.seq, tc.kind)
			assert.Equal(t, uint64(tc.seq)<<8|uint64(tc.kind), uint64(packed))
			seq, kind := UnpackSequenceAndType(uint64(packed))
			assert.Equal(t, tc.seq, seq)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestPack_InvariantViolations(t *testing.T) {
	if !invariants.Enabled {
		t.Skip("invariants are compiled out")
	}
	assert.Panics(t, func() { PackSequenceAndType(SeqNumMax+1, KeyKindSet) })
	assert.Panics(t, func() { PackSequenceAndType(1, KeyKindLogData) })
}

func TestUnpack_NeverValidates(t *testing.T) {
	// a corrupted trailer: unknown kind and a sequence number above the max
	packed := ^uint64(0)
	seq, kind := UnpackSequenceAndType(packed)
	assert.Equal(t, SeqNumMax, seq)
	assert.Equal(t, KeyKind(0xFF), kind)
}

func TestParseInternalKey_RoundTrip(t *testing.T) {
	userKeys := [][]byte{{}, []byte("a"), []byte("hello world"), {0x00, 0xFF, 0x10}}
	seqs := []SeqNum{0, 1, 255, 256, 1 << 40, SeqNumMax - 1, SeqNumMax}
	for _, uk := range userKeys {
		for _, seq := range seqs {
			for _, kind := range allExtendedKinds {
				encoded := AppendInternalKey(nil, MakeKey(uk, seq, kind))
				require.Len(t, encoded, len(uk)+InternalKeyTrailerLen)

				parsed, err := ParseInternalKey(encoded, false)
				require.NoError(t, err)
				assert.Equal(t, uk, parsed.UserKey)
				assert.Equal(t, seq, parsed.SeqNum())
				assert.Equal(t, kind, parsed.KeyKind())

				assert.Equal(t, seq, ExtractSeqNum(encoded))
				assert.Equal(t, kind, ExtractKeyKind(encoded))
			}
		}
	}
}

func TestParseInternalKey_BorrowsInput(t *testing.T) {
	encoded := AppendInternalKey(nil, MakeKey([]byte("abc"), 7, KeyKindSet))
	parsed, err := ParseInternalKey(encoded, false)
	require.NoError(t, err)
	assert.Same(t, &encoded[0], &parsed.UserKey[0])
}

func TestParseInternalKey_Corruption(t *testing.T) {
	tests := []struct {
		desc      string
		key       []byte
		logErrKey bool
		contains  string
	}{
		{desc: "empty", key: nil, contains: "too small"},
		{desc: "seven bytes", key: make([]byte, 7), contains: "too small"},
		{desc: "unknown kind", key: binary.LittleEndian.AppendUint64([]byte("k"), 5<<8|0x3), contains: "invalid key kind 3"},
		{desc: "reserved bit", key: binary.LittleEndian.AppendUint64([]byte("k"), 5<<8|0x81), contains: "invalid key kind"},
		{desc: "dump on request", key: binary.LittleEndian.AppendUint64([]byte("k"), 5<<8|0x4), logErrKey: true, contains: "'6B' seq:5"},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ParseInternalKey(tc.key, tc.logErrKey)
			require.Error(t, err)
			assert.True(t, errors.Is(err, CorruptionError))
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestDecodeInternalKey_ShortInput(t *testing.T) {
	ikey := DecodeInternalKey([]byte{1, 2, 3})
	assert.Nil(t, ikey.UserKey)
	assert.Equal(t, KeyKindMaxValue, ikey.KeyKind())
	assert.False(t, IsExtendedKind(ikey.KeyKind()))
}

func TestSerializeTo(t *testing.T) {
	ikey := MakeKey([]byte("foo"), 0x0102, KeyKindMerge)
	buf := make([]byte, ikey.Size())
	ikey.SerializeTo(buf)
	assert.Equal(t, []byte{'f', 'o', 'o', 0x02, 0x02, 0x01, 0, 0, 0, 0, 0}, buf)
	assert.Equal(t, buf, AppendInternalKey(nil, ikey))
}

func TestAppendInternalKeyFooter(t *testing.T) {
	dst := []byte("user")
	dst = AppendInternalKeyFooter(dst, 9, KeyKindSingleDelete)
	assert.Equal(t, AppendInternalKey(nil, MakeKey([]byte("user"), 9, KeyKindSingleDelete)), dst)
}

func TestAppendInternalKeyWithDifferentTimestamp(t *testing.T) {
	userKey := []byte("key\x01\x02")
	ts := []byte{0xAA, 0xBB}
	got := AppendInternalKeyWithDifferentTimestamp(nil, MakeKey(userKey, 3, KeyKindSet), ts)
	want := AppendInternalKey(nil, MakeKey([]byte("key\xAA\xBB"), 3, KeyKindSet))
	assert.Equal(t, want, got)
	assert.Equal(t, []byte("key\x01\x02"), userKey, "input must not change")
}

func TestUpdateInternalKey_InPlace(t *testing.T) {
	encoded := AppendInternalKey(nil, MakeKey([]byte("user-key"), 10, KeyKindSet))
	userKey := ExtractUserKey(encoded)
	before := &userKey[0]

	UpdateInternalKey(encoded, 99, KeyKindDelete)

	assert.Len(t, encoded, len("user-key")+InternalKeyTrailerLen)
	assert.Same(t, before, &ExtractUserKey(encoded)[0])
	assert.Equal(t, SeqNum(99), ExtractSeqNum(encoded))
	assert.Equal(t, KeyKindDelete, ExtractKeyKind(encoded))
	assert.Equal(t, []byte("user-key"), userKey)
}

func TestInternalKey_Timestamp(t *testing.T) {
	encoded := AppendInternalKey(nil, MakeKey([]byte("ab\x00\x00"), 1, KeyKindSet))
	ikey, err := ParseInternalKey(encoded, false)
	require.NoError(t, err)

	assert.Equal(t, []byte{0, 0}, ikey.GetTimestamp(2))
	ikey.SetTimestamp([]byte{7, 8})
	assert.Equal(t, []byte("ab\x07\x08"), ExtractUserKey(encoded), "writes through to the source bytes")
}

func TestInternalKey_DebugString(t *testing.T) {
	ikey := MakeKey([]byte("ab"), 12, KeyKindSet)
	assert.Equal(t, "'ab' seq:12, type:1", ikey.String())
	assert.Equal(t, "'6162' seq:12, type:1", ikey.DebugString(true))
}
