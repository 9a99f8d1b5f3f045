package common

import (
	"testing"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodedKey_ZeroValueIsInvalid(t *testing.T) {
	var k EncodedKey
	assert.False(t, k.Valid())
	if invariants.Enabled {
		assert.Panics(t, func() { k.Encode() })
	}

	// an empty user key is still a valid key
	k.Set(nil, 1, KeyKindSet)
	assert.True(t, k.Valid())
	assert.Equal(t, InternalKeyTrailerLen, k.Size())
	assert.Empty(t, k.UserKey())

	k.Clear()
	assert.False(t, k.Valid())
}

func TestEncodedKey_Set(t *testing.T) {
	k := NewEncodedKey([]byte("hello"), 42, KeyKindMerge)
	assert.Equal(t, encode("hello", 42, KeyKindMerge), k.Encode())
	assert.Equal(t, []byte("hello"), k.UserKey())
	assert.Equal(t, SeqNum(42), k.SeqNum())
	assert.Equal(t, KeyKindMerge, k.KeyKind())

	parsed, err := k.Parse(false)
	require.NoError(t, err)
	assert.Equal(t, MakeKey([]byte("hello"), 42, KeyKindMerge), parsed)

	// reusing the key replaces it wholesale
	k.Set([]byte("x"), 1, KeyKindDelete)
	assert.Equal(t, encode("x", 1, KeyKindDelete), k.Encode())
	assert.Equal(t, "'x' seq:1, type:0", k.String())
}

func TestEncodedKey_SetWithTimestamp(t *testing.T) {
	userKey := []byte("key\x01\x01")
	k := NewEncodedKeyWithTimestamp(userKey, 3, KeyKindSet, []byte{0x09, 0x08})
	assert.Equal(t, encode("key\x09\x08", 3, KeyKindSet), k.Encode())
	assert.Equal(t, []byte("key\x01\x01"), userKey)
}

func TestEncodedKey_DecodeFromCopies(t *testing.T) {
	src := encode("abc", 5, KeyKindSet)
	var k EncodedKey
	k.DecodeFrom(src)
	src[0] = 'z'
	assert.Equal(t, []byte("abc"), k.UserKey())
}

func TestEncodedKey_ConvertFromUserKey(t *testing.T) {
	var k EncodedKey
	k.SetUserKey([]byte("user"))
	k.ConvertFromUserKey(77, KeyKindSingleDelete)
	assert.Equal(t, encode("user", 77, KeyKindSingleDelete), k.Encode())
}

func TestEncodedKey_InPlaceUpdates(t *testing.T) {
	k := NewEncodedKey([]byte("key\x00\x00"), 3, KeyKindSet)
	userKey := k.UserKey()

	k.UpdateSeqNumAndKind(10, KeyKindDelete)
	k.SetTimestamp([]byte{0xAB, 0xCD})

	assert.Same(t, &userKey[0], &k.UserKey()[0])
	assert.Equal(t, encode("key\xAB\xCD", 10, KeyKindDelete), k.Encode())
	assert.Equal(t, []byte("key\xAB\xCD"), userKey)
}

func TestEncodedKey_SentinelConstructors(t *testing.T) {
	hi := MaxPossibleKey([]byte("u"))
	assert.Equal(t, SeqNumZero, hi.SeqNum())
	assert.Equal(t, KeyKindDelete, hi.KeyKind())

	lo := MinPossibleKey([]byte("u"))
	assert.Equal(t, SeqNumMax, lo.SeqNum())
	assert.Equal(t, KeyKindForSeek, lo.KeyKind())
}

func TestEncodedKey_DebugStringOnCorruptedKey(t *testing.T) {
	var k EncodedKey
	k.DecodeFrom([]byte{1, 2, 3})
	assert.True(t, k.Valid())
	assert.Contains(t, k.DebugString(true), "(bad)")
}
