package batch

import (
	"errors"
	"testing"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/key_builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAppend(t *testing.T, dst []byte, r Record) []byte {
	out, err := AppendRecord(dst, r)
	require.NoError(t, err)
	return out
}

func TestReadKeyFromBatchEntry(t *testing.T) {
	tests := []struct {
		desc     string
		record   Record
		cfRecord bool
		wantKey  string
	}{
		{desc: "default column family", record: Record{Kind: common.KeyKindSet, Key: []byte("k1"), Value: []byte("v1")}, wantKey: "k1"},
		{desc: "column family record", record: Record{Kind: common.KeyKindColumnFamilySet, ColumnFamily: 300, Key: []byte("k2"), Value: []byte("v2")}, cfRecord: true, wantKey: "k2"},
		{desc: "deletion", record: Record{Kind: common.KeyKindDelete, Key: []byte("gone")}, wantKey: "gone"},
		{desc: "empty key", record: Record{Kind: common.KeyKindSingleDelete, Key: []byte{}}, wantKey: ""},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			entry := mustAppend(t, nil, tc.record)
			trailing := []byte("next")
			key, rest, err := ReadKeyFromBatchEntry(append(entry, trailing...), tc.cfRecord)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKey, string(key))
			if len(tc.record.Value) > 0 {
				// the value follows the key
				assert.Equal(t, byte(len(tc.record.Value)), rest[0])
				assert.Equal(t, tc.record.Value, rest[1:1+len(tc.record.Value)])
			} else {
				assert.Equal(t, trailing, rest)
			}
		})
	}
}

func TestReadKeyFromBatchEntry_Corruption(t *testing.T) {
	tests := []struct {
		desc     string
		input    []byte
		cfRecord bool
	}{
		{desc: "empty", input: nil},
		{desc: "kind only", input: []byte{byte(common.KeyKindSet)}},
		{desc: "key length past the end", input: []byte{byte(common.KeyKindSet), 5, 'a', 'b'}},
		{desc: "unterminated column family", input: []byte{byte(common.KeyKindColumnFamilySet), 0x80}, cfRecord: true},
		{desc: "column family overflows 32 bits", input: []byte{byte(common.KeyKindColumnFamilySet), 0xFF, 0xFF, 0xFF, 0xFF, 0x7F, 0}, cfRecord: true},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			_, _, err := ReadKeyFromBatchEntry(tc.input, tc.cfRecord)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.CorruptionError))
		})
	}
}

func TestReader_AllKinds(t *testing.T) {
	records := []Record{
		{Kind: common.KeyKindBeginPrepareXID},
		{Kind: common.KeyKindSet, Key: []byte("a"), Value: []byte("1")},
		{Kind: common.KeyKindColumnFamilyMerge, ColumnFamily: 2, Key: []byte("b"), Value: []byte("+1")},
		{Kind: common.KeyKindColumnFamilyDelete, ColumnFamily: 2, Key: []byte("c")},
		{Kind: common.KeyKindRangeDelete, Key: []byte("d"), Value: []byte("f")},
		{Kind: common.KeyKindLogData, Blob: []byte("log blob")},
		{Kind: common.KeyKindNoop},
		{Kind: common.KeyKindWideColumnEntity, Key: []byte("e"), Value: []byte("columns")},
		{Kind: common.KeyKindEndPrepareXID, XID: []byte("xid-1")},
		{Kind: common.KeyKindCommitXIDAndTimestamp, Key: []byte("ts"), XID: []byte("xid-1")},
	}
	var body []byte
	for _, r := range records {
		body = mustAppend(t, body, r)
	}

	var got []Record
	var reader IRecordReader = NewReader(body)
	for rec, ok := reader.Next(); ok; rec, ok = reader.Next() {
		got = append(got, rec)
	}
	require.NoError(t, reader.Error())
	require.Len(t, got, len(records))
	for i := range records {
		assert.Equal(t, records[i].Kind, got[i].Kind, "record %d", i)
		assert.Equal(t, records[i].ColumnFamily, got[i].ColumnFamily, "record %d", i)
		assert.Equal(t, string(records[i].Key), string(got[i].Key), "record %d", i)
		assert.Equal(t, string(records[i].Value), string(got[i].Value), "record %d", i)
		assert.Equal(t, string(records[i].Blob), string(got[i].Blob), "record %d", i)
		assert.Equal(t, string(records[i].XID), string(got[i].XID), "record %d", i)
	}
}

func TestReader_StopsOnCorruption(t *testing.T) {
	body := mustAppend(t, nil, Record{Kind: common.KeyKindSet, Key: []byte("ok"), Value: []byte("v")})
	body = append(body, byte(common.KeyKindTitanBlobIndex), 0)

	reader := NewReader(body)
	_, ok := reader.Next()
	require.True(t, ok)
	_, ok = reader.Next()
	assert.False(t, ok)
	assert.True(t, errors.Is(reader.Error(), common.CorruptionError))
	_, ok = reader.Next()
	assert.False(t, ok, "reader stays stopped")
}

func TestAppendRecord_RejectsTableOnlyKinds(t *testing.T) {
	_, err := AppendRecord(nil, Record{Kind: common.KeyKindDeleteWithTimestamp, Key: []byte("k")})
	assert.True(t, errors.Is(err, common.InvalidArgumentError))
}

func TestBuildInternalKey(t *testing.T) {
	body := mustAppend(t, nil, Record{Kind: common.KeyKindColumnFamilySet, ColumnFamily: 7, Key: []byte("user"), Value: []byte("v")})
	body = mustAppend(t, body, Record{Kind: common.KeyKindLogData, Blob: []byte("x")})

	b := key_builder.NewKeyBuilder()
	reader := NewReader(body)

	rec, ok := reader.Next()
	require.True(t, ok)
	assert.True(t, IsColumnFamilyKind(rec.Kind))
	ikey, err := BuildInternalKey(b, rec, 42)
	require.NoError(t, err)
	assert.Equal(t, common.AppendInternalKey(nil, common.MakeKey([]byte("user"), 42, common.KeyKindSet)), ikey)

	rec, ok = reader.Next()
	require.True(t, ok)
	_, err = BuildInternalKey(b, rec, 43)
	assert.True(t, errors.Is(err, common.InvalidArgumentError))
}
