package batch

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
)

// Record is one operation of a write batch. Its slices borrow the batch
// bytes.
//
//	+-----------+------------------------------+--------------------+----------------------+
//	| kind (1B) | column family (varint32) [1] | key (len prefixed) | value (len prefixed) |
//	+-----------+------------------------------+--------------------+----------------------+
//
// [1] only for the column family kinds. Which of key and value are present
// depends on the kind, LogData carries a blob and the transaction markers
// carry an XID instead.
type Record struct {
	Kind         common.KeyKind
	ColumnFamily uint32
	Key          []byte
	Value        []byte
	Blob         []byte
	XID          []byte
}

type recordLayout struct {
	columnFamily bool
	key          bool
	value        bool
	blob         bool
	xid          bool
}

func layoutOf(kind common.KeyKind) (recordLayout, bool) {
	switch kind {
	case common.KeyKindSet, common.KeyKindMerge, common.KeyKindRangeDelete,
		common.KeyKindBlobIndex, common.KeyKindWideColumnEntity:
		return recordLayout{key: true, value: true}, true
	case common.KeyKindColumnFamilySet, common.KeyKindColumnFamilyMerge, common.KeyKindColumnFamilyRangeDelete,
		common.KeyKindColumnFamilyBlobIndex, common.KeyKindColumnFamilyWideColumnEnt:
		return recordLayout{columnFamily: true, key: true, value: true}, true
	case common.KeyKindDelete, common.KeyKindSingleDelete:
		return recordLayout{key: true}, true
	case common.KeyKindColumnFamilyDelete, common.KeyKindColumnFamilySingleDelete:
		return recordLayout{columnFamily: true, key: true}, true
	case common.KeyKindLogData:
		return recordLayout{blob: true}, true
	case common.KeyKindBeginPrepareXID, common.KeyKindBeginPersistedPrepareXID,
		common.KeyKindBeginUnprepareXID, common.KeyKindNoop:
		return recordLayout{}, true
	case common.KeyKindEndPrepareXID, common.KeyKindCommitXID, common.KeyKindRollbackXID:
		return recordLayout{xid: true}, true
	case common.KeyKindCommitXIDAndTimestamp:
		return recordLayout{key: true, xid: true}, true
	default:
		return recordLayout{}, false
	}
}

// IsColumnFamilyKind reports whether records of kind carry a column family
// id.
func IsColumnFamilyKind(kind common.KeyKind) bool {
	l, ok := layoutOf(kind)
	return ok && l.columnFamily
}

// ReadKeyFromBatchEntry skips the kind byte and, for a column family record,
// the column family id of the entry at the head of input, then returns its
// key and the input that follows the key.
func ReadKeyFromBatchEntry(input []byte, cfRecord bool) ([]byte, []byte, error) {
	if len(input) == 0 {
		return nil, nil, fmt.Errorf("%w: empty batch entry", common.CorruptionError)
	}
	input = input[1:]
	if cfRecord {
		var ok bool
		if _, input, ok = readVarint32(input); !ok {
			return nil, nil, fmt.Errorf("%w: bad column family id in batch entry", common.CorruptionError)
		}
	}
	key, rest, ok := readLengthPrefixed(input)
	if !ok {
		return nil, nil, fmt.Errorf("%w: bad key in batch entry", common.CorruptionError)
	}
	return key, rest, nil
}

// ReadRecord decodes the record at the head of input and returns the input
// that follows it.
func ReadRecord(input []byte) (Record, []byte, error) {
	if len(input) == 0 {
		return Record{}, nil, fmt.Errorf("%w: empty batch entry", common.CorruptionError)
	}
	r := Record{Kind: common.KeyKind(input[0])}
	layout, ok := layoutOf(r.Kind)
	if !ok {
		return Record{}, nil, fmt.Errorf("%w: unknown batch entry kind %s", common.CorruptionError, r.Kind)
	}
	input = input[1:]

	if layout.columnFamily {
		if r.ColumnFamily, input, ok = readVarint32(input); !ok {
			return Record{}, nil, fmt.Errorf("%w: bad column family id in %s entry", common.CorruptionError, r.Kind)
		}
	}
	fields := []struct {
		present bool
		dst     *[]byte
		name    string
	}{
		{layout.key, &r.Key, "key"},
		{layout.value, &r.Value, "value"},
		{layout.blob, &r.Blob, "blob"},
		{layout.xid, &r.XID, "xid"},
	}
	for _, f := range fields {
		if !f.present {
			continue
		}
		if *f.dst, input, ok = readLengthPrefixed(input); !ok {
			return Record{}, nil, fmt.Errorf("%w: bad %s in %s entry", common.CorruptionError, f.name, r.Kind)
		}
	}
	return r, input, nil
}

// AppendRecord encodes r after dst. Fields its kind does not carry are
// ignored.
func AppendRecord(dst []byte, r Record) ([]byte, error) {
	layout, ok := layoutOf(r.Kind)
	if !ok {
		return dst, fmt.Errorf("%w: kind %s is not a batch entry", common.InvalidArgumentError, r.Kind)
	}
	dst = append(dst, byte(r.Kind))
	if layout.columnFamily {
		dst = binary.AppendUvarint(dst, uint64(r.ColumnFamily))
	}
	for _, f := range []struct {
		present bool
		b       []byte
	}{{layout.key, r.Key}, {layout.value, r.Value}, {layout.blob, r.Blob}, {layout.xid, r.XID}} {
		if !f.present {
			continue
		}
		if uint64(len(f.b)) > math.MaxUint32 {
			return dst, fmt.Errorf("%w: field of %d bytes", common.InvalidArgumentError, len(f.b))
		}
		dst = binary.AppendUvarint(dst, uint64(len(f.b)))
		dst = append(dst, f.b...)
	}
	return dst, nil
}

func readVarint32(input []byte) (uint32, []byte, bool) {
	v, n := binary.Uvarint(input)
	if n <= 0 || n > binary.MaxVarintLen32 || v > math.MaxUint32 {
		return 0, nil, false
	}
	return uint32(v), input[n:], true
}

func readLengthPrefixed(input []byte) ([]byte, []byte, bool) {
	l, rest, ok := readVarint32(input)
	if !ok || uint64(l) > uint64(len(rest)) {
		return nil, nil, false
	}
	return rest[:l:l], rest[l:], true
}
