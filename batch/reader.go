package batch

import (
	"fmt"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/key_builder"
	"go.uber.org/zap"
)

// IRecordReader yields the records of a write batch in order.
type IRecordReader interface {
	// Next returns the next record, false once the batch is exhausted or
	// corrupted.
	Next() (Record, bool)
	// Error returns the corruption that stopped the reader, if any.
	Error() error
}

// Reader reads the records of a batch body. The records borrow its bytes.
type Reader struct {
	data []byte
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Next() (Record, bool) {
	if r.err != nil || len(r.data) == 0 {
		return Record{}, false
	}
	rec, rest, err := ReadRecord(r.data)
	if err != nil {
		zap.L().Error("failed to decode batch record", zap.Int("remaining", len(r.data)), zap.Error(err))
		r.err = err
		return Record{}, false
	}
	r.data = rest
	return rec, true
}

func (r *Reader) Error() error {
	return r.err
}

// PointKind maps a batch record kind to the kind its key carries once
// applied: the column family variants lose their prefix. Control records
// produce no key.
func PointKind(kind common.KeyKind) (common.KeyKind, bool) {
	switch kind {
	case common.KeyKindSet, common.KeyKindColumnFamilySet:
		return common.KeyKindSet, true
	case common.KeyKindMerge, common.KeyKindColumnFamilyMerge:
		return common.KeyKindMerge, true
	case common.KeyKindDelete, common.KeyKindColumnFamilyDelete:
		return common.KeyKindDelete, true
	case common.KeyKindSingleDelete, common.KeyKindColumnFamilySingleDelete:
		return common.KeyKindSingleDelete, true
	case common.KeyKindRangeDelete, common.KeyKindColumnFamilyRangeDelete:
		return common.KeyKindRangeDelete, true
	case common.KeyKindBlobIndex, common.KeyKindColumnFamilyBlobIndex:
		return common.KeyKindBlobIndex, true
	case common.KeyKindWideColumnEntity, common.KeyKindColumnFamilyWideColumnEnt:
		return common.KeyKindWideColumnEntity, true
	default:
		return 0, false
	}
}

// BuildInternalKey encodes the key of rec at seq into b and returns it. The
// result is valid until b changes.
func BuildInternalKey(b *key_builder.KeyBuilder, rec Record, seq common.SeqNum) ([]byte, error) {
	kind, ok := PointKind(rec.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s record has no key", common.InvalidArgumentError, rec.Kind)
	}
	return b.SetInternalKeyParts(nil, rec.Key, seq, kind, nil), nil
}

var _ IRecordReader = (*Reader)(nil)
