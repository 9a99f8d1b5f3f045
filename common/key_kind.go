package common

import "fmt"

// KeyKind enumerates the kind of key: a deletion tombstone, a set
// value, a merged value, etc.
//
// These values are embedded in the on-disk data structures and must never be
// renumbered. The highest bit is reserved for table-internal encodings.
type KeyKind byte

const (
	KeyKindDelete                    KeyKind = 0x0
	KeyKindSet                       KeyKind = 0x1
	KeyKindMerge                     KeyKind = 0x2
	KeyKindLogData                   KeyKind = 0x3 // WAL only.
	KeyKindColumnFamilyDelete        KeyKind = 0x4 // WAL only.
	KeyKindColumnFamilySet           KeyKind = 0x5 // WAL only.
	KeyKindColumnFamilyMerge         KeyKind = 0x6 // WAL only.
	KeyKindSingleDelete              KeyKind = 0x7
	KeyKindColumnFamilySingleDelete  KeyKind = 0x8 // WAL only.
	KeyKindBeginPrepareXID           KeyKind = 0x9 // WAL only.
	KeyKindEndPrepareXID             KeyKind = 0xA // WAL only.
	KeyKindCommitXID                 KeyKind = 0xB // WAL only.
	KeyKindRollbackXID               KeyKind = 0xC // WAL only.
	KeyKindNoop                      KeyKind = 0xD // WAL only.
	KeyKindColumnFamilyRangeDelete   KeyKind = 0xE // WAL only.
	KeyKindRangeDelete               KeyKind = 0xF // meta block
	KeyKindColumnFamilyBlobIndex     KeyKind = 0x10
	KeyKindTitanBlobIndex            KeyKind = 0x11
	KeyKindBeginPersistedPrepareXID  KeyKind = 0x12 // WAL only.
	KeyKindBeginUnprepareXID         KeyKind = 0x13 // WAL only.
	KeyKindDeleteWithTimestamp       KeyKind = 0x14
	KeyKindCommitXIDAndTimestamp     KeyKind = 0x15 // WAL only.
	KeyKindWideColumnEntity          KeyKind = 0x16
	KeyKindColumnFamilyWideColumnEnt KeyKind = 0x17 // WAL only.
	KeyKindBlobIndex                 KeyKind = 0x18

	// KeyKindMaxValid sits right after the last valid kind. It is only used as
	// an exclusive upper bound while iterating truncated range tombstones and is
	// never persisted.
	KeyKindMaxValid KeyKind = 0x19

	// KeyKindMaxValue is the largest kind that fits below the reserved bit.
	KeyKindMaxValue KeyKind = 0x7F
)

const (
	// KeyKindForSeek sorts before every other inline kind that shares a user
	// key and sequence number, since kinds compare in descending order.
	KeyKindForSeek = KeyKindBlobIndex
	// KeyKindForSeekForPrev sorts after them.
	KeyKindForSeekForPrev = KeyKindDelete
)

var keyKindNames = [...]string{
	KeyKindDelete:                    "DEL",
	KeyKindSet:                       "SET",
	KeyKindMerge:                     "MERGE",
	KeyKindLogData:                   "LOGDATA",
	KeyKindColumnFamilyDelete:        "CF_DEL",
	KeyKindColumnFamilySet:           "CF_SET",
	KeyKindColumnFamilyMerge:         "CF_MERGE",
	KeyKindSingleDelete:              "SINGLEDEL",
	KeyKindColumnFamilySingleDelete:  "CF_SINGLEDEL",
	KeyKindBeginPrepareXID:           "BEGIN_PREPARE",
	KeyKindEndPrepareXID:             "END_PREPARE",
	KeyKindCommitXID:                 "COMMIT",
	KeyKindRollbackXID:               "ROLLBACK",
	KeyKindNoop:                      "NOOP",
	KeyKindColumnFamilyRangeDelete:   "CF_RANGEDEL",
	KeyKindRangeDelete:               "RANGEDEL",
	KeyKindColumnFamilyBlobIndex:     "CF_BLOBINDEX",
	KeyKindTitanBlobIndex:            "TITAN_BLOBINDEX",
	KeyKindBeginPersistedPrepareXID:  "BEGIN_PERSISTED_PREPARE",
	KeyKindBeginUnprepareXID:         "BEGIN_UNPREPARE",
	KeyKindDeleteWithTimestamp:       "DELWITHTS",
	KeyKindCommitXIDAndTimestamp:     "COMMIT_WITH_TS",
	KeyKindWideColumnEntity:          "ENTITY",
	KeyKindColumnFamilyWideColumnEnt: "CF_ENTITY",
	KeyKindBlobIndex:                 "BLOBINDEX",
	KeyKindMaxValid:                  "MAXVALID",
}

func (k KeyKind) String() string {
	if int(k) < len(keyKindNames) {
		return keyKindNames[k]
	}
	return fmt.Sprintf("UNKNOWN:%d", k)
}

// IsInlineKind reports whether k may be stored inline in the memtable and in
// sstable data blocks.
func IsInlineKind(k KeyKind) bool {
	return k <= KeyKindMerge ||
		k == KeyKindSingleDelete ||
		k == KeyKindBlobIndex ||
		k == KeyKindDeleteWithTimestamp ||
		k == KeyKindWideColumnEntity
}

// IsExtendedKind reports whether k comes from a user operation. Range
// deletions live in a meta block and KeyKindMaxValid only appears in
// truncated tombstone boundaries, hence the separate predicate.
func IsExtendedKind(k KeyKind) bool {
	return IsInlineKind(k) || k == KeyKindRangeDelete || k == KeyKindMaxValid
}
