package common

import (
	"math"
	"strconv"
)

// SeqNum is a sequence number defining precedence among identical keys. A key
// with a higher sequence number takes precedence over a key with an equal user
// key of a lower sequence number.
type SeqNum uint64

const (
	SeqNumZero SeqNum = 0

	// SeqNumMax is reserved for sentinel keys and open-ended tombstone
	// boundaries. The largest sequence number a write can carry is SeqNumMax-1.
	// The low 8 bits of the trailer hold the kind, leaving 56 bits here.
	SeqNumMax SeqNum = 1<<56 - 1

	// DisableGlobalSeqNum tells InternalKeyComparator.CompareWithGlobalSeqNum
	// to use the sequence number embedded in the key. It lies outside of the
	// 56-bit range and must not be confused with SeqNumMax.
	DisableGlobalSeqNum SeqNum = math.MaxUint64
)

func (s SeqNum) String() string {
	switch s {
	case SeqNumMax:
		return "max"
	case DisableGlobalSeqNum:
		return "disabled"
	}
	return strconv.FormatUint(uint64(s), 10)
}
