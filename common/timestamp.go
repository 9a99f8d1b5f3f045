package common

import (
	"bytes"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
)

// Timestamps are a fixed-size suffix of the user key, sized per column family.
// This package treats them as opaque bytes: the minimum timestamp is all zero
// bytes and the maximum timestamp is all 0xFF bytes.

const inlineTimestampLen = 16

var (
	minTimestampBytes [inlineTimestampLen]byte
	maxTimestampBytes = [inlineTimestampLen]byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
)

// MinTimestamp returns a minimum timestamp of tsSize bytes. Callers must not
// modify the result.
func MinTimestamp(tsSize int) []byte {
	if tsSize <= inlineTimestampLen {
		return minTimestampBytes[:tsSize:tsSize]
	}
	return make([]byte, tsSize)
}

// MaxTimestamp returns a maximum timestamp of tsSize bytes. Callers must not
// modify the result.
func MaxTimestamp(tsSize int) []byte {
	if tsSize <= inlineTimestampLen {
		return maxTimestampBytes[:tsSize:tsSize]
	}
	return bytes.Repeat([]byte{0xFF}, tsSize)
}

// AppendKeyWithMinTimestamp appends key followed by a minimum timestamp.
//
//	input [user key without ts]: <user_provided_key>
//	output:                      dst + <user_provided_key | min_ts>
func AppendKeyWithMinTimestamp(dst, key []byte, tsSize int) []byte {
	dst = append(dst, key...)
	return append(dst, MinTimestamp(tsSize)...)
}

// AppendKeyWithMaxTimestamp appends key followed by a maximum timestamp.
//
//	input [user key without ts]: <user_provided_key>
//	output:                      dst + <user_provided_key | max_ts>
func AppendKeyWithMaxTimestamp(dst, key []byte, tsSize int) []byte {
	dst = append(dst, key...)
	return append(dst, MaxTimestamp(tsSize)...)
}

// AppendUserKeyWithMinTimestamp appends key with its timestamp replaced by
// the minimum timestamp.
//
//	input [user key]: <user_provided_key | original_ts>
//	output:           dst + <user_provided_key | min_ts>
func AppendUserKeyWithMinTimestamp(dst, key []byte, tsSize int) []byte {
	invariants.Check(len(key) >= tsSize, "user key shorter than timestamp")
	return AppendKeyWithMinTimestamp(dst, key[:len(key)-tsSize], tsSize)
}

// AppendUserKeyWithMaxTimestamp appends key with its timestamp replaced by
// the maximum timestamp.
//
//	input [user key]: <user_provided_key | original_ts>
//	output:           dst + <user_provided_key | max_ts>
func AppendUserKeyWithMaxTimestamp(dst, key []byte, tsSize int) []byte {
	invariants.Check(len(key) >= tsSize, "user key shorter than timestamp")
	return AppendKeyWithMaxTimestamp(dst, key[:len(key)-tsSize], tsSize)
}

// PadInternalKeyWithMinTimestamp inserts a minimum timestamp between the user
// key and the trailer of an internal key that carries no timestamp.
//
//	input [internal key]: <user_provided_key | seqno + kind>
//	output:               dst + <user_provided_key | min_ts | seqno + kind>
func PadInternalKeyWithMinTimestamp(dst, ikey []byte, tsSize int) []byte {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen, "internal key too small")
	userKeyLen := len(ikey) - InternalKeyTrailerLen
	dst = append(dst, ikey[:userKeyLen]...)
	dst = append(dst, MinTimestamp(tsSize)...)
	return append(dst, ikey[userKeyLen:]...)
}

// StripTimestampFromInternalKey drops the timestamp of an internal key.
//
//	input [internal key]: <user_provided_key | original_ts | seqno + kind>
//	output:               dst + <user_provided_key | seqno + kind>
func StripTimestampFromInternalKey(dst, ikey []byte, tsSize int) []byte {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen+tsSize, "internal key too small")
	userKeyLen := len(ikey) - InternalKeyTrailerLen
	dst = append(dst, ikey[:userKeyLen-tsSize]...)
	return append(dst, ikey[userKeyLen:]...)
}

// ReplaceInternalKeyWithMinTimestamp replaces the timestamp of an internal
// key by the minimum timestamp.
//
//	input [internal key]: <user_provided_key | original_ts | seqno + kind>
//	output:               dst + <user_provided_key | min_ts | seqno + kind>
func ReplaceInternalKeyWithMinTimestamp(dst, ikey []byte, tsSize int) []byte {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen+tsSize, "internal key too small")
	userKeyLen := len(ikey) - InternalKeyTrailerLen
	dst = append(dst, ikey[:userKeyLen-tsSize]...)
	dst = append(dst, MinTimestamp(tsSize)...)
	return append(dst, ikey[userKeyLen:]...)
}

// ExtractUserKeyAndStripTimestamp returns the user key of an internal key
// without its timestamp.
//
//	input [internal key]: <user_provided_key | ts | seqno + kind>
//	output:               <user_provided_key>
func ExtractUserKeyAndStripTimestamp(ikey []byte, tsSize int) []byte {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen+tsSize, "internal key too small")
	return ikey[:len(ikey)-InternalKeyTrailerLen-tsSize]
}

// StripTimestampFromUserKey returns the user key without its timestamp.
func StripTimestampFromUserKey(userKey []byte, tsSize int) []byte {
	invariants.Check(len(userKey) >= tsSize, "user key shorter than timestamp")
	return userKey[:len(userKey)-tsSize]
}

// ExtractTimestampFromUserKey returns the timestamp suffix of a user key.
func ExtractTimestampFromUserKey(userKey []byte, tsSize int) []byte {
	invariants.Check(len(userKey) >= tsSize, "user key shorter than timestamp")
	return userKey[len(userKey)-tsSize:]
}

// ExtractTimestampFromKey returns the timestamp of an internal key.
//
//	input [internal key]: <user_provided_key | ts | seqno + kind>
//	output:                                   <ts>
func ExtractTimestampFromKey(ikey []byte, tsSize int) []byte {
	invariants.Check(len(ikey) >= InternalKeyTrailerLen+tsSize, "internal key too small")
	end := len(ikey) - InternalKeyTrailerLen
	return ikey[end-tsSize : end]
}
