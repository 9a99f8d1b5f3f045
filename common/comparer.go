package common

import (
	"bytes"
	"fmt"
)

// IComparer defines a total ordering over the space of []byte user keys: a 'less than' relationship.
// Implementations must be safe for concurrent use.
type IComparer interface {
	// Compare returns -1, 0, or +1 depending on whether a is 'less than', 'equal
	// to' or 'greater than' b.
	Compare(a, b []byte) int

	// Separator appends a sequence of bytes x to dst such that a <= x && x < b,
	// where 'less than' is consistent with Compare.
	Separator(dst, a, b []byte) []byte

	// Successor appends a sequence of bytes x to dst such that x >= b, where
	// 'less than' is consistent with Compare.
	Successor(dst, b []byte) []byte

	// Name identifies the ordering. It is persisted next to the data, so two
	// comparers with the same name must order keys identically.
	Name() string

	// TimestampSize is the width of the timestamp suffix of every user key,
	// zero when timestamps are disabled.
	TimestampSize() int
}

type comparer struct{}

func (c comparer) Separator(dst, a, b []byte) []byte {
	var prefixLen int
	n := min(len(a), len(b))
	for prefixLen = 0; prefixLen < n && a[prefixLen] == b[prefixLen]; prefixLen++ {
	}
	if prefixLen >= n || a[prefixLen] >= b[prefixLen] {
		// a is a prefix of b (or vice versa), nothing shorter fits in between
		return append(dst, a...)
	}
	if a[prefixLen]+1 < b[prefixLen] {
		dst = append(dst, a[:prefixLen+1]...)
		dst[len(dst)-1]++
		return dst
	}
	// At this point, a[prefixLen]+1 == b[prefixLen], so bumping that byte
	// would reach b. Bump the first later byte of a that can still grow.
	for i := prefixLen + 1; i < len(a); i++ {
		if a[i] != 0xff {
			dst = append(dst, a[:i+1]...)
			dst[len(dst)-1]++
			return dst
		}
	}

	return append(dst, a...)
}

func (c comparer) Successor(dst, b []byte) []byte {
	for i, v := range b {
		// get first byte i'th that < 255 --> append [b[0] ... b[i]+1] to dst
		if v < 0xff {
			dst = append(dst, b[:i+1]...)
			dst[len(dst)-1]++
			return dst
		}
	}
	// if b is full of 0xff, then do nothing
	return append(dst, b...)
}

func (c comparer) Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

func (c comparer) Name() string {
	return "nogodb.BytewiseComparator"
}

func (c comparer) TimestampSize() int {
	return 0
}

func NewComparer() IComparer {
	return &comparer{}
}

// timestampComparer orders user keys that end with a tsSize-byte timestamp:
// ascending by the bytes in front of the timestamp, then descending by the
// timestamp read as a little-endian unsigned integer, so that newer versions
// of a key come first.
type timestampComparer struct {
	tsSize int
}

func (c timestampComparer) Compare(a, b []byte) int {
	if r := bytes.Compare(StripTimestampFromUserKey(a, c.tsSize), StripTimestampFromUserKey(b, c.tsSize)); r != 0 {
		return r
	}
	return -c.compareTimestamp(ExtractTimestampFromUserKey(a, c.tsSize), ExtractTimestampFromUserKey(b, c.tsSize))
}

func (c timestampComparer) compareTimestamp(a, b []byte) int {
	// most significant byte last
	for i := c.tsSize - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return +1
		}
	}
	return 0
}

// Separator does not shorten keys: a shortened key would lose its timestamp.
func (c timestampComparer) Separator(dst, a, _ []byte) []byte {
	return append(dst, a...)
}

func (c timestampComparer) Successor(dst, b []byte) []byte {
	return append(dst, b...)
}

func (c timestampComparer) Name() string {
	return fmt.Sprintf("nogodb.BytewiseComparator.ts%d", c.tsSize)
}

func (c timestampComparer) TimestampSize() int {
	return c.tsSize
}

// NewTimestampComparer returns a bytewise comparer for user keys suffixed by
// a tsSize-byte timestamp.
func NewTimestampComparer(tsSize int) IComparer {
	if tsSize == 0 {
		return NewComparer()
	}
	return &timestampComparer{tsSize: tsSize}
}

var (
	_ IComparer = (*comparer)(nil)
	_ IComparer = (*timestampComparer)(nil)
)
