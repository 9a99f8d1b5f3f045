package key_builder

import (
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/internal/invariants"
	"go.uber.org/zap"
)

// maxSegments bounds a splice: three source regions, one of which is split
// in two around the inserted timestamp.
const maxSegments = 5

// segments describes a key as an ordered list of byte ranges that are
// concatenated in a single pass. Ranges may alias the builder's own buffer.
type segments struct {
	parts   [maxSegments][]byte
	n       int
	tsAdded bool
}

func (s *segments) add(b []byte) {
	s.parts[s.n] = b
	s.n++
}

// addRegion appends region. If the timestamp belongs inside it and has not
// been placed yet, region is split at offset and ts goes in between.
func (s *segments) addRegion(region []byte, insertHere bool, offset int, ts []byte) {
	if !insertHere || s.tsAdded {
		s.add(region)
		return
	}
	if invariants.Enabled && (offset < 0 || offset > len(region)) {
		invariants.Violation("timestamp split point outside of region",
			zap.Int("offset", offset), zap.Int("regionLen", len(region)))
	}
	s.add(region[:offset])
	s.add(ts)
	s.add(region[offset:])
	s.tsAdded = true
}

func (s *segments) size() int {
	n := 0
	for _, p := range s.parts[:s.n] {
		n += len(p)
	}
	return n
}

// appendTo materializes the segments after dst.
func (s *segments) appendTo(dst []byte) []byte {
	for _, p := range s.parts[:s.n] {
		dst = append(dst, p...)
	}
	return dst
}

// paddedKeySegments lays out the key obtained by keeping sharedLen bytes of
// prev, appending nonShared, and inserting a minimum timestamp of tsSize
// bytes in front of the trailer.
//
// prev already carries a timestamp, but the delta stream was produced from
// keys without one: the sharedLen bytes count the user key of prev without its
// timestamp, followed by its trailer. Those shared bytes are therefore drawn
// from two regions of prev (the user key minus the timestamp, then the
// trailer), followed by nonShared as the third region. The new trailer begins
// sharedLen+len(nonShared)-8 bytes into the stripped key, and whichever region
// holds that offset gets split around the timestamp.
func paddedKeySegments(prev []byte, sharedLen int, nonShared []byte, tsSize int) segments {
	if invariants.Enabled && sharedLen+len(nonShared) < common.InternalKeyTrailerLen {
		invariants.Violation("delta decoded key shorter than the trailer",
			zap.Int("sharedLen", sharedLen), zap.Int("nonSharedLen", len(nonShared)))
	}

	userKeyLen := max(len(prev)-common.InternalKeyTrailerLen, 0)
	sharableUserKeyLen := max(userKeyLen-tsSize, 0)
	sharedUserKeyLen := min(sharedLen, sharableUserKeyLen)
	sharedTrailerLen := sharedLen - sharedUserKeyLen
	if invariants.Enabled && sharedTrailerLen > common.InternalKeyTrailerLen {
		invariants.Violation("shared bytes run past the previous key",
			zap.Int("sharedLen", sharedLen), zap.Int("prevLen", len(prev)))
	}

	trailerStart := sharedLen + len(nonShared) - common.InternalKeyTrailerLen
	ts := common.MinTimestamp(tsSize)

	var s segments
	s.addRegion(prev[:sharedUserKeyLen],
		trailerStart < sharedUserKeyLen,
		trailerStart, ts)
	s.addRegion(prev[userKeyLen:userKeyLen+sharedTrailerLen],
		trailerStart < sharedLen,
		trailerStart-sharedUserKeyLen, ts)
	s.addRegion(nonShared,
		true,
		trailerStart-sharedLen, ts)

	invariants.Check(s.tsAdded, "timestamp was not spliced into the key")
	return s
}
