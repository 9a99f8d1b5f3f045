package row_block

import (
	"encoding/binary"

	"github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"
	"github.com/twmb/murmur3"
)

const (
	defaultBitsPerKey = 10
	cacheLineBytes    = 64
	cacheLineBits     = 8 * cacheLineBytes
)

// FilterWriter builds a blocked bloom filter over the key prefixes of a
// block, so a prefix seek can skip blocks that hold none of its keys.
//
//	+--------------------------------------+----------------+---------------------+
//	| cache lines (64 B each) ...          | nProbes (1 B)  | nLines (4 B)        |
//	+--------------------------------------+----------------+---------------------+
//
// Every prefix maps to one cache line and sets nProbes bits in it.
type FilterWriter struct {
	extractor  common.IPrefixExtractor
	tsSize     int
	bitsPerKey int

	hashes   []uint32
	lastHash uint32
}

func newFilterWriter(extractor common.IPrefixExtractor, bitsPerKey, tsSize int) *FilterWriter {
	if bitsPerKey <= 0 {
		bitsPerKey = defaultBitsPerKey
	}
	return &FilterWriter{extractor: extractor, tsSize: tsSize, bitsPerKey: bitsPerKey}
}

// Add records the prefix of an internal key. Keys outside the extractor's
// domain are skipped.
func (f *FilterWriter) Add(ikey []byte) {
	userKey := common.ExtractUserKeyAndStripTimestamp(ikey, f.tsSize)
	if !f.extractor.InDomain(userKey) {
		return
	}
	h := murmur3.Sum32(f.extractor.Transform(userKey))
	if len(f.hashes) > 0 && f.lastHash == h {
		// consecutive keys usually share their prefix
		return
	}
	f.hashes = append(f.hashes, h)
	f.lastHash = h
}

// Finish appends the filter to dst and resets the writer. A filter over no
// prefix is empty.
func (f *FilterWriter) Finish(dst []byte) []byte {
	if len(f.hashes) == 0 {
		return dst
	}
	nLines := (len(f.hashes)*f.bitsPerKey + cacheLineBits - 1) / cacheLineBits
	// an odd number of lines spreads the hashes better
	if nLines%2 == 0 {
		nLines++
	}
	nBytes := nLines * cacheLineBytes

	start := len(dst)
	dst = append(dst, make([]byte, nBytes+5)...)
	lines := dst[start : start+nBytes]

	nProbes := probesFor(f.bitsPerKey)
	for _, h := range f.hashes {
		delta := h>>17 | h<<15
		line := (h % uint32(nLines)) * cacheLineBits
		for p := byte(0); p < nProbes; p++ {
			bitPos := line + (h % cacheLineBits)
			lines[bitPos/8] |= 1 << (bitPos % 8)
			h += delta
		}
	}
	dst[start+nBytes] = nProbes
	binary.LittleEndian.PutUint32(dst[start+nBytes+1:], uint32(nLines))

	f.hashes = f.hashes[:0]
	return dst
}

func probesFor(bitsPerKey int) byte {
	n := byte(float64(bitsPerKey) * 0.69) // ln(2)
	return min(max(n, 1), 30)
}

// PrefixFilter probes a filter built by FilterWriter.
type PrefixFilter struct {
	data []byte
}

func NewPrefixFilter(data []byte) PrefixFilter {
	return PrefixFilter{data: data}
}

// MayContain reports whether a key with prefix may be in the block. False
// positives are possible, false negatives are not. An empty or malformed
// filter matches nothing.
func (f PrefixFilter) MayContain(prefix []byte) bool {
	if len(f.data) <= 5 {
		return false
	}
	n := len(f.data) - 5
	nProbes := f.data[n]
	nLines := binary.LittleEndian.Uint32(f.data[n+1:])
	if nLines == 0 || uint32(n)%nLines != 0 {
		return false
	}
	lineBits := 8 * (uint32(n) / nLines)

	h := murmur3.Sum32(prefix)
	delta := h>>17 | h<<15
	line := (h % nLines) * lineBits
	for p := byte(0); p < nProbes; p++ {
		bitPos := line + (h % lineBits)
		if f.data[bitPos/8]&(1<<(bitPos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}
