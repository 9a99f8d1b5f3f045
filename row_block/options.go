package row_block

import "github.com/datnguyenzzz/nogodb/lib/go-internal-key/common"

type OptionFn func(*options)

type options struct {
	// restartInterval is the number of keys between restart points for delta
	// encoding of keys.
	restartInterval int

	// tsSize is the size of the timestamp suffix of every user key in the
	// block. Zero means keys carry no timestamp.
	tsSize int

	// persistTimestamp keeps the timestamps in the stored keys. When false,
	// the writer strips them and readers pad every key with the minimum
	// timestamp instead.
	persistTimestamp bool

	// compression is the algorithm applied to the finished block.
	compression CompressionType

	// prefixExtractor, when set, makes the writer build a prefix bloom filter
	// next to the block.
	prefixExtractor common.IPrefixExtractor
	bitsPerKey      int
}

var defaultOptions = options{
	restartInterval:  16,
	tsSize:           0,
	persistTimestamp: true,
	compression:      NoCompression,
}

func WithRestartInterval(interval int) OptionFn {
	return func(o *options) {
		if interval > 0 {
			o.restartInterval = interval
		}
	}
}

func WithTimestampSize(tsSize int) OptionFn {
	return func(o *options) {
		o.tsSize = tsSize
	}
}

func WithPersistTimestamp(persist bool) OptionFn {
	return func(o *options) {
		o.persistTimestamp = persist
	}
}

func WithCompression(ct CompressionType) OptionFn {
	return func(o *options) {
		o.compression = ct
	}
}

// WithPrefixFilter builds a bloom filter over the prefixes that extractor
// takes from the user keys, timestamps excluded. bitsPerKey <= 0 picks the
// default of 10.
func WithPrefixFilter(extractor common.IPrefixExtractor, bitsPerKey int) OptionFn {
	return func(o *options) {
		o.prefixExtractor = extractor
		o.bitsPerKey = bitsPerKey
	}
}

func buildOptions(opts []OptionFn) options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// stripsTimestamp reports whether stored keys lack the timestamp that the
// logical keys have.
func (o *options) stripsTimestamp() bool {
	return o.tsSize > 0 && !o.persistTimestamp
}
