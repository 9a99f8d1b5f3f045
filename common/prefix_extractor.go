package common

import "strconv"

// IPrefixExtractor maps user keys to the prefixes that prefix bloom filters
// and prefix seeks are built on.
type IPrefixExtractor interface {
	Name() string
	// Transform returns the prefix of key. key must be InDomain.
	Transform(key []byte) []byte
	// InDomain reports whether key has a prefix at all.
	InDomain(key []byte) bool
	// InRange reports whether prefix could be the output of Transform.
	InRange(prefix []byte) bool
}

type fixedPrefixExtractor struct {
	prefixLen int
}

func (f fixedPrefixExtractor) Name() string {
	return "nogodb.FixedPrefix." + strconv.Itoa(f.prefixLen)
}

func (f fixedPrefixExtractor) Transform(key []byte) []byte {
	return key[:f.prefixLen]
}

func (f fixedPrefixExtractor) InDomain(key []byte) bool {
	return len(key) >= f.prefixLen
}

func (f fixedPrefixExtractor) InRange(prefix []byte) bool {
	return len(prefix) == f.prefixLen
}

// NewFixedPrefixExtractor uses the first prefixLen bytes of a key as its
// prefix. Shorter keys are out of domain.
func NewFixedPrefixExtractor(prefixLen int) IPrefixExtractor {
	return &fixedPrefixExtractor{prefixLen: prefixLen}
}

// InternalKeyPrefixExtractor applies a user key extractor to internal keys by
// dropping the trailer first.
type InternalKeyPrefixExtractor struct {
	user IPrefixExtractor
}

func NewInternalKeyPrefixExtractor(user IPrefixExtractor) *InternalKeyPrefixExtractor {
	return &InternalKeyPrefixExtractor{user: user}
}

func (e *InternalKeyPrefixExtractor) UserPrefixExtractor() IPrefixExtractor {
	return e.user
}

func (e *InternalKeyPrefixExtractor) Name() string {
	return e.user.Name()
}

func (e *InternalKeyPrefixExtractor) Transform(ikey []byte) []byte {
	return e.user.Transform(ExtractUserKey(ikey))
}

func (e *InternalKeyPrefixExtractor) InDomain(ikey []byte) bool {
	return e.user.InDomain(ExtractUserKey(ikey))
}

func (e *InternalKeyPrefixExtractor) InRange(ikey []byte) bool {
	return e.user.InRange(ExtractUserKey(ikey))
}

var (
	_ IPrefixExtractor = (*fixedPrefixExtractor)(nil)
	_ IPrefixExtractor = (*InternalKeyPrefixExtractor)(nil)
)
