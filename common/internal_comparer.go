package common

// InternalKeyComparator orders encoded internal keys:
//
//   - increasing user key, according to the wrapped IComparer
//   - decreasing sequence number
//   - decreasing kind (sequence numbers are normally enough to disambiguate)
//
// It holds no mutable state and is safe for concurrent use.
type InternalKeyComparator struct {
	user IComparer
}

func NewInternalKeyComparator(user IComparer) *InternalKeyComparator {
	return &InternalKeyComparator{user: user}
}

func (c *InternalKeyComparator) UserComparer() IComparer {
	return c.user
}

func (c *InternalKeyComparator) Name() string {
	return "nogodb.InternalKeyComparator:" + c.user.Name()
}

// compareTrailers sorts the bigger trailer first.
func compareTrailers(a, b InternalKeyTrailer) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return +1
	}
	return 0
}

func compareSeqNums(a, b SeqNum) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return +1
	}
	return 0
}

func (c *InternalKeyComparator) Compare(a, b []byte) int {
	if r := c.user.Compare(ExtractUserKey(a), ExtractUserKey(b)); r != 0 {
		return r
	}
	return compareTrailers(ExtractInternalKeyFooter(a), ExtractInternalKeyFooter(b))
}

func (c *InternalKeyComparator) Equal(a, b []byte) bool {
	return c.Compare(a, b) == 0
}

// Less adapts Compare to sort.Slice style callers.
func (c *InternalKeyComparator) Less(a, b []byte) bool {
	return c.Compare(a, b) < 0
}

// CompareKeySeq is Compare without the kind tie-break.
func (c *InternalKeyComparator) CompareKeySeq(a, b []byte) int {
	if r := c.user.Compare(ExtractUserKey(a), ExtractUserKey(b)); r != 0 {
		return r
	}
	return compareSeqNums(ExtractSeqNum(a), ExtractSeqNum(b))
}

// CompareParsedKeySeq is CompareKeySeq with a decomposed left-hand side.
func (c *InternalKeyComparator) CompareParsedKeySeq(a InternalKey, b []byte) int {
	if r := c.user.Compare(a.UserKey, ExtractUserKey(b)); r != 0 {
		return r
	}
	return compareSeqNums(a.SeqNum(), ExtractSeqNum(b))
}

func (c *InternalKeyComparator) CompareParsed(a, b InternalKey) int {
	if r := c.user.Compare(a.UserKey, b.UserKey); r != 0 {
		return r
	}
	return compareTrailers(a.Trailer, b.Trailer)
}

func (c *InternalKeyComparator) CompareBytesWithParsed(a []byte, b InternalKey) int {
	if r := c.user.Compare(ExtractUserKey(a), b.UserKey); r != 0 {
		return r
	}
	return compareTrailers(ExtractInternalKeyFooter(a), b.Trailer)
}

func (c *InternalKeyComparator) CompareParsedWithBytes(a InternalKey, b []byte) int {
	return -c.CompareBytesWithParsed(b, a)
}

func (c *InternalKeyComparator) CompareEncoded(a, b *EncodedKey) int {
	return c.Compare(a.Encode(), b.Encode())
}

// CompareWithGlobalSeqNum compares a and b as if their sequence numbers were
// aSeq and bSeq respectively. Ingested sstables carry one global sequence
// number for every entry; pass DisableGlobalSeqNum to keep a key's own.
func (c *InternalKeyComparator) CompareWithGlobalSeqNum(a []byte, aSeq SeqNum, b []byte, bSeq SeqNum) int {
	if r := c.user.Compare(ExtractUserKey(a), ExtractUserKey(b)); r != 0 {
		return r
	}
	return compareTrailers(footerWithGlobalSeqNum(a, aSeq), footerWithGlobalSeqNum(b, bSeq))
}

func footerWithGlobalSeqNum(ikey []byte, seq SeqNum) InternalKeyTrailer {
	if seq == DisableGlobalSeqNum {
		return ExtractInternalKeyFooter(ikey)
	}
	return PackSequenceAndType(seq, ExtractKeyKind(ikey))
}
