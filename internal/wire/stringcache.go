package wire

// SharedStringLimit is the maximum number of entries either string cache
// holds before it is cleared and interning starts again from index 0. The
// value and property caches each enforce this independently.
const SharedStringLimit = 1024

// MaxSharedStringBytes is the longest UTF-8 byte length a string is still
// eligible to be interned at. Longer strings are written out literally on
// every occurrence instead.
const MaxSharedStringBytes = 64

// ReaderStringCache is the decode-side back-reference table: strings are
// appended in the order they are first seen and later referenced by index.
type ReaderStringCache struct {
	entries []string
}

// NewReaderStringCache returns an empty decode-side string cache.
func NewReaderStringCache() *ReaderStringCache {
	return &ReaderStringCache{entries: make([]string, 0, 64)}
}

// Intern records s as the next back-reference entry, clearing the table
// first if it is already at capacity. It reports whether the table wrapped
// back to index 0 on this call.
func (c *ReaderStringCache) Intern(s string) (wrapped bool) {
	if len(c.entries) >= SharedStringLimit {
		c.entries = c.entries[:0]
		wrapped = true
	}
	c.entries = append(c.entries, s)
	return wrapped
}

// Get returns the string previously interned at the given reference index.
func (c *ReaderStringCache) Get(reference int) (string, bool) {
	if reference < 0 || reference >= len(c.entries) {
		return "", false
	}
	return c.entries[reference], true
}

// WriterStringCache is the encode-side counterpart: it tracks both
// insertion order and a reverse index so a repeated string can be resolved
// back to its back-reference number.
type WriterStringCache struct {
	entries []string
	index   map[string]int
}

// NewWriterStringCache returns an empty encode-side string cache.
func NewWriterStringCache() *WriterStringCache {
	return &WriterStringCache{
		entries: make([]string, 0, 64),
		index:   make(map[string]int, 64),
	}
}

// Lookup returns the back-reference index for s if it was interned since
// the last clear.
func (c *WriterStringCache) Lookup(s string) (int, bool) {
	ref, ok := c.index[s]
	return ref, ok
}

// Intern records s as the next back-reference entry, clearing the table
// first if it is already at capacity. It is the caller's responsibility to
// only intern strings within MaxSharedStringBytes and not already present.
// It reports whether the table wrapped back to index 0 on this call.
func (c *WriterStringCache) Intern(s string) (wrapped bool) {
	if len(c.entries) >= SharedStringLimit {
		c.entries = c.entries[:0]
		clear(c.index)
		wrapped = true
	}
	c.index[s] = len(c.entries)
	c.entries = append(c.entries, s)
	return wrapped
}
