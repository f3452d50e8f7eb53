package zipflow

import (
	"iter"
	"sort"
	"strings"
)

// Index provides read-only access to an archive's central directory:
// its entries in on-disk order plus a name lookup. It holds no payload
// data, only the metadata every read strategy needs before touching a
// byte of compressed content.
type Index struct {
	entries []*Entry
	byName  map[string]int
	comment string
}

// NewIndex builds an Index from already-parsed entries, in the order
// they appeared in the central directory. Name collisions keep the
// last entry seen, matching how every ZIP reader resolves a duplicate
// name: the archive's own last-one-wins convention.
func NewIndex(entries []*Entry, comment string) *Index {
	idx := &Index{
		entries: entries,
		byName:  make(map[string]int, len(entries)),
		comment: comment,
	}
	for i, e := range entries {
		idx.byName[e.Name] = i
	}
	return idx
}

// Len returns the number of entries in the archive.
func (idx *Index) Len() int { return len(idx.entries) }

// Comment returns the archive-level comment from the end of central
// directory record.
func (idx *Index) Comment() string { return idx.comment }

// Lookup returns the entry for the given name, or false if no entry
// with that exact name exists. Name matching is byte-exact; ZIP names
// are case-sensitive.
func (idx *Index) Lookup(name string) (*Entry, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return nil, false
	}
	return idx.entries[i], true
}

// At returns the entry at on-disk position i, matching the order
// entries were written to the central directory. It panics if i is out
// of range, the same contract as slice indexing.
func (idx *Index) At(i int) *Entry { return idx.entries[i] }

// Entries returns an iterator over all entries in central-directory
// order.
func (idx *Index) Entries() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range idx.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// EntriesWithPrefix returns an iterator over entries whose names begin
// with prefix, in central-directory order. Unlike a path-sorted index,
// this is a linear scan: ZIP's central directory has no ordering
// guarantee a prefix range could exploit.
func (idx *Index) EntriesWithPrefix(prefix string) iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range idx.entries {
			if strings.HasPrefix(e.Name, prefix) && !yield(e) {
				return
			}
		}
	}
}

// SortedNames returns every entry name in lexical order. Most callers
// want Entries for cheap in-order iteration; this is for callers that
// need a stable, sorted listing regardless of how the archive was
// written.
func (idx *Index) SortedNames() []string {
	names := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		names[i] = e.Name
	}
	sort.Strings(names)
	return names
}
