// Package snapshot defines the entry model shared by every ingestion path:
// filesystem walks, archive streams and saved listings all produce a
// Snapshot through a Builder.
package snapshot

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bamsammich/dirchanges/internal/digest"
)

// ErrRootFilterMiss is returned by Builder.Finish when a root filter was set
// and no entry of the source lies below it.
var ErrRootFilterMiss = errors.New("root filter matched no entries")

// Kind distinguishes files from directories.
type Kind uint8

const (
	File Kind = iota + 1
	Directory
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		return "unknown"
	}
}

// Entry is one file or directory of a snapshot.
type Entry struct {
	// Name is relative to the root filter and is the key used for diffing.
	Name string
	// Path is the entry's path as found in the source.
	Path   string
	Kind   Kind
	Digest digest.Digest // only meaningful for File
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == Directory }

// Snapshot is an immutable sequence of entries in discovery order.
type Snapshot struct {
	algorithm digest.Algorithm
	entries   []Entry
}

// Algorithm returns the digest algorithm the file entries were hashed with.
func (s *Snapshot) Algorithm() digest.Algorithm { return s.algorithm }

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// Entries returns a copy of the entries in discovery order.
func (s *Snapshot) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Sorted returns a copy of the entries ordered by Name, byte-wise. Entries
// with equal names keep their discovery order.
func (s *Snapshot) Sorted() []Entry {
	sorted := slices.Clone(s.entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return sorted
}

// Matcher decides whether an entry that passed the root filter is kept.
// *filter.Chain satisfies it.
type Matcher interface {
	Allows(name string, isDir bool) bool
}

// Options configures a Builder.
type Options struct {
	Algorithm digest.Algorithm
	Root      RootFilter
	Exclude   Matcher // nil keeps everything
}

// Builder accumulates entries for one source. It exclusively owns the entry
// list until Finish hands it over as a Snapshot.
type Builder struct {
	opts       Options
	entries    []Entry
	names      map[string]int
	matched    int
	duplicates []string
	done       bool
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts Options) *Builder {
	if !opts.Algorithm.Valid() {
		opts.Algorithm = digest.Default
	}
	return &Builder{opts: opts, names: make(map[string]int)}
}

// Algorithm returns the algorithm file digests must be computed with.
func (b *Builder) Algorithm() digest.Algorithm { return b.opts.Algorithm }

// Candidate is an entry that passed the root filter and exclusion rules
// and is waiting for its digest.
type Candidate struct {
	Name string
	Path string
	Kind Kind
}

// Admit projects path through the root filter and the exclusion rules. It
// returns false when the entry is not to be recorded, in which case nothing
// needs to be hashed. Entries below the root filter count as matches even
// when an exclusion rule drops them.
func (b *Builder) Admit(path string, kind Kind) (Candidate, bool) {
	name, ok := b.opts.Root.Apply(path)
	if !ok {
		return Candidate{}, false
	}
	b.matched++

	if b.opts.Exclude != nil && !b.opts.Exclude.Allows(name, kind == Directory) {
		return Candidate{}, false
	}
	return Candidate{Name: name, Path: path, Kind: kind}, true
}

// Add records an admitted entry. d is ignored for directories. duplicate
// reports that an entry with the same name was already recorded; both are
// kept.
func (b *Builder) Add(c Candidate, d digest.Digest) (e Entry, duplicate bool) {
	if b.done {
		panic("snapshot: Add after Finish")
	}

	e = Entry{Name: c.Name, Path: c.Path, Kind: c.Kind}
	if c.Kind == File {
		e.Digest = d
	}

	b.names[c.Name]++
	if b.names[c.Name] == 2 {
		b.duplicates = append(b.duplicates, c.Name)
	}

	b.entries = append(b.entries, e)
	return e, b.names[c.Name] > 1
}

// Matched returns how many entries passed the root filter so far, including
// those later dropped by exclusion rules.
func (b *Builder) Matched() int { return b.matched }

// Duplicates returns the names recorded more than once, in the order the
// second occurrence was seen.
func (b *Builder) Duplicates() []string { return slices.Clone(b.duplicates) }

// Finish freezes the builder and returns the Snapshot. It fails with
// ErrRootFilterMiss when a root filter is set and nothing matched it.
func (b *Builder) Finish() (*Snapshot, error) {
	b.done = true
	if !b.opts.Root.IsZero() && b.matched == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRootFilterMiss, b.opts.Root)
	}
	s := &Snapshot{algorithm: b.opts.Algorithm, entries: b.entries}
	b.entries = nil
	return s, nil
}

// RootFilter restricts a snapshot to the entries below a path prefix and
// renames them relative to it. The zero value keeps every entry unchanged.
type RootFilter struct {
	prefix string
}

// NewRootFilter returns a filter for prefix. Trailing separators are
// ignored; an empty prefix yields the zero filter.
func NewRootFilter(prefix string) RootFilter {
	return RootFilter{prefix: strings.TrimRight(prefix, "/")}
}

// IsZero reports whether the filter keeps everything.
func (f RootFilter) IsZero() bool { return f.prefix == "" }

func (f RootFilter) String() string { return f.prefix }

// Apply returns the name of path relative to the filter prefix. Only paths
// strictly below prefix match; the prefix itself does not, with or without
// a trailing separator.
func (f RootFilter) Apply(path string) (string, bool) {
	if f.prefix == "" {
		return path, true
	}
	rest, ok := strings.CutPrefix(path, f.prefix)
	if !ok {
		return "", false
	}
	name, ok := strings.CutPrefix(rest, "/")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// MayContain reports whether a directory at path could hold entries that
// match the filter. Walkers use it to prune unrelated subtrees.
func (f RootFilter) MayContain(dir string) bool {
	if f.prefix == "" {
		return true
	}
	return strings.HasPrefix(f.prefix+"/", dir+"/") || strings.HasPrefix(dir, f.prefix+"/")
}
