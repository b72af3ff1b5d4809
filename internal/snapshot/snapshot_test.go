package snapshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dirchanges/internal/digest"
)

type prefixExcluder string

func (p prefixExcluder) Allows(name string, _ bool) bool {
	return !strings.HasPrefix(name, string(p))
}

func dig(b byte) digest.Digest {
	var d digest.Digest
	d[0] = b
	return d
}

func add(t *testing.T, b *Builder, path string, kind Kind, d digest.Digest) bool {
	t.Helper()
	c, ok := b.Admit(path, kind)
	if !ok {
		return false
	}
	b.Add(c, d)
	return true
}

func TestRootFilterApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		path   string
		want   string
		ok     bool
	}{
		{prefix: "", path: "a/b", want: "a/b", ok: true},
		{prefix: "a", path: "a/b", want: "b", ok: true},
		{prefix: "a/", path: "a/b/c", want: "b/c", ok: true},
		{prefix: "a", path: "a", ok: false},
		{prefix: "a", path: "a/", ok: false},
		{prefix: "a/", path: "a/", ok: false},
		{prefix: "a", path: "ab/c", ok: false},
		{prefix: "a/b", path: "a/c", ok: false},
		{prefix: "a/b", path: "a/b/x", want: "x", ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.prefix+"|"+tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := NewRootFilter(tt.prefix).Apply(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootFilterMayContain(t *testing.T) {
	t.Parallel()

	f := NewRootFilter("a/b")
	assert.True(t, f.MayContain("a"))
	assert.True(t, f.MayContain("a/b"))
	assert.True(t, f.MayContain("a/b/c"))
	assert.False(t, f.MayContain("ab"))
	assert.False(t, f.MayContain("a/bc"))
	assert.False(t, f.MayContain("x"))

	assert.True(t, RootFilter{}.MayContain("anything"))
	assert.True(t, NewRootFilter("/").IsZero())
}

func TestBuilderRootFilterMiss(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Options{Root: NewRootFilter("missing")})
	add(t, b, "a", Directory, digest.Digest{})
	add(t, b, "a/f", File, dig(1))

	_, err := b.Finish()
	require.ErrorIs(t, err, ErrRootFilterMiss)
	assert.Contains(t, err.Error(), "missing")
}

func TestBuilderRootFilterMissOnEmptySource(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder(Options{Root: NewRootFilter("x")}).Finish()
	assert.ErrorIs(t, err, ErrRootFilterMiss)

	// Without a root filter an empty source is fine.
	s, err := NewBuilder(Options{}).Finish()
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestBuilderCountsMatchesBeforeExclusion(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Options{Root: NewRootFilter("top"), Exclude: prefixExcluder("skip")})
	assert.False(t, add(t, b, "top/skip.txt", File, dig(1)))
	assert.Equal(t, 1, b.Matched())

	s, err := b.Finish()
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestBuilderProjectsNames(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Options{Algorithm: digest.BLAKE3, Root: NewRootFilter("src")})
	add(t, b, "src", Directory, digest.Digest{})
	add(t, b, "src/lib", Directory, dig(9))
	add(t, b, "src/lib/x.go", File, dig(2))
	add(t, b, "other/y.go", File, dig(3))

	s, err := b.Finish()
	require.NoError(t, err)
	assert.Equal(t, digest.BLAKE3, s.Algorithm())

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "lib", Path: "src/lib", Kind: Directory}, entries[0])
	assert.Equal(t, Entry{Name: "lib/x.go", Path: "src/lib/x.go", Kind: File, Digest: dig(2)}, entries[1])
}

func TestBuilderDuplicates(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Options{})
	add(t, b, "a", File, dig(1))
	add(t, b, "b", File, dig(2))

	c, ok := b.Admit("a", File)
	require.True(t, ok)
	_, dup := b.Add(c, dig(3))
	assert.True(t, dup)
	add(t, b, "a", File, dig(4))

	assert.Equal(t, []string{"a"}, b.Duplicates())

	s, err := b.Finish()
	require.NoError(t, err)
	sorted := s.Sorted()
	require.Len(t, sorted, 4)

	// Equal names keep discovery order.
	assert.Equal(t, dig(1), sorted[0].Digest)
	assert.Equal(t, dig(3), sorted[1].Digest)
	assert.Equal(t, dig(4), sorted[2].Digest)
	assert.Equal(t, "b", sorted[3].Name)
}

func TestSortedIsByteOrdered(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Options{})
	for _, name := range []string{"b", "a/z", "a", "A", "a-b", "a/b"} {
		add(t, b, name, File, digest.Digest{})
	}
	s, err := b.Finish()
	require.NoError(t, err)

	sorted := s.Sorted()
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].Name, sorted[i].Name)
	}
	assert.Equal(t, "A", sorted[0].Name)

	// Discovery order is untouched.
	assert.Equal(t, "b", s.Entries()[0].Name)
}

func TestBuilderAddAfterFinishPanics(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Options{})
	_, err := b.Finish()
	require.NoError(t, err)
	assert.Panics(t, func() { b.Add(Candidate{Name: "x", Kind: File}, digest.Digest{}) })
}

func TestBuilderInvalidAlgorithmFallsBack(t *testing.T) {
	assert.Equal(t, digest.Default, NewBuilder(Options{Algorithm: 42}).Algorithm())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", File.String())
	assert.Equal(t, "directory", Directory.String())
	assert.Equal(t, "unknown", Kind(0).String())
	assert.True(t, Entry{Kind: Directory}.IsDir())
}
