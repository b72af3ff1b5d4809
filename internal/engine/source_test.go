package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/listing"
	"github.com/bamsammich/dirchanges/internal/snapshot"
)

func TestCheckSources(t *testing.T) {
	assert.NoError(t, CheckSources("a", "b"))
	assert.NoError(t, CheckSources("-", "b"))
	assert.NoError(t, CheckSources("-"))
	assert.ErrorIs(t, CheckSources("-", "-"), ErrStdinTwice)
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "tree")
	createTestTree(t, tree)

	fromDir, err := Load(context.Background(), tree, nil, Options{})
	require.NoError(t, err)

	// Save a listing and an archive next to the tree.
	var listBuf bytes.Buffer
	require.NoError(t, listing.Write(&listBuf, fromDir))
	listPath := filepath.Join(dir, "tree.lst")
	require.NoError(t, os.WriteFile(listPath, listBuf.Bytes(), 0o644))

	tarPath := filepath.Join(dir, "tree.tar")
	require.NoError(t, os.WriteFile(tarPath, buildTestTar(t), 0o644))

	fromList, err := Load(context.Background(), listPath, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, fromDir.Entries(), fromList.Entries())

	fromTar, err := Load(context.Background(), tarPath, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, fromDir.Len()+1, fromTar.Len())

	fromStdin, err := Load(context.Background(), Stdin, bytes.NewReader(listBuf.Bytes()), Options{})
	require.NoError(t, err)
	assert.Equal(t, fromDir.Entries(), fromStdin.Entries())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read or open")

	_, err = Load(context.Background(), os.DevNull, nil, Options{})
	assert.ErrorIs(t, err, ErrNotFileOrDir)
}

func TestLoadStreamFallsBackToArchive(t *testing.T) {
	// The listing check consumes nothing: the tar header is decoded from
	// the first byte of the same stream.
	s, err := LoadStream(context.Background(), bytes.NewReader(buildTestTar(t)), "-", Options{})
	require.NoError(t, err)
	assert.Contains(t, names(s), "sub/deep/leaf.txt")
}

func TestLoadStreamListingAlgorithm(t *testing.T) {
	d, _, err := digest.HashReader(digest.BLAKE3, strings.NewReader("x"))
	require.NoError(t, err)
	text := "DIRHASH3\nD top\nR " + d.String() + " top/x\n"

	s, err := LoadStream(context.Background(), strings.NewReader(text), "saved", Options{
		Algorithm: digest.SHA256,
		Root:      snapshot.NewRootFilter("top"),
	})
	require.NoError(t, err)
	assert.Equal(t, digest.BLAKE3, s.Algorithm())
	assert.Equal(t, []string{"x"}, names(s))
	assert.Equal(t, d, s.Entries()[0].Digest)
}

func TestLoadStreamListingErrors(t *testing.T) {
	_, err := LoadStream(context.Background(), strings.NewReader("DIRHASH2\nD ok\nX somepath\n"), "bad", Options{})
	var perr *listing.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)

	_, err = LoadStream(context.Background(), strings.NewReader("DIRHASH2\nD ok\n"), "saved", Options{
		Root: snapshot.NewRootFilter("elsewhere"),
	})
	assert.ErrorIs(t, err, snapshot.ErrRootFilterMiss)
}
