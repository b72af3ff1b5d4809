package digest

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherKnownVectors(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want string
	}{
		{alg: SHA256, want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{alg: BLAKE3, want: "d74981efa70a0c880b8d8c1985d075dbcbf679b99a5f9914e5aaf96b831a9e24"},
	}
	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			h := NewHasher(tt.alg)
			_, err := h.Write([]byte("hello world"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Sum().String())
		})
	}
}

func TestHasherChunkingIndependent(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 4096)

	for _, alg := range Algorithms() {
		whole := NewHasher(alg)
		_, _ = whole.Write(data)

		// The same content delivered a byte at a time yields the same digest.
		d, n, err := HashReader(alg, iotest.OneByteReader(bytes.NewReader(data)))
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), n)
		assert.Equal(t, whole.Sum(), d, alg.String())
	}
}

func TestAlgorithmsDiffer(t *testing.T) {
	a, _, err := HashReader(SHA256, strings.NewReader("same"))
	require.NoError(t, err)
	b, _, err := HashReader(BLAKE3, strings.NewReader("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseHex(t *testing.T) {
	d, _, err := HashReader(SHA256, strings.NewReader("abc"))
	require.NoError(t, err)

	parsed, err := ParseHex(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	for _, bad := range []string{
		strings.ToUpper(d.String()),
		strings.Repeat("aB", Size),
		"",
		"abc",
		"0xZZ",
		strings.Repeat("ab", Size-1),
		strings.Repeat("ab", Size+1),
		strings.Repeat("zz", Size),
	} {
		_, err := ParseHex(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, alg := range Algorithms() {
		got, err := ParseAlgorithm(alg.String())
		require.NoError(t, err)
		assert.Equal(t, alg, got)
		assert.True(t, got.Valid())
	}

	got, err := ParseAlgorithm(" BLAKE3 ")
	require.NoError(t, err)
	assert.Equal(t, BLAKE3, got)

	_, err = ParseAlgorithm("md5")
	assert.Error(t, err)
	assert.False(t, Algorithm(0).Valid())
	assert.Equal(t, "unknown(9)", Algorithm(9).String())
}
