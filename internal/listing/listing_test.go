package listing

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dirchanges/internal/bytesource"
	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/snapshot"
)

func hashOf(t *testing.T, alg digest.Algorithm, s string) digest.Digest {
	t.Helper()
	d, _, err := digest.HashReader(alg, strings.NewReader(s))
	require.NoError(t, err)
	return d
}

func buildSnapshot(t *testing.T, alg digest.Algorithm) *snapshot.Snapshot {
	t.Helper()
	b := snapshot.NewBuilder(snapshot.Options{Algorithm: alg})
	for _, e := range []struct {
		path string
		kind snapshot.Kind
		body string
	}{
		{"docs", snapshot.Directory, ""},
		{"docs/read me.txt", snapshot.File, "hello"},
		{"docs/  leading", snapshot.File, "spaces"},
		{"empty", snapshot.File, ""},
	} {
		c, ok := b.Admit(e.path, e.kind)
		require.True(t, ok)
		b.Add(c, hashOf(t, alg, e.body))
	}
	s, err := b.Finish()
	require.NoError(t, err)
	return s
}

func decodeAll(t *testing.T, data []byte) (*Decoder, []Record) {
	t.Helper()
	dec, err := NewDecoder(bytesource.New(bytes.NewReader(data), bytesource.DefaultLookahead))
	require.NoError(t, err)

	var recs []Record
	for {
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return dec, recs
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, alg := range digest.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()
			s := buildSnapshot(t, alg)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, s))
			assert.True(t, strings.HasPrefix(buf.String(), Magic(alg)))

			dec, recs := decodeAll(t, buf.Bytes())
			assert.Equal(t, alg, dec.Algorithm())

			entries := s.Entries()
			require.Len(t, recs, len(entries))
			for i, e := range entries {
				assert.Equal(t, e.Path, recs[i].Path)
				assert.Equal(t, e.Kind, recs[i].Kind)
				assert.Equal(t, e.Digest, recs[i].Digest)
			}
		})
	}
}

func TestWriteFormat(t *testing.T) {
	t.Parallel()

	s := buildSnapshot(t, digest.SHA256)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "DIRHASH2", lines[0])
	assert.Equal(t, "D docs", lines[1])
	assert.Equal(t, "R "+hashOf(t, digest.SHA256, "hello").String()+" docs/read me.txt", lines[2])
	assert.Regexp(t, `^R [0-9a-f]{64} empty$`, lines[4])
}

func TestWriteEmptySnapshot(t *testing.T) {
	t.Parallel()

	s, err := snapshot.NewBuilder(snapshot.Options{Algorithm: digest.BLAKE3}).Finish()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	assert.Equal(t, "DIRHASH3\n", buf.String())

	_, recs := decodeAll(t, buf.Bytes())
	assert.Empty(t, recs)
}

func TestEncodeRejectsNewline(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(io.Discard, digest.SHA256)
	err := enc.Encode(snapshot.Entry{Path: "a\nb", Kind: snapshot.File})
	assert.ErrorIs(t, err, ErrUnencodable)
}

func TestDecodeSingleSpaceSeparators(t *testing.T) {
	t.Parallel()

	d := hashOf(t, digest.SHA256, "x")
	data := "DIRHASH2\nR " + d.String() + "    spaced  path \nD   dir with space\n"
	_, recs := decodeAll(t, []byte(data))
	require.Len(t, recs, 2)

	// One space separates each field; everything after it is the path.
	assert.Equal(t, "   spaced  path ", recs[0].Path)
	assert.Equal(t, "  dir with space", recs[1].Path)
}

func TestRoundTripLeadingSpaces(t *testing.T) {
	t.Parallel()

	b := snapshot.NewBuilder(snapshot.Options{Algorithm: digest.SHA256})
	c, ok := b.Admit(" lead", snapshot.Directory)
	require.True(t, ok)
	b.Add(c, digest.Digest{})
	c, ok = b.Admit("  f", snapshot.File)
	require.True(t, ok)
	b.Add(c, hashOf(t, digest.SHA256, "f"))
	s, err := b.Finish()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))

	_, recs := decodeAll(t, buf.Bytes())
	var paths []string
	for _, rec := range recs {
		paths = append(paths, rec.Path)
	}
	assert.Equal(t, []string{" lead", "  f"}, paths)
}

func TestDecodeSkipsBlankLinesAndParsesUnterminatedLast(t *testing.T) {
	t.Parallel()

	data := "DIRHASH2\n\nD a\n   \nD b"
	_, recs := decodeAll(t, []byte(data))
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Path)
	assert.Equal(t, "b", recs[1].Path)
}

func TestDecodeGrammarErrors(t *testing.T) {
	t.Parallel()

	good := hashOf(t, digest.SHA256, "x").String()
	tests := []struct {
		name string
		body string
		line int
		text string
	}{
		{name: "first record", body: "X somepath\n", line: 1, text: "X somepath"},
		{name: "unknown tag", body: "D ok\nX somepath\n", line: 2, text: "X somepath"},
		{name: "invalid hex", body: "R 0xZZ path\n", line: 1, text: "R 0xZZ path"},
		{name: "odd hex", body: "R abc path\n", line: 1, text: "R abc path"},
		{name: "short digest", body: "R abcd path\n", line: 1, text: "R abcd path"},
		{name: "uppercase hex", body: "R " + strings.ToUpper(good) + " path\n", line: 1, text: "R " + strings.ToUpper(good) + " path"},
		{name: "double separator", body: "R  " + good + " path\n", line: 1, text: "R  " + good + " path"},
		{name: "missing digest", body: "\nR\n", line: 2, text: "R"},
		{name: "missing path", body: "R " + good + "\n", line: 1, text: "R " + good},
		{name: "empty path", body: "R " + good + " \n", line: 1, text: "R " + good + " "},
		{name: "dir without path", body: "D \n", line: 1, text: "D "},
		{name: "lowercase tag", body: "d dir\n", line: 1, text: "d dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dec, err := NewDecoder(bytesource.New(strings.NewReader("DIRHASH2\n"+tt.body), 0))
			require.NoError(t, err)

			var perr *ParseError
			for err == nil {
				_, err = dec.Next()
			}
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.text, perr.Text)
			assert.Contains(t, perr.Error(), "line")
		})
	}
}

func TestNewDecoderRollsBack(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"", "short", "DIRHASH9\nD x\n", "not a listing at all, just text"} {
		src := bytesource.New(strings.NewReader(data), 0)
		_, err := NewDecoder(src)
		require.ErrorIs(t, err, ErrNotListing, "input %q", data)

		// The next consumer sees the stream from the start.
		rest, err := io.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, data, string(rest))
	}
}

func TestDetect(t *testing.T) {
	alg, ok := Detect([]byte("DIRHASH2\n"))
	assert.True(t, ok)
	assert.Equal(t, digest.SHA256, alg)

	alg, ok = Detect([]byte("DIRHASH3\n"))
	assert.True(t, ok)
	assert.Equal(t, digest.BLAKE3, alg)

	_, ok = Detect([]byte("DIRHASH2"))
	assert.False(t, ok)

	for _, alg := range digest.Algorithms() {
		assert.Len(t, Magic(alg), MagicLen)
	}
}
