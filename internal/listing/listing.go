// Package listing reads and writes the textual snapshot format:
//
//	DIRHASH2
//	D <path>
//	R <hex digest> <path>
//
// The first line selects the digest algorithm. Fields are separated by a
// single space and the path is the verbatim rest of the line, so it may
// contain spaces anywhere but not newlines.
package listing

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bamsammich/dirchanges/internal/bytesource"
	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/snapshot"
)

// MagicLen is the byte length of every header line, newline included.
const MagicLen = 9

var magics = []struct {
	text string
	alg  digest.Algorithm
}{
	{"DIRHASH2\n", digest.SHA256},
	{"DIRHASH3\n", digest.BLAKE3},
}

// Magic returns the header line for alg.
func Magic(alg digest.Algorithm) string {
	for _, m := range magics {
		if m.alg == alg {
			return m.text
		}
	}
	return magics[0].text
}

// Detect returns the algorithm announced by a header, if head is one.
func Detect(head []byte) (digest.Algorithm, bool) {
	for _, m := range magics {
		if string(head) == m.text {
			return m.alg, true
		}
	}
	return 0, false
}

var (
	// ErrNotListing is returned by NewDecoder when the stream does not start
	// with a listing header. The stream is rolled back to where it was.
	ErrNotListing = errors.New("not a listing")
	// ErrUnencodable is returned for paths the line format cannot carry.
	ErrUnencodable = errors.New("path cannot be written to a listing")
)

// ParseError reports a line that violates the grammar.
type ParseError struct {
	Line int // 1-based, counting records after the header
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("listing contains errors in line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Record is one decoded line.
type Record struct {
	Path   string
	Kind   snapshot.Kind
	Digest digest.Digest
}

// Encoder writes a listing. The header goes out with the first entry, or on
// Flush for an empty listing.
type Encoder struct {
	w      *bufio.Writer
	alg    digest.Algorithm
	header bool
}

// NewEncoder returns an Encoder for digests computed with alg.
func NewEncoder(w io.Writer, alg digest.Algorithm) *Encoder {
	return &Encoder{w: bufio.NewWriter(w), alg: alg}
}

// Encode writes one entry under its source path.
func (e *Encoder) Encode(entry snapshot.Entry) error {
	if entry.Path == "" || strings.ContainsAny(entry.Path, "\n") {
		return fmt.Errorf("%w: %q", ErrUnencodable, entry.Path)
	}
	if err := e.writeHeader(); err != nil {
		return err
	}

	var err error
	switch entry.Kind {
	case snapshot.Directory:
		_, err = fmt.Fprintf(e.w, "D %s\n", entry.Path)
	case snapshot.File:
		_, err = fmt.Fprintf(e.w, "R %s %s\n", entry.Digest, entry.Path)
	default:
		return fmt.Errorf("%w: %q has kind %s", ErrUnencodable, entry.Path, entry.Kind)
	}
	return err
}

// Flush writes any buffered data, including the header if nothing else
// was written.
func (e *Encoder) Flush() error {
	if err := e.writeHeader(); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Encoder) writeHeader() error {
	if e.header {
		return nil
	}
	e.header = true
	_, err := e.w.WriteString(Magic(e.alg))
	return err
}

// Write encodes every entry of s in discovery order.
func Write(w io.Writer, s *snapshot.Snapshot) error {
	enc := NewEncoder(w, s.Algorithm())
	for _, entry := range s.Entries() {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return enc.Flush()
}

// Decoder reads a listing line by line.
type Decoder struct {
	alg  digest.Algorithm
	br   *bufio.Reader
	line int
}

// NewDecoder checks src for a listing header through a buffered read. On a
// mismatch src is rolled back and ErrNotListing is returned, so another
// decoder can start from the same position.
func NewDecoder(src bytesource.Rewinder) (*Decoder, error) {
	head := make([]byte, MagicLen)
	n, err := src.ReadBuffered(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	alg, ok := Detect(head[:n])
	if !ok {
		src.Unread()
		return nil, ErrNotListing
	}
	return &Decoder{alg: alg, br: bufio.NewReader(src)}, nil
}

// Algorithm returns the algorithm named by the header.
func (d *Decoder) Algorithm() digest.Algorithm { return d.alg }

// Next returns the next record, skipping blank lines. It returns io.EOF at
// the end of the stream and a *ParseError for a malformed line. A last line
// without a trailing newline is still parsed.
func (d *Decoder) Next() (Record, error) {
	for {
		text, err := d.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Record{}, err
		}
		if text == "" && err != nil {
			return Record{}, io.EOF
		}
		d.line++
		text = strings.TrimSuffix(text, "\n")

		rec, ok, perr := parseLine(text)
		if perr != nil {
			return Record{}, &ParseError{Line: d.line, Text: text, Err: perr}
		}
		if ok {
			return rec, nil
		}
	}
}

// parseLine decodes one line. ok is false for a blank line.
func parseLine(text string) (rec Record, ok bool, err error) {
	tag, rest := field(strings.TrimLeft(text, " "))
	switch tag {
	case "":
		return Record{}, false, nil
	case "D":
		rec.Kind = snapshot.Directory
	case "R":
		rec.Kind = snapshot.File
		var hexDigest string
		hexDigest, rest = field(rest)
		if hexDigest == "" {
			return Record{}, false, errors.New("missing digest")
		}
		if rec.Digest, err = digest.ParseHex(hexDigest); err != nil {
			return Record{}, false, err
		}
	default:
		return Record{}, false, fmt.Errorf("unknown entry type %q", tag)
	}

	if rest == "" {
		return Record{}, false, errors.New("missing path")
	}
	rec.Path = rest
	return rec, true, nil
}

// field splits s at its first space. Exactly one separator is consumed, so
// rest keeps any further spaces verbatim.
func field(s string) (word, rest string) {
	word, rest, _ = strings.Cut(s, " ")
	return word, rest
}
