// Package bytesource provides a byte reader with bounded lookahead and a
// single-step rollback.
//
// A Reader keeps two lookahead windows of at most maxLookahead bytes each.
// Buffered reads fill the windows and remember where they started, so a
// caller can peek at a header, decide it is not the format it expected, and
// Unread it. A different consumer can then read the same bytes through the
// unbuffered path without the underlying stream being read twice.
package bytesource

import (
	"errors"
	"fmt"
	"io"
)

// DefaultLookahead is the window size used when reading snapshot sources.
const DefaultLookahead = 8 << 10

// ErrLookahead is returned by ReadBuffered when the request is larger than
// the lookahead window. The reader state is left untouched.
var ErrLookahead = errors.New("bytesource: buffered read exceeds lookahead")

// Rewinder is a stream that supports a bounded peek followed by rollback.
type Rewinder interface {
	io.Reader
	ReadBuffered(p []byte) (int, error)
	Unread()
}

var _ Rewinder = (*Reader)(nil)

// Reader is a double-buffered reader over an io.Reader. It is not safe for
// concurrent use.
type Reader struct {
	r            io.Reader
	maxLookahead int
	buf          []byte // window 0 then window 1, maxLookahead bytes each
	win          [2]Span

	pos      int64 // logical position of the next byte returned
	rollback int64 // position restored by Unread
	device   int64 // bytes consumed from r so far

	eof bool
	err error
}

// New returns a Reader over r. A non-positive maxLookahead selects
// DefaultLookahead.
func New(r io.Reader, maxLookahead int) *Reader {
	if maxLookahead <= 0 {
		maxLookahead = DefaultLookahead
	}
	return &Reader{
		r:            r,
		maxLookahead: maxLookahead,
		buf:          make([]byte, 2*maxLookahead),
	}
}

// MaxLookahead returns the largest request ReadBuffered accepts.
func (r *Reader) MaxLookahead() int { return r.maxLookahead }

// Pos returns the logical stream position.
func (r *Reader) Pos() int64 { return r.pos }

// EOF reports whether the underlying stream has been exhausted. Bytes may
// still be available from the lookahead windows.
func (r *Reader) EOF() bool { return r.eof }

// Err returns the first device error seen, if any.
func (r *Reader) Err() error { return r.err }

// Windows returns the stream ranges currently held by the two windows.
func (r *Reader) Windows() [2]Span { return r.win }

// ReadBuffered reads up to len(p) bytes from the current position, refilling
// the stale lookahead window when the request runs past both windows. The
// position before the call becomes the rollback point for Unread.
//
// A short read returns io.EOF at end of stream, or the device error.
func (r *Reader) ReadBuffered(p []byte) (int, error) {
	if len(p) > r.maxLookahead {
		return 0, ErrLookahead
	}

	r.rollback = r.pos

	end := r.pos + int64(len(p))
	if !r.eof && r.err == nil && end > max(r.win[0].End, r.win[1].End) {
		r.refill()
	}

	return r.copyOut(p)
}

// ReadUnbuffered reads up to len(p) bytes without refilling the windows.
// Bytes at the current position that are still held in a window are served
// from it; the rest is read directly from the stream. Unread after an
// unbuffered read is a no-op.
func (r *Reader) ReadUnbuffered(p []byte) (int, error) {
	n, err := r.copyOut(p)
	r.rollback = r.pos
	return n, err
}

// Read implements io.Reader on top of ReadUnbuffered, so decoders that only
// read sequentially can consume the stream after a header has been rolled
// back.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return r.ReadUnbuffered(p)
}

// Unread moves the position back to where the most recent buffered read
// started. It only undoes a buffered read that was served from the windows.
func (r *Reader) Unread() {
	r.pos = r.rollback
}

// refill replaces the stale window (the one ending first) with the next
// block of the stream.
func (r *Reader) refill() {
	stale := 0
	if r.win[0].End > r.win[1].End {
		stale = 1
	}

	block := r.window(stale)
	n, err := readFull(r.r, block)
	r.win[stale] = Span{Start: r.device, End: r.device + int64(n)}
	r.device += int64(n)
	r.noteErr(err)
}

// copyOut fills p from the windows that intersect [pos, pos+len(p)), then
// reads any remainder straight from the stream.
func (r *Reader) copyOut(p []byte) (int, error) {
	want := Span{Start: r.pos, End: r.pos + int64(len(p))}

	filled := r.pos
	for _, i := range r.byStart() {
		s, ok := Intersect(want, r.win[i])
		if !ok || s.Start != filled {
			continue
		}
		w := r.win[i]
		copy(p[s.Start-r.pos:s.End-r.pos], r.window(i)[s.Start-w.Start:s.End-w.Start])
		filled = s.End
	}

	n := int(filled - r.pos)
	if n < len(p) && filled == r.device && !r.eof && r.err == nil {
		m, err := readFull(r.r, p[n:])
		r.device += int64(m)
		n += m
		r.noteErr(err)
		// Bytes that never passed through a window cannot be rolled back.
		r.rollback = r.pos + int64(n)
	}

	r.pos += int64(n)

	if n < len(p) {
		if r.err != nil {
			return n, r.err
		}
		return n, io.EOF
	}
	return n, nil
}

func (r *Reader) noteErr(err error) {
	switch {
	case err == nil:
	case err == io.EOF: //nolint:errorlint // only the bare sentinel marks a clean end
		r.eof = true
	default:
		r.err = fmt.Errorf("bytesource: read at offset %d: %w", r.device, err)
	}
}

const maxEmptyReads = 100

// readFull is io.ReadFull without the ErrUnexpectedEOF translation: a
// device that returns ErrUnexpectedEOF itself (a truncated compressed
// stream, say) must surface as an error rather than a clean end.
func readFull(src io.Reader, p []byte) (int, error) {
	n, empty := 0, 0
	for n < len(p) {
		m, err := src.Read(p[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m > 0 {
			empty = 0
		} else if empty++; empty >= maxEmptyReads {
			return n, io.ErrNoProgress
		}
	}
	return n, nil
}

func (r *Reader) window(i int) []byte {
	return r.buf[i*r.maxLookahead : (i+1)*r.maxLookahead]
}

// byStart orders the window indices by their stream offset.
func (r *Reader) byStart() [2]int {
	if r.win[1].Start < r.win[0].Start {
		return [2]int{1, 0}
	}
	return [2]int{0, 1}
}
