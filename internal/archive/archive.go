// Package archive decodes tar and zip streams, optionally wrapped in a
// gzip, zstd, lz4 or bzip2 filter, one member at a time.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bamsammich/dirchanges/internal/bytesource"
)

var (
	// ErrUnsupported is returned for data that is not a recognised archive
	// or uses a filter this build cannot decode.
	ErrUnsupported = errors.New("unsupported archive")
	// ErrCorrupt wraps decoder failures after the format was recognised.
	ErrCorrupt = errors.New("corrupt archive")
)

// Type classifies a member.
type Type int

const (
	Regular Type = iota + 1
	Dir
	HardLink
	Other // symlinks, devices, fifos
)

// Member describes one archive entry. Directory names carry no trailing
// slash.
type Member struct {
	Name string
	Type Type
	Size int64
	// Linkname is the target of a HardLink member.
	Linkname string
}

// Reader iterates the members of an archive. Member data is read through
// Read between calls to Next.
type Reader struct {
	compression Compression
	format      Format

	closers []func() error
	tr      *tar.Reader
	zr      *zip.Reader
	zipNext int
	cur     io.Reader
	curDone func() error
}

// NewReader sniffs src for a compression filter and container format. If
// src is a bytesource.Rewinder the sniffed bytes are given back to it;
// otherwise it is wrapped in a bytesource.Reader first.
func NewReader(src io.Reader) (*Reader, error) {
	rw, ok := src.(bytesource.Rewinder)
	if !ok {
		rw = bytesource.New(src, tarBlockSize)
	}

	head, err := peek(rw, magicLen)
	if err != nil {
		return nil, err
	}

	r := &Reader{compression: DetectCompression(head)}
	plain, err := r.decompress(rw)
	if err != nil {
		r.Close()
		return nil, err
	}

	inner := bytesource.New(plain, tarBlockSize)
	block, err := peek(inner, tarBlockSize)
	if err != nil {
		r.Close()
		return nil, corrupt(err)
	}
	format, ok := detectFormat(block)
	if !ok {
		r.Close()
		return nil, fmt.Errorf("%w: unrecognized format", ErrUnsupported)
	}
	r.format = format

	switch format {
	case Tar:
		r.tr = tar.NewReader(inner)
	case Zip:
		if err := r.openZip(inner); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

// peek reads up to n bytes and rolls the stream back to where it was.
func peek(rw bytesource.Rewinder, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := rw.ReadBuffered(buf)
	rw.Unread()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:got], nil
}

func (r *Reader) decompress(src io.Reader) (io.Reader, error) {
	switch r.compression {
	case None:
		return src, nil
	case Gzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, corrupt(err)
		}
		r.closers = append(r.closers, zr.Close)
		return zr, nil
	case Zstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, corrupt(err)
		}
		r.closers = append(r.closers, func() error { zr.Close(); return nil })
		return zr, nil
	case LZ4:
		return lz4.NewReader(src), nil
	case Bzip2:
		return bzip2.NewReader(src), nil
	default:
		return nil, fmt.Errorf("%w: %s compression", ErrUnsupported, r.compression)
	}
}

// Compression returns the detected filter.
func (r *Reader) Compression() Compression { return r.compression }

// Format returns the detected container.
func (r *Reader) Format() Format { return r.format }

// Next advances to the next member. It returns io.EOF after the last one.
// Unread data of the previous member is skipped.
func (r *Reader) Next() (Member, error) {
	if err := r.finishMember(); err != nil {
		return Member{}, err
	}

	switch r.format {
	case Tar:
		return r.nextTar()
	case Zip:
		return r.nextZip()
	default:
		return Member{}, io.EOF
	}
}

// Read reads the data of the current member.
func (r *Reader) Read(p []byte) (int, error) {
	if r.cur == nil {
		return 0, io.EOF
	}
	n, err := r.cur.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, corrupt(err)
	}
	return n, err
}

func (r *Reader) nextTar() (Member, error) {
	hdr, err := r.tr.Next()
	if errors.Is(err, io.EOF) {
		return Member{}, io.EOF
	}
	if err != nil {
		return Member{}, corrupt(err)
	}

	m := Member{Name: hdr.Name, Size: hdr.Size}
	switch {
	case hdr.Typeflag == tar.TypeLink:
		m.Type = HardLink
		m.Linkname = hdr.Linkname
	default:
		m.Type = typeOf(hdr.FileInfo().Mode())
	}
	if m.Type == Dir {
		m.Name = strings.TrimRight(m.Name, "/")
	}
	if m.Type == Regular {
		r.cur = r.tr
	}
	return m, nil
}

func (r *Reader) finishMember() error {
	r.cur = nil
	if r.curDone == nil {
		return nil
	}
	done := r.curDone
	r.curDone = nil
	return done()
}

// Close releases decoders and any spooled temporary file.
func (r *Reader) Close() error {
	errs := []error{r.finishMember()}
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func typeOf(mode fs.FileMode) Type {
	switch {
	case mode.IsRegular():
		return Regular
	case mode.IsDir():
		return Dir
	default:
		return Other
	}
}

func corrupt(err error) error {
	if errors.Is(err, ErrCorrupt) || errors.Is(err, ErrUnsupported) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCorrupt, err)
}
