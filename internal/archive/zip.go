package archive

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// openZip spools the stream to a temporary file: the central directory sits
// at the end, so zip cannot be decoded front to back.
func (r *Reader) openZip(src io.Reader) error {
	tmp, err := os.CreateTemp("", "dirchanges-*.zip")
	if err != nil {
		return fmt.Errorf("spool zip: %w", err)
	}
	r.closers = append(r.closers, func() error {
		tmp.Close()
		return os.Remove(tmp.Name())
	})

	size, err := io.Copy(tmp, src)
	if err != nil {
		return corrupt(err)
	}
	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return corrupt(err)
	}
	r.zr = zr
	return nil
}

func (r *Reader) nextZip() (Member, error) {
	if r.zipNext >= len(r.zr.File) {
		return Member{}, io.EOF
	}
	f := r.zr.File[r.zipNext]
	r.zipNext++

	m := Member{Name: f.Name, Size: int64(f.UncompressedSize64), Type: typeOf(f.Mode())}
	if strings.HasSuffix(f.Name, "/") {
		m.Type = Dir
	}
	if m.Type == Dir {
		m.Name = strings.TrimRight(m.Name, "/")
		return m, nil
	}
	if m.Type != Regular {
		return m, nil
	}

	rc, err := f.Open()
	if err != nil {
		return Member{}, corrupt(fmt.Errorf("%s: %w", f.Name, err))
	}
	r.cur = rc
	r.curDone = rc.Close
	return m, nil
}
