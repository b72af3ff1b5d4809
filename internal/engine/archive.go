package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bamsammich/dirchanges/internal/archive"
	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/event"
	"github.com/bamsammich/dirchanges/internal/snapshot"
)

// ReadArchive decodes the archive on src and digests its regular members.
// Hard links take the digest of their target when the target was recorded
// earlier. Any decode error fails the whole source.
func ReadArchive(ctx context.Context, src io.Reader, source string, opts Options) (*snapshot.Snapshot, error) {
	ar, err := archive.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", source, err)
	}
	defer ar.Close()

	in := newIngest(opts, event.Archive, source)
	in.log.Debug("archive detected", "format", ar.Format(), "compression", ar.Compression())

	hashed := make(map[string]digest.Digest)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := ar.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read archive %s: %w", source, err)
		}

		switch m.Type {
		case archive.Dir:
			if c, ok := in.b.Admit(m.Name, snapshot.Directory); ok {
				in.record(c, digest.Digest{}, 0)
			}

		case archive.Regular:
			c, ok := in.b.Admit(m.Name, snapshot.File)
			if !ok {
				continue
			}
			d, n, err := hashStream(ctx, ar, in.b.Algorithm(), opts.Limiter)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, fmt.Errorf("read archive %s: %s: %w", source, m.Name, err)
			}
			hashed[m.Name] = d
			in.record(c, d, n)

		case archive.HardLink:
			c, ok := in.b.Admit(m.Name, snapshot.File)
			if !ok {
				continue
			}
			d, known := hashed[m.Linkname]
			if !known {
				in.fail(m.Name, fmt.Errorf("hard link target %q was not recorded", m.Linkname))
				continue
			}
			hashed[m.Name] = d
			in.record(c, d, 0)

		default:
			in.skip(m.Name, "not a regular file or directory")
		}
	}
	return in.finish()
}
