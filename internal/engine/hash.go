package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/time/rate"

	"github.com/bamsammich/dirchanges/internal/bytesource"
	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/platform"
)

// hashChunk is the read size used while digesting content.
const hashChunk = bytesource.DefaultLookahead

// HashFile digests the file name inside fsys and returns its size.
func HashFile(
	ctx context.Context,
	fsys fs.FS,
	name string,
	alg digest.Algorithm,
	limiter *rate.Limiter,
) (digest.Digest, int64, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return digest.Digest{}, 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if osf, ok := f.(*os.File); ok {
		platform.AdviseSequential(osf)
		defer platform.Release(osf)
	}

	d, n, err := hashStream(ctx, f, alg, limiter)
	if err != nil {
		return digest.Digest{}, n, fmt.Errorf("hash %s: %w", name, err)
	}
	return d, n, nil
}

// hashStream digests r through a ByteSource's unbuffered path. File and
// archive member content both go through here, so equal bytes always yield
// equal digests.
func hashStream(
	ctx context.Context,
	r io.Reader,
	alg digest.Algorithm,
	limiter *rate.Limiter,
) (digest.Digest, int64, error) {
	if limiter != nil {
		r = newRateLimitedReader(ctx, r, limiter)
	}
	src := bytesource.New(r, hashChunk)
	h := digest.NewHasher(alg)
	buf := make([]byte, hashChunk)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return digest.Digest{}, total, err
		}
		n, err := src.ReadUnbuffered(buf)
		_, _ = h.Write(buf[:n])
		total += int64(n)
		if errors.Is(err, io.EOF) {
			return h.Sum(), total, nil
		}
		if err != nil {
			return digest.Digest{}, total, err
		}
	}
}
