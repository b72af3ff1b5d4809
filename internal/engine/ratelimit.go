package engine

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates a rate.Limiter that caps hashing reads to
// bytesPerSec. The burst is 1 MB, or the rate itself when that is lower.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(max(bytesPerSec, 1))
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// rateLimitedReader wraps an io.Reader and enforces a shared rate limit.
type rateLimitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func newRateLimitedReader(
	ctx context.Context,
	r io.Reader,
	limiter *rate.Limiter,
) *rateLimitedReader {
	return &rateLimitedReader{r: r, limiter: limiter, ctx: ctx}
}

func (rl *rateLimitedReader) Read(p []byte) (int, error) {
	n, err := rl.r.Read(p)
	if n > 0 {
		if waitErr := waitN(rl.ctx, rl.limiter, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}

// waitN charges n tokens in burst-sized steps; WaitN rejects any single
// request larger than the burst.
func waitN(ctx context.Context, lim *rate.Limiter, n int) error {
	burst := max(lim.Burst(), 1)
	for n > 0 {
		take := min(n, burst)
		if err := lim.WaitN(ctx, take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}
