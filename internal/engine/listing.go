package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bamsammich/dirchanges/internal/event"
	"github.com/bamsammich/dirchanges/internal/listing"
	"github.com/bamsammich/dirchanges/internal/snapshot"
)

// ReadListing loads the records of a listing whose header dec has already
// accepted. The snapshot takes the listing's algorithm, whatever
// opts.Algorithm says.
func ReadListing(ctx context.Context, dec *listing.Decoder, source string, opts Options) (*snapshot.Snapshot, error) {
	opts.Algorithm = dec.Algorithm()
	in := newIngest(opts, event.Listing, source)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		if c, ok := in.b.Admit(rec.Path, rec.Kind); ok {
			in.record(c, rec.Digest, 0)
		}
	}
	return in.finish()
}
