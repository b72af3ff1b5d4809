// Package engine builds snapshots from directory trees, archive streams and
// saved listings.
package engine

import (
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/event"
	"github.com/bamsammich/dirchanges/internal/filter"
	"github.com/bamsammich/dirchanges/internal/snapshot"
	"github.com/bamsammich/dirchanges/internal/stats"
)

// Options configures how one source is ingested.
type Options struct {
	Algorithm digest.Algorithm
	Root      snapshot.RootFilter
	Exclude   *filter.Chain    // nil keeps everything
	Events    event.Func       // nil discards progress
	Stats     *stats.Collector // nil disables counting
	Limiter   *rate.Limiter    // nil reads at full speed
	Logger    *slog.Logger     // nil discards warnings
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// ingest is the per-source state shared by the three builders: it owns the
// snapshot builder and reports every entry as an event, a counter and, for
// problems, a warning.
type ingest struct {
	opts   Options
	b      *snapshot.Builder
	origin event.Origin
	source string
	log    *slog.Logger
	stats  *stats.Collector
}

func newIngest(opts Options, origin event.Origin, source string) *ingest {
	sopts := snapshot.Options{Algorithm: opts.Algorithm, Root: opts.Root}
	if !opts.Exclude.Empty() {
		sopts.Exclude = opts.Exclude
	}
	st := opts.Stats
	if st == nil {
		st = stats.NewCollector()
	}

	in := &ingest{
		opts:   opts,
		b:      snapshot.NewBuilder(sopts),
		origin: origin,
		source: source,
		log:    opts.logger().With("source", source),
		stats:  st,
	}
	in.emit(event.Event{Type: event.SourceStarted})
	return in
}

func (in *ingest) emit(e event.Event) {
	e.Origin = in.origin
	e.Source = in.source
	in.opts.Events.Emit(e)
}

func (in *ingest) record(c snapshot.Candidate, d digest.Digest, size int64) {
	entry, dup := in.b.Add(c, d)

	if entry.IsDir() {
		in.stats.AddDirsRecorded(1)
	} else {
		in.stats.AddFilesRecorded(1)
		in.stats.AddBytesHashed(size)
	}
	in.emit(event.Event{Type: event.EntryRecorded, Path: entry.Path, Dir: entry.IsDir(), Size: size})

	if dup {
		in.log.Warn("duplicate entry name", "name", entry.Name, "path", entry.Path)
		in.emit(event.Event{Type: event.DuplicateName, Path: entry.Path, Dir: entry.IsDir()})
	}
}

func (in *ingest) skip(path, reason string) {
	in.stats.AddSkipped(1)
	in.log.Debug("skipping entry", "path", path, "reason", reason)
	in.emit(event.Event{Type: event.EntrySkipped, Path: path})
}

func (in *ingest) fail(path string, err error) {
	in.stats.AddFailed(1)
	in.log.Warn("entry omitted", "path", path, "error", err)
	in.emit(event.Event{Type: event.EntryFailed, Path: path, Error: err})
}

func (in *ingest) finish() (*snapshot.Snapshot, error) {
	s, err := in.b.Finish()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.source, err)
	}
	in.emit(event.Event{Type: event.SourceComplete})
	return s, nil
}
