package ui

import (
	"fmt"
	"io"

	"github.com/bamsammich/dirchanges/internal/event"
	"github.com/bamsammich/dirchanges/internal/stats"
)

// plainPresenter prints one line per recorded entry and a summary with a
// blank line after each source.
type plainPresenter struct {
	w      io.Writer
	stats  *stats.Collector
	before stats.Snapshot
}

func (p *plainPresenter) Handle(ev event.Event) {
	switch ev.Type {
	case event.SourceStarted:
		p.before = p.stats.Snapshot()
	case event.EntryRecorded:
		fmt.Fprintln(p.w, ev.Display())
	case event.SourceComplete:
		delta := p.stats.Snapshot().Sub(p.before)
		fmt.Fprintf(p.w, "%s: %s\n\n", ev.Source, SourceSummary(delta))
	case event.EntrySkipped, event.EntryFailed, event.DuplicateName:
		// reported through the logger
	}
}
