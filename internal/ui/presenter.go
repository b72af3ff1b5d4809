package ui

import (
	"io"

	"github.com/bamsammich/dirchanges/internal/event"
	"github.com/bamsammich/dirchanges/internal/stats"
)

// Presenter displays ingestion progress. Handle is called synchronously by
// the snapshot builders.
type Presenter interface {
	Handle(e event.Event)
}

// Config configures a Presenter.
type Config struct {
	ErrWriter io.Writer
	Stats     *stats.Collector
	Verbose   bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if !cfg.Verbose {
		return quietPresenter{}
	}
	st := cfg.Stats
	if st == nil {
		st = stats.NewCollector()
	}
	return &plainPresenter{w: cfg.ErrWriter, stats: st}
}
