package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/bamsammich/dirchanges/internal/config"
	"github.com/bamsammich/dirchanges/internal/diff"
	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/engine"
	"github.com/bamsammich/dirchanges/internal/filter"
	"github.com/bamsammich/dirchanges/internal/listing"
	"github.com/bamsammich/dirchanges/internal/snapshot"
	"github.com/bamsammich/dirchanges/internal/stats"
	"github.com/bamsammich/dirchanges/internal/ui"
)

// job is a validated invocation, ready to ingest.
type job struct {
	std      streams
	from, to string
	rootFrom snapshot.RootFilter
	rootTo   snapshot.RootFilter

	alg       digest.Algorithm
	algForced bool
	exclude   *filter.Chain
	limiter   *rate.Limiter
	report    ui.ReportConfig

	stats     *stats.Collector
	presenter ui.Presenter
	logger    *slog.Logger
	closeLog  func()
}

// prepare validates everything that does not need I/O on the sources, so
// usage errors are reported before any hashing starts.
func prepare(cmd *cobra.Command, opts *options, args []string, theme config.ThemeConfig, std streams) (*job, error) {
	j := &job{std: std, from: args[0], exclude: opts.chain}
	if len(args) > 1 {
		j.to = args[1]
	}

	fromRoot, toRoot, err := opts.roots()
	if err != nil {
		return nil, err
	}
	if opts.hash && toRoot != "" {
		return nil, usageError("--within-to needs a TO argument")
	}
	j.rootFrom = snapshot.NewRootFilter(fromRoot)
	j.rootTo = snapshot.NewRootFilter(toRoot)

	j.alg, err = digest.ParseAlgorithm(opts.algorithm)
	if err != nil {
		return nil, usageError("invalid --algorithm: %w", err)
	}
	j.algForced = cmd.Flags().Changed("algorithm")

	if opts.filterFile != "" {
		if err := opts.chain.LoadFile(opts.filterFile); err != nil {
			return nil, fatal(err)
		}
	}

	if opts.bwLimit != "" {
		n, err := filter.ParseSize(opts.bwLimit)
		if err != nil {
			return nil, usageError("invalid --bwlimit: %w", err)
		}
		if n > 0 {
			j.limiter = engine.NewBWLimiter(n)
		}
	}

	mode, err := ui.ParseColorMode(opts.color)
	if err != nil {
		return nil, usageError("invalid --color: %w", err)
	}
	out, _ := std.out.(*os.File)
	j.report = ui.ReportConfig{
		Color: mode.UseColor(out),
		Theme: ui.DefaultTheme().ApplyTheme(theme),
	}
	if opts.short {
		j.report.Style = ui.StyleShort
	}

	if err := engine.CheckSources(j.from, j.to); err != nil {
		return nil, fatal(err)
	}

	j.logger, j.closeLog, err = newLogger(std.err, opts.verbose, opts.logFile)
	if err != nil {
		return nil, fatal(err)
	}

	j.stats = stats.NewCollector()
	j.presenter = ui.NewPresenter(ui.Config{ErrWriter: std.err, Stats: j.stats, Verbose: opts.verbose})
	return j, nil
}

func (j *job) close() {
	if j.closeLog != nil {
		j.closeLog()
	}
}

func (j *job) load(ctx context.Context, source string, root snapshot.RootFilter) (*snapshot.Snapshot, error) {
	s, err := engine.Load(ctx, source, j.std.in, engine.Options{
		Algorithm: j.alg,
		Root:      root,
		Exclude:   j.exclude,
		Events:    j.presenter.Handle,
		Stats:     j.stats,
		Limiter:   j.limiter,
		Logger:    j.logger,
	})
	if err != nil {
		return nil, fatal(err)
	}
	j.logger.Debug("source loaded", "source", source, "entries", s.Len(), "algorithm", s.Algorithm())
	return s, nil
}

// printListing writes FROM as a listing. Entries whose path cannot be
// represented in a listing are left out with a warning.
func (j *job) printListing(ctx context.Context) error {
	s, err := j.load(ctx, j.from, j.rootFrom)
	if err != nil {
		return err
	}

	enc := listing.NewEncoder(j.std.out, s.Algorithm())
	for _, e := range s.Entries() {
		err := enc.Encode(e)
		switch {
		case err == nil:
		case errors.Is(err, listing.ErrUnencodable):
			j.logger.Warn("entry left out of listing", "path", e.Path, "error", err)
		default:
			return fatal(fmt.Errorf("write listing: %w", err))
		}
	}
	if err := enc.Flush(); err != nil {
		return fatal(fmt.Errorf("write listing: %w", err))
	}
	return nil
}

// compare loads both sources and prints their differences. Unless an
// algorithm was given explicitly, TO is hashed with FROM's algorithm so a
// saved BLAKE3 listing can be compared against a live tree.
func (j *job) compare(ctx context.Context) error {
	from, err := j.load(ctx, j.from, j.rootFrom)
	if err != nil {
		return err
	}
	if !j.algForced {
		j.alg = from.Algorithm()
	}

	to, err := j.load(ctx, j.to, j.rootTo)
	if err != nil {
		return err
	}

	changes, err := diff.Compare(from, to)
	if err != nil {
		return fatal(err)
	}

	sum := diff.Summarize(changes)
	j.logger.Debug("comparison complete",
		"added", sum.Added,
		"removed", sum.Removed,
		"modified", sum.Modified,
		"stats", j.stats.Snapshot().String(),
	)

	if err := ui.WriteReport(j.std.out, changes, j.report); err != nil {
		return fatal(fmt.Errorf("write report: %w", err))
	}
	return nil
}
