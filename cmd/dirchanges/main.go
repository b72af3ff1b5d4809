package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/dirchanges/internal/config"
	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/filter"
	"github.com/bamsammich/dirchanges/internal/ui"
)

var version = "dev"

const programName = "dirchanges"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// withinFlag collects -w values: the first applies to FROM, the second to TO.
type withinFlag struct {
	dirs []string
}

func (w *withinFlag) String() string {
	if len(w.dirs) == 0 {
		return ""
	}
	return w.dirs[0]
}

func (*withinFlag) Type() string { return "dir" }

func (w *withinFlag) Set(val string) error {
	if len(w.dirs) == 2 {
		return fmt.Errorf("extra option '--within %s'", val)
	}
	w.dirs = append(w.dirs, val)
	return nil
}

// options holds the parsed command line.
type options struct {
	hash        bool
	within      withinFlag
	withinTo    string
	short       bool
	verbose     bool
	algorithm   string
	filterFile  string
	bwLimit     string
	color       string
	logFile     string
	showVersion bool

	chain *filter.Chain
}

// roots returns the root filters for FROM and TO.
func (o *options) roots() (from, to string, err error) {
	switch len(o.within.dirs) {
	case 2:
		if o.withinTo != "" {
			return "", "", usageError("--within-to conflicts with a second --within")
		}
		return o.within.dirs[0], o.within.dirs[1], nil
	case 1:
		from = o.within.dirs[0]
	}
	return from, o.withinTo, nil
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// usageError reports a command line that cannot be run. It exits with 2.
func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// fatal reports a failure while running. It exits with 1.
func fatal(err error) error {
	return &exitError{code: 1, err: err}
}

// streams are the process's standard files, replaceable in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(streams{in: stdin, out: stdout, err: stderr})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	code := 2
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		code = exitErr.code
	}
	fmt.Fprintf(stderr, "%s: %v\n", programName, err)
	if code == 2 {
		fmt.Fprintf(stderr, "Try '%s --help' for more information.\n", programName)
	}
	return code
}

func newRootCmd(std streams) *cobra.Command {
	opts := &options{chain: filter.NewChain()}

	rootCmd := &cobra.Command{
		Use:   programName + " [flags] FROM [TO]",
		Short: "Summarize differences between two directories, archives or hash listings",
		Long:  longHelp,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			if opts.hash {
				if len(args) > 1 {
					return usageError("extra argument '%s'", args[1])
				}
				return cobra.ExactArgs(1)(cmd, args)
			}
			if len(args) > 2 {
				return usageError("extra argument '%s'", args[2])
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(std.out, "%s %s\n", programName, version)
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				slog.New(slog.NewTextHandler(std.err, nil)).Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, opts)

			job, err := prepare(cmd, opts, args, cfg.Theme, std)
			if err != nil {
				return err
			}
			defer job.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if opts.hash {
				return job.printListing(ctx)
			}
			return job.compare(ctx)
		},
	}

	f := rootCmd.Flags()
	f.SortFlags = false
	f.BoolVarP(&opts.hash, "hash", "H", false, "print a listing of hashes for FROM to standard output")
	f.VarP(&opts.within, "within", "w", "include only entries below DIR (first use: FROM, second use: TO)")
	f.StringVarP(&opts.withinTo, "within-to", "W", "", "include only entries of TO below DIR")
	f.BoolVarP(&opts.short, "short", "s", false, "tag changes with +, -, ~ instead of Added, Removed, Modified")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "list entries as they are processed")
	f.StringVarP(&opts.algorithm, "algorithm", "a", digest.Default.String(), "digest algorithm (sha256 or blake3)")

	// Filter flags use a custom pflag.Value to preserve CLI ordering.
	f.Var(&filterFlag{chain: opts.chain}, "exclude", "exclude entries matching PATTERN (repeatable)")
	f.Var(&filterFlag{chain: opts.chain, include: true}, "include", "include entries matching PATTERN (repeatable)")
	f.StringVar(&opts.filterFile, "filter", "", "read filter rules from FILE")

	f.StringVar(&opts.bwLimit, "bwlimit", "", "cap read throughput while hashing (e.g. 50M, 1G)")
	f.StringVar(&opts.color, "color", string(ui.ColorAuto), "colorize the report: auto, always or never")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	f.BoolVarP(&opts.showVersion, "version", "V", false, "print version and exit")

	f.VisitAll(func(fl *pflag.Flag) {
		if fl.Name == "exclude" || fl.Name == "include" {
			fl.NoOptDefVal = ""
		}
	})

	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, opts *options) {
	if !cmd.Flags().Changed("short") && defaults.Short != nil {
		opts.short = *defaults.Short
	}
	if !cmd.Flags().Changed("verbose") && defaults.Verbose != nil {
		opts.verbose = *defaults.Verbose
	}
	if !cmd.Flags().Changed("algorithm") && defaults.Algorithm != nil {
		opts.algorithm = *defaults.Algorithm
	}
	if !cmd.Flags().Changed("bwlimit") && defaults.BWLimit != nil {
		opts.bwLimit = *defaults.BWLimit
	}
	if !cmd.Flags().Changed("color") && defaults.Color != nil {
		opts.color = *defaults.Color
	}
}

// newLogger builds the run's logger: text on stderr, plus JSON to --log.
// The returned closer releases the log file.
func newLogger(stderr io.Writer, verbose bool, logFile string) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	var handler slog.Handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})

	closer := func() {}
	if logFile != "" {
		lf, err := os.Create(logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = func() { lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = ui.NewMultiHandler(handler, jsonHandler)
	}
	return slog.New(handler), closer, nil
}
