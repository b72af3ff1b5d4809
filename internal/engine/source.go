package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bamsammich/dirchanges/internal/bytesource"
	"github.com/bamsammich/dirchanges/internal/listing"
	"github.com/bamsammich/dirchanges/internal/platform"
	"github.com/bamsammich/dirchanges/internal/snapshot"
)

// Stdin is the source argument that selects standard input.
const Stdin = "-"

var (
	// ErrStdinTwice is returned when both sources name standard input.
	ErrStdinTwice = errors.New("cannot read twice from stdin")
	// ErrNotFileOrDir is returned for sources such as sockets or devices.
	ErrNotFileOrDir = errors.New("not a file or directory")
)

// CheckSources rejects source combinations that can never be loaded.
func CheckSources(sources ...string) error {
	seen := false
	for _, s := range sources {
		if s != Stdin {
			continue
		}
		if seen {
			return ErrStdinTwice
		}
		seen = true
	}
	return nil
}

// Load builds a snapshot from a directory, a file or standard input. Files
// and standard input are tried as a listing first and as an archive
// otherwise.
func Load(ctx context.Context, source string, stdin io.Reader, opts Options) (*snapshot.Snapshot, error) {
	if source == Stdin {
		return LoadStream(ctx, stdin, source, opts)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("unable to read or open '%s': %w", source, err)
	}

	switch {
	case info.IsDir():
		return ScanDir(ctx, source, opts)
	case info.Mode().IsRegular():
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("unable to read or open '%s': %w", source, err)
		}
		defer f.Close()
		platform.AdviseSequential(f)
		return LoadStream(ctx, f, source, opts)
	default:
		return nil, fmt.Errorf("%s: %w", source, ErrNotFileOrDir)
	}
}

// LoadStream reads r once. The listing header check and the archive format
// sniffing share one ByteSource, so a stream that is not a listing is
// decoded as an archive from its first byte.
func LoadStream(ctx context.Context, r io.Reader, source string, opts Options) (*snapshot.Snapshot, error) {
	src := bytesource.New(r, bytesource.DefaultLookahead)

	dec, err := listing.NewDecoder(src)
	switch {
	case err == nil:
		return ReadListing(ctx, dec, source, opts)
	case errors.Is(err, listing.ErrNotListing):
		return ReadArchive(ctx, src, source, opts)
	default:
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
}
