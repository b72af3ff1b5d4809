package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bamsammich/dirchanges/internal/digest"
	"github.com/bamsammich/dirchanges/internal/event"
	"github.com/bamsammich/dirchanges/internal/snapshot"
)

// ScanDir walks the tree rooted at dir. The root is resolved to an absolute
// path once; dir itself is only used to label progress.
func ScanDir(ctx context.Context, dir string, opts Options) (*snapshot.Snapshot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return ScanFS(ctx, os.DirFS(abs), dir, opts)
}

// ScanFS walks fsys from its root. Directories are recorded before their
// contents, regular files are digested, and every other kind is skipped.
// Unreadable directories and files are reported and left out; only
// cancellation and a root filter miss fail the scan.
func ScanFS(ctx context.Context, fsys fs.FS, source string, opts Options) (*snapshot.Snapshot, error) {
	w := &walker{ctx: ctx, fsys: fsys, in: newIngest(opts, event.Directory, source)}
	if err := w.walk("."); err != nil {
		return nil, err
	}
	return w.in.finish()
}

type walker struct {
	ctx  context.Context
	fsys fs.FS
	in   *ingest
}

func (w *walker) walk(dir string) error {
	entries, err := fs.ReadDir(w.fsys, dir)
	if err != nil {
		// ReadDir may still return what it read before failing.
		w.in.fail(dir, fmt.Errorf("could not open directory: %w", err))
	}

	root := w.in.opts.Root
	for _, de := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		p := de.Name()
		if dir != "." {
			p = dir + "/" + p
		}

		kind, ok := w.classify(p, de)
		if !ok {
			continue
		}

		if kind == snapshot.Directory {
			if !root.MayContain(p) {
				continue
			}
			if c, ok := w.in.b.Admit(p, kind); ok {
				w.in.record(c, digest.Digest{}, 0)
			} else if _, below := root.Apply(p); below {
				continue // excluded: prune the subtree
			}
			if err := w.walk(p); err != nil {
				return err
			}
			continue
		}

		c, ok := w.in.b.Admit(p, kind)
		if !ok {
			continue
		}
		d, n, err := HashFile(w.ctx, w.fsys, p, w.in.b.Algorithm(), w.in.opts.Limiter)
		if err != nil {
			if ctxErr := w.ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			w.in.fail(p, err)
			continue
		}
		w.in.record(c, d, n)
	}
	return nil
}

// classify maps a directory entry to a snapshot kind. When the directory
// listing does not report a type the entry is probed with Stat.
func (w *walker) classify(p string, de fs.DirEntry) (snapshot.Kind, bool) {
	t := de.Type()
	if t == fs.ModeIrregular {
		info, err := fs.Stat(w.fsys, p)
		if err != nil {
			w.in.fail(p, fmt.Errorf("could not read: %w", err))
			return 0, false
		}
		t = info.Mode().Type()
	}

	switch {
	case t.IsDir():
		return snapshot.Directory, true
	case t.IsRegular():
		return snapshot.File, true
	default:
		w.in.skip(p, t.String())
		return 0, false
	}
}
