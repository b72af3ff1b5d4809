// Package diff compares two snapshots by entry name.
package diff

import (
	"errors"
	"fmt"

	"github.com/bamsammich/dirchanges/internal/snapshot"
)

// ErrAlgorithmMismatch is returned when the snapshots were hashed with
// different algorithms and their digests cannot be compared.
var ErrAlgorithmMismatch = errors.New("snapshots use different digest algorithms")

// Op is the kind of a change.
type Op uint8

const (
	Added Op = iota + 1
	Removed
	Modified
)

func (o Op) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one difference. Entry is the TO side for Added and Modified and
// the FROM side for Removed.
type Change struct {
	Op    Op
	Entry snapshot.Entry
}

// Name returns the compared name of the changed entry.
func (c Change) Name() string { return c.Entry.Name }

// Compare returns the changes that turn from into to, ordered by name.
// Neither snapshot is modified.
func Compare(from, to *snapshot.Snapshot) ([]Change, error) {
	if from.Algorithm() != to.Algorithm() {
		return nil, fmt.Errorf("%w: %s vs %s", ErrAlgorithmMismatch, from.Algorithm(), to.Algorithm())
	}
	return merge(from.Sorted(), to.Sorted()), nil
}

func merge(a, b []snapshot.Entry) []Change {
	var changes []Change
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		x, y := a[i], b[j]
		switch {
		case x.Name < y.Name:
			changes = append(changes, Change{Op: Removed, Entry: x})
			i++
		case x.Name > y.Name:
			changes = append(changes, Change{Op: Added, Entry: y})
			j++
		default:
			if !same(x, y) {
				changes = append(changes, Change{Op: Modified, Entry: y})
			}
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		changes = append(changes, Change{Op: Removed, Entry: a[i]})
	}
	for ; j < len(b); j++ {
		changes = append(changes, Change{Op: Added, Entry: b[j]})
	}
	return changes
}

// same compares two entries with equal names. Directories carry no content.
func same(x, y snapshot.Entry) bool {
	if x.Kind != y.Kind {
		return false
	}
	return x.IsDir() || x.Digest == y.Digest
}

// Summary counts changes per operation.
type Summary struct {
	Added, Removed, Modified int
}

// Summarize tallies changes.
func Summarize(changes []Change) Summary {
	var s Summary
	for _, c := range changes {
		switch c.Op {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Modified:
			s.Modified++
		}
	}
	return s
}

// Total returns the number of changes.
func (s Summary) Total() int { return s.Added + s.Removed + s.Modified }
