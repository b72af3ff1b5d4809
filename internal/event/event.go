// Package event carries per-entry progress from snapshot builders to the
// presenter.
package event

import (
	"strings"
	"time"
)

// Type identifies the kind of event.
type Type int

const (
	SourceStarted Type = iota + 1
	EntryRecorded
	EntrySkipped
	EntryFailed
	DuplicateName
	SourceComplete
)

var typeNames = [...]string{
	SourceStarted:  "SourceStarted",
	EntryRecorded:  "EntryRecorded",
	EntrySkipped:   "EntrySkipped",
	EntryFailed:    "EntryFailed",
	DuplicateName:  "DuplicateName",
	SourceComplete: "SourceComplete",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Origin says what kind of source an event came from.
type Origin int

const (
	Directory Origin = iota + 1
	Archive
	Listing
)

func (o Origin) String() string {
	switch o {
	case Directory:
		return "directory"
	case Archive:
		return "archive"
	case Listing:
		return "listing"
	default:
		return "unknown"
	}
}

// Event is a single progress notification. Builders emit them
// synchronously, in discovery order.
type Event struct {
	Type      Type
	Timestamp time.Time
	Origin    Origin
	Source    string // the source argument as given, e.g. "/srv/www" or "backup.tar"
	Path      string // entry path as found in the source
	Dir       bool
	Size      int64 // bytes hashed for a file entry
	Error     error
}

// Display renders the entry the way progress lines show it: walked entries
// under their start directory, archive members and listing records after
// the bracketed source name.
func (e Event) Display() string {
	if e.Origin != Directory {
		return "[" + e.Source + "] " + e.Path
	}
	if e.Source == "." || e.Source == "" {
		return e.Path
	}
	return strings.TrimSuffix(e.Source, "/") + "/" + e.Path
}

// Func receives events. A nil Func discards them.
type Func func(Event)

// Emit calls f with e, stamping the time if unset. It is safe on a nil Func.
func (f Func) Emit(e Event) {
	if f == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	f(e)
}
