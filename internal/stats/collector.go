// Package stats counts the work done while building snapshots.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks ingestion counters. All methods are safe for concurrent
// use.
type Collector struct {
	filesRecorded atomic.Int64
	bytesHashed   atomic.Int64
	dirsRecorded  atomic.Int64
	skipped       atomic.Int64
	failed        atomic.Int64
	startTime     time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddFilesRecorded(n int64) { c.filesRecorded.Add(n) }
func (c *Collector) AddBytesHashed(n int64)   { c.bytesHashed.Add(n) }
func (c *Collector) AddDirsRecorded(n int64)  { c.dirsRecorded.Add(n) }
func (c *Collector) AddSkipped(n int64)       { c.skipped.Add(n) }
func (c *Collector) AddFailed(n int64)        { c.failed.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesRecorded int64
	BytesHashed   int64
	DirsRecorded  int64
	Skipped       int64
	Failed        int64
	Elapsed       time.Duration
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesRecorded: c.filesRecorded.Load(),
		BytesHashed:   c.bytesHashed.Load(),
		DirsRecorded:  c.dirsRecorded.Load(),
		Skipped:       c.skipped.Load(),
		Failed:        c.failed.Load(),
		Elapsed:       c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Sub returns the counters accumulated between earlier and s.
func (s Snapshot) Sub(earlier Snapshot) Snapshot {
	return Snapshot{
		FilesRecorded: s.FilesRecorded - earlier.FilesRecorded,
		BytesHashed:   s.BytesHashed - earlier.BytesHashed,
		DirsRecorded:  s.DirsRecorded - earlier.DirsRecorded,
		Skipped:       s.Skipped - earlier.Skipped,
		Failed:        s.Failed - earlier.Failed,
		Elapsed:       s.Elapsed - earlier.Elapsed,
	}
}

// Entries is the number of recorded entries.
func (s Snapshot) Entries() int64 { return s.FilesRecorded + s.DirsRecorded }

// Throughput is the average hashing rate in bytes per second.
func (s Snapshot) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.BytesHashed) / s.Elapsed.Seconds()
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"files=%d dirs=%d bytes=%d skipped=%d failed=%d",
		s.FilesRecorded, s.DirsRecorded, s.BytesHashed, s.Skipped, s.Failed,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
