package ui

import (
	"fmt"

	"github.com/bamsammich/dirchanges/internal/stats"
)

// SourceSummary builds the line printed after a source has been ingested.
// Format: done ✓  files 48,917  dirs 1,204  size 2.1 GiB  avg 641 MB/s  time 3m 17s  errors 0
func SourceSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.Failed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  dirs %s  size %s  avg %s  time %s",
		icon,
		FormatCount(snap.FilesRecorded),
		FormatCount(snap.DirsRecorded),
		FormatBytes(snap.BytesHashed),
		FormatRate(snap.Throughput()),
		FormatDuration(snap.Elapsed),
	)

	if snap.Skipped > 0 {
		base += "  skipped " + FormatCount(snap.Skipped)
	}
	return base + fmt.Sprintf("  errors %d", snap.Failed)
}
