package ui

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bamsammich/dirchanges/internal/diff"
)

// Style selects how change labels are written.
type Style int

const (
	// StyleVerbose writes right-aligned words: "   Added", " Removed",
	// "Modified".
	StyleVerbose Style = iota
	// StyleShort writes "+", "-" and "~".
	StyleShort
)

// NoDifferences is printed when the snapshots match.
const NoDifferences = "No differences found."

// Label returns the label for op in the given style.
func (s Style) Label(op diff.Op) string {
	if s == StyleShort {
		switch op {
		case diff.Added:
			return "+"
		case diff.Removed:
			return "-"
		case diff.Modified:
			return "~"
		}
		return "?"
	}
	switch op {
	case diff.Added:
		return "   Added"
	case diff.Removed:
		return " Removed"
	case diff.Modified:
		return "Modified"
	}
	return "       ?"
}

// ReportConfig configures WriteReport.
type ReportConfig struct {
	Style Style
	Color bool
	Theme Theme
}

// WriteReport writes one line per change, labelled and followed by the
// entry's name below the root filter, or NoDifferences when there are none.
func WriteReport(w io.Writer, changes []diff.Change, cfg ReportConfig) error {
	bw := bufio.NewWriter(w)
	styles := newReportStyles(w, cfg)

	if len(changes) == 0 {
		text := NoDifferences
		if st, ok := styles[noChange]; ok {
			text = st.Render(text)
		}
		fmt.Fprintln(bw, text)
		return bw.Flush()
	}

	for _, c := range changes {
		label := cfg.Style.Label(c.Op)
		if st, ok := styles[c.Op]; ok {
			label = st.Render(label)
		}
		fmt.Fprintf(bw, "%s %s\n", label, c.Name())
	}
	return bw.Flush()
}

// noChange keys the style of the NoDifferences line; no diff.Op is zero.
const noChange diff.Op = 0

// newReportStyles returns nil when colour is off, so output stays free of
// escape sequences.
func newReportStyles(w io.Writer, cfg ReportConfig) map[diff.Op]lipgloss.Style {
	if !cfg.Color {
		return nil
	}
	theme := cfg.Theme
	if theme == (Theme{}) {
		theme = DefaultTheme()
	}

	// Colour was decided by the caller, so the renderer must not probe w.
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.TrueColor)

	return map[diff.Op]lipgloss.Style{
		diff.Added:    r.NewStyle().Foreground(theme.Added),
		diff.Removed:  r.NewStyle().Foreground(theme.Removed),
		diff.Modified: r.NewStyle().Foreground(theme.Modified).Bold(true),
		noChange:      r.NewStyle().Foreground(theme.Muted),
	}
}
