package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/dirchanges/internal/config"
)

// Theme holds the colours of the diff report. Catppuccin Mocha by default.
type Theme struct {
	Added    lipgloss.Color
	Removed  lipgloss.Color
	Modified lipgloss.Color
	Muted    lipgloss.Color
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		Added:    lipgloss.Color("#a6e3a1"),
		Removed:  lipgloss.Color("#f38ba8"),
		Modified: lipgloss.Color("#f9e2af"),
		Muted:    lipgloss.Color("#5a6278"),
	}
}

// ApplyTheme returns t with the colours set in tc overridden.
func (t Theme) ApplyTheme(tc config.ThemeConfig) Theme {
	if tc.Added != nil {
		t.Added = lipgloss.Color(*tc.Added)
	}
	if tc.Removed != nil {
		t.Removed = lipgloss.Color(*tc.Removed)
	}
	if tc.Modified != nil {
		t.Modified = lipgloss.Color(*tc.Modified)
	}
	if tc.Muted != nil {
		t.Muted = lipgloss.Color(*tc.Muted)
	}
	return t
}
