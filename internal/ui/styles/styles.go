// Package styles provides shared lipgloss styles for UI components.
//
// This package centralizes color definitions so the progress bar and
// the report tables look the same.
package styles

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Primary colors used throughout the UI
var (
	// Primary is the main accent color (cyan/teal)
	Primary color.Color = lipgloss.Color("62")

	// Accent is the highlight color (pink)
	Accent color.Color = lipgloss.Color("212")

	// Warning marks rules that never matched (orange)
	Warning color.Color = lipgloss.Color("214")

	// Muted is used for secondary text (gray)
	Muted color.Color = lipgloss.Color("240")
)

// Common styles
var (
	// Bold applies bold formatting
	Bold = lipgloss.NewStyle().Bold(true)

	// PrimaryStyle applies the primary color
	PrimaryStyle = lipgloss.NewStyle().Foreground(Primary)

	// WarningStyle applies the warning color
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)

	// MutedStyle applies the muted color
	MutedStyle = lipgloss.NewStyle().Foreground(Muted)
)
