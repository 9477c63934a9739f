package ui

import "github.com/charmbracelet/lipgloss"

// Styles defines shared lipgloss styles used across commands
var Styles = struct {
	Bold lipgloss.Style
}{
	Bold: lipgloss.NewStyle().Bold(true),
}
