package main

import "github.com/charmbracelet/lipgloss"

// Color Palette
var (
	salmonPink = lipgloss.Color("#FFB3BA") // primary accent, errors
	mintGreen  = lipgloss.Color("#A8E6CF") // success, active overrides
	amber      = lipgloss.Color("#FCD34D") // warnings
	mutedGray  = lipgloss.Color("#6B7280") // secondary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	overrideStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	okStyle = lipgloss.NewStyle().
		Foreground(mintGreen).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)
)
