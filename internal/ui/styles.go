package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	accent    = lipgloss.Color("#FF6740")
	dimGray   = lipgloss.Color("#6B7280")
	lightGray = lipgloss.Color("#9CA3AF")
	white     = lipgloss.Color("#F9FAFB")
	green     = lipgloss.Color("#10B981")
	red       = lipgloss.Color("#EF4444")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(white).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lightGray)

	accentStyle = lipgloss.NewStyle().
			Foreground(accent)

	errorStyle = lipgloss.NewStyle().
			Foreground(red)

	readedStyle = lipgloss.NewStyle().
			Foreground(green)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(white).
			Background(accent).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lightGray).
				Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(white).
				Background(lipgloss.Color("#374151"))
)

// Watch state characters
const (
	unreadedChar = "●"
	readedChar   = "✓"
)
