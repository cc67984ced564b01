package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117")).
			Bold(true)

	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Preview palette. Terminal colours approximate the skins.
var (
	kakaoMineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("#FFE400")).
			Padding(0, 1)

	kakaoOtherStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	igMineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#3797F0")).
			Padding(0, 1)

	igOtherStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#262626")).
			Background(lipgloss.Color("#EFEFEF")).
			Padding(0, 1)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true)

	dateBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("240")).
			Padding(0, 1)

	selectedMarker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true).
			Render("▸")
)
