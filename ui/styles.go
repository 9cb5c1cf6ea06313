package ui

import "github.com/charmbracelet/lipgloss"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	subtleFg  = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	errorFg   = lipgloss.AdaptiveColor{Light: "#D3003F", Dark: "#FF5F87"}
	infoFg    = lipgloss.AdaptiveColor{Light: "#0062C4", Dark: "#5FAFFF"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1).
			Render

	subtleStyle = lipgloss.NewStyle().Foreground(subtleFg).Render

	successStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Background(darkGreen).
			Padding(0, 1).
			Render

	errorStyle = lipgloss.NewStyle().Foreground(errorFg).Bold(true).Render
	infoStyle  = lipgloss.NewStyle().Foreground(infoFg).Render

	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Render
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render
)
