package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/cienet/speakctl/tts"
)

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
)

// stateIcon returns the icon and color of a state.
func stateIcon(s tts.StateType) (string, lipgloss.Color) {
	switch s {
	case tts.StateSpeaking:
		return "▶", lipgloss.Color("#00FF00")
	case tts.StatePaused:
		return "⏸", lipgloss.Color("#FFFF00")
	case tts.StateSynthesizing:
		return "⟳", lipgloss.Color("#00AAFF")
	case tts.StateReady:
		return "■", lipgloss.Color("#888888")
	case tts.StateReleased:
		return "✗", lipgloss.Color("#FF8800")
	default:
		return "·", lipgloss.Color("#444444")
	}
}

// statusLine renders the state, voice, pending count and the last outcome.
func statusLine(state tts.StateType, voice tts.OfflineVoice, pending int, last tts.Outcome) string {
	icon, color := stateIcon(state)
	line := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %s", icon, state))
	line += mutedStyle.Render(fmt.Sprintf("  voice %s  pending %d", voice, pending))

	if last.Command == "" {
		return line
	}
	if last.OK() {
		return line + mutedStyle.Render("  "+last.String())
	}
	return line + "  " + errorStyle.Render(last.String())
}
