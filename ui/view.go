package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/speakwav/internal/playback"
	"github.com/dgnsrekt/speakwav/internal/status"
)

const ellipsis = "…"

var helpBindings = [][2]string{
	{"ctrl+r", "speak"},
	{"ctrl+p", "pause/resume"},
	{"esc", "stop"},
	{"ctrl+s", "save"},
	{"ctrl+l", "preview"},
	{"ctrl+y", "copy path"},
	{"tab", "voice"},
	{"ctrl+c", "quit"},
}

func (m *model) headerView() string {
	title := titleStyle(" " + m.cfg.AppName + " ")
	voice := subtleStyle(fmt.Sprintf("%s · %s", m.lang, m.voiceName()))
	return title + " " + voice
}

func (m *model) counterView() string {
	n := len([]rune(m.input.Value()))
	s := fmt.Sprintf("%d/%d", n, playback.MaxTextLength)
	if n > playback.MaxTextLength {
		return errorStyle(s)
	}
	return subtleStyle(s)
}

func (m *model) stateView() string {
	var s string
	switch m.state {
	case playback.StateRequesting:
		s = m.spinner.View() + " " + infoStyle("Requesting speech")
	case playback.StatePlaying:
		s = playingStyle("▶ Playing")
	case playback.StatePaused:
		s = pausedStyle("⏸ Paused")
	case playback.StateCompleted:
		s = successStyle("✓ Completed")
	case playback.StateErrored:
		s = errorStyle("✗ Error")
	default:
		s = subtleStyle("■ Idle")
	}
	if m.recording {
		s += " " + recStyle("● REC")
	}
	if m.artifact != nil {
		s += "  " + subtleStyle(fmt.Sprintf("%s (%s)", m.artifact.Filename, formatSize(m.artifact.Size())))
	}
	return s
}

func (m *model) statusView() string {
	if !m.statusVisible || m.status.Text == "" {
		return ""
	}
	text := m.status.Text
	if m.width > 4 && runewidth.StringWidth(text) > m.width-2 {
		text = truncate.StringWithTail(text, uint(m.width-2), ellipsis) //nolint:gosec
	}
	switch m.status.Severity {
	case status.SeverityError:
		return errorStyle(text)
	case status.SeveritySuccess:
		return successStyle(text)
	default:
		return infoStyle(text)
	}
}

func helpView() string {
	parts := make([]string, 0, len(helpBindings))
	for _, b := range helpBindings {
		parts = append(parts, b[0]+" "+subtleStyle(b[1]))
	}
	return strings.Join(parts, subtleStyle(" • "))
}

func formatSize(n int) string {
	return humanize.Bytes(uint64(n)) //nolint:gosec
}

func copyCmd(path string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(path)}
	}
}
