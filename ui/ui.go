// Package ui is the interactive terminal front end: an editor for the text,
// playback controls and the save action.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakwav/internal/artifact"
	"github.com/dgnsrekt/speakwav/internal/audio"
	"github.com/dgnsrekt/speakwav/internal/playback"
	"github.com/dgnsrekt/speakwav/internal/speech"
	"github.com/dgnsrekt/speakwav/internal/status"
	"github.com/dgnsrekt/speakwav/internal/synth"
)

// Player is the playback surface the TUI drives. *playback.Controller
// implements it.
type Player interface {
	Play(ctx context.Context, text, lang string) error
	Pause() error
	Stop() error
	SelectVoice(id string) error
	Artifact() *artifact.Artifact
	Subscribe(fn func(playback.Event)) func()
}

// Deps are the collaborators the TUI needs.
type Deps struct {
	Player Player
	Board  *status.Board
	// Preview may be nil when no output device is available.
	Preview audio.Previewer
	// Synth renders a track for saving when nothing has been played.
	Synth  *synth.Synthesizer
	Voices []speech.Voice
	Logger *log.Logger
}

type (
	eventMsg  playback.Event
	statusMsg struct {
		msg     status.Message
		visible bool
	}
	opDoneMsg struct {
		op  string
		err error
	}
	savedMsg struct {
		path string
		size int
		err  error
	}
	copiedMsg struct{ err error }

	// ConfigChangedMsg is sent when the config file changes on disk.
	ConfigChangedMsg struct {
		Language string
		Voice    string
	}
)

type model struct {
	cfg  Config
	deps Deps

	input   textarea.Model
	spinner spinner.Model

	state     playback.State
	recording bool
	artifact  *artifact.Artifact
	savedPath string

	status        status.Message
	statusVisible bool

	lang     string
	voices   []speech.Voice
	voiceIdx int // -1 selects the engine default

	width, height int

	events   chan playback.Event
	statuses chan statusMsg
	unsub    func()
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	deps.Logger.Debug("Starting speakwav", "lang", cfg.Language, "voice", cfg.Voice, "voices", len(deps.Voices))

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(newModel(cfg, deps), opts...)
}

func newModel(cfg Config, deps Deps) *model {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	ta := textarea.New()
	ta.Placeholder = "Type or paste the text to speak..."
	ta.CharLimit = playback.MaxTextLength
	ta.ShowLineNumbers = false
	ta.SetValue(cfg.Text)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &model{
		cfg:      cfg,
		deps:     deps,
		input:    ta,
		spinner:  sp,
		events:   make(chan playback.Event, 64),
		statuses: make(chan statusMsg, 16),
		voiceIdx: -1,
	}
	m.setLanguage(cfg.Language, cfg.Voice)

	if deps.Player != nil {
		m.unsub = deps.Player.Subscribe(func(ev playback.Event) {
			select {
			case m.events <- ev:
			default:
				deps.Logger.Warn("Dropping playback event", "kind", ev.Kind)
			}
		})
	}
	if deps.Board != nil {
		deps.Board.OnChange(func(msg status.Message, visible bool) {
			select {
			case m.statuses <- statusMsg{msg: msg, visible: visible}:
			default:
			}
		})
	}
	return m
}

// setLanguage filters the voice list for lang and selects voice if it is
// among them.
func (m *model) setLanguage(lang, voice string) {
	m.lang = lang
	m.voices = speech.FilterVoices(m.deps.Voices, lang)
	m.voiceIdx = -1
	if v, ok := speech.FindVoice(m.voices, voice); ok && voice != "" {
		for i := range m.voices {
			if m.voices[i].ID == v.ID {
				m.voiceIdx = i
				break
			}
		}
	}
}

func (m *model) voiceID() string {
	if m.voiceIdx < 0 || m.voiceIdx >= len(m.voices) {
		return ""
	}
	return m.voices[m.voiceIdx].ID
}

func (m *model) voiceName() string {
	if m.voiceIdx < 0 || m.voiceIdx >= len(m.voices) {
		return "default"
	}
	return m.voices[m.voiceIdx].Name
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		waitForEvent(m.events),
		waitForStatus(m.statuses),
		selectVoiceCmd(m.deps.Player, m.voiceID()),
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width-4, 20))
		m.input.SetHeight(max(msg.Height-8, 3))

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case eventMsg:
		cmds = append(cmds, m.handleEvent(playback.Event(msg)), waitForEvent(m.events))

	case statusMsg:
		m.status, m.statusVisible = msg.msg, msg.visible
		cmds = append(cmds, waitForStatus(m.statuses))

	case opDoneMsg:
		if msg.err != nil {
			m.deps.Logger.Debug("Operation failed", "op", msg.op, "err", msg.err)
		}

	case savedMsg:
		if msg.err != nil {
			m.report(status.SeverityError, "Save failed: "+msg.err.Error())
			break
		}
		m.savedPath = msg.path
		m.report(status.SeveritySuccess, fmt.Sprintf("Saved %s (%s)", m.displayPath(msg.path), formatSize(msg.size)))

	case copiedMsg:
		if msg.err != nil {
			m.report(status.SeverityError, "Clipboard unavailable: "+msg.err.Error())
		} else {
			m.report(status.SeverityInfo, "Copied path to clipboard")
		}

	case ConfigChangedMsg:
		m.setLanguage(msg.Language, msg.Voice)
		cmds = append(cmds, selectVoiceCmd(m.deps.Player, m.voiceID()))

	case spinner.TickMsg:
		if m.state == playback.StateRequesting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit(), true

	case "ctrl+r":
		if m.deps.Board != nil {
			m.deps.Board.Clear()
		}
		return playCmd(m.deps.Player, m.input.Value(), m.lang), true

	case "ctrl+p":
		if m.state == playback.StatePaused {
			return playCmd(m.deps.Player, m.input.Value(), m.lang), true
		}
		return pauseCmd(m.deps.Player), true

	case "esc":
		return stopCmd(m.deps.Player), true

	case "ctrl+s":
		a, ok := m.saveable()
		if !ok {
			return nil, true
		}
		return saveCmd(a, m.cfg.OutputDir), true

	case "ctrl+l":
		return m.preview(), true

	case "ctrl+y":
		if m.savedPath == "" {
			m.report(status.SeverityInfo, "Save the audio first")
			return nil, true
		}
		return copyCmd(m.savedPath), true

	case "tab":
		if len(m.voices) == 0 {
			return nil, true
		}
		m.voiceIdx++
		if m.voiceIdx >= len(m.voices) {
			m.voiceIdx = -1
		}
		return selectVoiceCmd(m.deps.Player, m.voiceID()), true
	}
	return nil, false
}

func (m *model) handleEvent(ev playback.Event) tea.Cmd {
	switch ev.Kind {
	case playback.EventStateChanged:
		prev := m.state
		m.state = ev.State
		if !ev.State.Active() {
			m.recording = false
		}
		if ev.State == playback.StateRequesting && prev != playback.StateRequesting {
			return m.spinner.Tick
		}
	case playback.EventRecording:
		m.recording = true
	case playback.EventArtifact:
		m.artifact = ev.Artifact
		m.savedPath = ""
	case playback.EventError:
		m.recording = false
	}
	return nil
}

func (m *model) preview() tea.Cmd {
	switch {
	case m.deps.Preview == nil:
		m.report(status.SeverityError, "No audio output available for preview")
		return nil
	case m.artifact == nil:
		m.report(status.SeverityInfo, "Nothing to play yet")
		return nil
	case m.artifact.Kind != artifact.KindSynthesized:
		m.report(status.SeverityInfo, "Only WAV audio can be previewed, save it to listen")
		return nil
	}
	data := m.artifact.Bytes
	p := m.deps.Preview
	return func() tea.Msg {
		return opDoneMsg{op: "preview", err: p.Play(data)}
	}
}

func (m *model) quit() tea.Cmd {
	if m.unsub != nil {
		m.unsub()
	}
	if m.deps.Preview != nil {
		_ = m.deps.Preview.Stop()
	}
	p := m.deps.Player
	return tea.Sequence(func() tea.Msg {
		if p != nil {
			_ = p.Stop()
		}
		return nil
	}, tea.Quit)
}

// saveable returns the latest artifact. When nothing has been played it
// renders a synthesized track for the editor text instead.
func (m *model) saveable() (*artifact.Artifact, bool) {
	if m.artifact != nil {
		return m.artifact, true
	}
	if a := m.deps.Player.Artifact(); a != nil {
		m.artifact = a
		return a, true
	}
	if m.deps.Synth == nil {
		m.report(status.SeverityError, "Nothing to save yet, speak some text first")
		return nil, false
	}
	text := m.input.Value()
	if err := playback.ValidateText(text); err != nil {
		m.report(status.SeverityError, "Please enter some text first")
		return nil, false
	}
	a, err := artifact.FromPCM(m.deps.Synth.Synthesize(text), m.cfg.AppName, time.Now())
	if err != nil {
		m.deps.Logger.Error("Synthesis failed", "err", err)
		m.report(status.SeverityError, "Could not render the audio")
		return nil, false
	}
	m.report(status.SeverityInfo, "Nothing played yet, saving a synthesized track")
	return a, true
}

func (m *model) report(sev status.Severity, text string) {
	if m.deps.Board != nil {
		m.deps.Board.Report(sev, text)
		return
	}
	m.status, m.statusVisible = status.Message{Text: text, Severity: sev}, true
}

func (m *model) displayPath(path string) string {
	if m.cfg.HomeDir != "" && strings.HasPrefix(path, m.cfg.HomeDir) {
		return "~" + strings.TrimPrefix(path, m.cfg.HomeDir)
	}
	return path
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.counterView())
	b.WriteString("\n\n")
	b.WriteString(m.stateView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	if m.cfg.ShowHelp {
		b.WriteString("\n\n")
		b.WriteString(helpView())
	}
	return indent(b.String(), 1)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}

// COMMANDS

func waitForEvent(ch <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-ch)
	}
}

func waitForStatus(ch <-chan statusMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func playCmd(p Player, text, lang string) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return opDoneMsg{op: "play", err: p.Play(context.Background(), text, lang)}
	}
}

func pauseCmd(p Player) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return opDoneMsg{op: "pause", err: p.Pause()}
	}
}

func stopCmd(p Player) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return opDoneMsg{op: "stop", err: p.Stop()}
	}
}

func selectVoiceCmd(p Player, id string) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return opDoneMsg{op: "voice", err: p.SelectVoice(id)}
	}
}

func saveCmd(a *artifact.Artifact, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := artifact.Save(a, dir)
		return savedMsg{path: path, size: a.Size(), err: err}
	}
}
