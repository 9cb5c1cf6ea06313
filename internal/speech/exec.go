package speech

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// defaultWordsPerMinute is the speaking rate at Rate 1.
const defaultWordsPerMinute = 175

type flavor int

const (
	flavorEspeak flavor = iota
	flavorSay
)

// ExecConfig configures an ExecEngine.
type ExecConfig struct {
	// Binary is the speech program. Empty selects say on macOS and
	// espeak-ng or espeak elsewhere.
	Binary string
	Logger *log.Logger
}

// ExecEngine speaks through a local speech program, one process per
// utterance. Pause and Resume suspend the process.
type ExecEngine struct {
	binary string
	flavor flavor
	logger *log.Logger

	mu      sync.Mutex
	current *utterance
}

type utterance struct {
	id       string
	cmd      *exec.Cmd
	events   chan Event
	paused   bool
	canceled bool
	done     bool
}

// NewExecEngine locates the speech program.
func NewExecEngine(cfg ExecConfig) (*ExecEngine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	candidates := []string{cfg.Binary}
	if cfg.Binary == "" {
		candidates = defaultBinaries()
	}

	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		return &ExecEngine{
			binary: path,
			flavor: flavorOf(path),
			logger: logger.WithPrefix("speech"),
		}, nil
	}
	return nil, fmt.Errorf("%w: tried %s", ErrEngineUnavailable, strings.Join(candidates, ", "))
}

func defaultBinaries() []string {
	if runtime.GOOS == "darwin" {
		return []string{"say"}
	}
	return []string{"espeak-ng", "espeak"}
}

func flavorOf(path string) flavor {
	if filepath.Base(path) == "say" {
		return flavorSay
	}
	return flavorEspeak
}

// Binary returns the resolved program path.
func (e *ExecEngine) Binary() string { return e.binary }

// Speak cancels any utterance in flight and starts req.
func (e *ExecEngine) Speak(req Request, handler Handler) error {
	e.Cancel()

	var stderr bytes.Buffer
	cmd := exec.Command(e.binary, e.args(req)...)
	cmd.Stdin = strings.NewReader(req.Text)
	cmd.Stderr = &stderr

	u := &utterance{
		id:     req.ID,
		cmd:    cmd,
		events: make(chan Event, 8),
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", filepath.Base(e.binary), err)
	}

	e.mu.Lock()
	e.current = u
	e.mu.Unlock()

	go func() {
		for ev := range u.events {
			handler(ev)
		}
	}()
	u.events <- Event{Kind: EventStarted, UtteranceID: u.id}

	e.logger.Debug("Utterance started", "utterance", u.id, "pid", cmd.Process.Pid, "chars", len(req.Text))

	go e.wait(u, &stderr)
	return nil
}

func (e *ExecEngine) wait(u *utterance, stderr *bytes.Buffer) {
	err := u.cmd.Wait()

	e.mu.Lock()
	u.done = true
	canceled := u.canceled
	if e.current == u {
		e.current = nil
	}
	e.mu.Unlock()

	ev := Event{Kind: EventEnded, UtteranceID: u.id}
	switch {
	case canceled:
		ev = Event{Kind: EventError, UtteranceID: u.id, Code: CodeInterrupted}
	case err != nil:
		msg := strings.TrimSpace(stderr.String())
		e.logger.Error("Speech process failed", "utterance", u.id, "err", err, "stderr", msg)
		ev = Event{Kind: EventError, UtteranceID: u.id, Code: CodeSynthesisFailed, Err: fmt.Errorf("%w: %s", err, msg)}
	}
	u.events <- ev
	close(u.events)
}

// emit queues a non-terminal event. Callers hold mu.
func (u *utterance) emit(kind EventKind) {
	if u.done {
		return
	}
	select {
	case u.events <- Event{Kind: kind, UtteranceID: u.id}:
	default:
	}
}

func (e *ExecEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.current
	if u == nil || u.done {
		return ErrNotSpeaking
	}
	if u.paused {
		return nil
	}
	if err := suspend(u.cmd.Process.Pid); err != nil {
		return fmt.Errorf("failed to pause speech: %w", err)
	}
	u.paused = true
	u.emit(EventPaused)
	return nil
}

func (e *ExecEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.current
	if u == nil || u.done {
		return ErrNotSpeaking
	}
	if !u.paused {
		return nil
	}
	if err := resume(u.cmd.Process.Pid); err != nil {
		return fmt.Errorf("failed to resume speech: %w", err)
	}
	u.paused = false
	u.emit(EventResumed)
	return nil
}

// Cancel kills the utterance in flight. Its handler then receives an
// interrupted error.
func (e *ExecEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.current
	if u == nil {
		return
	}
	e.current = nil
	if u.done {
		return
	}
	u.canceled = true
	if u.paused {
		_ = resume(u.cmd.Process.Pid)
	}
	if err := u.cmd.Process.Kill(); err != nil {
		e.logger.Warn("Failed to kill speech process", "utterance", u.id, "err", err)
	}
}

// Voices lists the voices installed for the program.
func (e *ExecEngine) Voices() ([]Voice, error) {
	var args []string
	switch e.flavor {
	case flavorSay:
		args = []string{"-v", "?"}
	default:
		args = []string{"--voices"}
	}

	out, err := exec.Command(e.binary, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	if e.flavor == flavorSay {
		return parseSayVoices(out), nil
	}
	return parseEspeakVoices(out), nil
}

func (e *ExecEngine) args(req Request) []string {
	wpm := strconv.Itoa(wordsPerMinute(req.Rate))

	if e.flavor == flavorSay {
		args := []string{"-f", "-", "-r", wpm}
		if req.VoiceID != "" {
			args = append(args, "-v", req.VoiceID)
		}
		return args
	}

	args := []string{"--stdin", "-s", wpm,
		"-p", strconv.Itoa(scale(req.Pitch, 50, 0, 99)),
		"-a", strconv.Itoa(scale(req.Volume, 100, 0, 200)),
	}
	switch {
	case req.VoiceID != "":
		args = append(args, "-v", req.VoiceID)
	case req.LanguageTag != "":
		args = append(args, "-v", strings.ToLower(req.LanguageTag))
	}
	return args
}

func wordsPerMinute(rate float64) int {
	return scale(rate, defaultWordsPerMinute, 80, 450)
}

// scale maps a unit value onto an engine range. Zero means default.
func scale(v float64, unit, lo, hi int) int {
	if v <= 0 {
		v = 1
	}
	n := int(math.Round(v * float64(unit)))
	return min(max(n, lo), hi)
}

// parseEspeakVoices reads `espeak-ng --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{
			ID:   fields[4],
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: fields[1],
		})
	}
	return voices
}

// parseSayVoices reads `say -v ?` output:
//
//	Alex                en_US    # Most people recognize me by my voice.
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{
			ID:   name,
			Name: name,
			Lang: strings.ReplaceAll(fields[len(fields)-1], "_", "-"),
		})
	}
	return voices
}
