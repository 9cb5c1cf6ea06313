// Package playback drives the speech engine and decides, at the end of
// every utterance, whether the downloadable artifact comes from a real
// recording or from the synthesized fallback.
//
// All state is owned by a single event loop goroutine. Public methods post
// commands to it; engine callbacks and capture results are posted to the
// same queue, so no callback ever mutates state outside a transition.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dgnsrekt/speakwav/internal/artifact"
	"github.com/dgnsrekt/speakwav/internal/capture"
	"github.com/dgnsrekt/speakwav/internal/recorder"
	"github.com/dgnsrekt/speakwav/internal/speech"
	"github.com/dgnsrekt/speakwav/internal/status"
	"github.com/dgnsrekt/speakwav/internal/synth"
)

// Acquirer obtains a capture stream. capture.Negotiator implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (capture.Stream, error)
}

// Config wires a Controller.
type Config struct {
	Engine speech.Engine
	// Capture may be nil, which behaves like a denied capture.
	Capture   Acquirer
	Recorders recorder.Factory
	Synth     *synth.Synthesizer
	Reporter  status.Reporter
	Logger    *log.Logger
	Strategy  Strategy
	AppName   string
	// Now is used for artifact timestamps. Defaults to time.Now.
	Now func() time.Time
}

// attempt is one play invocation. Its ID is also the utterance ID.
type attempt struct {
	id            string
	text          string
	lang          string
	voice         string
	cancelCapture context.CancelFunc
	capturing     bool
	session       *recorder.Session
}

// Controller is the playback state machine.
type Controller struct {
	engine    speech.Engine
	capture   Acquirer
	recorders recorder.Factory
	synth     *synth.Synthesizer
	reporter  status.Reporter
	logger    *log.Logger
	strategy  Strategy
	appName   string
	now       func() time.Time

	inbox  chan func()
	done   chan struct{}
	exited chan struct{}
	notify *notifier

	// Owned by the loop goroutine.
	state    State
	current  *attempt
	voiceID  string
	artifact *artifact.Artifact
}

// New creates a controller and starts its event loop.
func New(cfg Config) (*Controller, error) {
	if cfg.Engine == nil {
		return nil, errors.New("playback: speech engine is required")
	}
	if cfg.Synth == nil {
		cfg.Synth = synth.New(synth.DefaultConfig())
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = status.LogReporter{Logger: cfg.Logger}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AppName == "" {
		cfg.AppName = artifact.DefaultAppName
	}
	if cfg.Strategy == StrategyCapture && (cfg.Capture == nil || cfg.Recorders == nil) {
		cfg.Capture = nil
	}

	c := &Controller{
		engine:    cfg.Engine,
		capture:   cfg.Capture,
		recorders: cfg.Recorders,
		synth:     cfg.Synth,
		reporter:  cfg.Reporter,
		logger:    cfg.Logger.WithPrefix("playback"),
		strategy:  cfg.Strategy,
		appName:   cfg.AppName,
		now:       cfg.Now,
		inbox:     make(chan func()),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
		notify:    newNotifier(),
	}
	go c.loop()
	return c, nil
}

func (c *Controller) loop() {
	defer close(c.exited)
	for {
		select {
		case fn := <-c.inbox:
			fn()
		case <-c.done:
			return
		}
	}
}

// post queues fn without waiting for it to run. It reports false once the
// loop has shut down.
func (c *Controller) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.done:
		return false
	}
}

// do runs fn on the loop and waits for it.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case c.inbox <- func() { reply <- fn() }:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// Subscribe registers fn for every event. Events are delivered in order
// from a dedicated goroutine. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(Event)) func() {
	return c.notify.subscribe(fn)
}

// Play speaks text. While paused it resumes instead; while an utterance is
// in flight it stops that attempt first. Invalid input is reported and
// returned without changing state.
func (c *Controller) Play(ctx context.Context, text, lang string) error {
	return c.do(ctx, func() error { return c.play(text, lang) })
}

// Pause pauses speech and recording together. It does nothing unless
// playing.
func (c *Controller) Pause() error {
	return c.do(context.Background(), c.pause)
}

// Stop cancels speech and any pending capture, finalizes an active
// recording into the current artifact and returns to idle. It is safe to
// call in any state.
func (c *Controller) Stop() error {
	return c.do(context.Background(), func() error {
		c.stop()
		return nil
	})
}

// SelectVoice sets the voice for subsequent attempts. Empty selects the
// engine default.
func (c *Controller) SelectVoice(id string) error {
	return c.do(context.Background(), func() error {
		c.voiceID = id
		return nil
	})
}

// State returns the current state.
func (c *Controller) State() State {
	var s State
	if err := c.do(context.Background(), func() error { s = c.state; return nil }); err != nil {
		return StateIdle
	}
	return s
}

// Artifact returns the current artifact, or nil.
func (c *Controller) Artifact() *artifact.Artifact {
	var a *artifact.Artifact
	_ = c.do(context.Background(), func() error { a = c.artifact; return nil })
	return a
}

// Recording reports whether the current attempt is capturing real audio.
func (c *Controller) Recording() bool {
	var rec bool
	_ = c.do(context.Background(), func() error {
		rec = c.current != nil && c.current.session != nil && c.current.session.Active()
		return nil
	})
	return rec
}

// Close stops playback and shuts the loop down.
func (c *Controller) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}
	close(c.done)
	<-c.exited
	c.notify.close()
	return nil
}

func (c *Controller) play(text, lang string) error {
	if err := ValidateText(text); err != nil {
		c.reporter.Report(status.SeverityError, errorText(err))
		return err
	}

	switch c.state {
	case StatePaused:
		return c.resume()
	case StateRequesting, StatePlaying:
		c.stop()
	}

	c.engine.Cancel()

	a := &attempt{
		id:    uuid.NewString(),
		text:  text,
		lang:  lang,
		voice: c.voiceID,
	}
	c.current = a

	if c.strategy == StrategyCapture && c.capture != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancelCapture = cancel
		a.capturing = true
		go c.negotiate(ctx, a.id)
	}

	req := speech.DefaultRequest(text, lang)
	req.ID = a.id
	req.VoiceID = a.voice
	if err := c.engine.Speak(req, c.handler(a.id)); err != nil {
		perr := newError(CodePlatformSpeech, speech.CodeSynthesisFailed, err)
		c.fail(a, perr)
		return perr
	}

	c.logger.Debug("Speech requested", "attempt", a.id, "chars", len(text), "lang", lang, "strategy", c.strategy)
	c.setState(StateRequesting)
	return nil
}

func (c *Controller) resume() error {
	if err := c.engine.Resume(); err != nil {
		c.logger.Warn("Failed to resume speech", "err", err)
		return fmt.Errorf("resume: %w", err)
	}
	if s := c.session(); s != nil {
		if err := s.Resume(); err != nil {
			c.logger.Warn("Failed to resume recording", "err", err)
		}
	}
	c.setState(StatePlaying)
	return nil
}

func (c *Controller) pause() error {
	if c.state != StatePlaying {
		return nil
	}
	if err := c.engine.Pause(); err != nil {
		c.logger.Warn("Failed to pause speech", "err", err)
		return fmt.Errorf("pause: %w", err)
	}
	if s := c.session(); s != nil {
		if err := s.Pause(); err != nil {
			c.logger.Warn("Failed to pause recording", "err", err)
		}
	}
	c.setState(StatePaused)
	return nil
}

func (c *Controller) stop() {
	c.engine.Cancel()

	if a := c.current; a != nil {
		c.current = nil
		c.endCapture(a)
		if a.session != nil && a.session.Active() {
			art, err := a.session.Stop()
			switch {
			case err != nil:
				c.logger.Warn("Recording could not be finalized", "attempt", a.id, "err", err)
			case art != nil:
				c.setArtifact(a, art)
			}
		}
	}

	if c.state != StateIdle {
		c.setState(StateIdle)
	}
}

func (c *Controller) session() *recorder.Session {
	if c.current == nil || c.current.session == nil || !c.current.session.Active() {
		return nil
	}
	return c.current.session
}

// endCapture abandons a pending negotiation. A stream that arrives later
// is released by onCapture.
func (c *Controller) endCapture(a *attempt) {
	if a.capturing {
		a.capturing = false
		a.cancelCapture()
	}
}

func (c *Controller) negotiate(ctx context.Context, id string) {
	stream, err := c.capture.Acquire(ctx)
	if !c.post(func() { c.onCapture(id, stream, err) }) && stream != nil {
		_ = stream.Stop()
	}
}

func (c *Controller) onCapture(id string, stream capture.Stream, err error) {
	a := c.current
	if a == nil || a.id != id || !a.capturing {
		if stream != nil {
			c.logger.Debug("Releasing late capture stream", "attempt", id, "stream", stream.ID())
			if stopErr := stream.Stop(); stopErr != nil {
				c.logger.Warn("Failed to release capture stream", "err", stopErr)
			}
		}
		return
	}
	a.capturing = false
	a.cancelCapture()

	if err != nil {
		c.logger.Info("Using synthesized audio", "attempt", id, "code", CodeCaptureUnavailable, "err", err)
		c.reporter.Report(status.SeverityInfo, "Audio capture unavailable, a synthesized track will be provided")
		return
	}

	session := recorder.NewSession(c.recorders, c.appName, c.logger)
	if err := session.Start(stream); err != nil {
		return
	}
	if c.state == StatePaused {
		if err := session.Pause(); err != nil {
			c.logger.Warn("Failed to pause recording", "err", err)
		}
	}
	a.session = session
	c.logger.Info("Recording speech", "attempt", id, "stream", stream.ID(), "rate", stream.SampleRate())
	c.notify.publish(Event{Kind: EventRecording, Attempt: id, State: c.state})
}

func (c *Controller) handler(id string) speech.Handler {
	return func(ev speech.Event) {
		c.post(func() { c.onSpeech(id, ev) })
	}
}

func (c *Controller) onSpeech(id string, ev speech.Event) {
	a := c.current
	if a == nil || a.id != id || (ev.UtteranceID != "" && ev.UtteranceID != id) {
		c.logger.Debug("Dropping stale speech event", "attempt", id, "utterance", ev.UtteranceID, "event", ev.Kind)
		return
	}

	switch ev.Kind {
	case speech.EventStarted:
		if c.state == StateRequesting {
			c.setState(StatePlaying)
		}
	case speech.EventEnded:
		c.complete(a)
	case speech.EventError:
		c.fail(a, newError(CodePlatformSpeech, ev.Code, ev.Err))
	default:
		c.logger.Debug("Speech event", "attempt", id, "event", ev.Kind)
	}
}

// complete runs after the ended event. Whether the artifact is the
// recording or the fallback depends only on the session state now; a
// negotiation still pending counts as no recording.
func (c *Controller) complete(a *attempt) {
	c.endCapture(a)

	var art *artifact.Artifact
	if a.session != nil && a.session.Active() {
		rec, err := a.session.Stop()
		if err != nil {
			c.logger.Warn("Recording could not be finalized, falling back", "attempt", a.id, "err", err)
		}
		art = rec
	}

	if art == nil {
		fallback, err := c.fallback(a)
		if err != nil {
			perr := newError(CodeEncodingPrecondition, "fallback artifact", err)
			c.logger.Error("Failed to produce fallback artifact", "attempt", a.id, "err", err)
			c.surface(perr)
			c.setState(StateErrored)
			c.current = nil
			c.notify.publish(Event{Kind: EventError, Attempt: a.id, State: c.state, Err: perr})
			return
		}
		art = fallback
	}

	c.setArtifact(a, art)
	c.setState(StateCompleted)
	c.current = nil
}

func (c *Controller) fallback(a *attempt) (*artifact.Artifact, error) {
	if c.strategy.Fallback() == artifact.KindMetadataExport {
		estimated := time.Duration(c.synth.Duration(a.text) * float64(time.Second))
		return artifact.Export(artifact.ExportRequest{
			AppName:   c.appName,
			Text:      a.text,
			Language:  a.lang,
			Voice:     a.voice,
			Estimated: estimated,
		}, c.now())
	}
	buf := c.synth.Synthesize(a.text)
	c.logger.Debug("Synthesized fallback", "attempt", a.id, "duration", buf.Duration(), "rate", buf.SampleRate)
	return artifact.FromPCM(buf, c.appName, c.now())
}

// fail ends the attempt without an artifact and surfaces err.
func (c *Controller) fail(a *attempt, err *Error) {
	c.engine.Cancel()
	c.endCapture(a)
	if a.session != nil {
		a.session.Discard()
	}

	c.logger.Error("Speech failed", "attempt", a.id, "code", err.Message, "err", err.Cause)
	c.surface(err)
	c.setState(StateErrored)
	c.current = nil
	c.notify.publish(Event{Kind: EventError, Attempt: a.id, State: c.state, Err: err})
}

// surface puts err on the status line unless it is a programming error.
func (c *Controller) surface(err *Error) {
	if !err.IsUserFacing() {
		return
	}
	c.reporter.Report(status.SeverityError, "Speech error: "+err.Message)
}

func (c *Controller) setArtifact(a *attempt, art *artifact.Artifact) {
	c.artifact = art
	c.logger.Info("Artifact ready", "attempt", a.id, "kind", art.Kind, "file", art.Filename, "bytes", art.Size())
	c.reporter.Report(status.SeveritySuccess, readyText(art))
	c.notify.publish(Event{Kind: EventArtifact, Attempt: a.id, State: c.state, Artifact: art})
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("State change", "from", c.state, "to", s)
	c.state = s
	var id string
	if c.current != nil {
		id = c.current.id
	}
	c.notify.publish(Event{Kind: EventStateChanged, Attempt: id, State: s})
}

func readyText(a *artifact.Artifact) string {
	switch a.Kind {
	case artifact.KindRecorded:
		return "Recorded audio ready: " + a.Filename
	case artifact.KindMetadataExport:
		return "Speech export ready: " + a.Filename
	default:
		return "Synthesized audio ready: " + a.Filename
	}
}

func errorText(err error) string {
	var perr *Error
	if errors.As(err, &perr) && perr.Cause != nil {
		return perr.Cause.Error()
	}
	return err.Error()
}
