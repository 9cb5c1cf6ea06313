package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/speakwav/internal/audio"
	"github.com/dgnsrekt/speakwav/internal/capture"
	paudio "github.com/dgnsrekt/speakwav/internal/capture/portaudio"
	"github.com/dgnsrekt/speakwav/internal/playback"
	"github.com/dgnsrekt/speakwav/internal/recorder/oggopus"
	"github.com/dgnsrekt/speakwav/internal/speech"
	"github.com/dgnsrekt/speakwav/internal/status"
	"github.com/dgnsrekt/speakwav/internal/synth"
)

type appOptions struct {
	// reporter receives user-facing messages in CLI mode.
	reporter status.Reporter
	// board creates a status board for the TUI.
	board   bool
	preview bool
}

// app holds the wired components for one run.
type app struct {
	engine     *speech.ExecEngine
	source     *paudio.Source
	controller *playback.Controller
	board      *status.Board
	preview    *audio.Player
	synth      *synth.Synthesizer
	voices     []speech.Voice
}

func newApp(opts appOptions) (*app, error) {
	logger := log.Default()

	engine, err := speech.NewExecEngine(speech.ExecConfig{
		Binary: viper.GetString("engine.binary"),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("no speech engine: %w", err)
	}
	a := &app{engine: engine}

	voices, err := engine.Voices()
	if err != nil {
		logger.Warn("Could not list voices", "err", err)
	}
	a.voices = voices

	voiceID := ""
	if voice != "" {
		v, ok := speech.FindVoice(speech.FilterVoices(voices, language), voice)
		if !ok {
			return nil, fmt.Errorf("no voice matches %q", voice)
		}
		voiceID = v.ID
		logger.Debug("Selected voice", "id", v.ID, "name", v.Name)
	}

	rate := viper.GetInt("audio.sample_rate")
	if rate == 0 {
		rate = paudio.DefaultOutputSampleRate()
	}
	sy := synth.New(synth.Config{
		SampleRate:     rate,
		SecondsPerChar: viper.GetFloat64("synth.seconds_per_char"),
		MinDuration:    viper.GetDuration("synth.min_duration"),
	})
	a.synth = sy

	var acquirer playback.Acquirer
	if strategy == playback.StrategyCapture && viper.GetBool("capture.enabled") {
		src, err := paudio.NewSource(paudio.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("Audio capture disabled", "err", err)
		} else {
			a.source = src
			acquirer = capture.NewNegotiator(src, viper.GetString("capture.device"), logger)
		}
	}

	reporter := opts.reporter
	if opts.board {
		a.board = status.NewBoard(viper.GetDuration("status.clear_after"))
		reporter = a.board
	}
	if reporter == nil {
		reporter = status.LogReporter{Logger: logger}
	} else {
		reporter = status.Multi(reporter, status.LogReporter{Logger: logger})
	}

	cfg := playback.Config{
		Engine:   engine,
		Synth:    sy,
		Reporter: reporter,
		Logger:   logger,
		Strategy: strategy,
		AppName:  appName,
	}
	if acquirer != nil {
		cfg.Capture = acquirer
		cfg.Recorders = oggopus.Factory
	}

	ctrl, err := playback.New(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.controller = ctrl
	if err := ctrl.SelectVoice(voiceID); err != nil {
		_ = a.Close()
		return nil, err
	}

	if opts.preview {
		p, err := audio.NewPlayer(audio.DefaultPlayerConfig())
		if err != nil {
			logger.Warn("Preview disabled", "err", err)
		} else {
			a.preview = p
		}
	}

	logger.Debug("Ready", "engine", engine.Binary(), "strategy", strategy, "capture", acquirer != nil, "rate", sy.SampleRate())
	return a, nil
}

// Close releases everything newApp acquired.
func (a *app) Close() error {
	var errs []error
	if a.controller != nil {
		errs = append(errs, a.controller.Close())
	}
	if a.preview != nil {
		errs = append(errs, a.preview.Close())
	}
	if a.source != nil {
		errs = append(errs, a.source.Close())
	}
	return errors.Join(errs...)
}

// cliReporter prints status messages for the command line.
type cliReporter struct {
	w io.Writer
}

func newCLIReporter(w io.Writer) cliReporter {
	return cliReporter{w: w}
}

func (r cliReporter) Report(sev status.Severity, text string) {
	switch sev {
	case status.SeverityError:
		fmt.Fprintln(r.w, errorText(text))
	case status.SeveritySuccess:
		fmt.Fprintln(r.w, keyword(text))
	default:
		fmt.Fprintln(r.w, text)
	}
}

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the voices available for a language",
	Example: paragraph("speakwav voices\nspeakwav voices --lang de-DE"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine, err := speech.NewExecEngine(speech.ExecConfig{
			Binary: viper.GetString("engine.binary"),
			Logger: log.Default(),
		})
		if err != nil {
			return err
		}
		voices, err := engine.Voices()
		if err != nil {
			return fmt.Errorf("unable to list voices: %w", err)
		}
		for _, v := range speech.FilterVoices(voices, language) {
			marker := " "
			if v.Default {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %-10s %s\n", marker, v.ID, v.Lang, v.Name)
		}
		return nil
	},
}

