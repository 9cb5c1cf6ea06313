// Package main provides the entry point for the speakwav CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/speakwav/internal/artifact"
	"github.com/dgnsrekt/speakwav/internal/document"
	"github.com/dgnsrekt/speakwav/internal/playback"
	"github.com/dgnsrekt/speakwav/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	appName    string
	language   string
	voice      string
	strategy   playback.Strategy
	outputDir  string
	save       bool
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "speakwav [TEXT|FILE|-]",
		Short: "Speak text aloud and keep the audio",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text aloud and %s.", keyword("save what you heard")) +
				" The spoken audio is recorded when the system lets us capture it, otherwise a synthesized track of matching length is produced.",
		),
		Example: paragraph("speakwav \"Hello there\" --save\nspeakwav notes.md -o ~/audio\ncat story.txt | speakwav - --strategy synthesize --save"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	appName = viper.GetString("app_name")
	language = viper.GetString("language")
	voice = viper.GetString("voice")
	outputDir = viper.GetString("output_dir")
	save = viper.GetBool("save")
	debug = viper.GetBool("debug")

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	s, err := playback.ParseStrategy(viper.GetString("strategy"))
	if err != nil {
		return err
	}
	strategy = s

	if strings.TrimSpace(language) == "" {
		return errors.New("language must not be empty")
	}

	// -o implies saving
	if cmd.Flags().Changed("output") {
		save = true
	}
	if rate := viper.GetInt("audio.sample_rate"); rate < 0 {
		return fmt.Errorf("audio.sample_rate must not be negative, got %d", rate)
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if document.StdinPiped() && len(args) == 0 {
		args = []string{"-"}
	}

	switch len(args) {
	case 0:
		if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
			return errors.New("no text given and stdout is not a terminal")
		}
		return runTUI("")
	default:
		doc, err := document.Load(args[0], os.Stdin)
		if err != nil {
			return err
		}
		log.Debug("Loaded input", "source", doc.Source, "path", doc.Path, "markdown", doc.Markdown)
		return executeCLI(cmd, doc)
	}
}

func executeCLI(cmd *cobra.Command, doc document.Document) error {
	if debug {
		enableStderrLog()
	}

	a, err := newApp(appOptions{reporter: newCLIReporter(cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	art, err := speak(ctx, a.controller, doc.Text, language)
	if err != nil {
		return err
	}

	if !save {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s), use --save to keep it\n",
			keyword("Ready:"), art.Filename, humanize.Bytes(uint64(art.Size()))) //nolint:gosec
		return nil
	}

	path, err := artifact.Save(art, outputDir)
	if err != nil {
		return fmt.Errorf("unable to save audio: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", keyword("Wrote"), path, humanize.Bytes(uint64(art.Size()))) //nolint:gosec
	return nil
}

// speak plays text and blocks until the attempt produces an artifact or
// fails. Canceling ctx stops playback, which still finalizes a recording.
func speak(ctx context.Context, c *playback.Controller, text, lang string) (*artifact.Artifact, error) {
	type result struct {
		art *artifact.Artifact
		err error
	}
	done := make(chan result, 1)
	var attempt string

	unsub := c.Subscribe(func(ev playback.Event) {
		if attempt == "" || ev.Attempt != attempt {
			if ev.Kind != playback.EventStateChanged || ev.State != playback.StateRequesting {
				return
			}
			attempt = ev.Attempt
			return
		}
		switch ev.Kind {
		case playback.EventArtifact:
			select {
			case done <- result{art: ev.Artifact}:
			default:
			}
		case playback.EventError:
			select {
			case done <- result{err: ev.Err}:
			default:
			}
		}
	})
	defer unsub()

	if err := c.Play(ctx, text, lang); err != nil {
		return nil, err
	}

	select {
	case r := <-done:
		return r.art, r.err
	case <-ctx.Done():
		recording := c.Recording()
		log.Info("Interrupted, stopping playback", "recording", recording)
		if err := c.Stop(); err != nil {
			return nil, err
		}
		if !recording {
			return nil, ctx.Err()
		}
		// Stop finalizes the recording in progress.
		select {
		case r := <-done:
			return r.art, r.err
		case <-time.After(time.Second):
			return nil, ctx.Err()
		}
	}
}

func runTUI(text string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.AppName = appName
	cfg.Language = language
	cfg.Voice = voice
	cfg.OutputDir = outputDir
	cfg.Text = text

	a, err := newApp(appOptions{board: true, preview: true})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	deps := ui.Deps{
		Player: a.controller,
		Board:  a.board,
		Synth:  a.synth,
		Voices: a.voices,
		Logger: log.Default(),
	}
	if a.preview != nil {
		deps.Preview = a.preview
	}

	p := ui.NewProgram(cfg, deps)

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Debug("Configuration changed", "path", e.Name, "op", e.Op)
			p.Send(ui.ConfigChangedMsg{
				Language: viper.GetString("language"),
				Voice:    viper.GetString("voice"),
			})
		})
		viper.WatchConfig()
	}

	// Run Bubble Tea program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&language, "lang", "l", "en-US", "BCP-47 language tag of the text")
	rootCmd.Flags().StringVarP(&voice, "voice", "v", "", "voice ID or name (fuzzy matched)")
	rootCmd.Flags().StringP("strategy", "s", playback.StrategyCapture.String(), "how audio is produced: capture, synthesize or export")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory the audio is saved to")
	rootCmd.Flags().BoolVar(&save, "save", false, "save the audio when speech ends (CLI mode)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output")

	// Config bindings
	_ = viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("lang"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("strategy", rootCmd.Flags().Lookup("strategy"))
	_ = viper.BindPFlag("output_dir", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("save", rootCmd.Flags().Lookup("save"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("app_name", artifact.DefaultAppName)
	viper.SetDefault("language", "en-US")
	viper.SetDefault("strategy", playback.StrategyCapture.String())
	viper.SetDefault("output_dir", ".")
	viper.SetDefault("engine.binary", "")
	viper.SetDefault("audio.sample_rate", 0)
	viper.SetDefault("capture.enabled", true)
	viper.SetDefault("capture.device", "")
	viper.SetDefault("synth.seconds_per_char", 0.05)
	viper.SetDefault("synth.min_duration", "1s")
	viper.SetDefault("status.clear_after", "5s")

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "speakwav")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speakwav")}, dirs...)
	}

	if c := os.Getenv("SPEAKWAV_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speakwav")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("speakwav")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "speakwav.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
