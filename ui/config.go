package ui

// Config contains TUI-specific configuration.
type Config struct {
	AppName   string
	Language  string
	Voice     string
	OutputDir string
	HomeDir   string `env:"HOME"`

	// Initial text for the editor.
	Text string

	// For debugging the UI
	ShowHelp  bool `env:"SPEAKWAV_SHOW_HELP"  envDefault:"true"`
	AltScreen bool `env:"SPEAKWAV_ALT_SCREEN" envDefault:"true"`
}
