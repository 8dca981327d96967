package music_player

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Color extraction modes.
const (
	ColorExtractionStored = "stored"
	ColorExtractionPixel  = "pixel"
)

// Config holds the music player module configuration.
type Config struct {
	// CatalogPath points at a catalog JSON file; empty uses the bundled catalog.
	CatalogPath string `env:"CATALOG_PATH"`

	// MediaDir holds the music/ and covers/ directories the catalog refers to.
	MediaDir string `env:"MEDIA_DIR" envDefault:"media"`

	// PublicBaseURL is the externally reachable site root, used to hand
	// catalog URLs to Lavalink and Discord.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	ColorExtraction string `env:"COLOR_EXTRACTION" envDefault:"stored"`

	// Listening parties are enabled only when both Discord and Lavalink are configured.
	LavalinkAddress  string `env:"LAVALINK_ADDRESS"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD"`

	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"100"`

	// ProbeCatalog measures audio files at startup to fill in missing durations.
	ProbeCatalog bool `env:"PROBE_CATALOG" envDefault:"true"`

	// Web sessions without a media socket are closed after SessionIdleTimeout
	// without a state change.
	SessionIdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT"  envDefault:"30m"`
	SessionReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"1m"`
}

// ParseConfig reads the configuration from environment variables.
func ParseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.ColorExtraction {
	case ColorExtractionStored, ColorExtractionPixel:
	default:
		return fmt.Errorf("COLOR_EXTRACTION must be %q or %q, got %q",
			ColorExtractionStored, ColorExtractionPixel, c.ColorExtraction)
	}
	if c.EventBufferSize <= 0 {
		return fmt.Errorf("EVENT_BUFFER_SIZE must be positive, got %d", c.EventBufferSize)
	}
	if c.SessionIdleTimeout <= 0 || c.SessionReapInterval <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT and SESSION_REAP_INTERVAL must be positive, got %s / %s",
			c.SessionIdleTimeout, c.SessionReapInterval)
	}
	if c.LavalinkAddress != "" && c.LavalinkPassword == "" {
		return errors.New("LAVALINK_PASSWORD is required when LAVALINK_ADDRESS is set")
	}
	return nil
}

// ListeningPartiesEnabled reports whether Lavalink is configured.
func (c *Config) ListeningPartiesEnabled() bool {
	return c.LavalinkAddress != ""
}
