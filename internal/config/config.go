package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/keiradan/trackcard/internal/presence"
	"github.com/keiradan/trackcard/pkg/lastfm"
)

// Config holds process-wide configuration. It is built once at startup
// and passed into each component constructor; there is no ambient
// global state.
type Config struct {
	Server   ServerConfig
	LastFM   LastFMConfig
	Presence PresenceConfig
	Card     CardConfig

	// UpstreamTimeout bounds every upstream call (activity provider,
	// image fetch, external template fetch).
	UpstreamTimeout time.Duration
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int

	// StrictRoutes answers unmatched paths with 404 instead of the
	// permissive 200 "Cannot GET" page.
	StrictRoutes bool
}

// LastFMConfig holds Last.fm API credentials.
type LastFMConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// PresenceConfig holds the Discord presence provider settings.
type PresenceConfig struct {
	BaseURL string
}

// CardConfig holds card rendering options.
type CardConfig struct {
	// EqualizerGlyph shows the animated equalizer on the artist line
	// while a track is playing.
	EqualizerGlyph bool

	// PauseOverlay stamps a pause glyph on the cover of a track that
	// is not playing.
	PauseOverlay bool

	// RasterCorners rounds the cover's corners by raster masking
	// instead of leaving it to the card's CSS.
	RasterCorners bool

	// ScratchDir holds raster intermediates; empty means the system
	// temp directory.
	ScratchDir string
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.strict_routes", false)
	v.SetDefault("lastfm.base_url", lastfm.DefaultBaseURL)
	v.SetDefault("presence.base_url", presence.DefaultBaseURL)
	v.SetDefault("card.equalizer_glyph", true)
	v.SetDefault("card.pause_overlay", false)
	v.SetDefault("card.raster_corners", false)
	v.SetDefault("card.scratch_dir", "")
	v.SetDefault("upstream_timeout", 10)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables (TRACKCARD_LASTFM_API_KEY etc.)
	v.SetEnvPrefix("TRACKCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			StrictRoutes: v.GetBool("server.strict_routes"),
		},
		LastFM: LastFMConfig{
			APIKey:    v.GetString("lastfm.api_key"),
			APISecret: v.GetString("lastfm.api_secret"),
			BaseURL:   v.GetString("lastfm.base_url"),
		},
		Presence: PresenceConfig{
			BaseURL: v.GetString("presence.base_url"),
		},
		Card: CardConfig{
			EqualizerGlyph: v.GetBool("card.equalizer_glyph"),
			PauseOverlay:   v.GetBool("card.pause_overlay"),
			RasterCorners:  v.GetBool("card.raster_corners"),
			ScratchDir:     v.GetString("card.scratch_dir"),
		},
		UpstreamTimeout: time.Duration(v.GetInt("upstream_timeout")) * time.Second,
	}

	return cfg, nil
}

// Validate enforces the settings that must be present before serving.
// Missing credentials fail here, at startup, rather than on the first
// request.
func (c *Config) Validate() error {
	if c.LastFM.APIKey == "" {
		return fmt.Errorf("lastfm.api_key is required (set TRACKCARD_LASTFM_API_KEY)")
	}
	if c.LastFM.APISecret == "" {
		return fmt.Errorf("lastfm.api_secret is required (set TRACKCARD_LASTFM_API_SECRET)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream_timeout must be positive")
	}
	return nil
}

// getConfigDir returns the configuration directory path, creating it if
// it doesn't exist.
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "trackcard")
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}
