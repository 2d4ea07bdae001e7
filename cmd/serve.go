package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keiradan/trackcard/internal/artwork"
	"github.com/keiradan/trackcard/internal/card"
	"github.com/keiradan/trackcard/internal/config"
	"github.com/keiradan/trackcard/internal/presence"
	"github.com/keiradan/trackcard/internal/scratch"
	"github.com/keiradan/trackcard/internal/server"
	"github.com/keiradan/trackcard/pkg/lastfm"
)

var (
	serveLogFile  string
	serveLogLevel string
	servePort     int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the card server",
	Long: `Run the HTTP server that answers /api/v1/{username} requests.

The server will:
- Look up the user's current or most recent track on Last.fm
- Fetch and transform the cover art
- Compose an SVG card, raw JSON, proxied cover, or HTML fragment
- Handle graceful shutdown on SIGINT/SIGTERM

The server runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Command-line flags
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Log file path (default: stderr)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Set up logging
	logger := setupLogger(serveLogFile, serveLogLevel)

	logger.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Msg("Starting trackcard server")

	// Create Last.fm client
	lastfmClient, err := lastfm.NewClient(lastfm.Config{
		APIKey:     cfg.LastFM.APIKey,
		APISecret:  cfg.LastFM.APISecret,
		BaseURL:    cfg.LastFM.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.UpstreamTimeout},
		Logger:     zerologAdapter{logger},
	})
	if err != nil {
		return fmt.Errorf("failed to create Last.fm client: %w", err)
	}

	// Scratch directory for raster intermediates
	scratchDir, err := scratch.New(cfg.Card.ScratchDir)
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}

	handler := server.NewHandler(
		cfg,
		map[string]server.ActivityClient{
			"lastfm":  server.NewLastFMActivity(lastfmClient),
			"discord": server.NewPresenceActivity(presence.NewClient(cfg.Presence.BaseURL, cfg.UpstreamTimeout, logger)),
		},
		artwork.NewFetcher(cfg.UpstreamTimeout, logger),
		artwork.NewTransformer(scratchDir, logger),
		card.NewComposer(card.Options{
			EqualizerGlyph: cfg.Card.EqualizerGlyph,
			PauseOverlay:   cfg.Card.PauseOverlay,
		}, &http.Client{Timeout: cfg.UpstreamTimeout}, logger),
		logger,
	)

	srv := server.New(cfg, handler, logger)

	// Run server (blocks until shutdown signal)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	// Create logger
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}

// zerologAdapter exposes a zerolog.Logger through the lastfm.Logger
// interface.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug().Msgf(format, args...)
}
