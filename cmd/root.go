/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trackcard",
	Short: "Now-playing card server for Last.fm",
	Long: `trackcard serves the currently playing (or most recently played)
track of a Last.fm user as an embeddable SVG card.

It exposes a single endpoint, /api/v1/{username}, which can answer
with an SVG card for README embeds, the raw track JSON, a proxied
cover image, or a small HTML fragment, selected by the res query
parameter.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags can be added here if needed
}
