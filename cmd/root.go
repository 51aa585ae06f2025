package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	dbPath    string
	redisURL  string
	offline   bool
	ephemeral bool
	seed      uint64
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tropedeck",
	Short: "Draw random story tropes and encounter ideas for tabletop games",
	Long: `A CLI tool that draws random story elements for tabletop role-playing games.

Tables are fetched from the published story generator data, cached locally,
and fall back to a bundled copy when offline.

Features:
  • Draw a handful of story tropes, mixed with your own personal list
  • Build the selection up interactively: add, remove, reroll
  • Roll encounters across seven categories, with your own custom inputs
  • Export as text, Markdown, JSON, JSONL, YAML or an LLM prompt
  • Relay prompts to an OpenAI-compatible model

Quick Start:
  tropedeck generate -n 5               # Draw five tropes
  tropedeck session                     # Interactive selection
  tropedeck encounter                   # Roll a full encounter
  tropedeck generate --format prompt    # Build a campaign prompt`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the local cache database (default ~/.tropedeck/tropedeck.db)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Use a Redis server as the cache (redis://host:port/db)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Skip remote sources and use the cached or bundled tables")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the cache in memory for this run only")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Seed the random draws for reproducible output")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
