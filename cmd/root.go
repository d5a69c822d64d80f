// Package cmd provides the graphein CLI: the constraint-discovery
// pipeline over a symbolic token corpus.
package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowprose/graphein/core/config"
	"github.com/hollowprose/graphein/core/corpus"
	"github.com/hollowprose/graphein/core/registry"
)

// Exit codes. Parse failures inside a well-formed corpus are contained
// and reported, not fatal; these cover the genuinely fatal classes.
const (
	ExitOK               = 0
	ExitMalformedCorpus  = 1
	ExitRegistryConflict = 2
	ExitConfigError      = 3
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "graphein",
	Short: "Constraint discovery and validation over a symbolic token corpus",
	Long: `Graphein decomposes corpus tokens under an injected grammar, derives
the middle-type compatibility graph, classifies instruction roles, runs
the registered hypothesis battery, and maintains the append-only
constraint registry.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI and maps error classes to exit codes.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return exitCode(err)
	}
	return ExitOK
}

func exitCode(err error) int {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	var conflict *registry.ConflictError
	if errors.As(err, &conflict) {
		return ExitRegistryConflict
	}
	if errors.Is(err, corpus.ErrEmptyCorpus) ||
		errors.Is(err, corpus.ErrUnknownFormat) ||
		errors.Is(err, corpus.ErrMalformedRecord) ||
		errors.Is(err, corpus.ErrMissingTokenField) {
		return ExitMalformedCorpus
	}
	return ExitMalformedCorpus
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
