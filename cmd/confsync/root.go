package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/confsync/config"
	"github.com/artpar/confsync/core/formatter"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "confsync",
	Short: "Typed configuration registry with remote editing",
	Long: `confsync keeps a registry of typed, range-checked configuration fields
declared by modules, and lets privileged replicas edit it over a compact
binary sync protocol.

Authority:
  confsync serve      # Serve the registry
  confsync schema     # Print the built schema
  confsync validate   # Check config and module declarations
  confsync audit      # List handled sync operations

Replica (role: replica):
  confsync pull                   # Show the authority's values
  confsync push maxSpeed=75       # Change values
  confsync resync                 # Fetch factory defaults

Setup:
  confsync token      # Generate an actor token and its hash`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "confsync.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// loadConfig reads the config file, falling back to CONFSYNC_* variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes warnings to stderr so command output stays clean.
func cliLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

var formatters = formatter.NewRegistry()

func render(res formatter.Result) error {
	f, err := formatters.Lookup(outputFormat)
	if err != nil {
		return err
	}
	return f.Format(os.Stdout, res, formatter.FormatOptions{MaxWidth: 60})
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
