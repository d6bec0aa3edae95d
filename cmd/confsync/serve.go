package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/confsync/bootstrap"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configuration registry",
	Long: `Start the confsync authority.

The server will:
  - Load configuration from confsync.yaml (or --config)
  - Or load configuration from CONFSYNC_* environment variables
  - Build the schema from the module directories
  - Serve POST /v1/sync, GET /v1/sync/full and GET /v1/schema
  - Reload the actor table when the config file changes or on SIGHUP

Examples:
  confsync serve
  confsync serve --config /etc/confsync/authority.yaml
  confsync serve --hot-reload=false

  # Env vars only:
  CONFSYNC_MODULES_DIRS=./modules confsync serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload the actor table when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	opts := bootstrap.Options{Version: version}

	var (
		app *bootstrap.App
		err error
	)
	if hasConfigFile && hotReload {
		app, err = bootstrap.New(cfgFile, opts)
	} else {
		cfg, loadErr := loadConfig()
		if loadErr != nil {
			return loadErr
		}
		if cfg.IsReplica() {
			return errors.New("this config describes a replica; use pull, push or resync")
		}
		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}
		app, err = bootstrap.NewWithConfig(cfg, opts)
	}
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
