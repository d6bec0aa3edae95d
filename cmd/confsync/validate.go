package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/confsync/adapters/sqlite"
)

var validateCheckDatabase bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and module declarations",
	Long: `Validate the confsync configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present for the configured role
  - Module declarations build into a schema (authority)
  - Audit database is writable (optional)

Examples:
  confsync validate
  confsync validate --config /etc/confsync/authority.yaml --check-database`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if the audit database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return err
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)
	fmt.Printf("  %s Role: %s\n", checkMark, cfg.Role)

	if cfg.IsReplica() {
		fmt.Printf("  %s Authority: %s\n", checkMark, cfg.Authority.URL)
		fmt.Println()
		fmt.Println("Configuration is valid.")
		return nil
	}

	s, err := buildSchema(cmd.Context(), cfg)
	if err != nil {
		fmt.Printf("  %s Schema builds\n", crossMark)
		return err
	}
	fmt.Printf("  %s Schema builds: %d modules, %d fields\n", checkMark, len(s.Modules()), s.Len())
	fmt.Printf("  %s Actors: %d (required level %d)\n", checkMark, len(cfg.Auth.Actors), cfg.Auth.RequiredLevel)

	if cfg.Audit.Enabled {
		fmt.Printf("  %s Audit: %s (%s)\n", checkMark, cfg.Audit.Driver, cfg.Audit.DSN)
		if validateCheckDatabase && cfg.Audit.Driver == "sqlite" {
			if err := checkDatabaseWritable(cfg.Audit.DSN); err != nil {
				fmt.Printf("  %s Database writable\n", crossMark)
				fmt.Printf("      Error: %v\n", err)
			} else {
				fmt.Printf("  %s Database writable\n", checkMark)
			}
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}
