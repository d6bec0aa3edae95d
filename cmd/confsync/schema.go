package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/confsync/config"
	"github.com/artpar/confsync/core/formatter"
	"github.com/artpar/confsync/core/registry"
	"github.com/artpar/confsync/core/schema"
)

var schemaAll bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema built from the module directories",
	Long: `Build the schema exactly as the authority would at startup and print it.

Fields flagged no_sync are listed only with --all. Fields flagged
no_load never reach the schema.

Examples:
  confsync schema
  confsync schema --all -o yaml`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolVar(&schemaAll, "all", false, "include fields that are not synced")
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := buildSchema(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return render(schemaResult(s, schemaAll))
}

func buildSchema(ctx context.Context, cfg *config.Config) (*schema.Schema, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(cfg.Modules.Dirs) == 0 {
		return nil, fmt.Errorf("no module directories configured")
	}
	return registry.Build(ctx, registry.Dirs(cfg.Modules.Dirs))
}

func schemaResult(s *schema.Schema, all bool) formatter.Result {
	res := formatter.Result{
		Kind:    "fields",
		Columns: []string{"name", "module", "type", "default", "range", "sync", "comment"},
	}
	for _, f := range s.Fields() {
		if !f.Syncable && !all {
			continue
		}
		rec := map[string]any{
			"name":    f.Name,
			"module":  f.Module,
			"type":    f.Kind.String(),
			"default": f.Default.Interface(),
			"sync":    f.Syncable,
			"comment": f.Comment,
		}
		if f.Range != nil {
			rec["range"] = f.Range.String()
		}
		res.Records = append(res.Records, rec)
	}
	return res
}
