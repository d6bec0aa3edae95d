package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/confsync/adapters/sqlite"
	"github.com/artpar/confsync/core/formatter"
	"github.com/artpar/confsync/domain/audit"
)

var (
	auditActor  string
	auditOp     string
	auditDenied bool
	auditSince  time.Duration
	auditLimit  int
	auditSum    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List sync operations recorded by the authority",
	Long: `List entries from the authority's SQLite audit log, newest first.

Examples:
  confsync audit
  confsync audit --actor alice --since 24h
  confsync audit --denied
  confsync audit --summary`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditActor, "actor", "", "filter by actor")
	auditCmd.Flags().StringVar(&auditOp, "op", "", "filter by operation (client_update, resync_request, ...)")
	auditCmd.Flags().BoolVar(&auditDenied, "denied", false, "only permission denials")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "only entries newer than this")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum entries (0 = all)")
	auditCmd.Flags().BoolVar(&auditSum, "summary", false, "print totals instead of entries")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Audit.Enabled || cfg.Audit.Driver != "sqlite" {
		return errors.New("audit log is not persisted: set audit.enabled and audit.driver: sqlite")
	}

	db, err := sqlite.Open(cfg.Audit.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	f := audit.Filter{
		Actor:      auditActor,
		Operation:  auditOp,
		DeniedOnly: auditDenied,
		Limit:      auditLimit,
	}
	if auditSince > 0 {
		f.Since = time.Now().Add(-auditSince)
	}
	if auditSum {
		f.Limit = 0
	}

	entries, err := sqlite.NewAuditStore(db).List(cmd.Context(), f)
	if err != nil {
		return err
	}

	if auditSum {
		return render(summaryResult(audit.Summarize(entries)))
	}
	return render(entriesResult(entries))
}

func entriesResult(entries []audit.Entry) formatter.Result {
	res := formatter.Result{
		Kind:    "entries",
		Columns: []string{"time", "actor", "operation", "applied", "rejected", "outcome"},
	}
	for _, e := range entries {
		outcome := "ok"
		switch {
		case e.Denied:
			outcome = "denied"
		case e.Misrouted:
			outcome = "misrouted"
		case len(e.Rejected) > 0:
			outcome = "partial"
		}
		res.Records = append(res.Records, map[string]any{
			"id":        e.ID,
			"time":      e.Time.Format(time.RFC3339),
			"actor":     e.Actor,
			"operation": e.Operation,
			"applied":   e.Applied,
			"rejected":  e.Rejected,
			"outcome":   outcome,
		})
	}
	return res
}

func summaryResult(s audit.Summary) formatter.Result {
	res := formatter.Result{Kind: "summary", Columns: []string{"metric", "count"}}
	add := func(metric string, n int64) {
		res.Records = append(res.Records, map[string]any{"metric": metric, "count": n})
	}
	add("operations", s.Operations)
	add("denied", s.Denied)
	add("misrouted", s.Misrouted)
	add("fields_applied", s.Applied)
	add("fields_rejected", s.Rejected)

	actors := make([]string, 0, len(s.ByActor))
	for actor := range s.ByActor {
		actors = append(actors, actor)
	}
	sort.Strings(actors)
	for _, actor := range actors {
		add("actor:"+actor, s.ByActor[actor])
	}
	return res
}
