package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	confhttp "github.com/artpar/confsync/adapters/http"
	"github.com/artpar/confsync/bootstrap"
	"github.com/artpar/confsync/core/formatter"
	"github.com/artpar/confsync/domain/value"
)

var replicaActor string

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Show the authority's current values",
	Long: `Fetch a full sync from the authority and print it.

Requires a replica config (role: replica, authority.url).

Examples:
  confsync pull --config replica.yaml
  confsync pull -o json`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

var pushCmd = &cobra.Command{
	Use:   "push <name=value>...",
	Short: "Change values on the authority",
	Long: `Send a client update carrying the given assignments.

Values are parsed with the type of the field as last synced; the
authority converts and range-checks them again. Fields that are
unknown, unparseable or out of range are refused one by one without
affecting the rest of the update. Assignments equal to the current
value are not sent.

Examples:
  confsync push maxSpeed=75
  confsync push maxSpeed=75 gravity=9.7 profile=arcade`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPush,
}

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Fetch the authority's factory defaults",
	Long: `Send a resync request. The authority answers with the declared
defaults of every synced field, not its live values. The defaults are
printed; push them to apply.`,
	Args: cobra.NoArgs,
	RunE: runResync,
}

func init() {
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(resyncCmd)

	for _, c := range []*cobra.Command{pullCmd, pushCmd, resyncCmd} {
		c.Flags().StringVar(&replicaActor, "actor", os.Getenv("USER"), "local user name for logs")
	}
}

func openReplica(ctx context.Context) (*bootstrap.Replica, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cliLogger()
	r, err := bootstrap.NewReplica(cfg, replicaActor, bootstrap.Options{Logger: &logger, Version: version})
	if err != nil {
		return nil, err
	}
	if err := r.Start(ctx); err != nil {
		r.Close()
		return nil, explain(err)
	}
	return r, nil
}

func runPull(cmd *cobra.Command, args []string) error {
	r, err := openReplica(cmd.Context())
	if err != nil {
		return err
	}
	defer r.Close()

	return render(valuesResult(r.Editor.CurrentValues(true)))
}

func runPush(cmd *cobra.Command, args []string) error {
	r, err := openReplica(cmd.Context())
	if err != nil {
		return err
	}
	defer r.Close()

	current := r.Editor.CurrentValues(true)
	edited, err := parseAssignments(args, current)
	if err != nil {
		return err
	}

	op, err := r.Editor.Push(cmd.Context(), edited)
	if err != nil {
		return explain(err)
	}
	if len(op.Payload) == 0 {
		fmt.Println("Nothing to change.")
		return nil
	}

	fmt.Printf("%s Sent %d field(s): %s\n", checkMark, len(op.Payload), strings.Join(op.Payload.Keys(), ", "))

	// Read back what the authority kept.
	if _, err := r.Editor.Refresh(cmd.Context()); err != nil {
		return explain(err)
	}
	after := r.Editor.CurrentValues(true)
	for _, name := range op.Payload.Keys() {
		got, ok := after[name]
		switch {
		case !ok:
			fmt.Printf("  %s %s: not reported by the authority\n", crossMark, name)
		case len(value.Diff(value.Map{name: got}, value.Map{name: op.Payload[name]})) > 0:
			fmt.Printf("  %s %s: refused, still %s\n", crossMark, name, got)
		default:
			fmt.Printf("  %s %s = %s\n", checkMark, name, got)
		}
	}
	return nil
}

func runResync(cmd *cobra.Command, args []string) error {
	r, err := openReplica(cmd.Context())
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := r.Editor.Resync(cmd.Context()); err != nil {
		return explain(err)
	}
	return render(valuesResult(r.Editor.CurrentValues(true)))
}

// parseAssignments turns name=value arguments into typed values, using
// the kind each field had in the last sync. Names the replica has never
// seen are sent as strings and left for the authority to judge.
func parseAssignments(args []string, current value.Map) (value.Map, error) {
	edited := current.Clone()
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want name=value", arg)
		}

		prev, known := current[name]
		if !known {
			edited[name] = value.String(raw)
			continue
		}
		v, err := value.Coerce(prev.Kind(), value.String(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		edited[name] = v
	}
	return edited, nil
}

func valuesResult(values value.Map) formatter.Result {
	res := formatter.Result{Kind: "values", Columns: []string{"name", "type", "value"}}
	for _, name := range values.Keys() {
		v := values[name]
		res.Records = append(res.Records, map[string]any{
			"name":  name,
			"type":  v.Kind().String(),
			"value": v.Interface(),
		})
	}
	return res
}

// explain turns a denial into the authority's notice.
func explain(err error) error {
	var se *confhttp.StatusError
	if errors.As(err, &se) && confhttp.IsDenied(err) {
		return fmt.Errorf("permission denied: %s", se.Message)
	}
	return err
}
