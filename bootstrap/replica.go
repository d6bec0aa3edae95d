package bootstrap

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	confhttp "github.com/artpar/confsync/adapters/http"
	"github.com/artpar/confsync/adapters/memory"
	"github.com/artpar/confsync/app"
	"github.com/artpar/confsync/config"
	"github.com/artpar/confsync/ports"
)

// Replica is a client of an authority with a local editable view.
type Replica struct {
	Logger  zerolog.Logger
	Config  *config.Config
	View    *memory.View
	Session *app.Session
	Queue   *app.Queue
	Editor  *app.ReplicaEditor
	Client  *confhttp.Client
}

// NewReplica builds a replica from cfg. actor names the local user in
// log lines; the authority identifies it by its bearer token. Call Start
// before using the editor.
func NewReplica(cfg *config.Config, actor string, opts Options) (*Replica, error) {
	if !cfg.IsReplica() {
		return nil, errors.New("config describes an authority; set role: replica")
	}

	logger := setupLogger(cfg.Logging)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	client, err := confhttp.NewClient(confhttp.ClientConfig{
		BaseURL: cfg.Authority.URL,
		Token:   cfg.Authority.Token,
		Timeout: cfg.Authority.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return newReplica(cfg, actor, client, logger)
}

func newReplica(cfg *config.Config, actor string, transport ports.Transport, logger zerolog.Logger) (*Replica, error) {
	view := memory.NewView()
	session, err := app.NewSession(app.SessionDeps{View: view}, app.SessionConfig{Role: app.RoleReplica}, logger)
	if err != nil {
		return nil, err
	}

	q := app.NewQueue(cfg.Queue.Size, nil, logger)
	editor, err := app.NewReplicaEditor(app.ReplicaDeps{
		Session:   session,
		Queue:     q,
		Transport: transport,
	}, actor)
	if err != nil {
		return nil, err
	}

	r := &Replica{
		Logger:  logger,
		Config:  cfg,
		View:    view,
		Session: session,
		Queue:   q,
		Editor:  editor,
	}
	if c, ok := transport.(*confhttp.Client); ok {
		r.Client = c
	}
	return r, nil
}

// Start launches the queue and loads the authority's current values.
func (r *Replica) Start(ctx context.Context) error {
	r.Queue.Start(ctx)

	res, err := r.Editor.Refresh(ctx)
	if err != nil {
		return err
	}
	r.Logger.Debug().Int("fields", len(res.Applied)).Str("authority", r.Config.Authority.URL).Msg("replica view loaded")
	return nil
}

// Close stops the queue and releases connections.
func (r *Replica) Close() error {
	r.Queue.Stop()
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}
