package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/confsync/core/events"
	"github.com/artpar/confsync/core/wire"
	"github.com/artpar/confsync/domain/audit"
	"github.com/artpar/confsync/domain/field"
	"github.com/artpar/confsync/domain/value"
	"github.com/artpar/confsync/ports"
)

// DefaultRequiredLevel is the privilege level needed to change values or
// ask for a resync.
const DefaultRequiredLevel = 2

// Role is the side of the sync link a session serves.
type Role int

const (
	// RoleAuthority owns the canonical store.
	RoleAuthority Role = iota

	// RoleReplica hosts an editable view.
	RoleReplica
)

func (r Role) String() string {
	switch r {
	case RoleAuthority:
		return "authority"
	case RoleReplica:
		return "replica"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole parses "authority" or "replica".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "authority", "server":
		return RoleAuthority, nil
	case "replica", "client":
		return RoleReplica, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// handles reports whether operations of kind k are addressed to r.
func (r Role) handles(k wire.OpKind) bool {
	if r == RoleAuthority {
		return k.TowardAuthority()
	}
	return k.Valid() && !k.TowardAuthority()
}

// PermissionDeniedError is carried in a Result when the actor lacks the
// required privilege. Nothing from the operation was applied.
type PermissionDeniedError struct {
	Actor string
	Op    wire.OpKind
	Level int
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("actor %q lacks privilege level %d for %s", e.Actor, e.Level, e.Op)
}

// Notice is the text shown to the denied actor.
func (e *PermissionDeniedError) Notice() string {
	return "You do not have permission to change configuration values."
}

// MisroutedError is carried in a Result when an operation reaches the
// side that does not handle it. The operation is dropped.
type MisroutedError struct {
	Op   wire.OpKind
	Role Role
}

func (e *MisroutedError) Error() string {
	return fmt.Sprintf("%s is not handled by the %s", e.Op, e.Role)
}

// Rejection pairs a refused field with its cause.
type Rejection struct {
	Field string
	Err   error
}

// Result describes what handling one operation did.
type Result struct {
	Op        wire.OpKind
	Reply     *wire.Operation
	Denied    *PermissionDeniedError
	Misrouted *MisroutedError
	Applied   []string
	Rejected  []Rejection
}

// Err returns the denial or misroute as an error, or nil.
func (r Result) Err() error {
	if r.Denied != nil {
		return r.Denied
	}
	if r.Misrouted != nil {
		return r.Misrouted
	}
	return nil
}

// RejectedNames returns the names of refused fields.
func (r Result) RejectedNames() []string {
	names := make([]string, len(r.Rejected))
	for i, rej := range r.Rejected {
		names[i] = rej.Field
	}
	return names
}

func (r Result) outcome() string {
	switch {
	case r.Op == wire.OpNone:
		return "ignored"
	case r.Denied != nil:
		return "denied"
	case r.Misrouted != nil:
		return "misrouted"
	case len(r.Rejected) > 0:
		return "partial"
	}
	return "applied"
}

// SessionDeps contains dependencies for Session. Store and Auth are
// required on the authority, View on a replica. The rest are optional.
type SessionDeps struct {
	Store    *Store
	View     ports.View
	Auth     ports.Authorizer
	Notifier ports.Notifier
	Audit    ports.AuditLog
	Metrics  ports.SyncMetrics
	Bus      *events.Bus
	Clock    ports.Clock
	IDGen    ports.IDGenerator
}

// SessionConfig contains configuration for Session.
type SessionConfig struct {
	Role          Role
	RequiredLevel int // defaults to DefaultRequiredLevel
}

// Session interprets incoming operations for one side of a sync link
// and builds outgoing ones. Handle is not safe for concurrent use; run
// it from a Queue.
type Session struct {
	role  Role
	level int

	store    *Store
	view     ports.View
	auth     ports.Authorizer
	notifier ports.Notifier
	audit    ports.AuditLog
	metrics  ports.SyncMetrics
	bus      *events.Bus
	clock    ports.Clock
	idGen    ports.IDGenerator

	logger zerolog.Logger
}

// NewSession creates a session for cfg.Role.
func NewSession(deps SessionDeps, cfg SessionConfig, logger zerolog.Logger) (*Session, error) {
	switch cfg.Role {
	case RoleAuthority:
		if deps.Store == nil {
			return nil, errors.New("authority session requires a store")
		}
		if deps.Auth == nil {
			return nil, errors.New("authority session requires an authorizer")
		}
	case RoleReplica:
		if deps.View == nil {
			return nil, errors.New("replica session requires a view")
		}
	default:
		return nil, fmt.Errorf("unknown role %d", int(cfg.Role))
	}
	if deps.Audit != nil && deps.IDGen == nil {
		return nil, errors.New("audit log requires an id generator")
	}

	level := cfg.RequiredLevel
	if level <= 0 {
		level = DefaultRequiredLevel
	}
	clk := deps.Clock
	if clk == nil {
		clk = systemClock{}
	}

	return &Session{
		role:     cfg.Role,
		level:    level,
		store:    deps.Store,
		view:     deps.View,
		auth:     deps.Auth,
		notifier: deps.Notifier,
		audit:    deps.Audit,
		metrics:  deps.Metrics,
		bus:      deps.Bus,
		clock:    clk,
		idGen:    deps.IDGen,
		logger:   logger.With().Str("role", cfg.Role.String()).Logger(),
	}, nil
}

// Role returns the side this session serves.
func (s *Session) Role() Role { return s.role }

// Store returns the canonical store, nil on a replica.
func (s *Session) Store() *Store { return s.store }

// View returns the editable view, nil on the authority.
func (s *Session) View() ports.View { return s.view }

// HandleMessage decodes data and handles the operation. A decode failure
// discards the whole message and is returned as the error; the link
// stays usable.
func (s *Session) HandleMessage(ctx context.Context, actor string, data []byte) (Result, error) {
	op, err := wire.Decode(data)
	if err != nil {
		reason := "malformed"
		var ute *wire.UnknownWireTypeError
		if errors.As(err, &ute) {
			reason = "unknown_type"
		}
		if s.metrics != nil {
			s.metrics.DecodeError(reason)
		}
		s.logger.Warn().Err(err).Str("actor", actor).Int("bytes", len(data)).Msg("discarding undecodable message")
		return Result{}, fmt.Errorf("decode operation: %w", err)
	}
	return s.Handle(ctx, actor, op), nil
}

// Handle dispatches one decoded operation.
func (s *Session) Handle(ctx context.Context, actor string, op wire.Operation) Result {
	start := s.clock.Now()

	if op.Kind == wire.OpNone {
		return Result{Op: wire.OpNone}
	}

	var res Result
	switch {
	case !s.role.handles(op.Kind):
		res = s.misrouted(op)
	case op.Kind == wire.OpClientUpdate:
		res = s.applyUpdate(ctx, actor, op)
	case op.Kind == wire.OpResyncRequest:
		res = s.resync(ctx, actor)
	case op.Kind == wire.OpFullSync, op.Kind == wire.OpResyncResponse:
		res = s.replaceView(ctx, op)
	}

	s.finish(ctx, actor, res, start)
	return res
}

// ApplyLocal applies edits made by the owner of the authority without a
// network hop. Authorization still applies.
func (s *Session) ApplyLocal(ctx context.Context, actor string, values value.Map) Result {
	return s.Handle(ctx, actor, wire.Operation{Kind: wire.OpClientUpdate, Payload: values})
}

// FullSync builds the authority's snapshot of syncable values.
func (s *Session) FullSync() wire.Operation {
	if s.store == nil {
		return wire.Operation{Kind: wire.OpFullSync, Payload: value.Map{}}
	}
	return wire.Operation{Kind: wire.OpFullSync, Payload: s.store.Snapshot(false)}
}

// SubmitChanges builds a ClientUpdate carrying changed.
func (s *Session) SubmitChanges(changed value.Map) wire.Operation {
	return wire.Operation{Kind: wire.OpClientUpdate, Payload: changed.Clone()}
}

// RequestResync builds an empty ResyncRequest.
func (s *Session) RequestResync() wire.Operation {
	return wire.Operation{Kind: wire.OpResyncRequest, Payload: value.Map{}}
}

func (s *Session) authorize(ctx context.Context, actor string, op wire.OpKind) *PermissionDeniedError {
	if s.auth.HasPrivilege(actor, s.level) {
		return nil
	}

	denied := &PermissionDeniedError{Actor: actor, Op: op, Level: s.level}
	s.logger.Warn().Str("actor", actor).Str("op", op.String()).Int("level", s.level).Msg("permission denied")

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, actor, denied.Notice()); err != nil {
			s.logger.Error().Err(err).Str("actor", actor).Msg("failed to deliver denial notice")
		}
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Name: events.SyncDenied, Actor: actor, Err: denied})
	}
	return denied
}

func (s *Session) applyUpdate(ctx context.Context, actor string, op wire.Operation) Result {
	res := Result{Op: op.Kind}
	if denied := s.authorize(ctx, actor, op.Kind); denied != nil {
		res.Denied = denied
		return res
	}

	ctx = WithActor(ctx, actor)
	for _, name := range op.Payload.Keys() {
		if err := s.store.Set(ctx, name, op.Payload[name]); err != nil {
			s.reject(ctx, actor, &res, name, err)
			continue
		}
		res.Applied = append(res.Applied, name)
	}

	s.logger.Info().
		Str("actor", actor).
		Int("applied", len(res.Applied)).
		Int("rejected", len(res.Rejected)).
		Msg("client update handled")
	return res
}

func (s *Session) reject(ctx context.Context, actor string, res *Result, name string, err error) {
	res.Rejected = append(res.Rejected, Rejection{Field: name, Err: err})

	reason := rejectReason(err)
	s.logger.Warn().Err(err).Str("actor", actor).Str("field", name).Str("reason", reason).Msg("field update rejected")

	if s.metrics != nil {
		s.metrics.FieldRejected(name, reason)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Name: events.FieldRejected, Field: name, Actor: actor, Err: err})
	}
}

func rejectReason(err error) string {
	var (
		unknown *UnknownFieldError
		format  *value.FormatConversionError
		rng     *field.RangeViolationError
	)
	switch {
	case errors.As(err, &unknown):
		return "unknown_field"
	case errors.As(err, &format):
		return "format"
	case errors.As(err, &rng):
		return "range"
	}
	return "other"
}

func (s *Session) resync(ctx context.Context, actor string) Result {
	res := Result{Op: wire.OpResyncRequest}
	if denied := s.authorize(ctx, actor, wire.OpResyncRequest); denied != nil {
		res.Denied = denied
		return res
	}

	reply := wire.Operation{Kind: wire.OpResyncResponse, Payload: s.store.Defaults(false)}
	res.Reply = &reply

	s.logger.Info().Str("actor", actor).Int("fields", len(reply.Payload)).Msg("resync requested")
	return res
}

func (s *Session) replaceView(ctx context.Context, op wire.Operation) Result {
	payload := op.Payload.Clone()
	s.view.Replace(payload)

	res := Result{Op: op.Kind, Applied: payload.Keys()}
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{Name: events.ViewReplaced})
	}
	s.logger.Debug().Str("op", op.Kind.String()).Int("fields", len(payload)).Msg("view replaced")
	return res
}

func (s *Session) misrouted(op wire.Operation) Result {
	err := &MisroutedError{Op: op.Kind, Role: s.role}
	s.logger.Warn().Str("op", op.Kind.String()).Msg("dropping operation sent to the wrong side")
	return Result{Op: op.Kind, Misrouted: err}
}

func (s *Session) finish(ctx context.Context, actor string, res Result, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(res.Op.String(), res.outcome(), s.clock.Now().Sub(start))
	}
	if s.bus != nil && res.Err() == nil {
		s.bus.Publish(ctx, events.Event{Name: events.SyncApplied, Actor: actor})
	}
	if s.audit == nil {
		return
	}

	entry := audit.Entry{
		ID:        s.idGen.New(),
		Time:      start,
		Actor:     actor,
		Operation: res.Op.String(),
		Applied:   res.Applied,
		Rejected:  res.RejectedNames(),
		Denied:    res.Denied != nil,
		Misrouted: res.Misrouted != nil,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("op", entry.Operation).Msg("failed to record audit entry")
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
