package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/confsync/core/schema"
	"github.com/artpar/confsync/core/wire"
	"github.com/artpar/confsync/domain/value"
	"github.com/artpar/confsync/ports"
)

// Editor is what a configuration editor needs from its host: the field
// layout, current values, a way to turn edits into an operation, and a
// way to feed incoming messages back in.
type Editor interface {
	Schema() *schema.Schema
	CurrentValues(includeNonSyncable bool) value.Map
	SubmitChanges(edited value.Map) wire.Operation
	ApplyIncoming(ctx context.Context, actor string, data []byte) (Result, error)
}

// LocalEditor edits the authority's store directly, for an owner working
// without a network link.
type LocalEditor struct {
	session *Session
	queue   *Queue
}

// NewLocalEditor creates an editor over an authority session.
func NewLocalEditor(session *Session, queue *Queue) (*LocalEditor, error) {
	if session.Role() != RoleAuthority {
		return nil, errors.New("local editor requires an authority session")
	}
	return &LocalEditor{session: session, queue: queue}, nil
}

// Schema returns the store's schema.
func (e *LocalEditor) Schema() *schema.Schema {
	return e.session.Store().Schema()
}

// CurrentValues returns a snapshot of the store.
func (e *LocalEditor) CurrentValues(includeNonSyncable bool) value.Map {
	return e.session.Store().Snapshot(includeNonSyncable)
}

// SubmitChanges returns a ClientUpdate holding only the edited values that
// differ from the store.
func (e *LocalEditor) SubmitChanges(edited value.Map) wire.Operation {
	return e.session.SubmitChanges(value.Diff(e.CurrentValues(true), edited))
}

// ApplyIncoming decodes data and handles it on the queue.
func (e *LocalEditor) ApplyIncoming(ctx context.Context, actor string, data []byte) (Result, error) {
	return applyIncoming(ctx, e.session, e.queue, actor, data)
}

// Apply writes the changed subset of edited to the store as actor. The
// diff is taken on the queue, against the values left by every message
// received before it.
func (e *LocalEditor) Apply(ctx context.Context, actor string, edited value.Map) (Result, error) {
	return e.queue.Do(ctx, func(ctx context.Context) Result {
		changed := value.Diff(e.CurrentValues(true), edited)
		return e.session.ApplyLocal(ctx, actor, changed)
	})
}

var _ Editor = (*LocalEditor)(nil)

// ReplicaEditor edits a replica's view and talks to the authority over a
// transport.
type ReplicaEditor struct {
	session   *Session
	queue     *Queue
	transport ports.Transport
	schema    *schema.Schema
	actor     string
}

// ReplicaDeps contains dependencies for ReplicaEditor. Schema is
// optional; without it CurrentValues cannot filter by syncability.
type ReplicaDeps struct {
	Session   *Session
	Queue     *Queue
	Transport ports.Transport
	Schema    *schema.Schema
}

// NewReplicaEditor creates an editor over a replica session. actor names
// the local user in messages handled on its behalf.
func NewReplicaEditor(deps ReplicaDeps, actor string) (*ReplicaEditor, error) {
	if deps.Session == nil || deps.Session.Role() != RoleReplica {
		return nil, errors.New("replica editor requires a replica session")
	}
	if deps.Queue == nil || deps.Transport == nil {
		return nil, errors.New("replica editor requires a queue and a transport")
	}
	return &ReplicaEditor{
		session:   deps.Session,
		queue:     deps.Queue,
		transport: deps.Transport,
		schema:    deps.Schema,
		actor:     actor,
	}, nil
}

// Schema returns the schema given at construction, possibly nil.
func (e *ReplicaEditor) Schema() *schema.Schema {
	return e.schema
}

// CurrentValues returns the view contents.
func (e *ReplicaEditor) CurrentValues(includeNonSyncable bool) value.Map {
	values := e.session.View().Values()
	if e.schema == nil || includeNonSyncable {
		return values
	}
	for name := range values {
		if d, ok := e.schema.Lookup(name); ok && !d.Syncable {
			delete(values, name)
		}
	}
	return values
}

// SubmitChanges returns a ClientUpdate holding the edited values that
// differ from the view.
func (e *ReplicaEditor) SubmitChanges(edited value.Map) wire.Operation {
	return e.session.SubmitChanges(value.Diff(e.session.View().Values(), edited))
}

// ApplyIncoming decodes data and handles it on the queue.
func (e *ReplicaEditor) ApplyIncoming(ctx context.Context, actor string, data []byte) (Result, error) {
	return applyIncoming(ctx, e.session, e.queue, actor, data)
}

// Push sends the changed subset of edited to the authority. An empty
// change set is not sent.
func (e *ReplicaEditor) Push(ctx context.Context, edited value.Map) (wire.Operation, error) {
	op := e.SubmitChanges(edited)
	if len(op.Payload) == 0 {
		return op, nil
	}
	if _, err := e.send(ctx, op); err != nil {
		return op, err
	}
	return op, nil
}

// Resync asks the authority for defaults and installs them in the view.
func (e *ReplicaEditor) Resync(ctx context.Context) (Result, error) {
	reply, err := e.send(ctx, e.session.RequestResync())
	if err != nil {
		return Result{}, err
	}
	if len(reply) == 0 {
		return Result{}, errors.New("resync: authority sent no response")
	}
	return e.ApplyIncoming(ctx, e.actor, reply)
}

// Refresh fetches the authority's full sync and installs it in the view.
func (e *ReplicaEditor) Refresh(ctx context.Context) (Result, error) {
	data, err := e.transport.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch full sync: %w", err)
	}
	return e.ApplyIncoming(ctx, e.actor, data)
}

func (e *ReplicaEditor) send(ctx context.Context, op wire.Operation) ([]byte, error) {
	data, err := wire.Encode(op)
	if err != nil {
		return nil, err
	}
	reply, err := e.transport.Send(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", op.Kind, err)
	}
	return reply, nil
}

var _ Editor = (*ReplicaEditor)(nil)

func applyIncoming(ctx context.Context, s *Session, q *Queue, actor string, data []byte) (Result, error) {
	op, err := wire.Decode(data)
	if err != nil {
		// Let the session count and log it.
		return s.HandleMessage(ctx, actor, data)
	}
	return q.Do(ctx, func(ctx context.Context) Result {
		return s.Handle(ctx, actor, op)
	})
}
