package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/artpar/confsync/adapters/memory"
	"github.com/artpar/confsync/app"
	"github.com/artpar/confsync/core/events"
	"github.com/artpar/confsync/core/wire"
	"github.com/artpar/confsync/domain/audit"
	"github.com/artpar/confsync/domain/value"
)

func update(values value.Map) wire.Operation {
	return wire.Operation{Kind: wire.OpClientUpdate, Payload: values}
}

func TestSession_UpdateAndResync(t *testing.T) {
	f := newAuthority(t)
	ctx := context.Background()

	res := f.session.Handle(ctx, "owner", update(value.Map{"maxSpeed": value.Int32(75)}))
	if res.Err() != nil || len(res.Rejected) != 0 {
		t.Fatalf("update failed: %+v", res)
	}
	if v, _ := f.store.Get("maxSpeed"); v.AsInt32() != 75 {
		t.Fatalf("maxSpeed = %v, want 75", v)
	}

	res = f.session.Handle(ctx, "owner", update(value.Map{"maxSpeed": value.Int32(150)}))
	if diff := cmp.Diff([]string{"maxSpeed"}, res.RejectedNames()); diff != "" {
		t.Errorf("rejected mismatch (-want +got):\n%s", diff)
	}
	if v, _ := f.store.Get("maxSpeed"); v.AsInt32() != 75 {
		t.Errorf("rejected write changed the store: %v", v)
	}

	res = f.session.Handle(ctx, "owner", f.session.RequestResync())
	if res.Reply == nil || res.Reply.Kind != wire.OpResyncResponse {
		t.Fatalf("resync reply = %+v", res.Reply)
	}
	if got := res.Reply.Payload["maxSpeed"]; got.AsInt32() != 50 {
		t.Errorf("resync maxSpeed = %v, want default 50", got)
	}
	if _, ok := res.Reply.Payload["debugOverlay"]; ok {
		t.Error("resync should not carry non-syncable fields")
	}
	if v, _ := f.store.Get("maxSpeed"); v.AsInt32() != 75 {
		t.Error("resync should not modify the store")
	}
}

func TestSession_PartialFailure(t *testing.T) {
	f := newAuthority(t)

	res := f.session.Handle(context.Background(), "owner", update(value.Map{
		"maxSpeed": value.String("abc"),
		"gravity":  value.Float64(1.62),
		"unknown":  value.Bool(true),
		"title":    value.String("Lander"),
	}))

	if diff := cmp.Diff([]string{"gravity", "title"}, res.Applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"maxSpeed", "unknown"}, res.RejectedNames()); diff != "" {
		t.Errorf("rejected mismatch (-want +got):\n%s", diff)
	}

	var unknown *app.UnknownFieldError
	if !errors.As(res.Rejected[1].Err, &unknown) {
		t.Errorf("unknown field error = %v", res.Rejected[1].Err)
	}

	if v, _ := f.store.Get("gravity"); v.AsFloat64() != 1.62 {
		t.Errorf("gravity = %v", v)
	}
	if diff := cmp.Diff([]string{"maxSpeed:format", "unknown:unknown_field"}, f.metrics.rejections); diff != "" {
		t.Errorf("rejection metrics mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"client_update:partial"}, f.metrics.operations); diff != "" {
		t.Errorf("operation metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_PermissionDenied(t *testing.T) {
	f := newAuthority(t)
	ctx := context.Background()

	var denied []events.Event
	f.bus.Subscribe(events.SyncDenied, func(ctx context.Context, e events.Event) error {
		denied = append(denied, e)
		return nil
	})

	for _, op := range []wire.Operation{
		update(value.Map{"maxSpeed": value.Int32(10)}),
		f.session.RequestResync(),
	} {
		res := f.session.Handle(ctx, "guest", op)
		if res.Denied == nil {
			t.Fatalf("%s: expected denial", op.Kind)
		}
		if res.Reply != nil || len(res.Applied) != 0 {
			t.Errorf("%s: denied operation had effects: %+v", op.Kind, res)
		}
	}

	if v, _ := f.store.Get("maxSpeed"); v.AsInt32() != 50 {
		t.Errorf("denied update changed the store: %v", v)
	}

	want := []memory.Notice{
		{Actor: "guest", Message: "You do not have permission to change configuration values."},
		{Actor: "guest", Message: "You do not have permission to change configuration values."},
	}
	if diff := cmp.Diff(want, f.notifier.Notices()); diff != "" {
		t.Errorf("notices mismatch (-want +got):\n%s", diff)
	}
	if len(denied) != 2 {
		t.Errorf("got %d denial events, want 2", len(denied))
	}

	entries, _ := f.audit.List(ctx, audit.Filter{DeniedOnly: true})
	if len(entries) != 2 {
		t.Errorf("got %d denied audit entries, want 2", len(entries))
	}
}

func TestSession_Misrouted(t *testing.T) {
	f := newAuthority(t)
	replica, view := newReplica(t)
	ctx := context.Background()

	res := f.session.Handle(ctx, "owner", wire.Operation{Kind: wire.OpFullSync, Payload: value.Map{"maxSpeed": value.Int32(1)}})
	var mis *app.MisroutedError
	if !errors.As(res.Err(), &mis) || mis.Role != app.RoleAuthority {
		t.Errorf("authority: Err() = %v", res.Err())
	}
	if v, _ := f.store.Get("maxSpeed"); v.AsInt32() != 50 {
		t.Error("misrouted operation changed the store")
	}

	res = replica.Handle(ctx, "owner", update(value.Map{"maxSpeed": value.Int32(1)}))
	if !errors.As(res.Err(), &mis) || mis.Role != app.RoleReplica {
		t.Errorf("replica: Err() = %v", res.Err())
	}
	if view.Replacements() != 0 {
		t.Error("misrouted operation touched the view")
	}
}

func TestSession_ReplicaReplacesView(t *testing.T) {
	f := newAuthority(t)
	replica, view := newReplica(t)
	ctx := context.Background()

	view.Replace(value.Map{"stale": value.Bool(true)})

	full := f.session.FullSync()
	res := replica.Handle(ctx, "", full)
	if res.Err() != nil {
		t.Fatalf("FullSync: %v", res.Err())
	}
	if !view.Values().Equal(f.store.Snapshot(false)) {
		t.Errorf("view = %v, want %v", view.Values(), f.store.Snapshot(false))
	}

	resync := wire.Operation{Kind: wire.OpResyncResponse, Payload: value.Map{"maxSpeed": value.Int32(50)}}
	replica.Handle(ctx, "", resync)
	if diff := cmp.Diff([]string{"maxSpeed"}, view.Values().Keys()); diff != "" {
		t.Errorf("view keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_NoneIsIgnored(t *testing.T) {
	f := newAuthority(t)

	res := f.session.Handle(context.Background(), "guest", wire.Operation{Kind: wire.OpNone})
	if res.Op != wire.OpNone || res.Err() != nil {
		t.Errorf("Handle(none) = %+v", res)
	}
	if len(f.notifier.Notices()) != 0 || f.audit.Len() != 0 {
		t.Error("ignored operation should have no side effects")
	}
}

func TestSession_HandleMessage(t *testing.T) {
	f := newAuthority(t)
	ctx := context.Background()

	data, err := wire.Encode(update(value.Map{"maxSpeed": value.Int32(60)}))
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.session.HandleMessage(ctx, "owner", data)
	if err != nil || len(res.Applied) != 1 {
		t.Fatalf("HandleMessage = %+v, %v", res, err)
	}

	if _, err := f.session.HandleMessage(ctx, "owner", data[:len(data)-1]); !errors.Is(err, wire.ErrMalformed) {
		t.Errorf("truncated message error = %v", err)
	}
	if diff := cmp.Diff([]string{"malformed"}, f.metrics.decodes); diff != "" {
		t.Errorf("decode metrics mismatch (-want +got):\n%s", diff)
	}

	// The session keeps working after a bad message.
	if v, _ := f.store.Get("maxSpeed"); v.AsInt32() != 60 {
		t.Errorf("maxSpeed = %v", v)
	}
}

func TestSession_AuditTrail(t *testing.T) {
	f := newAuthority(t)
	ctx := context.Background()

	f.session.Handle(ctx, "owner", update(value.Map{"maxSpeed": value.Int32(70), "gravity": value.String("x")}))

	entries, err := f.audit.List(ctx, audit.Filter{})
	if err != nil || len(entries) != 1 {
		t.Fatalf("List = %v, %v", entries, err)
	}
	e := entries[0]
	if e.ID != "op1" || e.Actor != "owner" || e.Operation != "client_update" {
		t.Errorf("entry = %+v", e)
	}
	if diff := cmp.Diff([]string{"gravity"}, e.Rejected); diff != "" {
		t.Errorf("rejected mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_OutboundOperations(t *testing.T) {
	f := newAuthority(t)

	changed := value.Map{"maxSpeed": value.Int32(1)}
	op := f.session.SubmitChanges(changed)
	changed["maxSpeed"] = value.Int32(2)
	if op.Kind != wire.OpClientUpdate || op.Payload["maxSpeed"].AsInt32() != 1 {
		t.Errorf("SubmitChanges = %+v", op)
	}

	if op := f.session.RequestResync(); op.Kind != wire.OpResyncRequest || len(op.Payload) != 0 {
		t.Errorf("RequestResync = %+v", op)
	}
	if op := f.session.FullSync(); op.Kind != wire.OpFullSync || len(op.Payload) != 3 {
		t.Errorf("FullSync = %+v", op)
	}
}

func TestNewSession_Validation(t *testing.T) {
	logger := zerolog.Nop()
	tests := []struct {
		name string
		deps app.SessionDeps
		role app.Role
	}{
		{"authority without store", app.SessionDeps{Auth: memory.Levels{}}, app.RoleAuthority},
		{"authority without auth", app.SessionDeps{Store: app.NewStore(testSchema(t), nil, logger)}, app.RoleAuthority},
		{"replica without view", app.SessionDeps{}, app.RoleReplica},
		{"audit without ids", app.SessionDeps{View: memory.NewView(), Audit: memory.NewAuditLog()}, app.RoleReplica},
		{"bad role", app.SessionDeps{}, app.Role(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := app.NewSession(tt.deps, app.SessionConfig{Role: tt.role}, logger); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want app.Role
		ok   bool
	}{
		{"authority", app.RoleAuthority, true},
		{"Server", app.RoleAuthority, true},
		{" replica ", app.RoleReplica, true},
		{"client", app.RoleReplica, true},
		{"peer", 0, false},
	}
	for _, tt := range tests {
		got, err := app.ParseRole(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseRole(%q) = %v, %v", tt.in, got, err)
		}
	}
}
