package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/confsync/adapters/clock"
	"github.com/artpar/confsync/adapters/idgen"
	"github.com/artpar/confsync/adapters/memory"
	"github.com/artpar/confsync/app"
	"github.com/artpar/confsync/core/events"
	"github.com/artpar/confsync/core/registry"
	"github.com/artpar/confsync/core/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := registry.Build(context.Background(), registry.Static{
		schema.NewModule("motion").
			Int32("maxSpeed", 50, schema.WithRange("0", "100")).
			Float64("gravity", 9.81).
			Bool("debugOverlay", false, schema.NoSync()).
			Module(),
		schema.NewModule("ui").
			String("title", "Robot").
			Module(),
	})
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return s
}

type recordedMetrics struct {
	mu         sync.Mutex
	operations []string
	rejections []string
	decodes    []string
}

func (m *recordedMetrics) ObserveOperation(op, outcome string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, op+":"+outcome)
}

func (m *recordedMetrics) FieldRejected(field, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, field+":"+reason)
}

func (m *recordedMetrics) DecodeError(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decodes = append(m.decodes, reason)
}

func (m *recordedMetrics) QueueDepth(int) {}

type authorityFixture struct {
	session  *app.Session
	store    *app.Store
	bus      *events.Bus
	notifier *memory.Notifier
	audit    *memory.AuditLog
	metrics  *recordedMetrics
}

func newAuthority(t *testing.T) authorityFixture {
	t.Helper()
	logger := zerolog.Nop()
	bus := events.NewBus(logger)
	store := app.NewStore(testSchema(t), bus, logger)

	f := authorityFixture{
		store:    store,
		bus:      bus,
		notifier: memory.NewNotifier(),
		audit:    memory.NewAuditLog(),
		metrics:  &recordedMetrics{},
	}

	session, err := app.NewSession(app.SessionDeps{
		Store:    store,
		Auth:     memory.Levels{"owner": 2, "guest": 0},
		Notifier: f.notifier,
		Audit:    f.audit,
		Metrics:  f.metrics,
		Bus:      bus,
		Clock:    clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		IDGen:    idgen.NewSequential("op"),
	}, app.SessionConfig{Role: app.RoleAuthority}, logger)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	f.session = session
	return f
}

func newReplica(t *testing.T) (*app.Session, *memory.View) {
	t.Helper()
	view := memory.NewView()
	session, err := app.NewSession(app.SessionDeps{View: view}, app.SessionConfig{Role: app.RoleReplica}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return session, view
}
