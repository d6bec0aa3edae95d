package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/artpar/confsync/adapters/metrics"
)

func TestNewWithRegistry(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m.Operations == nil || m.FieldRejections == nil || m.DecodeErrors == nil || m.QueuePending == nil {
		t.Fatal("sync metrics not initialized")
	}
	if m.RequestsTotal == nil || m.AuthFailures == nil || m.ConfigReloads == nil {
		t.Fatal("http or config metrics not initialized")
	}
}

func TestObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveOperation("client_update", "applied", time.Millisecond)
	m.ObserveOperation("client_update", "applied", time.Millisecond)
	m.ObserveOperation("client_update", "denied", 0)

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("client_update", "applied")); got != 2 {
		t.Errorf("applied count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("client_update", "denied")); got != 1 {
		t.Errorf("denied count = %v, want 1", got)
	}

	if n := testutil.CollectAndCount(m.OperationDuration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestFieldAndDecodeCounters(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.FieldRejected("maxSpeed", "range")
	m.DecodeError("unknown_type")
	m.DecodeError("unknown_type")

	if got := testutil.ToFloat64(m.FieldRejections.WithLabelValues("maxSpeed", "range")); got != 1 {
		t.Errorf("rejections = %v", got)
	}
	if got := testutil.ToFloat64(m.DecodeErrors.WithLabelValues("unknown_type")); got != 2 {
		t.Errorf("decode errors = %v", got)
	}
}

func TestQueueDepth(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.QueueDepth(3)
	m.QueueDepth(1)
	if got := testutil.ToFloat64(m.QueuePending); got != 1 {
		t.Errorf("queue pending = %v, want 1", got)
	}
}

func TestConfigReloaded(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	at := time.Unix(1700000000, 0)

	m.ConfigReloaded(nil, at)
	m.ConfigReloaded(errors.New("bad yaml"), at)

	if got := testutil.ToFloat64(m.ConfigReloads); got != 1 {
		t.Errorf("reloads = %v", got)
	}
	if got := testutil.ToFloat64(m.ConfigReloadErrors); got != 1 {
		t.Errorf("reload errors = %v", got)
	}
	if got := testutil.ToFloat64(m.ConfigLastReload); got != 1700000000 {
		t.Errorf("last reload = %v", got)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewWithRegistry(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	metrics.NewWithRegistry(reg)
}
