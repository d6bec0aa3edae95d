package audit_test

import (
	"testing"
	"time"

	"github.com/artpar/confsync/domain/audit"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestFilter_Match(t *testing.T) {
	e := audit.Entry{Actor: "alice", Operation: "client_update", Time: base, Denied: true}

	tests := []struct {
		name   string
		filter audit.Filter
		want   bool
	}{
		{"empty", audit.Filter{}, true},
		{"actor match", audit.Filter{Actor: "alice"}, true},
		{"actor mismatch", audit.Filter{Actor: "bob"}, false},
		{"operation mismatch", audit.Filter{Operation: "full_sync"}, false},
		{"denied only", audit.Filter{DeniedOnly: true}, true},
		{"since before", audit.Filter{Since: base.Add(-time.Minute)}, true},
		{"since after", audit.Filter{Since: base.Add(time.Minute)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(e); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	entries := []audit.Entry{
		{Actor: "alice", Applied: []string{"maxSpeed", "gravity"}},
		{Actor: "alice", Applied: []string{"maxSpeed"}, Rejected: []string{"volume"}},
		{Actor: "bob", Denied: true},
		{Actor: "bob", Misrouted: true},
	}

	s := audit.Summarize(entries)

	if s.Operations != 4 {
		t.Errorf("Operations = %d, want 4", s.Operations)
	}
	if s.Applied != 3 || s.Rejected != 1 {
		t.Errorf("Applied = %d, Rejected = %d", s.Applied, s.Rejected)
	}
	if s.Denied != 1 || s.Misrouted != 1 {
		t.Errorf("Denied = %d, Misrouted = %d", s.Denied, s.Misrouted)
	}
	if s.ByActor["alice"] != 2 || s.ByActor["bob"] != 2 {
		t.Errorf("ByActor = %v", s.ByActor)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := audit.Summarize(nil)
	if s.Operations != 0 || s.ByActor == nil {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}
