// Package memory provides in-memory implementations of the ports, used
// by tests and by deployments that do not persist audit history.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/confsync/domain/audit"
	"github.com/artpar/confsync/ports"
)

// AuditLog is an in-memory implementation of ports.AuditLog.
type AuditLog struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

// NewAuditLog creates a new in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{
		entries: make([]audit.Entry, 0),
	}
}

// Record stores an entry.
func (l *AuditLog) Record(ctx context.Context, e audit.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	return nil
}

// List returns entries matching f, newest first.
func (l *AuditLog) List(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matching []audit.Entry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if f.Match(l.entries[i]) {
			matching = append(matching, l.entries[i])
		}
	}

	// Walked newest-recorded first; the stable sort keeps that order for equal times.
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Time.After(matching[j].Time)
	})

	if f.Limit > 0 && len(matching) > f.Limit {
		matching = matching[:f.Limit]
	}
	return matching, nil
}

// Summary aggregates every recorded entry.
func (l *AuditLog) Summary(ctx context.Context) audit.Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return audit.Summarize(l.entries)
}

// Len returns the number of recorded entries (for testing).
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Ensure interface compliance.
var _ ports.AuditLog = (*AuditLog)(nil)
