// Package audit describes the record kept for every handled sync operation.
package audit

import "time"

// Entry records one handled operation.
type Entry struct {
	ID        string
	Time      time.Time
	Actor     string
	Operation string   // wire operation name, e.g. "client_update"
	Applied   []string // field names that changed the store or view
	Rejected  []string // field names refused by coercion or range checks
	Denied    bool     // actor lacked privilege; nothing was applied
	Misrouted bool     // operation arrived at the wrong role
}

// Filter narrows a listing.
type Filter struct {
	Actor      string
	Operation  string
	DeniedOnly bool
	Since      time.Time
	Limit      int
}

// Match reports whether e passes f.
// This is a PURE function.
func (f Filter) Match(e Entry) bool {
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Operation != "" && e.Operation != f.Operation {
		return false
	}
	if f.DeniedOnly && !e.Denied {
		return false
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	return true
}

// Summary aggregates a set of entries.
type Summary struct {
	Operations int64
	Denied     int64
	Misrouted  int64
	Applied    int64
	Rejected   int64
	ByActor    map[string]int64
}

// Summarize combines entries into a Summary.
// This is a PURE function.
func Summarize(entries []Entry) Summary {
	s := Summary{ByActor: make(map[string]int64)}
	for _, e := range entries {
		s.Operations++
		if e.Denied {
			s.Denied++
		}
		if e.Misrouted {
			s.Misrouted++
		}
		s.Applied += int64(len(e.Applied))
		s.Rejected += int64(len(e.Rejected))
		s.ByActor[e.Actor]++
	}
	return s
}
