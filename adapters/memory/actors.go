package memory

import (
	"sync"

	"github.com/artpar/confsync/domain/auth"
	"github.com/artpar/confsync/ports"
)

// Actors is an in-memory actor table. It authorizes by privilege level
// and authenticates bearer tokens against stored hashes. The table can be
// swapped at runtime when configuration reloads.
type Actors struct {
	hasher ports.Hasher

	mu     sync.RWMutex
	actors map[string]auth.Actor
}

// NewActors creates a table holding actors.
func NewActors(hasher ports.Hasher, actors []auth.Actor) *Actors {
	t := &Actors{hasher: hasher}
	t.Replace(actors)
	return t
}

// Replace installs a new actor set.
func (t *Actors) Replace(actors []auth.Actor) {
	m := make(map[string]auth.Actor, len(actors))
	for _, a := range actors {
		m[a.Name] = a
	}

	t.mu.Lock()
	t.actors = m
	t.mu.Unlock()
}

// Get returns the actor named name.
func (t *Actors) Get(name string) (auth.Actor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.actors[name]
	return a, ok
}

// HasPrivilege reports whether actor exists with at least level.
func (t *Actors) HasPrivilege(actor string, level int) bool {
	a, ok := t.Get(actor)
	return ok && a.HasLevel(level)
}

// Authenticate finds the actor whose token hash matches token.
func (t *Actors) Authenticate(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for name, a := range t.actors {
		if t.hasher.Compare(a.TokenHash, token) {
			return name, true
		}
	}
	return "", false
}

// Len returns the number of actors.
func (t *Actors) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.actors)
}

// Ensure interface compliance.
var (
	_ ports.Authorizer    = (*Actors)(nil)
	_ ports.Authenticator = (*Actors)(nil)
)

// Levels is a fixed privilege table keyed by actor name.
type Levels map[string]int

// HasPrivilege reports whether actor holds at least level.
func (l Levels) HasPrivilege(actor string, level int) bool {
	got, ok := l[actor]
	return ok && got >= level
}

// Ensure interface compliance.
var _ ports.Authorizer = Levels(nil)
