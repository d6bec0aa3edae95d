package memory

import (
	"context"
	"sync"

	"github.com/artpar/confsync/ports"
)

// Notice is a message delivered to an actor.
type Notice struct {
	Actor   string
	Message string
}

// Notifier collects notices instead of sending them.
type Notifier struct {
	mu      sync.Mutex
	notices []Notice
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify records the notice.
func (n *Notifier) Notify(ctx context.Context, actor, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Actor: actor, Message: message})
	return nil
}

// Notices returns a copy of the recorded notices.
func (n *Notifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// Ensure interface compliance.
var _ ports.Notifier = (*Notifier)(nil)
