// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/confsync/domain/audit"
	"github.com/artpar/confsync/domain/value"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher handles actor token hashing.
type Hasher interface {
	// Hash generates a hash from plaintext.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Authorization
// -----------------------------------------------------------------------------

// Authorizer answers privilege checks for actors. It is supplied by the
// host and must be safe for concurrent use.
type Authorizer interface {
	HasPrivilege(actor string, level int) bool
}

// Authenticator resolves a bearer token to an actor name.
type Authenticator interface {
	Authenticate(token string) (actor string, ok bool)
}

// -----------------------------------------------------------------------------
// Replica Side
// -----------------------------------------------------------------------------

// View is the replica's editable copy of the configuration, the thing an
// editor renders. FullSync and ResyncResponse replace it wholesale.
type View interface {
	// Replace discards the current contents and installs values.
	Replace(values value.Map)

	// Values returns a copy of the current contents.
	Values() value.Map
}

// Notifier delivers a human-readable notice to an actor, used for
// permission denials.
type Notifier interface {
	Notify(ctx context.Context, actor, message string) error
}

// Transport links a replica to its authority.
type Transport interface {
	// Send delivers one encoded operation and returns the encoded reply,
	// which is empty when the operation has none.
	Send(ctx context.Context, data []byte) ([]byte, error)

	// Fetch returns the authority's current FullSync, encoded.
	Fetch(ctx context.Context) ([]byte, error)
}

// -----------------------------------------------------------------------------
// Audit
// -----------------------------------------------------------------------------

// AuditLog persists handled sync operations.
type AuditLog interface {
	// Record stores an entry.
	Record(ctx context.Context, e audit.Entry) error

	// List returns entries matching f, newest first.
	List(ctx context.Context, f audit.Filter) ([]audit.Entry, error)
}

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

// SyncMetrics receives observations from the session handler.
type SyncMetrics interface {
	// ObserveOperation counts a handled operation. outcome is one of
	// "applied", "partial", "denied", "misrouted", "ignored".
	ObserveOperation(op, outcome string, d time.Duration)

	// FieldRejected counts a single refused field write.
	FieldRejected(field, reason string)

	// DecodeError counts a discarded message.
	DecodeError(reason string)

	// QueueDepth reports the number of pending jobs.
	QueueDepth(n int)
}
