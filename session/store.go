package session

import "context"

// Store is the abstract per-user key-value session store the session layer
// persists into.  Implementations must be concurrently safe and must apply a
// Put atomically with respect to the single session it touches; no
// cross-session atomicity is required.
//
// The session backend itself (cookie-backed, database, etc) is an external
// collaborator; InMemStore ships as the reference implementation.
type Store interface {
	// Get returns the value stored under key for the session, and whether it
	// was present.
	Get(ctx context.Context, sessionID string, key string) ([]byte, bool, error)

	// Put stores every entry of values for the session in one atomic step.
	Put(ctx context.Context, sessionID string, values map[string][]byte) error

	// Delete removes the given keys for the session.  Deleting absent keys is
	// a no-op, never an error.
	Delete(ctx context.Context, sessionID string, keys ...string) error
}
