// Package session owns the per-user session record for the OIDC relying
// party: the pending authorization request between login and callback, and
// the token/userinfo pair that marks a session authenticated.  Downstream
// code decides "who is logged in" from the tagged State returned by
// Manager.Read, never by probing raw store keys.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	uuid "github.com/hashicorp/go-uuid"

	"github.com/authmachine/authmachine-go/oidc"
)

// Store keys.  "token" and "user_info" are the wire-compatible entry names
// the AuthMachine client apps have always used.
const (
	keyToken          = "token"
	keyUserInfo       = "user_info"
	keyPendingRequest = "pending_request"
)

var (
	ErrNilParameter     = oidc.ErrNilParameter
	ErrInvalidParameter = oidc.ErrInvalidParameter
)

// Status tags where a session is in the authentication state machine.
type Status int

const (
	// StatusAnonymous means no token or userinfo is present
	StatusAnonymous Status = iota

	// StatusAwaitingCallback means a login redirect was issued and the
	// provider's callback has not completed yet
	StatusAwaitingCallback

	// StatusAuthenticated means a token and userinfo are both present
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAwaitingCallback:
		return "awaiting-callback"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// State is the tagged authentication state of one session.  Token and
// UserInfo are set only when Status is StatusAuthenticated; Pending is set
// only when a login flow is in flight.
type State struct {
	Status   Status
	Token    *oidc.Token
	UserInfo oidc.UserInfo
	Pending  *oidc.Request
}

// Manager owns the session record lifecycle over an abstract Store: create
// on a successful callback, read on each request, clear on logout or
// detected revocation.  All methods operate on a single session and make no
// network calls.
type Manager struct {
	store Store
}

// NewManager creates a Manager over the given store.
func NewManager(s Store) (*Manager, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil: %w", ErrNilParameter)
	}
	return &Manager{store: s}, nil
}

// NewSessionID generates an opaque session identifier.
func NewSessionID() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("unable to generate session id: %w", err)
	}
	return id, nil
}

// SetPending records the in-flight authorization request for the session, so
// the callback can verify the returned state and nonce against it.
func (m *Manager) SetPending(ctx context.Context, sessionID string, r *oidc.Request) error {
	if sessionID == "" {
		return fmt.Errorf("session id is empty: %w", ErrInvalidParameter)
	}
	if r == nil {
		return fmt.Errorf("request is nil: %w", ErrNilParameter)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("unable to serialize pending request: %w", err)
	}
	return m.store.Put(ctx, sessionID, map[string][]byte{keyPendingRequest: raw})
}

// Pending returns the session's in-flight authorization request, or nil when
// no login flow is pending.
func (m *Manager) Pending(ctx context.Context, sessionID string) (*oidc.Request, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is empty: %w", ErrInvalidParameter)
	}
	raw, ok, err := m.store.Get(ctx, sessionID, keyPendingRequest)
	if err != nil {
		return nil, fmt.Errorf("unable to read pending request: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var r oidc.Request
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unable to deserialize pending request: %w", err)
	}
	return &r, nil
}

// Store marks the session authenticated by writing the token and userinfo in
// one atomic step, then drops the pending request.  Both values are
// serialized before anything is written, so a serialization failure leaves
// the session untouched.  A revoked or failed login never reaches this
// method; callers only store a token after userinfo succeeded.
func (m *Manager) Store(ctx context.Context, sessionID string, t *oidc.Token, info oidc.UserInfo) error {
	if sessionID == "" {
		return fmt.Errorf("session id is empty: %w", ErrInvalidParameter)
	}
	if t == nil {
		return fmt.Errorf("token is nil: %w", ErrNilParameter)
	}
	if info == nil {
		return fmt.Errorf("user info is nil: %w", ErrNilParameter)
	}
	rawToken, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("unable to serialize token: %w", err)
	}
	rawInfo, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("unable to serialize user info: %w", err)
	}
	if err := m.store.Put(ctx, sessionID, map[string][]byte{
		keyToken:    rawToken,
		keyUserInfo: rawInfo,
	}); err != nil {
		return fmt.Errorf("unable to store session: %w", err)
	}
	return m.store.Delete(ctx, sessionID, keyPendingRequest)
}

// Read returns the session's tagged authentication state.  A session with
// both a token and userinfo is authenticated; one with only a pending
// request is awaiting the provider's callback; anything else is anonymous.
func (m *Manager) Read(ctx context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return State{}, fmt.Errorf("session id is empty: %w", ErrInvalidParameter)
	}
	rawToken, hasToken, err := m.store.Get(ctx, sessionID, keyToken)
	if err != nil {
		return State{}, fmt.Errorf("unable to read token: %w", err)
	}
	rawInfo, hasInfo, err := m.store.Get(ctx, sessionID, keyUserInfo)
	if err != nil {
		return State{}, fmt.Errorf("unable to read user info: %w", err)
	}

	if hasToken && hasInfo {
		var t oidc.Token
		if err := json.Unmarshal(rawToken, &t); err != nil {
			return State{}, fmt.Errorf("unable to deserialize token: %w", err)
		}
		var info oidc.UserInfo
		if err := json.Unmarshal(rawInfo, &info); err != nil {
			return State{}, fmt.Errorf("unable to deserialize user info: %w", err)
		}
		return State{
			Status:   StatusAuthenticated,
			Token:    &t,
			UserInfo: info,
		}, nil
	}

	pending, err := m.Pending(ctx, sessionID)
	if err != nil {
		return State{}, err
	}
	if pending != nil {
		return State{
			Status:  StatusAwaitingCallback,
			Pending: pending,
		}, nil
	}
	return State{Status: StatusAnonymous}, nil
}

// Clear removes the session's token, userinfo and any pending request.  It
// is idempotent: clearing an already-empty session is a no-op, never an
// error.  Independent delete failures are accumulated so one failure doesn't
// mask another.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is empty: %w", ErrInvalidParameter)
	}
	var result *multierror.Error
	if err := m.store.Delete(ctx, sessionID, keyToken, keyUserInfo); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to clear credentials: %w", err))
	}
	if err := m.store.Delete(ctx, sessionID, keyPendingRequest); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to clear pending request: %w", err))
	}
	return result.ErrorOrNil()
}
