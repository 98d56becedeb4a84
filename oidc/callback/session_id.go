package callback

import (
	"fmt"
	"net/http"

	uuid "github.com/hashicorp/go-uuid"
)

// SessionIDFunc resolves the opaque session identifier for an inbound
// request.  Implementations may set headers/cookies on the
// http.ResponseWriter when minting a new identifier, and must be
// concurrently safe.
type SessionIDFunc func(w http.ResponseWriter, req *http.Request) (string, error)

// DefaultSessionCookie is the cookie name CookieSessionID uses unless told
// otherwise.
const DefaultSessionCookie = "authmachine_session"

// CookieSessionID returns a SessionIDFunc backed by an opaque, HttpOnly
// session cookie.  A request without the cookie gets a freshly generated
// identifier set on the response.  The cookie carries only the session key;
// tokens and userinfo stay server-side in the session store.
func CookieSessionID(name string, secure bool) SessionIDFunc {
	if name == "" {
		name = DefaultSessionCookie
	}
	return func(w http.ResponseWriter, req *http.Request) (string, error) {
		if c, err := req.Cookie(name); err == nil && c.Value != "" {
			return c.Value, nil
		}
		id, err := uuid.GenerateUUID()
		if err != nil {
			return "", fmt.Errorf("unable to generate session id: %w", err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
		// make the new id visible to later handlers in this same request
		req.AddCookie(&http.Cookie{Name: name, Value: id})
		return id, nil
	}
}
