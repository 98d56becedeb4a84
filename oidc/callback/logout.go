package callback

import (
	"context"
	"net/http"

	"github.com/authmachine/authmachine-go/oidc"
	"github.com/authmachine/authmachine-go/session"
)

// Logout creates a handler that ends the session locally and redirects the
// user to the provider's end-session endpoint, passing
// postLogoutRedirectURL so the provider can send the user back.  The local
// session is cleared before the redirect is issued, so a user is logged out
// even when the provider round-trip never completes.  Logging out an
// anonymous session is a no-op that still redirects.
func Logout(ctx context.Context, p *oidc.Provider, sessions *session.Manager, sid SessionIDFunc, postLogoutRedirectURL string, eFn ErrorResponseFunc, opt ...Option) http.HandlerFunc {
	opts := getOpts(opt...)
	logger := opts.withLogger
	return func(w http.ResponseWriter, req *http.Request) {
		if p == nil || sessions == nil || sid == nil {
			eFn("", nil, oidc.ErrNilParameter, w, req)
			return
		}
		sessionID, err := sid(w, req)
		if err != nil {
			eFn("", nil, err, w, req)
			return
		}
		if err := sessions.Clear(ctx, sessionID); err != nil {
			eFn("", nil, err, w, req)
			return
		}
		logoutURL, err := p.LogoutURL(ctx, postLogoutRedirectURL)
		if err != nil {
			// session is already cleared; the provider just can't be told
			logger.Warn("unable to build provider logout redirect", "error", err)
			eFn("", nil, err, w, req)
			return
		}
		logger.Debug("logout, redirecting to provider")
		http.Redirect(w, req, logoutURL, http.StatusFound)
	}
}

// LogoutCallback creates the handler for the provider's post-logout
// round-trip.  It clears the session again (clearing is idempotent) and
// redirects to redirectTo, mirroring the logout-callback route of the
// original client apps.
func LogoutCallback(ctx context.Context, sessions *session.Manager, sid SessionIDFunc, redirectTo string, opt ...Option) http.HandlerFunc {
	opts := getOpts(opt...)
	logger := opts.withLogger
	return func(w http.ResponseWriter, req *http.Request) {
		if sessions != nil && sid != nil {
			if sessionID, err := sid(w, req); err == nil {
				if err := sessions.Clear(ctx, sessionID); err != nil {
					logger.Warn("unable to clear session on logout callback", "error", err)
				}
			}
		}
		http.Redirect(w, req, redirectTo, http.StatusFound)
	}
}
