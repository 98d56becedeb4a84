package callback

import (
	"context"
	"net/http"

	"github.com/authmachine/authmachine-go/oidc"
	"github.com/authmachine/authmachine-go/session"
)

// Status creates middleware that re-validates an authenticated session
// against the provider on each request.  When the session holds a token, the
// provider is asked whether it has been revoked; a revoked token clears the
// session (Authenticated → Anonymous) before the wrapped handler runs.
//
// The policy for a failed check is fail-closed: "status unknown" is treated
// the same as revoked and the session is cleared, so a revoked token can
// never keep coexisting with live userinfo just because the provider was
// unreachable.  Anonymous sessions pass through without any provider call.
func Status(ctx context.Context, p *oidc.Provider, sessions *session.Manager, sid SessionIDFunc, opt ...Option) func(http.Handler) http.Handler {
	opts := getOpts(opt...)
	logger := opts.withLogger
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if p == nil || sessions == nil || sid == nil {
				next.ServeHTTP(w, req)
				return
			}
			sessionID, err := sid(w, req)
			if err != nil {
				next.ServeHTTP(w, req)
				return
			}
			st, err := sessions.Read(ctx, sessionID)
			if err != nil || st.Status != session.StatusAuthenticated {
				next.ServeHTTP(w, req)
				return
			}
			status, err := p.CheckRevocation(ctx, st.Token)
			switch {
			case err != nil:
				logger.Warn("revocation status unknown, clearing session", "error", err)
				_ = sessions.Clear(ctx, sessionID)
			case status.Revoked:
				logger.Info("token revoked by provider, clearing session")
				_ = sessions.Clear(ctx, sessionID)
			}
			next.ServeHTTP(w, req)
		})
	}
}
