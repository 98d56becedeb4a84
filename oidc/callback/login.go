package callback

import (
	"context"
	"net/http"

	"github.com/authmachine/authmachine-go/oidc"
	"github.com/authmachine/authmachine-go/session"
)

// Login creates a handler that starts an authorization code flow: it
// generates a fresh flow Request (state + nonce), saves it as the session's
// pending request so the callback can verify the provider's response, and
// redirects the user to the provider's authorization endpoint.
//
// The session moves Anonymous → AwaitingCallback.  Nothing else in the
// session is touched, so re-starting a login while authenticated is allowed.
func Login(ctx context.Context, p *oidc.Provider, sessions *session.Manager, sid SessionIDFunc, eFn ErrorResponseFunc, opt ...Option) http.HandlerFunc {
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
		r, err := oidc.NewRequest(opts.withLoginExpiry)
		if err != nil {
			eFn("", nil, err, w, req)
			return
		}
		if err := sessions.SetPending(ctx, sessionID, r); err != nil {
			eFn(r.State(), nil, err, w, req)
			return
		}
		authURL, err := p.AuthURL(ctx, r)
		if err != nil {
			eFn(r.State(), nil, err, w, req)
			return
		}
		logger.Debug("starting login flow", "state", r.State())
		http.Redirect(w, req, authURL, http.StatusFound)
	}
}
