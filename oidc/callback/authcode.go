package callback

import (
	"context"
	"fmt"
	"net/http"

	"github.com/authmachine/authmachine-go/oidc"
	"github.com/authmachine/authmachine-go/session"
)

// AuthCode creates the authorization code callback handler, the third leg of
// the flow.  It parses the provider's authorization response, verifies the
// returned state against the session's pending request, exchanges the code
// for tokens, fetches userinfo, and only then stores token and userinfo in
// the session in one atomic step.
//
// Any failure leaves the session untouched: a provider-signaled error or a
// missing code/state parameter surfaces as an oidc.ErrCallbackParse wrap, a
// failed exchange as *oidc.TokenExchangeError or oidc.ErrNetworkFailure, and
// a failed userinfo fetch as oidc.ErrUserInfoFailed. In every case no token
// or userinfo is written.
//
// The SuccessResponseFunc is used to create a response when the callback
// succeeds, the ErrorResponseFunc when it fails.
func AuthCode(ctx context.Context, p *oidc.Provider, sessions *session.Manager, sid SessionIDFunc, sFn SuccessResponseFunc, eFn ErrorResponseFunc, opt ...Option) http.HandlerFunc {
	opts := getOpts(opt...)
	logger := opts.withLogger
	return func(w http.ResponseWriter, req *http.Request) {
		reqState := req.FormValue("state")

		if p == nil || sessions == nil || sid == nil {
			eFn(reqState, nil, oidc.ErrNilParameter, w, req)
			return
		}
		sessionID, err := sid(w, req)
		if err != nil {
			eFn(reqState, nil, err, w, req)
			return
		}

		resp, err := oidc.ParseAuthorizationResponse(req.URL.Query())
		if err != nil {
			// surface the provider's own error parameters when present
			var reqError *AuthenErrorResponse
			if e := req.FormValue("error"); e != "" {
				reqError = &AuthenErrorResponse{
					Error:       e,
					Description: req.FormValue("error_description"),
					Uri:         req.FormValue("error_uri"),
				}
			}
			logger.Warn("authorization response rejected", "state", reqState, "error", err)
			eFn(reqState, reqError, err, w, req)
			return
		}

		pending, err := sessions.Pending(ctx, sessionID)
		if err != nil {
			eFn(reqState, nil, err, w, req)
			return
		}
		if pending == nil {
			eFn(reqState, nil, fmt.Errorf("no login flow is pending for this session: %w", oidc.ErrCallbackParse), w, req)
			return
		}

		// Exchange re-verifies state match and expiry before any network call
		token, err := p.Exchange(ctx, pending, resp.State, resp.Code)
		if err != nil {
			logger.Warn("token exchange failed", "state", reqState, "error", err)
			eFn(reqState, nil, err, w, req)
			return
		}

		info, err := p.UserInfo(ctx, token)
		if err != nil {
			logger.Warn("userinfo fetch failed", "state", reqState, "error", err)
			eFn(reqState, nil, err, w, req)
			return
		}

		if err := sessions.Store(ctx, sessionID, token, info); err != nil {
			eFn(reqState, nil, err, w, req)
			return
		}
		logger.Debug("login completed", "state", reqState, "sub", info.Subject())
		sFn(resp.State, token, info, w, req)
	}
}
