package callback

import (
	"net/http"

	"github.com/authmachine/authmachine-go/oidc"
)

// SuccessResponseFunc is used to create a http response when a callback is
// successful.
//
// The state parameter contains the state that was returned as part of the
// successful authorization response.  The oidc.Token and oidc.UserInfo are
// the result of the completed exchange and userinfo fetch, and have already
// been stored in the caller's session.  The function should use the
// http.ResponseWriter to send back whatever content (headers, html, JSON,
// etc) it wishes to the client that originated the flow.
type SuccessResponseFunc func(state string, t *oidc.Token, info oidc.UserInfo, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used to create a http response when a callback fails.
//
// The function receives the state returned as part of the authorization
// response, the provider's authentication error response (when the provider
// signaled one) and/or the error raised while processing the request.  The
// session has not been mutated when this is called.
type ErrorResponseFunc func(state string, respErr *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request)

// AuthenErrorResponse represents Oauth2 error responses.  See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type AuthenErrorResponse struct {
	Error       string
	Description string
	Uri         string
}
