package oidc

import (
	"bytes"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"

	"github.com/authmachine/authmachine-go/internal/strutils"
)

// TestProvider is a local server that supports test provider capabilities
// which make writing tests much easier.  It serves the well-known discovery
// document, the authorization, token, userinfo, introspection and
// end-session endpoints, plus the SCIM permissions API, over TLS with a
// throwaway CA.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	jwks                *jose.JSONWebKeySet
	allowedRedirectURIs []string
	replySubject        string
	replyUserinfo       map[string]interface{}
	replyPermissions    []string

	mu                    sync.Mutex
	clientID              string
	clientSecret          string
	expectedAuthCode      string
	expectedAuthNonce     string
	customClaims          map[string]interface{}
	customAudience        string
	omitIDToken           bool
	disableUserInfo       bool
	forcedTokenStatus     int
	forcedIntrospectError bool
	forcedPermissionsCode int
	revokedTokens         map[string]bool
	apiToken              string
	wellKnownHits         int

	ecdsaPublicKey  string
	ecdsaPrivateKey string

	t *testing.T
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// StartTestProvider creates and starts a disposable TestProvider.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		t: t,
		allowedRedirectURIs: []string{
			"https://example.com",
		},
		replySubject: "u1",
		replyUserinfo: map[string]interface{}{
			"sub":                     "u1",
			"email":                   "u1@example.com",
			"authmachine_permissions": []string{"object1", "object2"},
		},
		replyPermissions: []string{"obj1", "obj2"},
		revokedTokens:    map[string]bool{},
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)

	p.jwks = testJWKS(t, p.ecdsaPublicKey)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(ioutil.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	cert := p.httpServer.Certificate()

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// SetClientCreds is for configuring the client information required for the
// OIDC workflows.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetExpectedAuthCode configures the auth code to return from /auth and the
// allowed auth code for /token.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// SetExpectedAuthNonce configures the nonce value embedded in issued
// id_tokens and required for /auth.
func (p *TestProvider) SetExpectedAuthNonce(nonce string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthNonce = nonce
}

// SetAllowedRedirectURIs allows you to configure the allowed redirect URIs
// for the OIDC workflow. If not configured a sample of
// "https://example.com" is used.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetCustomClaims lets you set claims to return in the JWT issued by the
// OIDC workflow.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// SetCustomAudience configures what audience value to embed in the JWT
// issued by the OIDC workflow.
func (p *TestProvider) SetCustomAudience(customAudience string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customAudience = customAudience
}

// SetUserInfoReply configures the response from /userinfo.
func (p *TestProvider) SetUserInfoReply(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = claims
}

// OmitIDTokens forces the /token endpoint to not return an id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// DisableUserInfo makes the userinfo endpoint return 404 and omits it from
// the discovery config.
func (p *TestProvider) DisableUserInfo() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableUserInfo = true
}

// SetForcedTokenStatus forces /token to fail with the given HTTP status.
// Zero restores normal behavior.
func (p *TestProvider) SetForcedTokenStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forcedTokenStatus = status
}

// SetForcedIntrospectionError makes /introspect answer 500 until reset.
func (p *TestProvider) SetForcedIntrospectionError(forced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forcedIntrospectError = forced
}

// RevokeToken marks the given access token as revoked for /introspect.
func (p *TestProvider) RevokeToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revokedTokens[token] = true
}

// SetAPIToken configures the API token required by the SCIM endpoints.
// When empty, no Authorization check is performed.
func (p *TestProvider) SetAPIToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiToken = token
}

// SetPermissionsReply configures the response of the SCIM permissions
// endpoint.
func (p *TestProvider) SetPermissionsReply(perms []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyPermissions = perms
}

// SetForcedPermissionsStatus forces the SCIM permissions endpoint to answer
// with the given HTTP status.  Zero restores normal behavior.
func (p *TestProvider) SetForcedPermissionsStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forcedPermissionsCode = status
}

// WellKnownHits reports how many discovery requests the provider has served.
func (p *TestProvider) WellKnownHits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wellKnownHits
}

// Addr returns the current base URL for the test provider's running
// webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// SigningKeys returns the test provider's pem-encoded keys used to sign
// JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()

	redirectURI := qv.Get("redirect_uri") +
		"?state=" + url.QueryEscape(qv.Get("state")) +
		"&error=" + url.QueryEscape(errorCode)

	if errorMessage != "" {
		redirectURI += "&error_description=" + url.QueryEscape(errorMessage)
	}

	http.Redirect(w, req, redirectURI, http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}

	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if strings.HasPrefix(req.URL.Path, "/api/scim/v1/Users/") {
		p.serveSCIMPermissions(w, req)
		return
	}

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.wellKnownHits++

		reply := struct {
			Issuer                string `json:"issuer"`
			AuthEndpoint          string `json:"authorization_endpoint"`
			TokenEndpoint         string `json:"token_endpoint"`
			JWKSURI               string `json:"jwks_uri"`
			UserinfoEndpoint      string `json:"userinfo_endpoint,omitempty"`
			IntrospectionEndpoint string `json:"introspection_endpoint"`
			EndSessionEndpoint    string `json:"end_session_endpoint"`
		}{
			Issuer:                p.Addr(),
			AuthEndpoint:          p.Addr() + "/auth",
			TokenEndpoint:         p.Addr() + "/token",
			JWKSURI:               p.Addr() + "/certs",
			UserinfoEndpoint:      p.Addr() + "/userinfo",
			IntrospectionEndpoint: p.Addr() + "/introspect",
			EndSessionEndpoint:    p.Addr() + "/logout",
		}
		if p.disableUserInfo {
			reply.UserinfoEndpoint = ""
		}

		if err := p.writeJSON(w, &reply); err != nil {
			return
		}

	case "/auth":
		if req.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		qv := req.URL.Query()

		if qv.Get("response_type") != "code" {
			p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
			return
		}
		if !strutils.StrListContains(strings.Fields(qv.Get("scope")), "openid") {
			p.writeAuthErrorResponse(w, req, "invalid_scope", "")
			return
		}

		if p.expectedAuthCode == "" {
			p.writeAuthErrorResponse(w, req, "access_denied", "")
			return
		}

		nonce := qv.Get("nonce")
		if p.expectedAuthNonce != "" && p.expectedAuthNonce != nonce {
			p.writeAuthErrorResponse(w, req, "access_denied", "")
			return
		}

		state := qv.Get("state")
		if state == "" {
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing state parameter")
			return
		}

		redirectURI := qv.Get("redirect_uri")
		if redirectURI == "" {
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing redirect_uri parameter")
			return
		}

		redirectURI += "?state=" + url.QueryEscape(state) +
			"&code=" + url.QueryEscape(p.expectedAuthCode)

		http.Redirect(w, req, redirectURI, http.StatusFound)

		return

	case "/certs":
		if req.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if err := p.writeJSON(w, p.jwks); err != nil {
			return
		}

	case "/token":
		if req.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if p.forcedTokenStatus != 0 {
			_ = p.writeTokenErrorResponse(w, p.forcedTokenStatus, "server_error", "forced error")
			return
		}

		switch {
		case req.FormValue("grant_type") != "authorization_code":
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "bad grant_type")
			return
		case !strutils.StrListContains(p.allowedRedirectURIs, req.FormValue("redirect_uri")):
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		case req.FormValue("code") != p.expectedAuthCode:
			_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_grant", "unexpected auth code")
			return
		}

		stdClaims := jwt.Claims{
			Subject:   p.replySubject,
			Issuer:    p.Addr(),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-5 * time.Second)),
			Expiry:    jwt.NewNumericDate(time.Now().Add(1 * time.Minute)),
			Audience:  jwt.Audience{p.clientID},
		}
		if p.customAudience != "" {
			stdClaims.Audience = jwt.Audience{p.customAudience}
		}
		privateClaims := map[string]interface{}{}
		if p.expectedAuthNonce != "" {
			privateClaims["nonce"] = p.expectedAuthNonce
		}
		for k, v := range p.customClaims {
			privateClaims[k] = v
		}

		jwtData := TestSignJWT(p.t, p.ecdsaPrivateKey, stdClaims, privateClaims)

		reply := struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
			ExpiresIn   int    `json:"expires_in"`
			IDToken     string `json:"id_token,omitempty"`
		}{
			AccessToken: jwtData,
			TokenType:   "Bearer",
			ExpiresIn:   60,
			IDToken:     jwtData,
		}
		if p.omitIDToken {
			reply.IDToken = ""
		}
		if err := p.writeJSON(w, &reply); err != nil {
			return
		}

	case "/userinfo":
		if p.disableUserInfo {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if err := p.writeJSON(w, p.replyUserinfo); err != nil {
			return
		}

	case "/introspect":
		if req.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if p.forcedIntrospectError {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		token := req.FormValue("token")
		if token == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reply := struct {
			Active bool `json:"active"`
		}{
			Active: !p.revokedTokens[token],
		}
		if err := p.writeJSON(w, &reply); err != nil {
			return
		}

	case "/logout":
		if req.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		redirectURI := req.URL.Query().Get("post_logout_redirect_uri")
		if redirectURI == "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, req, redirectURI, http.StatusFound)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *TestProvider) serveSCIMPermissions(w http.ResponseWriter, req *http.Request) {
	if req.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasSuffix(req.URL.Path, "/permissions") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if p.apiToken != "" && req.Header.Get("Authorization") != "Token "+p.apiToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if p.forcedPermissionsCode != 0 {
		w.WriteHeader(p.forcedPermissionsCode)
		return
	}
	_ = p.writeJSON(w, p.replyPermissions)
}

// testJWKS converts a pem-encoded public key into JWKS data suitable for a
// verification endpoint response
func testJWKS(t *testing.T, pubKey string) *jose.JSONWebKeySet {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	input := block.Bytes

	pub, err := x509.ParsePKIXPublicKey(input)
	require.NoError(err)

	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key: pub,
			},
		},
	}
}
