/*
oidc is the relying-party side of the AuthMachine OIDC authorization code
flow.

Primary types provided by the package

* Request: represents one OIDC authentication flow for a user.  It contains
the state and nonce needed to uniquely represent that one-time flow across
the multiple interactions needed to complete it, plus an expiration.

* Token: represents the token set issued at the end of a successful code
exchange (access_token, optional refresh_token and id_token, expiry).

* UserInfo: the open-ended claim tree the provider asserts about the
authenticated subject.

* Config: the relying party's immutable configuration (client id/secret,
issuer, redirect URL, requested scopes and claims, provider CA, request
timeout).

* Provider: the facade composing the flow: cached metadata discovery,
authorization URL construction, code exchange, userinfo fetch, revocation
checks and logout URL construction.

The oidc/callback package provides http.HandlerFunc factories that wire a
Provider and a session.Manager into the four user-facing operations: login
redirect, authorization-code callback, revocation status refresh and logout.
*/
package oidc
