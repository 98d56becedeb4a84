/*
callback provides http.HandlerFunc factories for the user-facing operations
of the relying party flow, orchestrating the oidc.Provider facade and the
session.Manager state machine:

  Login          Anonymous → AwaitingCallback (redirect to the provider)
  AuthCode       AwaitingCallback → Authenticated (exchange + userinfo + store)
  Status         Authenticated → Authenticated | Anonymous (revocation check)
  Logout         any → Anonymous (clear + provider logout redirect)
  LogoutCallback any → Anonymous (clear after the provider round-trip)

Every factory takes a SessionIDFunc to resolve the caller's opaque session
identifier (CookieSessionID is the stock implementation) and a
Success/ErrorResponseFunc so the application controls what is rendered;
remote-call failures never mutate the session and never crash the process.
*/
package callback
