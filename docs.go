// authmachine-go is the Go client for AuthMachine: it implements the relying
// party side of the OIDC authorization code flow (login redirects, callback
// handling, token exchange, userinfo, revocation checks, logout) together
// with session lifecycle management and a client for the AuthMachine REST
// API.
//
// See README.md
package authmachine
