package oidc

// ProviderMetadata is the subset of the provider's well-known discovery
// document this client cares about.  It is fetched at most once per process
// (see Provider.Discover) and is immutable afterwards; every other component
// reads it by reference.
//
// The end-session and introspection/revocation endpoints are
// provider-specific extensions of the core discovery document; they are empty
// when the provider does not advertise them.
type ProviderMetadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
	IntrospectionEndpoint string `json:"introspection_endpoint"`
	RevocationEndpoint    string `json:"revocation_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}
