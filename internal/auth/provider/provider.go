package provider

import "context"

// OAuthProvider defines the contract every external auth provider must
// implement for the browser code flow. Implementations exchange the
// authorization code and hand back the raw identity assertion; all
// verification and resolution happens in the shared pipeline.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials and returns the raw ID token assertion.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (rawAssertion string, err error)
}
