package auth

// FederatedClaims is the normalized identity extracted from a verified
// federated assertion. It contains facts only, no decisions, and lives
// for the duration of one resolution call.
type FederatedClaims struct {
	SubjectID     string // issuer-scoped unique user identifier (sub)
	Email         string // email returned by the issuer
	GivenName     string // given_name claim
	FamilyName    string // family_name claim
	Picture       string // optional avatar URL
	EmailVerified bool   // whether the issuer asserts email ownership
}
