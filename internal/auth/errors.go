package auth

import "errors"

// Sentinel errors for every failure kind the identity core can produce.
// Callers branch on these with errors.Is; no kind is ever collapsed into
// a generic failure, since "bad password" and "try again later" demand
// different treatment at the edge.
var (
	// Assertion verification.
	ErrInvalidAssertion    = errors.New("federated assertion is invalid")
	ErrIncompleteClaims    = errors.New("federated assertion is missing required claims")
	ErrVerifierUnavailable = errors.New("assertion verifier is unavailable")

	// Identity resolution.
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountInactive        = errors.New("account is inactive")
	ErrConflictRetryExhausted = errors.New("conflicting creation could not be resolved")

	// Token verification.
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenKindMismatch     = errors.New("token kind mismatch")
	ErrTokenSuperseded       = errors.New("refresh token has been superseded")

	// External collaborators.
	ErrDirectoryUnavailable = errors.New("user directory is unavailable")
)
