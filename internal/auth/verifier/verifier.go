package verifier

import (
	"context"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
)

// Verifier validates an externally-issued identity assertion and
// extracts its claims. Implementations return facts only; mapping an
// identity to a user record is the resolver's job.
type Verifier interface {
	Verify(ctx context.Context, rawAssertion string) (*auth.FederatedClaims, error)
}
