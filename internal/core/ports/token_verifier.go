package ports

import (
	"context"

	"github.com/semanticpilot/backend/internal/core/domain"
)

// TokenVerifier validates a bearer credential against the identity provider
// and yields the caller identity. Verification failures (expired, bad
// signature, wrong audience) surface as domain.ErrUnauthenticated.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}
