package ports

import (
	"context"

	"github.com/semanticpilot/backend/internal/core/domain"
)

// ProfileService implements profile lifecycle and administrative edits.
type ProfileService interface {
	// Ensure loads or lazily provisions the caller's profile; the bool
	// reports first sight.
	Ensure(ctx context.Context, id domain.Identity) (*domain.Profile, bool, error)
	Get(ctx context.Context, userID string) (*domain.Profile, error)

	AddCredits(ctx context.Context, userID string, amount int64) (int64, error)
	ResetCredits(ctx context.Context, userID string) (int64, error)
	SetRole(ctx context.Context, userID string, role domain.Role) error
	SetBanned(ctx context.Context, userID string, banned bool) error
	Heartbeat(ctx context.Context, userID string) error
	List(ctx context.Context) ([]*domain.Profile, error)
}
