package ports

import (
	"context"

	"github.com/semanticpilot/backend/internal/core/domain"
)

// ProfileDefaults are the field values applied when a profile is lazily
// created on first authenticated contact.
type ProfileDefaults struct {
	Role    domain.Role
	Plan    domain.Plan
	Credits int64
}

// CheckoutUpgrade carries the provider references and credit grant of one
// completed checkout session.
type CheckoutUpgrade struct {
	CheckoutID     string
	CustomerID     string
	SubscriptionID string
	BonusCredits   int64
}

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, userID string) (*domain.Profile, error)

	// Ensure loads the profile for the identity, creating it with defaults
	// when absent. Creation and load are a single atomic operation so that
	// concurrent first contacts produce exactly one document. The returned
	// bool reports whether the profile was created by this call.
	Ensure(ctx context.Context, id domain.Identity, defaults ProfileDefaults) (*domain.Profile, bool, error)

	// ApplyCheckoutUpgrade performs the idempotent entitlement transition as
	// one atomic conditional write: the update only takes effect when the
	// stored checkout reference differs from up.CheckoutID. The returned bool
	// reports whether the upgrade was applied by this call; false with a nil
	// error means the same checkout reference was applied earlier.
	ApplyCheckoutUpgrade(ctx context.Context, userID string, up CheckoutUpgrade) (*domain.Profile, bool, error)

	// AddCredits adjusts the credit balance by delta and returns the new balance.
	AddCredits(ctx context.Context, userID string, delta int64) (int64, error)
	// SetCredits overwrites the credit balance.
	SetCredits(ctx context.Context, userID string, credits int64) error
	SetRole(ctx context.Context, userID string, role domain.Role) error
	SetBanned(ctx context.Context, userID string, banned bool) error
	// TouchActivity stamps lastActivity/online for the heartbeat route.
	TouchActivity(ctx context.Context, userID string) error
	List(ctx context.Context) ([]*domain.Profile, error)
}
