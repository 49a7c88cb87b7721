package ports

import (
	"context"

	"github.com/semanticpilot/backend/internal/core/domain"
)

// WebhookVerifier checks a raw webhook delivery's authenticity signature
// against the shared signing secret and parses it into a CheckoutEvent.
// A failed check surfaces as domain.ErrInvalidSignature.
type WebhookVerifier interface {
	VerifyAndParse(payload []byte, signature string) (*domain.CheckoutEvent, error)
}

// CheckoutSessionInfo points the client at a hosted checkout page.
type CheckoutSessionInfo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutProvider creates hosted checkout sessions with the payment provider.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, p *domain.Profile) (*CheckoutSessionInfo, error)
}

// UpgradeResult is the terminal outcome of applying one webhook delivery.
// Plan and Credits are only populated for applied / already-applied outcomes.
type UpgradeResult struct {
	Outcome domain.UpgradeOutcome `json:"status"`
	Plan    domain.Plan           `json:"plan,omitempty"`
	Credits int64                 `json:"credits,omitempty"`
}

// PaymentService brokers checkout creation and webhook-driven entitlement
// upgrades.
type PaymentService interface {
	// ApplyCheckoutCompletion verifies the delivery and applies the upgrade
	// exactly once per checkout reference, regardless of redelivery.
	ApplyCheckoutCompletion(ctx context.Context, payload []byte, signature string) (*UpgradeResult, error)

	// CreateCheckoutSession starts a hosted checkout for upgrading to pro.
	CreateCheckoutSession(ctx context.Context, p *domain.Profile) (*CheckoutSessionInfo, error)
}
