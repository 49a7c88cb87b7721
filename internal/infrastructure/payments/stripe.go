// Package payments adapts Stripe to the checkout and webhook ports.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

// Config carries the Stripe credentials and checkout settings.
type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceIDPro    string
	FrontendURL   string
}

// Client implements ports.WebhookVerifier and ports.CheckoutProvider.
type Client struct {
	cfg Config
}

// NewClient wires the Stripe API key and returns the adapter.
func NewClient(cfg Config) *Client {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Client{cfg: cfg}
}

// VerifyAndParse checks the delivery's Stripe-Signature header against the
// shared signing secret and reduces the event to the fields the upgrader
// consumes. The application user id travels in the session metadata.
func (c *Client) VerifyAndParse(payload []byte, signature string) (*domain.CheckoutEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("construct event: %w", err)
	}

	out := &domain.CheckoutEvent{Type: string(event.Type)}
	if out.Type != domain.EventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	out.CheckoutID = sess.ID
	out.UserID = sess.Metadata["uid"]
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	return out, nil
}

// CreateSession starts a subscription-mode Checkout Session for the profile,
// tagging it with the application user id so the webhook can resolve it back.
func (c *Client) CreateSession(ctx context.Context, p *domain.Profile) (*ports.CheckoutSessionInfo, error) {
	frontendURL := strings.TrimRight(c.cfg.FrontendURL, "/")

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.cfg.PriceIDPro),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(p.Email),
		SuccessURL:    stripe.String(frontendURL + "/dashboard?upgrade=success"),
		CancelURL:     stripe.String(frontendURL + "/dashboard?upgrade=cancel"),
		Metadata: map[string]string{
			"uid":         p.UserID,
			"plan_target": string(domain.PlanPro),
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe session: %w", err)
	}
	return &ports.CheckoutSessionInfo{ID: sess.ID, URL: sess.URL}, nil
}
