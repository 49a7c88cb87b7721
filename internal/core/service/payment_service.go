package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

type paymentService struct {
	profiles ports.ProfileRepository
	verifier ports.WebhookVerifier
	provider ports.CheckoutProvider
	bonus    int64
	log      zerolog.Logger
}

// NewPaymentService returns a PaymentService granting bonusCredits on each
// completed checkout.
func NewPaymentService(
	profiles ports.ProfileRepository,
	verifier ports.WebhookVerifier,
	provider ports.CheckoutProvider,
	bonusCredits int64,
	log zerolog.Logger,
) ports.PaymentService {
	if bonusCredits <= 0 {
		bonusCredits = 1000
	}
	return &paymentService{
		profiles: profiles,
		verifier: verifier,
		provider: provider,
		bonus:    bonusCredits,
		log:      log,
	}
}

// ApplyCheckoutCompletion applies a payment-completion delivery exactly once
// per checkout reference. Redeliveries of an applied event return
// already-applied without mutation; the conditional write in the repository
// keeps this correct under concurrent duplicate deliveries too.
func (s *paymentService) ApplyCheckoutCompletion(ctx context.Context, payload []byte, signature string) (*ports.UpgradeResult, error) {
	event, err := s.verifier.VerifyAndParse(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("apply checkout: %w", domain.ErrInvalidSignature)
	}

	if event.Type != domain.EventCheckoutCompleted {
		s.log.Debug().Str("type", event.Type).Msg("webhook event ignored")
		return &ports.UpgradeResult{Outcome: domain.OutcomeIgnored}, nil
	}

	if event.UserID == "" {
		return nil, fmt.Errorf("apply checkout %s: %w", event.CheckoutID, domain.ErrUnresolvedUser)
	}

	profile, applied, err := s.profiles.ApplyCheckoutUpgrade(ctx, event.UserID, ports.CheckoutUpgrade{
		CheckoutID:     event.CheckoutID,
		CustomerID:     event.CustomerID,
		SubscriptionID: event.SubscriptionID,
		BonusCredits:   s.bonus,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("apply checkout %s: %w", event.CheckoutID, domain.ErrUnresolvedUser)
		}
		return nil, fmt.Errorf("apply checkout %s: %w", event.CheckoutID, err)
	}

	if !applied {
		s.log.Info().
			Str("user_id", event.UserID).
			Str("checkout_id", event.CheckoutID).
			Msg("checkout already applied, redelivery skipped")
		return &ports.UpgradeResult{
			Outcome: domain.OutcomeAlreadyApplied,
			Plan:    profile.Plan,
			Credits: profile.Credits,
		}, nil
	}

	s.log.Info().
		Str("user_id", event.UserID).
		Str("checkout_id", event.CheckoutID).
		Int64("credits", profile.Credits).
		Msg("plan upgraded")

	return &ports.UpgradeResult{
		Outcome: domain.OutcomeApplied,
		Plan:    profile.Plan,
		Credits: profile.Credits,
	}, nil
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, p *domain.Profile) (*ports.CheckoutSessionInfo, error) {
	sess, err := s.provider.CreateSession(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return sess, nil
}
