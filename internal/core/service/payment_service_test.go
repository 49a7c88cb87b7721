package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubWebhookVerifier struct {
	event *domain.CheckoutEvent
	err   error
}

func (v *stubWebhookVerifier) VerifyAndParse(_ []byte, _ string) (*domain.CheckoutEvent, error) {
	return v.event, v.err
}

type stubCheckoutProvider struct {
	sess *ports.CheckoutSessionInfo
	err  error
}

func (p *stubCheckoutProvider) CreateSession(_ context.Context, _ *domain.Profile) (*ports.CheckoutSessionInfo, error) {
	return p.sess, p.err
}

func seededProfileRepo(userID string, credits int64) *stubProfileRepo {
	repo := newStubProfileRepo()
	repo.profiles[userID] = &domain.Profile{
		UserID:    userID,
		Role:      domain.RoleUser,
		Plan:      domain.PlanFree,
		Credits:   credits,
		CreatedAt: time.Now().UTC(),
	}
	return repo
}

func completedEvent(checkoutID, userID string) *domain.CheckoutEvent {
	return &domain.CheckoutEvent{
		Type:           domain.EventCheckoutCompleted,
		CheckoutID:     checkoutID,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		UserID:         userID,
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPaymentService_Apply_ThenRedeliver(t *testing.T) {
	repo := seededProfileRepo("u1", 0)
	verifier := &stubWebhookVerifier{event: completedEvent("cs_1", "u1")}
	svc := NewPaymentService(repo, verifier, &stubCheckoutProvider{}, 1000, zerolog.Nop())

	res, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("first delivery returned error: %v", err)
	}
	if res.Outcome != domain.OutcomeApplied {
		t.Fatalf("expected applied, got %s", res.Outcome)
	}
	if res.Plan != domain.PlanPro || res.Credits != 1000 {
		t.Fatalf("expected plan=pro credits=1000, got plan=%s credits=%d", res.Plan, res.Credits)
	}

	// Redelivery of the same checkout reference must not grant credits twice.
	res, err = svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("redelivery returned error: %v", err)
	}
	if res.Outcome != domain.OutcomeAlreadyApplied {
		t.Fatalf("expected already-applied, got %s", res.Outcome)
	}
	if res.Credits != 1000 {
		t.Fatalf("expected credits unchanged at 1000, got %d", res.Credits)
	}

	stored, _ := repo.FindByID(context.Background(), "u1")
	if stored.StripeCustomerID != "cus_1" || stored.StripeSubscriptionID != "sub_1" {
		t.Fatalf("provider references not persisted: %+v", stored)
	}
}

func TestPaymentService_NewCheckoutSupersedes(t *testing.T) {
	repo := seededProfileRepo("u1", 0)
	verifier := &stubWebhookVerifier{event: completedEvent("cs_1", "u1")}
	svc := NewPaymentService(repo, verifier, &stubCheckoutProvider{}, 1000, zerolog.Nop())

	if _, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}

	verifier.event = completedEvent("cs_2", "u1")
	res, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}
	if res.Outcome != domain.OutcomeApplied {
		t.Fatalf("expected a new checkout reference to apply, got %s", res.Outcome)
	}
	if res.Credits != 2000 {
		t.Fatalf("expected credits 2000 after two distinct checkouts, got %d", res.Credits)
	}
}

func TestPaymentService_InvalidSignature(t *testing.T) {
	repo := seededProfileRepo("u1", 0)
	verifier := &stubWebhookVerifier{err: errors.New("bad signature")}
	svc := NewPaymentService(repo, verifier, &stubCheckoutProvider{}, 1000, zerolog.Nop())

	_, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "bad")
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), "u1")
	if stored.Plan != domain.PlanFree || stored.Credits != 0 {
		t.Fatalf("profile mutated despite signature failure: %+v", stored)
	}
}

func TestPaymentService_UnresolvedUser(t *testing.T) {
	repo := seededProfileRepo("u1", 0)
	svc := NewPaymentService(repo, &stubWebhookVerifier{event: completedEvent("cs_1", "")}, &stubCheckoutProvider{}, 1000, zerolog.Nop())

	// Missing uid in event metadata.
	if _, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig"); !errors.Is(err, domain.ErrUnresolvedUser) {
		t.Fatalf("expected ErrUnresolvedUser for missing uid, got %v", err)
	}

	// Uid present but no such profile.
	svc = NewPaymentService(repo, &stubWebhookVerifier{event: completedEvent("cs_1", "ghost")}, &stubCheckoutProvider{}, 1000, zerolog.Nop())
	if _, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig"); !errors.Is(err, domain.ErrUnresolvedUser) {
		t.Fatalf("expected ErrUnresolvedUser for unknown uid, got %v", err)
	}
}

func TestPaymentService_OtherEventTypesIgnored(t *testing.T) {
	repo := seededProfileRepo("u1", 0)
	verifier := &stubWebhookVerifier{event: &domain.CheckoutEvent{Type: "invoice.paid"}}
	svc := NewPaymentService(repo, verifier, &stubCheckoutProvider{}, 1000, zerolog.Nop())

	res, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("expected ignored event to be acknowledged, got %v", err)
	}
	if res.Outcome != domain.OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", res.Outcome)
	}

	stored, _ := repo.FindByID(context.Background(), "u1")
	if stored.Plan != domain.PlanFree {
		t.Fatalf("ignored event mutated profile: %+v", stored)
	}
}

func TestPaymentService_ConcurrentDuplicateDeliveries(t *testing.T) {
	const deliveries = 20

	repo := seededProfileRepo("u1", 100)
	verifier := &stubWebhookVerifier{event: completedEvent("cs_1", "u1")}
	svc := NewPaymentService(repo, verifier, &stubCheckoutProvider{}, 1000, zerolog.Nop())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.ApplyCheckoutCompletion(context.Background(), []byte("{}"), "sig")
			if err != nil {
				t.Errorf("delivery failed: %v", err)
				return
			}
			if res.Outcome == domain.OutcomeApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != 1 {
		t.Fatalf("expected exactly one applied outcome, got %d", applied)
	}
	stored, _ := repo.FindByID(context.Background(), "u1")
	if stored.Credits != 1100 {
		t.Fatalf("expected final credits 1100 (one grant), got %d", stored.Credits)
	}
}

func TestPaymentService_CreateCheckoutSession(t *testing.T) {
	repo := seededProfileRepo("u1", 0)
	provider := &stubCheckoutProvider{sess: &ports.CheckoutSessionInfo{ID: "cs_1", URL: "https://checkout.example/cs_1"}}
	svc := NewPaymentService(repo, &stubWebhookVerifier{}, provider, 1000, zerolog.Nop())

	p, _ := repo.FindByID(context.Background(), "u1")
	sess, err := svc.CreateCheckoutSession(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateCheckoutSession returned error: %v", err)
	}
	if sess.ID != "cs_1" || sess.URL == "" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}
