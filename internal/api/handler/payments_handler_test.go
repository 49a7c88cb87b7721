package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/semanticpilot/backend/internal/api/middleware"
	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

type stubPaymentService struct {
	result    *ports.UpgradeResult
	session   *ports.CheckoutSessionInfo
	err       error
	payload   []byte
	signature string
}

func (s *stubPaymentService) ApplyCheckoutCompletion(_ context.Context, payload []byte, signature string) (*ports.UpgradeResult, error) {
	s.payload = payload
	s.signature = signature
	return s.result, s.err
}

func (s *stubPaymentService) CreateCheckoutSession(_ context.Context, _ *domain.Profile) (*ports.CheckoutSessionInfo, error) {
	return s.session, s.err
}

func postWebhook(t *testing.T, h *PaymentsHandler, body, signature string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	return rec, h.Webhook(e.NewContext(req, rec))
}

func TestWebhook_AppliedResponseShape(t *testing.T) {
	svc := &stubPaymentService{result: &ports.UpgradeResult{
		Outcome: domain.OutcomeApplied,
		Plan:    domain.PlanPro,
		Credits: 1100,
	}}
	h := NewPaymentsHandler(svc)

	rec, err := postWebhook(t, h, `{"type":"checkout.session.completed"}`, "t=1,v1=sig")
	if err != nil {
		t.Fatalf("Webhook: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.signature != "t=1,v1=sig" {
		t.Fatalf("signature not forwarded, got %q", svc.signature)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "applied" || body["plan"] != "pro" || body["credits"] != float64(1100) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestWebhook_InvalidSignaturePropagates(t *testing.T) {
	svc := &stubPaymentService{err: domain.ErrInvalidSignature}
	h := NewPaymentsHandler(svc)

	_, err := postWebhook(t, h, `{}`, "bad")
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestWebhook_UnresolvedUserPropagates(t *testing.T) {
	svc := &stubPaymentService{err: domain.ErrUnresolvedUser}
	h := NewPaymentsHandler(svc)

	_, err := postWebhook(t, h, `{"type":"checkout.session.completed"}`, "t=1,v1=sig")
	if !errors.Is(err, domain.ErrUnresolvedUser) {
		t.Fatalf("expected ErrUnresolvedUser, got %v", err)
	}
}

func TestWebhook_TruncatesOversizedBody(t *testing.T) {
	svc := &stubPaymentService{result: &ports.UpgradeResult{Outcome: domain.OutcomeIgnored}}
	h := NewPaymentsHandler(svc)

	if _, err := postWebhook(t, h, strings.Repeat("x", int(maxWebhookBodyBytes)+512), "sig"); err != nil {
		t.Fatalf("Webhook: %v", err)
	}
	if int64(len(svc.payload)) != maxWebhookBodyBytes {
		t.Fatalf("expected payload capped at %d bytes, got %d", maxWebhookBodyBytes, len(svc.payload))
	}
}

func TestCreateCheckoutSession_ReturnsHostedURL(t *testing.T) {
	svc := &stubPaymentService{session: &ports.CheckoutSessionInfo{ID: "cs_1", URL: "https://checkout.example/cs_1"}}
	h := NewPaymentsHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/create-checkout-session", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextProfile, &domain.Profile{UserID: "u1", Plan: domain.PlanFree})

	if err := h.CreateCheckoutSession(c); err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	var body checkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "ok" || body.URL != "https://checkout.example/cs_1" || body.ID != "cs_1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCreateCheckoutSession_AlreadyPro(t *testing.T) {
	svc := &stubPaymentService{}
	h := NewPaymentsHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/create-checkout-session", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextProfile, &domain.Profile{UserID: "u1", Plan: domain.PlanPro})

	if err := h.CreateCheckoutSession(c); err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	var body checkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "already-pro" || body.URL != "" {
		t.Fatalf("expected already-pro short circuit, got %+v", body)
	}
}

func TestCreateCheckoutSession_MissingAdmissionContext(t *testing.T) {
	h := NewPaymentsHandler(&stubPaymentService{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/create-checkout-session", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.CreateCheckoutSession(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admission context, got %v", err)
	}
}
