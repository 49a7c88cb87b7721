package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/semanticpilot/backend/internal/api/metrics"
	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

// Webhook bodies are small; anything bigger is not a Stripe event.
const maxWebhookBodyBytes = int64(65536)

// PaymentsHandler handles checkout creation and the payment webhook.
type PaymentsHandler struct {
	payments ports.PaymentService
}

func NewPaymentsHandler(payments ports.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: payments}
}

type checkoutResponse struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	ID     string `json:"id,omitempty"`
}

// CreateCheckoutSession handles POST /payments/create-checkout-session.
//
// @Summary      Start a checkout session for upgrading to pro
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  checkoutResponse
// @Failure      401  {object}  errorResponse
// @Router       /payments/create-checkout-session [post]
func (h *PaymentsHandler) CreateCheckoutSession(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	if profile.Plan == domain.PlanPro {
		return c.JSON(http.StatusOK, checkoutResponse{Status: "already-pro"})
	}

	sess, err := h.payments.CreateCheckoutSession(c.Request().Context(), profile)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, checkoutResponse{Status: "ok", URL: sess.URL, ID: sess.ID})
}

// Webhook handles POST /payments/webhook — signature-verified
// payment-completion events. Success responses echo {status, plan, credits}.
//
// @Summary      Receive payment provider webhook events
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  ports.UpgradeResult
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /payments/webhook [post]
func (h *PaymentsHandler) Webhook(c echo.Context) error {
	start := time.Now()

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	signature := c.Request().Header.Get("Stripe-Signature")

	res, err := h.payments.ApplyCheckoutCompletion(c.Request().Context(), payload, signature)
	metrics.UpgradeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(webhookErrorOutcome(err)).Inc()
		return err
	}

	metrics.WebhookEventsTotal.WithLabelValues(webhookOutcome(res.Outcome)).Inc()
	return c.JSON(http.StatusOK, res)
}

func webhookOutcome(o domain.UpgradeOutcome) string {
	switch o {
	case domain.OutcomeApplied:
		return "applied"
	case domain.OutcomeAlreadyApplied:
		return "already_applied"
	default:
		return "ignored"
	}
}

func webhookErrorOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrUnresolvedUser):
		return "unresolved_user"
	default:
		return "storage_error"
	}
}
