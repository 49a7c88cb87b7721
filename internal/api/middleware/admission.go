package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/semanticpilot/backend/internal/api/metrics"
	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

// Context keys under which the gate stores the admitted caller.
const (
	ContextIdentity = "identity"
	ContextProfile  = "profile"
)

// RatePolicy is a fixed-window request budget.
type RatePolicy struct {
	Limit  int64
	Window time.Duration
}

// RoutePolicy declares what a route demands from a caller. An empty Roles
// slice admits any authenticated caller; a nil Rate disables throttling.
type RoutePolicy struct {
	// Name keys the rate-limit counter and labels admission metrics.
	Name  string
	Roles []domain.Role
	Rate  *RatePolicy
}

// Gate is the single choke point every privileged route passes through:
// credential verification, lazy profile provisioning, role policy, and the
// per-route rate budget all run here, before any handler body.
type Gate struct {
	verifier ports.TokenVerifier
	profiles ports.ProfileService
	counters ports.CounterStore
	log      zerolog.Logger
}

// NewGate builds an admission gate over the given collaborators.
func NewGate(verifier ports.TokenVerifier, profiles ports.ProfileService, counters ports.CounterStore, log zerolog.Logger) *Gate {
	return &Gate{verifier: verifier, profiles: profiles, counters: counters, log: log}
}

// Admit returns the middleware enforcing policy. On success the admitted
// identity and profile are injected into the echo context; handlers never
// re-derive them.
func (g *Gate) Admit(policy RoutePolicy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			token, err := bearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				metrics.AdmissionDecisionsTotal.WithLabelValues(policy.Name, "unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			identity, err := g.verifier.Verify(ctx, token)
			if err != nil {
				metrics.AdmissionDecisionsTotal.WithLabelValues(policy.Name, "unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			// Unknown-but-authenticated callers get a profile with default
			// role/plan/credits instead of a bare error.
			profile, created, err := g.profiles.Ensure(ctx, *identity)
			if err != nil {
				return fmt.Errorf("admission: %w: %v", domain.ErrStorageUnavailable, err)
			}
			if created {
				metrics.ProfilesProvisionedTotal.Inc()
			}

			if profile.Banned {
				metrics.AdmissionDecisionsTotal.WithLabelValues(policy.Name, "forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "account is banned")
			}

			if len(policy.Roles) > 0 && !profile.HasRole(policy.Roles...) {
				metrics.AdmissionDecisionsTotal.WithLabelValues(policy.Name, "forbidden").Inc()
				msg := fmt.Sprintf("role %q does not grant access to this route", profile.Role)
				if created {
					msg = "your account was just created; contact an administrator for elevated access"
				}
				return echo.NewHTTPError(http.StatusForbidden, msg)
			}

			if policy.Rate != nil {
				key := policy.Name + ":" + c.RealIP()
				n, err := g.counters.Incr(ctx, key, policy.Rate.Window)
				if err != nil {
					// Counter store outage must not take the API down with it.
					g.log.Warn().Err(err).Str("route", policy.Name).Msg("rate counter unavailable, admitting")
				} else if n > policy.Rate.Limit {
					metrics.AdmissionDecisionsTotal.WithLabelValues(policy.Name, "rate_limited").Inc()
					return echo.NewHTTPError(http.StatusTooManyRequests,
						fmt.Sprintf("rate limit of %d requests per %s exceeded, retry later", policy.Rate.Limit, policy.Rate.Window))
				}
			}

			metrics.AdmissionDecisionsTotal.WithLabelValues(policy.Name, "allowed").Inc()
			c.Set(ContextIdentity, identity)
			c.Set(ContextProfile, profile)
			return next(c)
		}
	}
}

// bearerToken extracts the credential from an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
