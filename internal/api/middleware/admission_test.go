package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
	"github.com/semanticpilot/backend/internal/infrastructure/ratelimit"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubVerifier struct {
	identity *domain.Identity
	err      error
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (*domain.Identity, error) {
	return v.identity, v.err
}

type stubProfiles struct {
	profile *domain.Profile
	created bool
	err     error
	ensured int
}

func (s *stubProfiles) Ensure(_ context.Context, id domain.Identity) (*domain.Profile, bool, error) {
	s.ensured++
	return s.profile, s.created, s.err
}

func (s *stubProfiles) Get(_ context.Context, _ string) (*domain.Profile, error) {
	return s.profile, s.err
}
func (s *stubProfiles) AddCredits(_ context.Context, _ string, _ int64) (int64, error) { return 0, nil }
func (s *stubProfiles) ResetCredits(_ context.Context, _ string) (int64, error)        { return 0, nil }
func (s *stubProfiles) SetRole(_ context.Context, _ string, _ domain.Role) error       { return nil }
func (s *stubProfiles) SetBanned(_ context.Context, _ string, _ bool) error            { return nil }
func (s *stubProfiles) Heartbeat(_ context.Context, _ string) error                    { return nil }
func (s *stubProfiles) List(_ context.Context) ([]*domain.Profile, error)              { return nil, nil }

func userProfile(role domain.Role) *domain.Profile {
	return &domain.Profile{
		UserID:  "u1",
		Role:    role,
		Plan:    domain.PlanFree,
		Credits: 100,
	}
}

func newGateContext(t *testing.T, authHeader string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func admit(t *testing.T, gate *Gate, policy RoutePolicy, c echo.Context) (called bool, err error) {
	t.Helper()
	handler := gate.Admit(policy)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return called, handler(c)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestGate_Admits_AndInjectsContext(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1", Email: "u1@example.com"}}
	profiles := &stubProfiles{profile: userProfile(domain.RoleUser)}
	gate := NewGate(verifier, profiles, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, rec := newGateContext(t, "Bearer token")
	handler := gate.Admit(RoutePolicy{Name: "me"})(func(c echo.Context) error {
		p, _ := c.Get(ContextProfile).(*domain.Profile)
		if p == nil || p.UserID != "u1" {
			t.Fatalf("profile not injected: %+v", p)
		}
		id, _ := c.Get(ContextIdentity).(*domain.Identity)
		if id == nil || id.UserID != "u1" {
			t.Fatalf("identity not injected: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if profiles.ensured != 1 {
		t.Fatalf("expected exactly one profile load, got %d", profiles.ensured)
	}
}

func TestGate_MissingHeader(t *testing.T) {
	gate := NewGate(&stubVerifier{}, &stubProfiles{}, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, _ := newGateContext(t, "")
	called, err := admit(t, gate, RoutePolicy{Name: "me"}, c)
	if called {
		t.Fatalf("handler should not run without credentials")
	}
	assertHTTPError(t, err, http.StatusUnauthorized)
}

func TestGate_MalformedHeader(t *testing.T) {
	gate := NewGate(&stubVerifier{}, &stubProfiles{}, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, _ := newGateContext(t, "Token abc")
	called, err := admit(t, gate, RoutePolicy{Name: "me"}, c)
	if called {
		t.Fatalf("handler should not run with malformed header")
	}
	assertHTTPError(t, err, http.StatusUnauthorized)
}

func TestGate_VerifierRejects(t *testing.T) {
	gate := NewGate(&stubVerifier{err: domain.ErrUnauthenticated}, &stubProfiles{}, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, _ := newGateContext(t, "Bearer expired")
	_, err := admit(t, gate, RoutePolicy{Name: "me"}, c)
	assertHTTPError(t, err, http.StatusUnauthorized)
}

func TestGate_WrongRole(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1"}}
	profiles := &stubProfiles{profile: userProfile(domain.RoleUser)}
	gate := NewGate(verifier, profiles, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, _ := newGateContext(t, "Bearer token")
	called, err := admit(t, gate, RoutePolicy{Name: "admin", Roles: []domain.Role{domain.RoleAdmin}}, c)
	if called {
		t.Fatalf("handler should not run for wrong role")
	}
	he := assertHTTPError(t, err, http.StatusForbidden)
	if !strings.Contains(he.Message.(string), "role") {
		t.Fatalf("expected wrong-role reason, got %q", he.Message)
	}
}

func TestGate_JustCreatedProfileGetsDistinctReason(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1"}}
	profiles := &stubProfiles{profile: userProfile(domain.RoleUser), created: true}
	gate := NewGate(verifier, profiles, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, _ := newGateContext(t, "Bearer token")
	_, err := admit(t, gate, RoutePolicy{Name: "admin", Roles: []domain.Role{domain.RoleAdmin}}, c)
	he := assertHTTPError(t, err, http.StatusForbidden)
	if !strings.Contains(he.Message.(string), "administrator") {
		t.Fatalf("expected just-created guidance, got %q", he.Message)
	}
}

func TestGate_TesterAllowedWhereListed(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1"}}
	profiles := &stubProfiles{profile: userProfile(domain.RoleTester)}
	gate := NewGate(verifier, profiles, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, rec := newGateContext(t, "Bearer token")
	called, err := admit(t, gate, RoutePolicy{Name: "beta", Roles: []domain.Role{domain.RoleAdmin, domain.RoleTester}}, c)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected tester admitted, called=%v code=%d", called, rec.Code)
	}
}

func TestGate_BannedProfileForbidden(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1"}}
	p := userProfile(domain.RoleAdmin)
	p.Banned = true
	gate := NewGate(verifier, &stubProfiles{profile: p}, ratelimit.NewMemoryStore(), zerolog.Nop())

	_, c, _ := newGateContext(t, "Bearer token")
	_, err := admit(t, gate, RoutePolicy{Name: "admin", Roles: []domain.Role{domain.RoleAdmin}}, c)
	assertHTTPError(t, err, http.StatusForbidden)
}

func TestGate_RateLimitCeiling(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1"}}
	profiles := &stubProfiles{profile: userProfile(domain.RoleUser)}
	gate := NewGate(verifier, profiles, ratelimit.NewMemoryStore(), zerolog.Nop())

	policy := RoutePolicy{Name: "reports", Rate: &RatePolicy{Limit: 3, Window: time.Minute}}

	for i := 0; i < 3; i++ {
		_, c, _ := newGateContext(t, "Bearer token")
		called, err := admit(t, gate, policy, c)
		if err != nil || !called {
			t.Fatalf("request %d should be admitted, called=%v err=%v", i+1, called, err)
		}
	}

	_, c, _ := newGateContext(t, "Bearer token")
	called, err := admit(t, gate, policy, c)
	if called {
		t.Fatalf("request over ceiling should not reach handler")
	}
	assertHTTPError(t, err, http.StatusTooManyRequests)
}

func TestGate_RateLimitKeyedPerRoute(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1"}}
	profiles := &stubProfiles{profile: userProfile(domain.RoleUser)}
	gate := NewGate(verifier, profiles, ratelimit.NewMemoryStore(), zerolog.Nop())

	rate := &RatePolicy{Limit: 1, Window: time.Minute}

	_, c, _ := newGateContext(t, "Bearer token")
	if _, err := admit(t, gate, RoutePolicy{Name: "a", Rate: rate}, c); err != nil {
		t.Fatalf("route a should be admitted: %v", err)
	}
	// Exhausting route a's budget must not affect route b.
	_, c, _ = newGateContext(t, "Bearer token")
	if _, err := admit(t, gate, RoutePolicy{Name: "b", Rate: rate}, c); err != nil {
		t.Fatalf("route b should have its own budget: %v", err)
	}
}

func TestGate_CounterOutageAdmits(t *testing.T) {
	verifier := &stubVerifier{identity: &domain.Identity{UserID: "u1"}}
	profiles := &stubProfiles{profile: userProfile(domain.RoleUser)}
	gate := NewGate(verifier, profiles, failingCounter{}, zerolog.Nop())

	_, c, _ := newGateContext(t, "Bearer token")
	called, err := admit(t, gate, RoutePolicy{Name: "me", Rate: &RatePolicy{Limit: 1, Window: time.Minute}}, c)
	if err != nil || !called {
		t.Fatalf("counter outage must not reject requests, called=%v err=%v", called, err)
	}
}

type failingCounter struct{}

func (failingCounter) Incr(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

var _ ports.CounterStore = failingCounter{}

func assertHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected status %d, got %d", code, he.Code)
	}
	return he
}
