package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/semanticpilot/backend/internal/api/middleware"
	"github.com/semanticpilot/backend/internal/core/domain"
)

// ctxProfile extracts the profile injected by the admission gate and performs
// a fast-fail check before any service call: presence proves the gate ran.
func ctxProfile(c echo.Context) (*domain.Profile, error) {
	p, _ := c.Get(middleware.ContextProfile).(*domain.Profile)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing admission context")
	}
	return p, nil
}
