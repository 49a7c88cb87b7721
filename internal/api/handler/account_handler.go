package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/semanticpilot/backend/internal/core/ports"
)

// AccountHandler serves the caller's own profile and activity heartbeat.
type AccountHandler struct {
	profiles ports.ProfileService
}

func NewAccountHandler(profiles ports.ProfileService) *AccountHandler {
	return &AccountHandler{profiles: profiles}
}

// Me handles GET /auth/me. The admission gate has already loaded (or lazily
// provisioned) the profile, so this is a plain echo of the admitted context.
//
// @Summary      Return the caller's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Heartbeat handles POST /activity/heartbeat.
func (h *AccountHandler) Heartbeat(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := h.profiles.Heartbeat(c.Request().Context(), profile.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}
