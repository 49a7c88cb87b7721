package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/semanticpilot/backend/internal/api/metrics"
	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

// AdminHandler exposes administrator-only profile edits and the history
// cleanup trigger.
type AdminHandler struct {
	profiles ports.ProfileService
	cleanup  ports.CleanupService
}

func NewAdminHandler(profiles ports.ProfileService, cleanup ports.CleanupService) *AdminHandler {
	return &AdminHandler{profiles: profiles, cleanup: cleanup}
}

// ListUsers handles GET /admin/users.
//
// @Summary      List all user profiles
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.profiles.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

// AddCredits handles POST /admin/user/:uid/add-credits.
//
// @Summary      Add credits to a user's balance
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uid   path      string             true  "User id"
// @Param        body  body      addCreditsRequest  true  "Credit amount"
// @Success      200   {object}  statusResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/user/{uid}/add-credits [post]
func (h *AdminHandler) AddCredits(c echo.Context) error {
	var req addCreditsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Credits <= 0 {
		req.Credits = defaultCreditGrant
	}

	balance, err := h.profiles.AddCredits(c.Request().Context(), c.Param("uid"), req.Credits)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("added %d credits, balance is now %d", req.Credits, balance),
	})
}

// ResetCredits handles POST /admin/user/:uid/reset-credits.
func (h *AdminHandler) ResetCredits(c echo.Context) error {
	balance, err := h.profiles.ResetCredits(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("credits reset to %d", balance),
	})
}

// MakeAdmin handles POST /admin/user/:uid/make-admin.
func (h *AdminHandler) MakeAdmin(c echo.Context) error {
	if err := h.profiles.SetRole(c.Request().Context(), c.Param("uid"), domain.RoleAdmin); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "user promoted to admin"})
}

// RemoveAdmin handles POST /admin/user/:uid/remove-admin.
func (h *AdminHandler) RemoveAdmin(c echo.Context) error {
	if err := h.profiles.SetRole(c.Request().Context(), c.Param("uid"), domain.RoleUser); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "admin role removed"})
}

// BanUser handles POST /admin/user/:uid/ban.
func (h *AdminHandler) BanUser(c echo.Context) error {
	if err := h.profiles.SetBanned(c.Request().Context(), c.Param("uid"), true); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "user has been banned"})
}

// EnforceHistoryLimit handles POST /admin/cleanup/enforce-history-limit.
// With ?uid= it trims a single user's history; without it the cleanup sweeps
// every user. Either form is safely re-runnable.
//
// @Summary      Trim per-user history down to the retention cap
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        uid  query     string  false  "Limit cleanup to one user"
// @Success      200  {object}  cleanupResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/cleanup/enforce-history-limit [post]
func (h *AdminHandler) EnforceHistoryLimit(c echo.Context) error {
	ctx := c.Request().Context()

	if uid := c.QueryParam("uid"); uid != "" {
		deleted, err := h.cleanup.EnforceHistoryLimit(ctx, uid)
		metrics.HistoryRecordsDeletedTotal.Add(float64(deleted))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, cleanupResponse{
			Status:         "success",
			UsersProcessed: 1,
			RecordsDeleted: deleted,
			Message:        fmt.Sprintf("deleted %d history records", deleted),
		})
	}

	res, err := h.cleanup.Sweep(ctx)
	if err != nil {
		return err
	}
	metrics.HistoryRecordsDeletedTotal.Add(float64(res.RecordsDeleted))
	return c.JSON(http.StatusOK, cleanupResponse{
		Status:         "success",
		UsersProcessed: res.UsersProcessed,
		RecordsDeleted: res.RecordsDeleted,
		Message:        fmt.Sprintf("processed %d users, deleted %d history records", res.UsersProcessed, res.RecordsDeleted),
	})
}
