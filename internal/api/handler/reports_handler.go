package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

// ReportsHandler lists the caller's history records — the collection the
// cleanup enforcer trims.
type ReportsHandler struct {
	history ports.HistoryRepository
	cap     int64
}

func NewReportsHandler(history ports.HistoryRepository, cap int64) *ReportsHandler {
	if cap <= 0 {
		cap = domain.DefaultHistoryCap
	}
	return &ReportsHandler{history: history, cap: cap}
}

type reportsResponse struct {
	Reports []*domain.HistoryRecord `json:"reports"`
}

// List handles GET /reports — the caller's records, newest first. The limit
// query parameter is capped at the retention cap.
//
// @Summary      List the caller's research reports
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max records to return"
// @Success      200    {object}  reportsResponse
// @Failure      401    {object}  errorResponse
// @Failure      429    {object}  errorResponse
// @Router       /reports [get]
func (h *ReportsHandler) List(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	limit := h.cap
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		if n < limit {
			limit = n
		}
	}

	reports, err := h.history.ListByUser(c.Request().Context(), profile.UserID, limit)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []*domain.HistoryRecord{}
	}
	return c.JSON(http.StatusOK, reportsResponse{Reports: reports})
}
