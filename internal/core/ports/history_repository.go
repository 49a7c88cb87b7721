package ports

import (
	"context"

	"github.com/semanticpilot/backend/internal/core/domain"
)

// HistoryRepository defines persistence operations for per-user history records.
type HistoryRepository interface {
	Insert(ctx context.Context, rec *domain.HistoryRecord) error

	// ListByUser returns the user's records newest-first, at most limit.
	ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.HistoryRecord, error)

	// ListOverCap returns the ids of records beyond the newest cap records
	// for the user, i.e. the set cleanup must delete.
	ListOverCap(ctx context.Context, userID string, cap int64) ([]string, error)

	// DeleteByIDs removes the given records and returns the count actually
	// deleted. Partial progress counts; the caller treats it as best-effort.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// ListUserIDs returns every distinct user id present in the collection,
	// for sweeping cleanup across all users.
	ListUserIDs(ctx context.Context) ([]string, error)
}
