package ports

import "context"

// SweepResult aggregates a cleanup sweep across all users.
type SweepResult struct {
	UsersProcessed int   `json:"users_processed"`
	RecordsDeleted int64 `json:"records_deleted"`
}

// CleanupService bounds per-user history growth to the retention cap.
type CleanupService interface {
	// EnforceHistoryLimit trims one user's history down to the cap,
	// oldest-first, and returns the count actually deleted. Best-effort:
	// a partial failure reports progress alongside the error, and the
	// operation converges when re-run.
	EnforceHistoryLimit(ctx context.Context, userID string) (int64, error)

	// Sweep runs EnforceHistoryLimit over every known user.
	Sweep(ctx context.Context) (*SweepResult, error)
}
