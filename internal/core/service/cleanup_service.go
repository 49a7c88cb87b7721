package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/semanticpilot/backend/internal/core/ports"
)

const (
	defaultSweepWorkers = 8
	deleteBatchSize     = 100
)

type cleanupService struct {
	history ports.HistoryRepository
	cap     int64
	workers int
	log     zerolog.Logger
}

// NewCleanupService returns a CleanupService enforcing the given retention
// cap. numWorkers bounds sweep concurrency; <= 0 selects the default.
func NewCleanupService(history ports.HistoryRepository, cap int64, numWorkers int, log zerolog.Logger) ports.CleanupService {
	if cap <= 0 {
		cap = 20
	}
	if numWorkers <= 0 {
		numWorkers = defaultSweepWorkers
	}
	return &cleanupService{history: history, cap: cap, workers: numWorkers, log: log}
}

// EnforceHistoryLimit deletes the user's records beyond the newest cap,
// batched. Deletion is best-effort: on a batch failure the count deleted so
// far is returned alongside the error, and re-running converges to the same
// retained set.
func (s *cleanupService) EnforceHistoryLimit(ctx context.Context, userID string) (int64, error) {
	excess, err := s.history.ListOverCap(ctx, userID, s.cap)
	if err != nil {
		return 0, fmt.Errorf("enforce history limit: %w", err)
	}
	if len(excess) == 0 {
		return 0, nil
	}

	var deleted int64
	for start := 0; start < len(excess); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(excess) {
			end = len(excess)
		}
		n, err := s.history.DeleteByIDs(ctx, excess[start:end])
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("enforce history limit: delete batch: %w", err)
		}
	}

	s.log.Info().
		Str("user_id", userID).
		Int64("deleted", deleted).
		Int64("cap", s.cap).
		Msg("history trimmed")

	return deleted, nil
}

// Sweep runs EnforceHistoryLimit over every known user with a fixed pool of
// workers. Per-user failures are logged and counted as processed; the sweep
// itself is re-runnable.
func (s *cleanupService) Sweep(ctx context.Context) (*ports.SweepResult, error) {
	userIDs, err := s.history.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("cleanup sweep: %w", err)
	}

	var (
		wg      sync.WaitGroup
		deleted atomic.Int64
	)
	jobs := make(chan string)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for uid := range jobs {
				n, err := s.EnforceHistoryLimit(ctx, uid)
				deleted.Add(n)
				if err != nil {
					s.log.Error().Err(err).Str("user_id", uid).Msg("history cleanup failed for user")
				}
			}
		}()
	}

	for _, uid := range userIDs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- uid:
		}
	}
	close(jobs)
	wg.Wait()

	res := &ports.SweepResult{
		UsersProcessed: len(userIDs),
		RecordsDeleted: deleted.Load(),
	}
	s.log.Info().
		Int("users", res.UsersProcessed).
		Int64("deleted", res.RecordsDeleted).
		Msg("cleanup sweep finished")

	return res, nil
}
