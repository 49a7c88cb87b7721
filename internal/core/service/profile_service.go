package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

// ProfileConfig carries the configurable credit amounts.
type ProfileConfig struct {
	// StartingCredits is the allotment granted on lazy provisioning.
	StartingCredits int64
	// ResetCredits is the balance an admin reset restores.
	ResetCredits int64
}

type profileService struct {
	repo ports.ProfileRepository
	cfg  ProfileConfig
	log  zerolog.Logger
}

// NewProfileService returns a ProfileService backed by the given repository.
func NewProfileService(repo ports.ProfileRepository, cfg ProfileConfig, log zerolog.Logger) ports.ProfileService {
	if cfg.StartingCredits <= 0 {
		cfg.StartingCredits = 100
	}
	if cfg.ResetCredits <= 0 {
		cfg.ResetCredits = 50
	}
	return &profileService{repo: repo, cfg: cfg, log: log}
}

// Ensure loads the profile, provisioning it on first authenticated contact.
// Unknown-but-authenticated users get a profile instead of a bare error.
func (s *profileService) Ensure(ctx context.Context, id domain.Identity) (*domain.Profile, bool, error) {
	p, created, err := s.repo.Ensure(ctx, id, ports.ProfileDefaults{
		Role:    domain.RoleUser,
		Plan:    domain.PlanFree,
		Credits: s.cfg.StartingCredits,
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure profile: %w", err)
	}
	if created {
		s.log.Info().
			Str("user_id", id.UserID).
			Int64("credits", s.cfg.StartingCredits).
			Msg("profile auto-provisioned")
	}
	return p, created, nil
}

func (s *profileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *profileService) AddCredits(ctx context.Context, userID string, amount int64) (int64, error) {
	balance, err := s.repo.AddCredits(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	s.log.Info().Str("user_id", userID).Int64("added", amount).Int64("balance", balance).Msg("credits added")
	return balance, nil
}

func (s *profileService) ResetCredits(ctx context.Context, userID string) (int64, error) {
	if err := s.repo.SetCredits(ctx, userID, s.cfg.ResetCredits); err != nil {
		return 0, fmt.Errorf("reset credits: %w", err)
	}
	return s.cfg.ResetCredits, nil
}

func (s *profileService) SetRole(ctx context.Context, userID string, role domain.Role) error {
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Msg("role changed")
	return nil
}

func (s *profileService) SetBanned(ctx context.Context, userID string, banned bool) error {
	if err := s.repo.SetBanned(ctx, userID, banned); err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	return nil
}

func (s *profileService) Heartbeat(ctx context.Context, userID string) error {
	return s.repo.TouchActivity(ctx, userID)
}

func (s *profileService) List(ctx context.Context) ([]*domain.Profile, error) {
	return s.repo.List(ctx)
}
