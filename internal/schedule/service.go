package schedule

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service validates and persists weekly slot sets.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a schedule service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get retrieves a user's slots, ordered by day then start time.
func (s *Service) Get(ctx context.Context, userID string) ([]Slot, error) {
	return s.repo.GetForUser(ctx, userID)
}

// Replace validates the slot set and replaces the user's stored slots
// wholesale. Returns ErrInvalidSlot (wrapped) when validation fails; nothing
// is written in that case.
func (s *Service) Replace(ctx context.Context, userID string, slots []Slot) error {
	if err := ValidateSet(slots); err != nil {
		return err
	}

	if err := s.repo.ReplaceAllForUser(ctx, userID, slots); err != nil {
		return fmt.Errorf("replacing slots for %s: %w", userID, err)
	}

	s.logger.Info().Str("user_id", userID).Int("slots", len(slots)).Msg("schedule replaced")
	return nil
}
