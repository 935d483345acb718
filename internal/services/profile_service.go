// Package services – ProfileService
//
// This file implements the ProfileService, which owns reads and writes of the
// user profile row: the client-facing read that gates the try-on feature, and
// the webhook-facing write that records a trained model reference. The write
// is an idempotent single-row update, so concurrent or repeated completion
// callbacks for the same user converge on the same end state.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fittingroom/training-backend/internal/domain"
	"github.com/fittingroom/training-backend/internal/provider"
)

// ProfileRepo defines the repository contract required by ProfileService.
type ProfileRepo interface {
	// GetProfile fetches the profile row for userID.
	GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error)

	// SetTrainedModel records the trained model reference on the row.
	SetTrainedModel(ctx context.Context, db *gorm.DB, userID, modelID string) error
}

// ProfileService provides profile reads and the completion-callback write.
type ProfileService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the profile repository used by this service.
	Repo ProfileRepo
}

// Get returns the profile for userID, or ErrProfileNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := s.Repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// RecordOutcome applies a normalized training outcome to the user's profile.
// Non-actionable outcomes (not a success, or no model reference) are
// acknowledged without touching any state and return updated=false. For
// actionable outcomes the trained model reference is written; any write
// failure, including a missing profile row, is tagged ErrProfilePersist so
// the handler answers with a retryable status (the provider redelivers, and
// the write is idempotent).
func (s *ProfileService) RecordOutcome(ctx context.Context, userID string, outcome provider.TrainingOutcome) (updated bool, err error) {
	if !outcome.Actionable() {
		return false, nil
	}
	if err := s.Repo.SetTrainedModel(ctx, s.DB, userID, outcome.ModelURL); err != nil {
		return false, fmt.Errorf("%w: %w", ErrProfilePersist, err)
	}
	return true, nil
}
