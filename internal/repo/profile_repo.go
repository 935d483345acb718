// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the UserProfile
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a profile is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fittingroom/training-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateProfile inserts a new, untrained profile row for userID. In
// production the row is created by a signup trigger in the identity system;
// this helper exists for tooling and tests.
func CreateProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	p := &domain.UserProfile{
		ID:        userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile fetches a single profile by user id. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is
// returned.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := db.WithContext(ctx).
		Where("id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetTrainedModel records the trained model reference on the profile row
// owned by userID. The write is an unconditional single-row update, so
// repeated deliveries of the same completion callback converge on the same
// end state. If no row matches (profile missing), it returns ErrNotFound.
// On DB error, the raw error is returned.
func SetTrainedModel(ctx context.Context, db *gorm.DB, userID, modelID string) error {
	res := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("id = ?", userID).
		Update("trained_model_id", modelID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
