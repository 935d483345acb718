// Package domain defines the persistence models for user profiles and
// idempotency records. These types are mapped with GORM and form the core
// data layer of the training backend.
package domain

import (
	"time"
)

// UserProfile is the durable record tracking whether a user's personal
// model has been trained. The row is created at signup by an external
// trigger; this service only ever reads it and sets TrainedModelID.
//
// Fields:
//   - ID: stable UUID primary key; equal to the identity provider's user id.
//   - TrainedModelID: URL of the trained model artifact in provider storage.
//     NULL means training has not completed (or never started); this is the
//     sole signal the mobile client uses to gate the try-on feature.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type UserProfile struct {
	ID             string    `json:"id"               gorm:"type:char(36);primaryKey"`
	TrainedModelID *string   `json:"trained_model_id" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "profiles" }

// Trained reports whether a trained model reference has been recorded.
func (p UserProfile) Trained() bool {
	return p.TrainedModelID != nil && *p.TrainedModelID != ""
}
