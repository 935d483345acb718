// Package services – TrainingService
//
// This file implements the TrainingService, which orchestrates the
// fire-and-forget training submission pipeline: it validates the incoming
// image list, has the archive built, uploads it to provider storage, and
// enqueues the training job with a deterministic trigger word and a callback
// URL that routes the asynchronous completion back to the right user.
//
// The pipeline is stateless on this side: nothing durable records the
// submission (idempotency replays aside), so a failed submission can always
// be retried from scratch by the client. Service-level errors tag the failure
// stage so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fittingroom/training-backend/internal/archive"
	"github.com/fittingroom/training-backend/internal/provider"
)

// Archiver builds the image archive for one submission.
// Implementations must fetch the URLs in input order and fail the whole
// build on the first unreachable image.
type Archiver interface {
	Build(ctx context.Context, urls []string) (*archive.Archive, error)
}

// TrainingProvider is the slice of the provider client the submission
// pipeline needs.
type TrainingProvider interface {
	// UploadArchive stores the archive and returns its durable URL.
	UploadArchive(ctx context.Context, fileName string, data []byte) (string, error)
	// SubmitTraining enqueues the job and returns the provider request id.
	SubmitTraining(ctx context.Context, job provider.TrainingJob) (string, error)
}

// SubmitResult is the caller-facing acknowledgment of an accepted submission.
type SubmitResult struct {
	// RequestID is the provider's job identifier, returned for diagnostics.
	// It is not tracked statefully anywhere in this system.
	RequestID string
	// Images is the number of source images that went into the archive.
	Images int
}

// TrainingService coordinates one-shot training submissions.
type TrainingService struct {
	// Archiver downloads and packs the source images.
	Archiver Archiver
	// Provider is the external training provider client.
	Provider TrainingProvider

	// WebhookBaseURL is the public base under which the webhook handler is
	// reachable, without trailing slash.
	WebhookBaseURL string
	// TriggerPrefix is prepended to the user id to form the trigger word.
	// A fixed prefix plus the unique user id guarantees no two users share
	// a trigger word and retries reproduce the same word.
	TriggerPrefix string
}

// Submit runs the full submission pipeline for userID and returns the
// provider's request id without waiting for training to complete. Each stage
// is a failure point with no rollback of earlier stages; errors are tagged
// with the stage sentinel (ErrArchiveBuild, ErrProviderUpload,
// ErrProviderSubmit) and wrap the underlying cause.
func (s *TrainingService) Submit(ctx context.Context, userID string, imageURLs []string) (*SubmitResult, error) {
	if len(imageURLs) == 0 {
		return nil, ErrNoSourceImages
	}

	a, err := s.Archiver.Build(ctx, imageURLs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveBuild, err)
	}

	archiveURL, err := s.Provider.UploadArchive(ctx, userID+"_training_images.zip", a.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUpload, err)
	}

	requestID, err := s.Provider.SubmitTraining(ctx, provider.TrainingJob{
		ArchiveURL:  archiveURL,
		TriggerWord: s.TriggerWord(userID),
		WebhookURL:  s.CallbackURL(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderSubmit, err)
	}

	return &SubmitResult{RequestID: requestID, Images: a.Entries}, nil
}

// TriggerWord derives the deterministic trigger word for a user. It is
// byte-identical across repeated submissions for the same user.
func (s *TrainingService) TriggerWord(userID string) string {
	return s.TriggerPrefix + userID
}

// CallbackURL builds the webhook URL for a submission. The user id travels
// in the query string because the provider's callback carries no credential
// of its own; the id is the only way to attribute the result to a profile.
func (s *TrainingService) CallbackURL(userID string) string {
	return s.WebhookBaseURL + "/training-webhook-handler?user_id=" + url.QueryEscape(userID)
}
