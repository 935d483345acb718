// Package services defines the business logic for training submission and
// webhook processing. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Training submission errors. Each marks one failure stage of the pipeline;
// there is no automatic rollback of earlier stages.
var (
	// ErrNoSourceImages is returned when a submission carries no image URLs.
	ErrNoSourceImages = errors.New("missing or invalid image URLs")

	// ErrArchiveBuild tags failures while downloading source images or
	// packing the archive. The whole submission aborts; no partial archive
	// is ever uploaded.
	ErrArchiveBuild = errors.New("building image archive failed")

	// ErrProviderUpload tags failures while storing the archive in the
	// provider's object storage.
	ErrProviderUpload = errors.New("uploading archive to provider failed")

	// ErrProviderSubmit tags failures while enqueueing the training job.
	ErrProviderSubmit = errors.New("submitting training job failed")
)

// Profile errors.
var (
	// ErrProfileNotFound indicates that no profile row exists for the user.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfilePersist tags failures while writing the trained-model
	// reference. Handlers surface it as a retryable server error so the
	// provider redelivers the callback (the write is idempotent).
	ErrProfilePersist = errors.New("updating profile failed")
)
