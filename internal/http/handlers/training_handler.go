// Training HTTP handlers.
//
// This file exposes the submission endpoint:
//   - POST /train-lora   (archive images, upload, enqueue training)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Authentication happens upstream
// in middleware; handlers read the resolved user id from the Gin context.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fittingroom/training-backend/internal/domain"
	"github.com/fittingroom/training-backend/internal/http/middleware"
	"github.com/fittingroom/training-backend/internal/provider"
	"github.com/fittingroom/training-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// TrainingStarter defines the submission operation consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TrainingStarter interface {
	// Submit archives the user's images, uploads them, and enqueues a
	// training job. It returns the provider's request id.
	Submit(ctx context.Context, userID string, imageURLs []string) (*services.SubmitResult, error)
}

// ProfileService defines profile reads and the completion-callback write.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ProfileService interface {
	// Get returns the profile row for userID.
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	// RecordOutcome applies a normalized training outcome to the profile.
	RecordOutcome(ctx context.Context, userID string, outcome provider.TrainingOutcome) (bool, error)
}

// IdempotencyStore persists issued provider request ids keyed by
// (user, Idempotency-Key) so retried submissions replay the original result
// instead of starting a second training run.
type IdempotencyStore interface {
	// Lookup returns the non-expired record for (userID, key), or an error
	// when none exists.
	Lookup(ctx context.Context, userID, key string, now time.Time) (*domain.Idempotency, error)
	// Record stores the issued request id for (userID, key).
	Record(ctx context.Context, userID, key, requestID string, status int) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for training submission, the provider
// webhook, and profile reads. It depends on abstract service interfaces to
// keep transport concerns separate from business logic.
type Handlers struct {
	trainingSvc TrainingStarter
	profileSvc  ProfileService
	idemStore   IdempotencyStore
}

// New constructs and returns a Handlers instance bound to the given services.
// idemStore may be nil, which disables submission replay.
func New(trainingSvc TrainingStarter, profileSvc ProfileService, idemStore IdempotencyStore) *Handlers {
	return &Handlers{trainingSvc: trainingSvc, profileSvc: profileSvc, idemStore: idemStore}
}

// userID extracts the authenticated user id from Gin context (set by the
// authentication middleware). It returns "" when no identity is available;
// handlers on authenticated routes treat that as a server misconfiguration.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.CtxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// StartTrainingRequest is the JSON payload for starting a training run.
type StartTrainingRequest struct {
	// ImageURLs lists the source photo URLs, in the order they should be
	// packed into the archive. Typically short-lived signed URLs.
	ImageURLs []string `json:"imageUrls" binding:"required" example:"https://storage.example/u1/photo1.jpg"`
}

// StartTrainingResponse acknowledges an accepted submission.
type StartTrainingResponse struct {
	Message   string `json:"message" example:"Training started successfully"`
	RequestID string `json:"requestId" example:"9fbe3cd5-5a07-4d63-bd84-dbd2a5a9f1f4"`
	// Images is the number of photos packed into the archive; omitted on
	// idempotent replays.
	Images int `json:"images,omitempty" example:"6"`
}

const trainingStartedMsg = "Training started successfully"

//
// Handlers
//

// StartTraining godoc
// @ID          startTraining
// @Summary     Start a personal model training run
// @Description Downloads the given photos, packs them into an archive, uploads it to the training provider, and enqueues an asynchronous training job. Returns the provider request id without waiting for training to finish.
// @Tags        Training
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Replay key for safe retries"
// @Param       body             body    handlers.StartTrainingRequest  true  "Source image URLs"
//
// @Success     200  {object}  handlers.StartTrainingResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or invalid image URLs"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid or missing credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Pipeline failure"
// @Router      /train-lora [post]
func (h *Handlers) StartTraining(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "no authenticated user on request")
		return
	}
	ctx := c.Request.Context()

	var req StartTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrNoSourceImages.Error())
		return
	}

	// Replay: a retried request with a known key returns the request id that
	// the original submission produced, without re-running the pipeline.
	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.idemStore != nil {
		if rec, err := h.idemStore.Lookup(ctx, uid, key, time.Now().UTC()); err == nil && rec != nil {
			ok(c, rec.Status, StartTrainingResponse{
				Message:   trainingStartedMsg,
				RequestID: rec.RequestID,
			})
			return
		}
	}

	res, err := h.trainingSvc.Submit(ctx, uid, req.ImageURLs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoSourceImages):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrArchiveBuild):
			fail(c, http.StatusInternalServerError, ErrCodeArchiveFailed, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		}
		return
	}

	// Best effort: a failure to persist the replay record must not fail a
	// submission that the provider already accepted.
	if hasKey && h.idemStore != nil {
		if err := h.idemStore.Record(ctx, uid, key, res.RequestID, http.StatusOK); err != nil {
			middleware.LoggerFrom(c).Warn().
				Err(err).
				Msg("recording idempotency key failed")
		}
	}

	ok(c, http.StatusOK, StartTrainingResponse{
		Message:   trainingStartedMsg,
		RequestID: res.RequestID,
		Images:    res.Images,
	})
}
