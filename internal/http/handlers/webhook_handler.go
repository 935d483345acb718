// Provider webhook handler.
//
// This file exposes the completion callback endpoint:
//   - POST /training-webhook-handler?user_id={id}
//
// The endpoint is called by the training provider, not by clients, so it is
// not behind bearer authentication. The response status is the contract with
// the provider's retry loop: 2xx acknowledges and stops redelivery, 5xx asks
// for redelivery, 4xx rejects a request that can never succeed.
package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fittingroom/training-backend/internal/http/middleware"
	"github.com/fittingroom/training-backend/internal/provider"
)

// WebhookAck is the acknowledgment body returned to the provider.
type WebhookAck struct {
	Received bool `json:"received" example:"true"`
	// Updated reports whether a trained model reference was written. False
	// for failure notifications and payloads without a model reference.
	Updated bool `json:"updated" example:"true"`
}

// HandleTrainingWebhook godoc
// @ID          handleTrainingWebhook
// @Summary     Receive a training completion callback
// @Description Accepts the training provider's completion notification, and on success records the trained model reference on the user's profile. Returns 500 when the write fails so the provider redelivers.
// @Tags        Training
// @Accept      json
// @Produce     json
//
// @Param       user_id  query  string  true  "User the training run belongs to"
// @Param       body     body   object  true  "Provider callback payload"
//
// @Success     200  {object}  handlers.WebhookAck
// @Failure     400  {object}  handlers.ErrorResponse  "Missing user_id or unparseable payload"
// @Failure     500  {object}  handlers.ErrorResponse  "Profile update failed; retry expected"
// @Router      /training-webhook-handler [post]
func (h *Handlers) HandleTrainingWebhook(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("user_id"))
	if uid == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id query parameter is required")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	outcome, err := provider.DecodeWebhook(body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid webhook payload")
		return
	}

	updated, err := h.profileSvc.RecordOutcome(c.Request.Context(), uid, outcome)
	if err != nil {
		// 5xx keeps the provider retrying; the write is idempotent.
		fail(c, http.StatusInternalServerError, ErrCodePersistFailed, err.Error())
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("status", outcome.Status).
		Str("provider_request_id", outcome.RequestID).
		Bool("updated", updated).
		Msg("training webhook processed")

	ok(c, http.StatusOK, WebhookAck{Received: true, Updated: updated})
}
