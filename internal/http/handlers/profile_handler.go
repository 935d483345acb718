// Profile HTTP handlers.
//
// This file exposes the profile read endpoint:
//   - GET /profile   (current user's profile, including training state)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fittingroom/training-backend/internal/services"
)

// ProfileResponse is the client-facing view of a profile row.
type ProfileResponse struct {
	ID             string  `json:"id" example:"7f2a1c9e-8c44-4a5e-9d1b-3f6f0a2b4c8d"`
	TrainedModelID *string `json:"trained_model_id" example:"https://storage.example/models/lora.safetensors"`
	// Trained is the gate the mobile client checks before enabling try-on.
	Trained bool `json:"trained" example:"true"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get the current user's profile
// @Description Returns the profile row for the authenticated user, including whether a trained model reference has been recorded.
// @Tags        Profiles
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid or missing credentials"
// @Failure     404  {object}  handlers.ErrorResponse  "Profile not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "no authenticated user on request")
		return
	}

	p, err := h.profileSvc.Get(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, ProfileResponse{
		ID:             p.ID,
		TrainedModelID: p.TrainedModelID,
		Trained:        p.Trained(),
	})
}
