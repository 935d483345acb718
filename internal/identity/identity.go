// Package identity resolves bearer credentials into user identities by
// calling the external auth provider. The provider is the source of truth
// for token validity; this service never decodes tokens itself.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized is returned when the bearer token is missing, expired, or
// otherwise rejected by the auth provider.
var ErrUnauthorized = errors.New("user not authenticated")

// Verifier resolves a bearer token to the id of the user it belongs to.
type Verifier interface {
	Verify(ctx context.Context, bearerToken string) (userID string, err error)
}

// HTTPVerifier verifies tokens against the auth provider's user-info
// endpoint. It is safe for concurrent use.
type HTTPVerifier struct {
	client *resty.Client
}

// NewHTTPVerifier constructs a verifier against the given auth provider base
// URL. apiKey is the project-level key the provider requires alongside the
// user's bearer token.
func NewHTTPVerifier(baseURL, apiKey string, timeout time.Duration) *HTTPVerifier {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	if apiKey != "" {
		c.SetHeader("apikey", apiKey)
	}
	return &HTTPVerifier{client: c}
}

// userInfoResponse is the subset of the provider's user document we need.
type userInfoResponse struct {
	ID string `json:"id"`
}

// Verify calls GET /auth/v1/user with the caller's bearer token. Any
// non-success status (or a response without a user id) maps to
// ErrUnauthorized; transport failures are reported as-is so callers can
// distinguish a bad token from a broken auth provider.
func (v *HTTPVerifier) Verify(ctx context.Context, bearerToken string) (string, error) {
	if bearerToken == "" {
		return "", ErrUnauthorized
	}

	var user userInfoResponse
	res, err := v.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+bearerToken).
		SetResult(&user).
		Get("/auth/v1/user")
	if err != nil {
		return "", fmt.Errorf("verify bearer token: %w", err)
	}
	if !res.IsSuccess() || user.ID == "" {
		return "", ErrUnauthorized
	}
	return user.ID, nil
}
