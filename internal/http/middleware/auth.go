// Bearer-token authentication middleware.
//
// This file resolves the Authorization header into a user identity by calling
// the external auth provider through the identity.Verifier contract, and
// stashes the resulting user id in the Gin context for downstream middleware
// and handlers. Routes that the training provider calls directly (the
// completion webhook) are mounted outside this middleware.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fittingroom/training-backend/internal/identity"
)

// CtxKeyUserID is the Gin context key under which the authenticated user id
// is stored. Downstream code should read it via handlers' accessor rather
// than the raw key where possible.
const CtxKeyUserID = "userID"

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. It returns "" when the header is absent or malformed.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Authenticate verifies the request's bearer token against the auth provider
// and stores the resolved user id in the context. Requests with a missing,
// malformed, or rejected token are aborted with 401; transport failures
// toward the provider abort with 502 so clients can tell a bad token from a
// broken upstream.
func Authenticate(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))

		uid, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    "unauthorized",
					"message": "invalid or missing credentials",
				})
				return
			}
			LoggerFrom(c).Error().Err(err).Msg("identity provider unreachable")
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"code":    "identity_unavailable",
				"message": "could not verify credentials",
			})
			return
		}

		c.Set(CtxKeyUserID, uid)
		c.Next()
	}
}
