package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eventstream/api/logging"
	"eventstream/api/utils"
)

const (
	TokenCookieName = "jwt_token"

	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*utils.Claims, error)
}

// AuthRequired accepts either the static X-API-KEY (when apiKey is set) or a
// JWT from the jwt_token cookie or the Authorization header. When both carry a
// token the first one that validates wins.
func AuthRequired(validator TokenValidator, apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey != "" {
			if given := c.GetHeader("X-API-KEY"); given != "" &&
				subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) == 1 {
				c.Next()
				return
			}
		}

		candidates := bearerCandidates(c)
		if len(candidates) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		// A stale cookie must not shadow a valid Authorization header.
		var claims *utils.Claims
		var err error
		for _, token := range candidates {
			if claims, err = validator.Validate(token); err == nil {
				break
			}
		}
		if err != nil {
			logging.Debug().Err(err).Str("path", c.FullPath()).Int("tokens", len(candidates)).Msg("rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// bearerCandidates returns the non-empty tokens sent with the request, cookie
// first.
func bearerCandidates(c *gin.Context) []string {
	var tokens []string
	if cookie, err := c.Cookie(TokenCookieName); err == nil && cookie != "" {
		tokens = append(tokens, cookie)
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
