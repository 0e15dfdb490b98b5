package testutil

import (
	"net/http"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/middleware"
)

// Request headers read by MockAuth in place of a signed token
const (
	UserHeader = "X-Test-User"
	RoleHeader = "X-Test-Role"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "https://test.auth0.com/",
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: role,
		},
	}
}

// AccessToken is the bearer token MockAuth hands out for userID
func AccessToken(userID string) string {
	return "token-" + userID
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, role string) {
	middleware.SetAuthContext(c, MockValidatedClaims(userID, role), AccessToken(userID))
}

// MockAuth stands in for the JWT middlewares. The caller is taken from
// the X-Test-User header; when required is set a request without it gets
// the same 401 the real middleware sends.
func MockAuth(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserHeader)
		if userID == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INVALID_TOKEN",
						"message": "Failed to validate JWT.",
					},
				})
				return
			}
			c.Next()
			return
		}

		SetMockAuthContext(c, userID, c.GetHeader(RoleHeader))
		c.Next()
	}
}
