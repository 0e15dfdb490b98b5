package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/models"
	"go.uber.org/zap"
)

// Gin context keys set by the token middlewares
const (
	userIDKey      = "user_id"
	claimsKey      = "validated_claims"
	accessTokenKey = "access_token"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Scope string `json:"scope"`
	Role  string `json:"role"`
}

// Validate does nothing, but we need it to satisfy validator.CustomClaims.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// AdminChecker reports whether a signed-in user may use the admin API
type AdminChecker interface {
	IsAdmin(ctx context.Context, auth0ID string) (bool, error)
}

// NewValidator builds the Auth0 JWT validator for a tenant domain and API audience
func NewValidator(domain, audience string) (*validator.Validator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}
	return jwtValidator, nil
}

// EnsureValidToken rejects requests without a valid bearer token.
func EnsureValidToken(jwtValidator *validator.Validator, log *zap.Logger) gin.HandlerFunc {
	return tokenMiddleware(jwtValidator, log, false)
}

// OptionalToken accepts anonymous requests but still rejects a token that
// is present and invalid. Handlers tell the two apart with GetUserID.
func OptionalToken(jwtValidator *validator.Validator, log *zap.Logger) gin.HandlerFunc {
	return tokenMiddleware(jwtValidator, log, true)
}

func tokenMiddleware(jwtValidator *validator.Validator, log *zap.Logger, optional bool) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Info("Encountered error while validating JWT", zap.Error(err), zap.String("path", r.URL.Path))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			log.Warn("Failed to write error response", zap.Error(writeErr))
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithCredentialsOptional(optional),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			// No claims means an anonymous request on an optional route
			if token, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims); ok && token != nil {
				SetAuthContext(c, token, bearerToken(r.Header.Get("Authorization")))
			}
			c.Request = r
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// SetAuthContext stores validated claims in the gin context the way the
// token middlewares do.
func SetAuthContext(c *gin.Context, claims *validator.ValidatedClaims, accessToken string) {
	c.Set(userIDKey, claims.RegisteredClaims.Subject)
	c.Set(claimsKey, claims)
	if accessToken != "" {
		c.Set(accessTokenKey, accessToken)
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// OptionalUserID returns the signed-in user's id or "" for an anonymous visitor
func OptionalUserID(c *gin.Context) string {
	userID, _ := GetUserID(c)
	return userID
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(claimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// GetAccessToken returns the raw bearer token of the request, used to call
// the identity provider's /userinfo endpoint.
func GetAccessToken(c *gin.Context) (string, error) {
	if token, ok := c.Get(accessTokenKey); ok {
		if s, ok := token.(string); ok && s != "" {
			return s, nil
		}
	}
	if c.Request != nil {
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			return token, nil
		}
	}
	return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found"}
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RoleFromClaims returns the role claim of the token, defaulting to customer
func RoleFromClaims(c *gin.Context) string {
	claims, err := GetClaims(c)
	if err != nil {
		return models.RoleCustomer
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok && custom.Role != "" {
		return custom.Role
	}
	return models.RoleCustomer
}

// RequireAdmin lets the request through only when the caller's profile has
// the admin role. It must run after EnsureValidToken.
func RequireAdmin(admins AdminChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil || userID == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Please log in to continue")
			return
		}

		isAdmin, err := admins.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			log.Error("Failed to check admin role", zap.String("user_id", userID), zap.Error(err))
			abort(c, http.StatusInternalServerError, "DATABASE_ERROR", "Could not verify permissions")
			return
		}
		if !isAdmin {
			abort(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}

		c.Next()
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
