package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/services"
	"go.uber.org/zap"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UserController serves the signed-in user's profile
type UserController struct {
	profiles *services.ProfileService
	log      *zap.Logger
}

// NewUserController creates a user controller
func NewUserController(profiles *services.ProfileService, log *zap.Logger) *UserController {
	return &UserController{profiles: profiles, log: log}
}

// CreateUser handles POST /api/v1/users - creates the profile from the
// identity provider's /userinfo for the token's subject
func (uc *UserController) CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondFail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondFail(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	profile, err := uc.profiles.CreateFromToken(c.Request.Context(), auth0ID, accessToken, middleware.RoleFromClaims(c))
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respondOK(c, http.StatusCreated, profile)
}

// GetMyProfile handles GET /api/v1/users/me
func (uc *UserController) GetMyProfile(c *gin.Context) {
	profile, err := uc.profiles.Get(c.Request.Context(), middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respondOK(c, http.StatusOK, profile)
}

// UpdateMyProfile handles PUT /api/v1/users/me
func (uc *UserController) UpdateMyProfile(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	profile, err := uc.profiles.Update(c.Request.Context(), middleware.OptionalUserID(c), services.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respondOK(c, http.StatusOK, profile)
}
