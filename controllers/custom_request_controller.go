package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/kendall-kelly/tee-store-api/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmitCustomRequestRequest is the form of POST /custom-requests. Reference
// images travel alongside it as reference_images files.
type SubmitCustomRequestRequest struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email" binding:"omitempty,email"`
	Description     string `form:"description" json:"description"`
	ShirtColor      string `form:"shirt_color" json:"shirt_color"`
	ShirtStyle      string `form:"shirt_style" json:"shirt_style"`
	BaseProductID   string `form:"base_product_id" json:"base_product_id"`
	BaseProductName string `form:"base_product_name" json:"base_product_name"`
	BaseImageURL    string `form:"base_image_url" json:"base_image_url"`
}

// UpdateRequestStatusRequest is the body of PUT /admin/custom-requests/:id/status
type UpdateRequestStatusRequest struct {
	Status     models.RequestStatus `json:"status" binding:"required"`
	FinalPrice *decimal.Decimal     `json:"final_price"`
}

// CustomRequestController serves custom design requests and their mockups
type CustomRequestController struct {
	requests *services.CustomRequestService
	profiles *services.ProfileService
	log      *zap.Logger
}

// NewCustomRequestController creates a custom request controller
func NewCustomRequestController(requests *services.CustomRequestService, profiles *services.ProfileService, log *zap.Logger) *CustomRequestController {
	return &CustomRequestController{requests: requests, profiles: profiles, log: log}
}

// Submit handles POST /api/v1/custom-requests. Guests may submit with a name
// and email; signed-in users are identified by their profile.
func (rc *CustomRequestController) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req SubmitCustomRequestRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidBody(c, err)
		return
	}

	input := services.CustomRequestInput{
		Name:            req.Name,
		Email:           strings.TrimSpace(req.Email),
		Description:     req.Description,
		ShirtColor:      req.ShirtColor,
		ShirtStyle:      req.ShirtStyle,
		BaseProductID:   req.BaseProductID,
		BaseProductName: req.BaseProductName,
		BaseImageURL:    req.BaseImageURL,
	}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		input.ReferenceImages = form.File["reference_images"]
	}

	var requester *models.Profile
	if userID := middleware.OptionalUserID(c); userID != "" {
		profile, err := rc.profiles.Lookup(ctx, userID)
		if err != nil {
			respondError(c, rc.log, err)
			return
		}
		requester = profile
		// Signed in before the profile was created
		if requester == nil && strings.TrimSpace(input.Email) != "" {
			requester = &models.Profile{Auth0ID: userID, Name: strings.TrimSpace(input.Name), Email: strings.TrimSpace(input.Email)}
		}
	}

	request, err := rc.requests.Submit(ctx, requester, input)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	respondOK(c, http.StatusCreated, request)
}

// ListMine handles GET /api/v1/custom-requests
func (rc *CustomRequestController) ListMine(c *gin.Context) {
	requests, err := rc.requests.ListMine(c.Request.Context(), middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	respondOK(c, http.StatusOK, requests)
}

// Get handles GET /api/v1/custom-requests/:id
func (rc *CustomRequestController) Get(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.OptionalUserID(c)

	isAdmin, err := rc.profiles.IsAdmin(ctx, userID)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}

	request, err := rc.requests.Get(ctx, userID, isAdmin, c.Param("id"))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	respondOK(c, http.StatusOK, request)
}

// ListAll handles GET /api/v1/admin/custom-requests?status=
func (rc *CustomRequestController) ListAll(c *gin.Context) {
	requests, err := rc.requests.ListAll(c.Request.Context(), models.RequestStatus(c.Query("status")))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	respondOK(c, http.StatusOK, requests)
}

// UpdateStatus handles PUT /api/v1/admin/custom-requests/:id/status
func (rc *CustomRequestController) UpdateStatus(c *gin.Context) {
	var req UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	request, err := rc.requests.UpdateStatus(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"), req.Status, req.FinalPrice)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	respondOK(c, http.StatusOK, request)
}

// AddMockup handles POST /api/v1/admin/custom-requests/:id/mockups as a
// multipart form: name, price and either url or an image file.
func (rc *CustomRequestController) AddMockup(c *gin.Context) {
	input := services.MockupInput{
		Name: c.PostForm("name"),
		URL:  c.PostForm("url"),
	}
	if raw := c.PostForm("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "INVALID_MOCKUP", "Mockup price must be a number")
			return
		}
		input.Price = price
	}
	if image, err := c.FormFile("image"); err == nil {
		input.Image = image
	}

	request, err := rc.requests.AddMockup(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"), input)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	respondOK(c, http.StatusCreated, request)
}

// DeleteMockup handles DELETE /api/v1/admin/custom-requests/:id/mockups/:mockupId
func (rc *CustomRequestController) DeleteMockup(c *gin.Context) {
	request, err := rc.requests.DeleteMockup(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"), c.Param("mockupId"))
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	respondOK(c, http.StatusOK, request)
}
