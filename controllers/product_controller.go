package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/kendall-kelly/tee-store-api/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductView is a product plus whether the viewer wishlisted it
type ProductView struct {
	models.Product
	Wishlisted bool `json:"wishlisted"`
}

// ProductController serves the public catalog and the admin product tools
type ProductController struct {
	catalog  *services.CatalogService
	wishlist *services.WishlistService
	log      *zap.Logger
}

// NewProductController creates a product controller
func NewProductController(catalog *services.CatalogService, wishlist *services.WishlistService, log *zap.Logger) *ProductController {
	return &ProductController{catalog: catalog, wishlist: wishlist, log: log}
}

// ListProducts handles GET /api/v1/products?category=&search=&available=
func (pc *ProductController) ListProducts(c *gin.Context) {
	filter := services.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "VALIDATION_ERROR", "available must be true or false")
			return
		}
		filter.AvailableOnly = available
	}

	products, err := pc.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusOK, products)
}

// ListSold handles GET /api/v1/products/sold
func (pc *ProductController) ListSold(c *gin.Context) {
	products, err := pc.catalog.ListSold(c.Request.Context())
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/:id
func (pc *ProductController) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	product, err := pc.catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}

	view := ProductView{Product: product}
	if userID := middleware.OptionalUserID(c); userID != "" {
		// The product page still renders if the lookup fails
		wishlisted, err := pc.wishlist.Contains(ctx, userID, product.ID)
		if err != nil {
			pc.log.Warn("failed to check wishlist", zap.String("product_id", product.ID), zap.Error(err))
		}
		view.Wishlisted = wishlisted
	}
	respondOK(c, http.StatusOK, view)
}

// CreateProduct handles POST /api/v1/admin/products. Accepts JSON or a
// multipart form with an optional "image" file.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	input, image, ok := pc.bindProduct(c)
	if !ok {
		return
	}

	product, err := pc.catalog.CreateProduct(c.Request.Context(), middleware.OptionalUserID(c), input, image)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/:id
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	input, image, ok := pc.bindProduct(c)
	if !ok {
		return
	}

	product, err := pc.catalog.UpdateProduct(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"), input, image)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/admin/products/:id
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := pc.catalog.DeleteProduct(c.Request.Context(), middleware.OptionalUserID(c), id); err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// MarkSold handles POST /api/v1/admin/products/:id/sold
func (pc *ProductController) MarkSold(c *gin.Context) {
	product, err := pc.catalog.MarkSold(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// MarkAvailable handles POST /api/v1/admin/products/:id/available
func (pc *ProductController) MarkAvailable(c *gin.Context) {
	product, err := pc.catalog.MarkAvailable(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// UploadImage handles POST /api/v1/admin/products/images
func (pc *ProductController) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "NO_FILE", "No image file provided")
		return
	}

	img, err := pc.catalog.UploadProductImage(c.Request.Context(), file)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondOK(c, http.StatusCreated, img)
}

// bindProduct reads a ProductInput from JSON or from multipart form fields.
// It writes the error response itself and reports whether binding worked.
func (pc *ProductController) bindProduct(c *gin.Context) (services.ProductInput, *multipart.FileHeader, bool) {
	var input services.ProductInput
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&input); err != nil {
			invalidBody(c, err)
			return input, nil, false
		}
		return input, nil, true
	}

	input.Name = c.PostForm("name")
	input.Description = c.PostForm("description")
	input.Category = c.PostForm("category")
	input.ImageURL = c.PostForm("image_url")
	input.Sizes = formList(c.PostForm("sizes"))
	input.Colors = formList(c.PostForm("colors"))

	var err error
	if raw := c.PostForm("price"); raw != "" {
		if input.Price, err = decimal.NewFromString(raw); err != nil {
			respondFail(c, http.StatusBadRequest, "INVALID_PRICE", "Price must be a number")
			return input, nil, false
		}
	}
	if raw := c.PostForm("original_price"); raw != "" {
		original, err := decimal.NewFromString(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "INVALID_PRICE", "Original price must be a number")
			return input, nil, false
		}
		input.OriginalPrice = &original
	}
	if input.IsOneOfOne, err = formBool(c, "is_one_of_one"); err != nil {
		return input, nil, false
	}
	if input.Available, err = formBool(c, "available"); err != nil {
		return input, nil, false
	}

	// The image is optional
	image, _ := c.FormFile("image")
	return input, image, true
}

func formList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formBool(c *gin.Context, field string) (*bool, error) {
	raw, ok := c.GetPostForm(field)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "VALIDATION_ERROR", field+" must be true or false")
		return nil, err
	}
	return &value, nil
}
