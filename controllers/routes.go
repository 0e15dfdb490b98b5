package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/services"
	"go.uber.org/zap"
)

// Auth holds the three gates routes sit behind
type Auth struct {
	Required gin.HandlerFunc // valid bearer token
	Optional gin.HandlerFunc // token when present, anonymous otherwise
	Admin    gin.HandlerFunc // admin profile, runs after Required
}

// Handlers are the controllers of the API
type Handlers struct {
	Cart     *CartController
	Wishlist *WishlistController
	Products *ProductController
	Requests *CustomRequestController
	Orders   *OrderController
	Users    *UserController
	Admin    *AdminController
}

// NewHandlers builds every controller on top of svc
func NewHandlers(svc *services.Services, log *zap.Logger) Handlers {
	return Handlers{
		Cart:     NewCartController(svc.Cart, svc.Catalog, svc.Requests, log),
		Wishlist: NewWishlistController(svc.Wishlist, log),
		Products: NewProductController(svc.Catalog, svc.Wishlist, log),
		Requests: NewCustomRequestController(svc.Requests, svc.Profiles, log),
		Orders:   NewOrderController(svc.Orders, log),
		Users:    NewUserController(svc.Profiles, log),
		Admin:    NewAdminController(svc.Stats, log),
	}
}

// RegisterRoutes mounts the store API on v1
func RegisterRoutes(v1 *gin.RouterGroup, h Handlers, auth Auth) {
	// Catalog browsing and guest requests
	public := v1.Group("", auth.Optional)
	{
		public.GET("/products", h.Products.ListProducts)
		public.GET("/products/sold", h.Products.ListSold)
		public.GET("/products/:id", h.Products.GetProduct)
		public.GET("/cart", h.Cart.GetCart)
		public.GET("/shipping", h.Orders.Quote)
		public.POST("/custom-requests", h.Requests.Submit)
	}

	user := v1.Group("", auth.Required)
	{
		user.POST("/users", h.Users.CreateUser)
		user.GET("/users/me", h.Users.GetMyProfile)
		user.PUT("/users/me", h.Users.UpdateMyProfile)
		user.POST("/session/logout", h.Cart.Logout)

		user.POST("/cart/items", h.Cart.AddItem)
		user.PUT("/cart/items/:itemId", h.Cart.UpdateItem)
		user.DELETE("/cart/items/:itemId", h.Cart.RemoveItem)
		user.DELETE("/cart", h.Cart.ClearCart)

		user.GET("/wishlist", h.Wishlist.List)
		user.POST("/wishlist", h.Wishlist.Add)
		user.DELETE("/wishlist/:productId", h.Wishlist.Remove)

		user.POST("/checkout", h.Orders.Checkout)
		user.GET("/orders", h.Orders.ListOrders)
		user.GET("/orders/:id", h.Orders.GetOrder)
		user.POST("/orders/:id/receipt", h.Orders.UploadReceipt)
		user.POST("/orders/:id/verify", h.Orders.VerifyPayment)

		user.GET("/custom-requests", h.Requests.ListMine)
		user.GET("/custom-requests/:id", h.Requests.Get)
	}

	admin := v1.Group("/admin", auth.Required, auth.Admin)
	{
		admin.GET("/stats", h.Admin.Stats)

		admin.POST("/products", h.Products.CreateProduct)
		admin.POST("/products/images", h.Products.UploadImage)
		admin.PUT("/products/:id", h.Products.UpdateProduct)
		admin.DELETE("/products/:id", h.Products.DeleteProduct)
		admin.POST("/products/:id/sold", h.Products.MarkSold)
		admin.POST("/products/:id/available", h.Products.MarkAvailable)
		admin.POST("/products/:id/wishlist-count", h.Wishlist.Recount)

		admin.GET("/custom-requests", h.Requests.ListAll)
		admin.PUT("/custom-requests/:id/status", h.Requests.UpdateStatus)
		admin.POST("/custom-requests/:id/mockups", h.Requests.AddMockup)
		admin.DELETE("/custom-requests/:id/mockups/:mockupId", h.Requests.DeleteMockup)

		admin.GET("/orders", h.Orders.ListAllOrders)
		admin.PUT("/orders/:id/status", h.Orders.UpdateStatus)
		admin.POST("/orders/:id/confirm", h.Orders.ConfirmPayment)
		admin.GET("/orders/:id/receipt", h.Orders.ReceiptURL)
		admin.GET("/orders/:id/history", h.Orders.History)
	}
}
