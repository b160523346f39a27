// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// Handlers bundles the endpoint handlers mounted by SetupRoutes
type Handlers struct {
	Auth     *handlers.AuthHandler
	Cart     *handlers.CartHandler
	Order    *handlers.OrderHandler
	Product  *handlers.ProductHandler
	Category *handlers.CategoryHandler
	Profile  *handlers.ProfileHandler
}

// SetupRoutes mounts every API route on r. requireAuth resolves the caller
// and must run before any cart, order or admin handler.
func SetupRoutes(r gin.IRouter, h Handlers, requireAuth gin.HandlerFunc) {
	SetupAuthRoutes(r, h.Auth)
	SetupCatalogRoutes(r, h.Product, h.Category, requireAuth)
	SetupCartRoutes(r, h.Cart, requireAuth)
	SetupOrderRoutes(r, h.Order, requireAuth)
	SetupProfileRoutes(r, h.Profile, requireAuth)
}

// SetupAuthRoutes sets up registration and login
func SetupAuthRoutes(r gin.IRouter, h *handlers.AuthHandler) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
}

// SetupCatalogRoutes sets up public browsing and admin maintenance of the catalog
func SetupCatalogRoutes(r gin.IRouter, products *handlers.ProductHandler, categories *handlers.CategoryHandler, requireAuth gin.HandlerFunc) {
	r.GET("/categories", categories.GetCategories)
	r.GET("/categories/:id", categories.GetCategory)
	r.GET("/categories/:id/products", categories.GetCategoryProducts)
	r.GET("/products", products.GetProducts)
	r.GET("/products/:id", products.GetProduct)

	admin := r.Group("", requireAuth, middleware.AdminMiddleware())
	{
		admin.POST("/categories", categories.CreateCategory)
		admin.PUT("/categories/:id", categories.UpdateCategory)
		admin.DELETE("/categories/:id", categories.DeleteCategory)

		admin.POST("/products", products.CreateProduct)
		admin.PUT("/products/:id", products.UpdateProduct)
		admin.DELETE("/products/:id", products.DeleteProduct)
	}
}

// SetupCartRoutes sets up the caller's cart routes
func SetupCartRoutes(r gin.IRouter, h *handlers.CartHandler, requireAuth gin.HandlerFunc) {
	cart := r.Group("/cart", requireAuth)
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/products/:productId", h.AddProduct)
		cart.PUT("/products/:productId", h.SetQuantity)
		cart.DELETE("/products/:productId", h.RemoveProduct)
	}
}

// SetupOrderRoutes sets up checkout and order history
func SetupOrderRoutes(r gin.IRouter, h *handlers.OrderHandler, requireAuth gin.HandlerFunc) {
	orders := r.Group("/orders", requireAuth)
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("", h.GetOrders)
		orders.GET("/:orderId", h.GetOrder)
	}
}

// SetupProfileRoutes sets up the caller's profile and account lookup
func SetupProfileRoutes(r gin.IRouter, h *handlers.ProfileHandler, requireAuth gin.HandlerFunc) {
	profile := r.Group("/profile", requireAuth)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}

	r.GET("/users/me", requireAuth, h.Me)
}
