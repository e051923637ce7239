package routes

import (
	"net/http"

	"github.com/yashrajoria/affiliate-storefront/common/middleware"
	"github.com/yashrajoria/affiliate-storefront/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the storefront and admin endpoints. limiter guards
// the credential endpoints and may be nil.
func RegisterRoutes(
	r *gin.Engine,
	catalogController *controllers.CatalogController,
	productController *controllers.ProductController,
	kitController *controllers.KitController,
	adminController *controllers.AdminController,
	limiter *middleware.RateLimiter,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	r.GET("/catalog", catalogController.GetCatalog)

	productRoutes := r.Group("/products")
	{
		productRoutes.GET("", productController.ListProducts)
		productRoutes.GET("/:id", productController.GetProduct)
		productRoutes.POST("", productController.CreateProduct)
		productRoutes.PUT("/:id", productController.UpdateProduct)
		productRoutes.DELETE("/:id", productController.DeleteProduct)
		productRoutes.DELETE("/:id/media", productController.RemoveMediaItem)
	}

	kitRoutes := r.Group("/kits")
	{
		kitRoutes.GET("", kitController.ListKits)
		kitRoutes.POST("", kitController.CreateKit)
		kitRoutes.PUT("/:id", kitController.UpdateKit)
		kitRoutes.DELETE("/:id", kitController.DeleteKit)
	}

	credentials := []gin.HandlerFunc{}
	if limiter != nil {
		credentials = append(credentials, middleware.RateLimitMiddleware(limiter))
	}

	r.POST("/auth/login", append(credentials, adminController.Login)...)
	r.POST("/auth/logout", adminController.Logout)

	adminRoutes := r.Group("/admin", middleware.NoStore())
	{
		adminRoutes.POST("/unlock", append(credentials, adminController.Unlock)...)
		adminRoutes.GET("/unlock", adminController.UnlockStatus)
		adminRoutes.DELETE("/unlock", adminController.Lock)
		adminRoutes.GET("/export/products", adminController.ExportProducts)
		adminRoutes.GET("/export/kits", adminController.ExportKits)
	}
}
