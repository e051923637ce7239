package controllers

import (
	"net/http"

	"github.com/yashrajoria/affiliate-storefront/models"
	"github.com/yashrajoria/affiliate-storefront/services"

	"github.com/gin-gonic/gin"
)

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService services.ProductService
	cache          *CacheManager
}

func NewProductController(productService services.ProductService, cache *CacheManager) *ProductController {
	return &ProductController{productService: productService, cache: cache}
}

func (pc *ProductController) invalidate(c *gin.Context) {
	if pc.cache != nil {
		pc.cache.Invalidate(c.Request.Context())
	}
}

// ListProducts handles GET /products.
func (pc *ProductController) ListProducts(c *gin.Context) {
	respond(c, pc.productService.ListProducts(c.Request.Context()), http.StatusOK)
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	respond(c, pc.productService.GetProduct(c.Request.Context(), models.ID(c.Param("id"))), http.StatusOK)
}

// CreateProduct handles POST /products. Media files arrive in the images
// and videos multipart fields.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		respondError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}
	uploads, err := mediaUploads(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res := pc.productService.CreateProduct(c.Request.Context(), in, uploads)
	if res.Success {
		pc.invalidate(c)
	}
	respond(c, res, http.StatusCreated)
}

// UpdateProduct handles PUT /products/:id.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		respondError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}
	uploads, err := mediaUploads(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res := pc.productService.UpdateProduct(c.Request.Context(), models.ID(c.Param("id")), in, uploads)
	if res.Success {
		pc.invalidate(c)
	}
	respond(c, res, http.StatusOK)
}

// DeleteProduct handles DELETE /products/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	res := pc.productService.DeleteProduct(c.Request.Context(), models.ID(c.Param("id")))
	if res.Success {
		pc.invalidate(c)
	}
	respond(c, res, http.StatusOK)
}

// RemoveMediaItem handles DELETE /products/:id/media?path=...
func (pc *ProductController) RemoveMediaItem(c *gin.Context) {
	res := pc.productService.RemoveMediaItem(c.Request.Context(), models.ID(c.Param("id")), c.Query("path"))
	if res.Success {
		pc.invalidate(c)
	}
	respond(c, res, http.StatusOK)
}
