package controllers

import (
	"net/http"

	"github.com/yashrajoria/affiliate-storefront/models"
	"github.com/yashrajoria/affiliate-storefront/services"

	"github.com/gin-gonic/gin"
)

type KitController struct {
	kitService services.KitService
	cache      *CacheManager
}

func NewKitController(kitService services.KitService, cache *CacheManager) *KitController {
	return &KitController{kitService: kitService, cache: cache}
}

func (kc *KitController) invalidate(c *gin.Context) {
	if kc.cache != nil {
		kc.cache.Invalidate(c.Request.Context())
	}
}

func (kc *KitController) ListKits(c *gin.Context) {
	respond(c, kc.kitService.ListKits(c.Request.Context()), http.StatusOK)
}

func (kc *KitController) CreateKit(c *gin.Context) {
	var req KitRequest
	if err := bindAndValidate(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res := kc.kitService.CreateKit(c.Request.Context(), req.toInput())
	if res.Success {
		kc.invalidate(c)
	}
	respond(c, res, http.StatusCreated)
}

func (kc *KitController) UpdateKit(c *gin.Context) {
	var req KitRequest
	if err := bindAndValidate(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res := kc.kitService.UpdateKit(c.Request.Context(), models.ID(c.Param("id")), req.toInput())
	if res.Success {
		kc.invalidate(c)
	}
	respond(c, res, http.StatusOK)
}

func (kc *KitController) DeleteKit(c *gin.Context) {
	res := kc.kitService.DeleteKit(c.Request.Context(), models.ID(c.Param("id")))
	if res.Success {
		kc.invalidate(c)
	}
	respond(c, res, http.StatusOK)
}
