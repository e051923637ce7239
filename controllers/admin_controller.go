package controllers

import (
	"net/http"
	"time"

	"github.com/yashrajoria/affiliate-storefront/middleware"
	"github.com/yashrajoria/affiliate-storefront/services"

	"github.com/gin-gonic/gin"
)

// AdminController serves login, the passcode gate and catalog export.
type AdminController struct {
	authService  services.AuthService
	gate         *services.Gate
	exporter     *services.ExportService
	secureCookie bool
}

func NewAdminController(authService services.AuthService, gate *services.Gate, exporter *services.ExportService, secureCookie bool) *AdminController {
	return &AdminController{authService: authService, gate: gate, exporter: exporter, secureCookie: secureCookie}
}

// Login handles POST /auth/login. The token is returned in the body and
// also set as an HttpOnly cookie.
func (ac *AdminController) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if res.Success && res.Data != nil {
		maxAge := int(time.Until(res.Data.ExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(middleware.SessionCookieName, res.Data.Token, maxAge, "/", "", ac.secureCookie, true)
	}
	respond(c, res, http.StatusOK)
}

// Logout handles POST /auth/logout by expiring the session cookie. Bearer
// tokens are stateless and simply expire.
func (ac *AdminController) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, ac.secureCookie)
	c.JSON(http.StatusOK, services.Result[any]{Success: true, Message: "Logged out"})
}

// Unlock handles POST /admin/unlock.
func (ac *AdminController) Unlock(c *gin.Context) {
	var req UnlockRequest
	if err := bindAndValidate(c, &req); err != nil {
		respondError(c, err)
		return
	}
	respond(c, ac.gate.Unlock(c.Request.Context(), req.Passcode), http.StatusOK)
}

// UnlockStatus handles GET /admin/unlock.
func (ac *AdminController) UnlockStatus(c *gin.Context) {
	respond(c, ac.gate.Status(c.Request.Context()), http.StatusOK)
}

// Lock handles DELETE /admin/unlock.
func (ac *AdminController) Lock(c *gin.Context) {
	respond(c, ac.gate.Lock(c.Request.Context()), http.StatusOK)
}

// ExportProducts handles GET /admin/export/products.
func (ac *AdminController) ExportProducts(c *gin.Context) {
	ac.export(c, "products.json", ac.exporter.ExportProducts(c.Request.Context()))
}

// ExportKits handles GET /admin/export/kits.
func (ac *AdminController) ExportKits(c *gin.Context) {
	ac.export(c, "kits.json", ac.exporter.ExportKits(c.Request.Context()))
}

func (ac *AdminController) export(c *gin.Context, filename string, res services.Result[[]byte]) {
	if !res.Success {
		respond(c, res, http.StatusOK)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Data)
}
