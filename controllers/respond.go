package controllers

import (
	"errors"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/services"

	"github.com/gin-gonic/gin"
)

// respond writes res as the JSON envelope. successStatus applies when the
// operation succeeded; failures use the status carried by the result.
func respond[T any](c *gin.Context, res services.Result[T], successStatus int) {
	if res.Success {
		c.JSON(successStatus, res)
		return
	}
	status := res.Status
	if status == 0 {
		status = apperrors.StatusFor(res.Code)
	}
	c.JSON(status, res)
}

// respondError writes a failure envelope for an error raised before the
// service was called.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Validation(err.Error())
	}
	c.JSON(apperrors.StatusFor(appErr.Kind), gin.H{
		"success": false,
		"message": appErr.Message,
		"code":    appErr.Kind,
	})
}
