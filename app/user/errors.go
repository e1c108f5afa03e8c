// Package user holds the JSON endpoints under /api/auth and /api/users
package user

import (
	"errors"
	"net/http"

	"bitwise74/web-starter/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes err as JSON. Auth errors carry their own status and
// message, anything else is logged and reported as an internal error
func respondError(c *gin.Context, err error, logMsg string) {
	requestID := c.MustGet("requestID").(string)

	var authErr *auth.Error
	if errors.As(err, &authErr) {
		c.JSON(authErr.Status, gin.H{
			"error":     authErr.Message,
			"code":      authErr.Code,
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})

	zap.L().Error(logMsg, zap.Error(err), zap.String("requestID", requestID))
}

func badBody(c *gin.Context, err error) {
	requestID := c.MustGet("requestID").(string)

	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"requestID": requestID,
	})

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
}
