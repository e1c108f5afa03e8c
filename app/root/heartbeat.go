// Package root holds endpoints that aren't tied to a feature
package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat answers HEAD /api/heartbeat so load balancers can check the
// server is up
func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
