package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewOriginMiddleware rejects state changing requests coming from an origin
// that isn't trusted. Requests carrying neither Origin nor Referer pass, those
// don't come from a browser
func NewOriginMiddleware(trusted []string) gin.HandlerFunc {
	allowed := make([]string, 0, len(trusted))
	for _, o := range trusted {
		allowed = append(allowed, strings.TrimRight(o, "/"))
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		origin := requestOrigin(c.Request)
		if origin == "" || slices.Contains(allowed, origin) {
			c.Next()
			return
		}

		requestID := c.GetString("requestID")
		zap.L().Debug("Rejected untrusted origin", zap.String("origin", origin), zap.String("requestID", requestID))

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "Invalid origin",
			"requestID": requestID,
		})
	}
}

func requestOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" && o != "null" {
		return strings.TrimRight(o, "/")
	}

	ref := r.Header.Get("Referer")
	if ref == "" {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		// Unparseable referers can't match anything
		return ref
	}

	return u.Scheme + "://" + u.Host
}
