package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func scrape(t *testing.T) string {
	t.Helper()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	return w.Body.String()
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := gin.New()
	r.Use(NewMetricsMiddleware())
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/abc", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	body := scrape(t)
	assert.Contains(t, body, `web_starter_http_requests_total{method="GET",route="/users/:id",status="418"}`)
	assert.NotContains(t, body, "/users/abc")
}

func TestRecordAuth(t *testing.T) {
	RecordAuth("sign_in", nil)
	RecordAuth("sign_in", errors.New("nope"))

	body := scrape(t)
	assert.Contains(t, body, `web_starter_auth_events_total{event="sign_in",result="success"}`)
	assert.Contains(t, body, `web_starter_auth_events_total{event="sign_in",result="failure"}`)
}

func TestRecordCleanup(t *testing.T) {
	RecordRateLimited()
	RecordCleanup(2, 1)

	body := scrape(t)
	assert.Contains(t, body, "web_starter_http_rate_limited_total")
	assert.Contains(t, body, `web_starter_cleanup_deleted_total{kind="session"}`)
	assert.Contains(t, body, `web_starter_cleanup_deleted_total{kind="verification"}`)
}
