package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitwise74/web-starter/db"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/internal/colorscheme"
	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/security"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.MustGet("requestID").(string))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, w.Body.String(), 10)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/", BodySizeLimiter(8), func(c *gin.Context) {
		var body struct {
			Name string `json:"name"`
		}

		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "bad")
			return
		}

		c.String(http.StatusOK, body.Name)
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"something long"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, Burst: 1})

	r := gin.New()
	r.GET("/", limiter.Middleware(), ok)

	req := func(ip string) int {
		rq := httptest.NewRequest(http.MethodGet, "/", nil)
		rq.RemoteAddr = ip + ":1234"
		return serve(r, rq).Code
	}

	assert.Equal(t, http.StatusOK, req("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, req("10.0.0.1"))
	assert.Equal(t, http.StatusOK, req("10.0.0.2"), "limits are per client")
}

func TestRateLimiterEvict(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, TTL: time.Minute})
	limiter.Allow("10.0.0.1")

	limiter.evict(time.Now().Add(2 * time.Minute))

	assert.Empty(t, limiter.visitors)
}

func TestOriginMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(NewOriginMiddleware([]string{"https://app.example.com/", "https://admin.example.com"}))
	r.Any("/", ok)

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{"trusted origin", http.MethodPost, map[string]string{"Origin": "https://app.example.com"}, http.StatusOK},
		{"second trusted origin", http.MethodPost, map[string]string{"Origin": "https://admin.example.com"}, http.StatusOK},
		{"untrusted origin", http.MethodPost, map[string]string{"Origin": "https://evil.example.com"}, http.StatusForbidden},
		{"trusted referer", http.MethodPost, map[string]string{"Referer": "https://app.example.com/auth?x=1"}, http.StatusOK},
		{"untrusted referer", http.MethodPost, map[string]string{"Referer": "https://evil.example.com/auth"}, http.StatusForbidden},
		{"no headers", http.MethodPost, nil, http.StatusOK},
		{"safe method", http.MethodGet, map[string]string{"Origin": "https://evil.example.com"}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			w := serve(r, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "Invalid origin")
			}
		})
	}
}

func TestColorSchemeMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(NewColorSchemeMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ColorScheme(c).String())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(colorscheme.Cookie(colorscheme.Dark, false))
	assert.Equal(t, "dark", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: colorscheme.CookieName, Value: "garbage"})
	assert.Equal(t, "system", serve(r, req).Body.String())

	assert.Equal(t, "system", serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String())
}

type sessionFixture struct {
	db       *gorm.DB
	sessions *Sessions
	router   *gin.Engine
	session  *auth.SessionWithUser
}

func newSessionFixture(t *testing.T, cookieCache bool) *sessionFixture {
	t.Helper()

	conn, err := db.New("sqlite", "file:"+gonanoid.Must(12)+"?mode=memory&cache=shared", false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	argon := &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	svc := auth.New(conn, argon, auth.Options{})

	sw, err := svc.SignUpEmail(context.Background(), auth.SignUpInput{
		Name:     "Demo User",
		Email:    "demo@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	s := &Sessions{Auth: svc, Secret: testSecret}
	if cookieCache {
		s.CookieCache = security.NewCookieCache(testSecret, 5*time.Minute)
	}

	r := gin.New()
	r.Use(NewRequestIDMiddleware(), s.Middleware())
	r.GET("/dashboard", RequireAuth(), func(c *gin.Context) {
		sw, _ := CurrentSession(c)
		c.String(http.StatusOK, sw.User.Name)
	})
	r.GET("/api/me", RequireAuth(), ok)
	r.GET("/auth", RequireGuest(), ok)

	return &sessionFixture{db: conn, sessions: s, router: r, session: sw}
}

func (f *sessionFixture) request(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	return serve(f.router, req)
}

func (f *sessionFixture) tokenCookie() *http.Cookie {
	return &http.Cookie{Name: SessionTokenCookie, Value: security.SignValue(f.session.Session.Token, testSecret)}
}

func TestRequireAuthWithoutSession(t *testing.T) {
	f := newSessionFixture(t, false)

	w := f.request("/dashboard")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))

	w = f.request("/api/me")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWithSession(t *testing.T) {
	f := newSessionFixture(t, false)

	w := f.request("/dashboard", f.tokenCookie())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Demo User", w.Body.String())
}

func TestRequireGuest(t *testing.T) {
	f := newSessionFixture(t, false)

	assert.Equal(t, http.StatusOK, f.request("/auth").Code)

	w := f.request("/auth", f.tokenCookie())
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestTamperedTokenIsCleared(t *testing.T) {
	f := newSessionFixture(t, false)

	cookie := f.tokenCookie()
	cookie.Value = f.session.Session.Token + ".forged"

	w := f.request("/dashboard", cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionTokenCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestSignedOutSessionIsRejected(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.sessions.Auth.SignOut(context.Background(), f.session.Session.Token))

	w := f.request("/dashboard", f.tokenCookie())
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestCookieCache(t *testing.T) {
	f := newSessionFixture(t, true)

	w := f.request("/dashboard", f.tokenCookie())
	require.Equal(t, http.StatusOK, w.Code)

	var data *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionDataCookie {
			data = c
		}
	}
	require.NotNil(t, data, "session data cookie should be issued")

	// The store is bypassed while the data cookie is valid
	require.NoError(t, f.db.Where("1 = 1").Delete(&model.Session{}).Error)

	w = f.request("/dashboard", f.tokenCookie(), data)
	assert.Equal(t, http.StatusOK, w.Code)

	// but only for the session it was issued for
	other := &http.Cookie{Name: SessionTokenCookie, Value: security.SignValue("another-token", testSecret)}
	w = f.request("/dashboard", other, data)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestSecureCookieNames(t *testing.T) {
	s := &Sessions{Secure: true}
	assert.Equal(t, "__Secure-session_token", s.cookieName(SessionTokenCookie))

	s.Secure = false
	assert.Equal(t, "session_data", s.cookieName(SessionDataCookie))
}
