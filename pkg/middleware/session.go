package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionTokenCookie = "session_token"
	SessionDataCookie  = "session_data"

	secureCookiePrefix = "__Secure-"
)

// Sessions resolves the session cookie of incoming requests and writes the
// session cookies after sign in, refresh or sign out
type Sessions struct {
	Auth   *auth.Service
	Secret string
	Secure bool

	// CookieCache is optional, without it every request hits the store
	CookieCache *security.CookieCache
}

func (s *Sessions) cookieName(name string) string {
	if s.Secure {
		return secureCookiePrefix + name
	}

	return name
}

func (s *Sessions) setCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName(name),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetCookies writes the signed session token and, when enabled, the
// session data cache cookie
func (s *Sessions) SetCookies(c *gin.Context, sw *auth.SessionWithUser) {
	maxAge := int(time.Until(sw.Session.ExpiresAt).Seconds())
	if maxAge <= 0 {
		s.ClearCookies(c)
		return
	}

	s.setCookie(c, SessionTokenCookie, security.SignValue(sw.Session.Token, s.Secret), maxAge)
	s.setCacheCookie(c, sw)
}

func (s *Sessions) setCacheCookie(c *gin.Context, sw *auth.SessionWithUser) {
	if s.CookieCache == nil {
		return
	}

	data, err := s.CookieCache.Encode(&sw.Session, &sw.User)
	if err != nil {
		zap.L().Warn("Failed to encode session data cookie", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		return
	}

	s.setCookie(c, SessionDataCookie, data, int(s.CookieCache.MaxAge.Seconds()))
}

// ClearCookies expires every session cookie
func (s *Sessions) ClearCookies(c *gin.Context) {
	s.setCookie(c, SessionTokenCookie, "", -1)
	s.setCookie(c, SessionDataCookie, "", -1)
}

// Token returns the verified session token carried by the request, if any
func (s *Sessions) Token(c *gin.Context) (string, bool) {
	cookie, err := c.Request.Cookie(s.cookieName(SessionTokenCookie))
	if err != nil || cookie.Value == "" {
		return "", false
	}

	return security.UnsignValue(cookie.Value, s.Secret)
}

// Middleware resolves the session behind the request, first through the
// session data cookie and then through the auth service. It never aborts,
// use RequireAuth or RequireGuest for that
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := c.Request.Cookie(s.cookieName(SessionTokenCookie)); err != nil {
			c.Next()
			return
		}

		token, ok := s.Token(c)
		if !ok {
			s.ClearCookies(c)
			c.Next()
			return
		}

		if sw := s.fromCookieCache(c, token); sw != nil {
			setSession(c, token, sw)
			c.Next()
			return
		}

		requestID := c.GetString("requestID")

		sw, err := s.Auth.GetSession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrSessionNotFound) {
				s.ClearCookies(c)
			} else {
				zap.L().Error("Failed to resolve session", zap.Error(err), zap.String("requestID", requestID))
			}

			c.Next()
			return
		}

		if sw.Refreshed {
			s.SetCookies(c, sw)
		} else {
			s.setCacheCookie(c, sw)
		}

		setSession(c, token, sw)
		c.Next()
	}
}

func (s *Sessions) fromCookieCache(c *gin.Context, token string) *auth.SessionWithUser {
	if s.CookieCache == nil {
		return nil
	}

	cookie, err := c.Request.Cookie(s.cookieName(SessionDataCookie))
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, user, err := s.CookieCache.Decode(cookie.Value)
	if err != nil {
		return nil
	}

	// A cache cookie left over from another session must not be trusted
	if session.Token != token || session.Expired(time.Now()) {
		return nil
	}

	return &auth.SessionWithUser{Session: *session, User: *user}
}

func setSession(c *gin.Context, token string, sw *auth.SessionWithUser) {
	c.Set("session", sw)
	c.Set("sessionToken", token)
	c.Set("userID", sw.User.ID)
}

// CurrentSession returns the session resolved by Sessions.Middleware
func CurrentSession(c *gin.Context) (*auth.SessionWithUser, bool) {
	v, ok := c.Get("session")
	if !ok {
		return nil, false
	}

	sw, ok := v.(*auth.SessionWithUser)
	return sw, ok && sw != nil
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// RequireAuth stops requests without a session. Pages are redirected to
// /auth, API calls get a 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); ok {
			c.Next()
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Redirect(http.StatusSeeOther, "/auth")
		c.Abort()
	}
}

// RequireGuest sends signed in users to the dashboard
func RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			c.Next()
			return
		}

		c.Redirect(http.StatusSeeOther, "/dashboard")
		c.Abort()
	}
}
