package app

import (
	"context"
	"fmt"
	"time"

	"bitwise74/web-starter/app/page"
	"bitwise74/web-starter/app/preference"
	"bitwise74/web-starter/app/root"
	"bitwise74/web-starter/app/user"
	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/metrics"
	"bitwise74/web-starter/pkg/middleware"
	"bitwise74/web-starter/web"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const mb = 1 << 20

type RouterConfig struct {
	// TrustedProxies may set X-Forwarded-For. When empty the client IP is
	// always the remote address
	TrustedProxies []string
	// TrustedOrigins may send cross origin requests and state changing forms
	TrustedOrigins []string
	// RateLimit is the number of requests per second a client may send to
	// the auth endpoints
	RateLimit int
	// MaxBodySize caps form and JSON bodies, in bytes
	MaxBodySize int64
	// MaxAvatarSize caps avatar uploads, in bytes
	MaxAvatarSize int64
}

// NewRouter wires every route. Background work started here stops when ctx
// is done
func NewRouter(ctx context.Context, d *internal.Deps, cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies, %w", err)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates, %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	// GET /assets/*		-> Static files, cached in memory. Registered before the
	// global middleware so cached responses never carry per-user cookies
	assets := router.Group("/assets",
		ginzap.RecoveryWithZap(zap.L(), true),
		cacheFor(time.Hour),
		func(c *gin.Context) {
			c.Header("Cache-Control", "public, max-age=3600")
		},
	)
	assets.StaticFS("/", web.Static())

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.TrustedOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/api/heartbeat", "/metrics"},
			Context: func(c *gin.Context) []zapcore.Field {
				return []zapcore.Field{
					zap.String("requestID", c.GetString("requestID")),
					zap.String("userID", c.GetString("userID")),
				}
			},
		}),
		metrics.NewMetricsMiddleware(),
		middleware.NewColorSchemeMiddleware(),
		middleware.NewOriginMiddleware(cfg.TrustedOrigins),
		d.Sessions.Middleware(),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateLimit * 2,
	})
	go limiter.Cleanup(ctx)

	rateLimit := limiter.Middleware()
	bodyLimit := middleware.BodySizeLimiter(cfg.MaxBodySize)
	requireAuth := middleware.RequireAuth()
	requireGuest := middleware.RequireGuest()

	// GET /				-> Home page
	router.GET("/", func(c *gin.Context) { page.Home(c, d) })

	// GET /auth			-> Sign in and sign up forms
	router.GET("/auth", requireGuest, func(c *gin.Context) { page.Auth(c, d) })

	// POST /auth			-> Sign in or sign up form action, picked by the intent field
	router.POST("/auth", requireGuest, rateLimit, bodyLimit, func(c *gin.Context) { page.AuthAction(c, d) })

	// GET /dashboard		-> Dashboard of the signed in user
	router.GET("/dashboard", requireAuth, func(c *gin.Context) { page.Dashboard(c, d) })

	// POST /dashboard		-> Signs out
	router.POST("/dashboard", requireAuth, bodyLimit, func(c *gin.Context) { page.DashboardAction(c, d) })

	// GET /metrics			-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	m := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// POST /api/color-scheme	-> Stores the color scheme preference
		m.POST("/color-scheme", bodyLimit, func(c *gin.Context) { preference.SetColorScheme(c, d) })
	}

	a := m.Group("/auth", rateLimit, bodyLimit)
	{
		// POST /api/auth/sign-up/email		-> Registers a new user and signs them in
		a.POST("/sign-up/email", func(c *gin.Context) { user.SignUpEmail(c, d) })

		// POST /api/auth/sign-in/email		-> Signs in with email and password
		a.POST("/sign-in/email", func(c *gin.Context) { user.SignInEmail(c, d) })

		// POST /api/auth/sign-out		-> Ends the current session
		a.POST("/sign-out", func(c *gin.Context) { user.SignOut(c, d) })

		// GET /api/auth/get-session		-> Returns the current session or null
		a.GET("/get-session", user.GetSession)

		// GET /api/auth/list-sessions		-> Lists the active sessions of the user
		a.GET("/list-sessions", requireAuth, func(c *gin.Context) { user.ListSessions(c, d) })

		// POST /api/auth/revoke-session	-> Revokes one session of the user
		a.POST("/revoke-session", requireAuth, func(c *gin.Context) { user.RevokeSession(c, d) })

		// POST /api/auth/revoke-other-sessions	-> Revokes every session but the current one
		a.POST("/revoke-other-sessions", requireAuth, func(c *gin.Context) { user.RevokeOtherSessions(c, d) })

		// POST /api/auth/update-user		-> Updates the name or image of the user
		a.POST("/update-user", requireAuth, func(c *gin.Context) { user.UpdateUser(c, d) })

		// POST /api/auth/send-verification-email	-> Mails a new verification link
		a.POST("/send-verification-email", requireAuth, func(c *gin.Context) { user.SendVerificationEmail(c, d) })

		// GET /api/auth/verify-email		-> Consumes a verification link
		a.GET("/verify-email", func(c *gin.Context) { user.VerifyEmail(c, d) })

		// GET /api/auth/ok			-> Checks that the auth endpoints are reachable
		a.GET("/ok", user.Ok)
	}

	u := m.Group("/users", requireAuth)
	{
		// POST /api/users/avatar	-> Uploads a new avatar
		u.POST("/avatar", middleware.BodySizeLimiter(cfg.MaxAvatarSize+mb), func(c *gin.Context) { user.UploadAvatar(c, d) })
	}

	router.NoRoute(func(c *gin.Context) { page.NotFound(c, d) })

	return router, nil
}

var store = persist.NewMemoryStore(time.Minute)

func cacheFor(d time.Duration) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, d)
}
