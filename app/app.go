// Package app builds the HTTP application out of the loaded configuration
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bitwise74/web-starter/aws"
	"bitwise74/web-starter/db"
	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/internal/service"
	"bitwise74/web-starter/pkg/middleware"
	"bitwise74/web-starter/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

type App struct {
	Router *gin.Engine
	Deps   *internal.Deps
	Server *http.Server

	cron   *cron.Cron
	cache  auth.SessionCache
	cancel context.CancelFunc
}

// New builds the application from the loaded config. Close releases what
// it acquired
func New() (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{cancel: cancel}

	d, err := a.deps(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Deps = d

	router, err := NewRouter(ctx, d, RouterConfig{
		TrustedProxies: v.GetStringSlice("host.trusted_proxies"),
		TrustedOrigins: v.GetStringSlice("auth.trusted_origins"),
		RateLimit:      v.GetInt("security.rate_limit"),
		MaxBodySize:    v.GetInt64("security.max_body_size") * mb,
		MaxAvatarSize:  v.GetInt64("storage.max_avatar_size") * mb,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Router = router

	a.Server = &http.Server{
		Addr:              ":" + strconv.Itoa(v.GetInt("host.port")),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) deps(ctx context.Context) (*internal.Deps, error) {
	conn, err := db.New(v.GetString("database.driver"), v.GetString("database.url"), v.GetString("app.log_level") == "debug")
	if err != nil {
		return nil, err
	}

	d := &internal.Deps{
		DB:            conn,
		AppName:       v.GetString("app.name"),
		SecureCookies: v.GetBool("host.ssl.enabled"),
	}

	opts := auth.Options{
		ExpiresIn: v.GetDuration("auth.session.expires_in"),
		UpdateAge: v.GetDuration("auth.session.update_age"),
		BaseURL:   v.GetString("auth.base_url"),
	}

	if addr := v.GetString("redis.addr"); addr != "" {
		client, err := auth.NewRedisClient(ctx, addr, v.GetString("redis.password"), v.GetInt("redis.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		a.cache = auth.NewRedisCache(client)
		zap.L().Debug("Using redis as session cache", zap.String("addr", addr))
	} else {
		a.cache = auth.NewMemoryCache()
	}
	opts.Cache = a.cache

	if v.GetBool("mail.enabled") {
		opts.Mailer = service.NewMailer(service.MailConfig{
			Host:          v.GetString("mail.host"),
			Port:          v.GetInt("mail.port"),
			SenderAddress: v.GetString("mail.sender_address"),
			Password:      v.GetString("mail.password"),
			AppName:       d.AppName,
		})
	}

	d.Auth = auth.New(conn, security.New(), opts)

	d.Sessions = &middleware.Sessions{
		Auth:   d.Auth,
		Secret: v.GetString("auth.secret"),
		Secure: d.SecureCookies,
	}

	if v.GetBool("auth.cookie_cache.enabled") {
		d.Sessions.CookieCache = security.NewCookieCache(v.GetString("auth.secret"), v.GetDuration("auth.cookie_cache.max_age"))
	}

	if v.GetBool("storage.enabled") {
		s3, err := aws.NewS3(ctx, aws.S3Config{
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			PublicURL:       v.GetString("storage.public_url"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.Avatars = service.NewAvatarUploader(s3, v.GetInt64("storage.max_avatar_size")*mb)
	}

	return d, nil
}

// StartJobs schedules the background cleanup of expired records
func (a *App) StartJobs() error {
	s, err := service.StartCleanup(service.CleanupSchedule, a.Deps.Auth)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup, %w", err)
	}

	a.cron = s
	return nil
}

// Run serves HTTP, or HTTPS when SSL is enabled, until Shutdown is called
func (a *App) Run() error {
	var err error
	if v.GetBool("host.ssl.enabled") {
		err = a.Server.ListenAndServeTLS(v.GetString("host.ssl.certificate_path"), v.GetString("host.ssl.certificate_key_path"))
	} else {
		err = a.Server.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown stops accepting connections and waits for in flight requests
// until ctx is done
func (a *App) Shutdown(ctx context.Context) error {
	return a.Server.Shutdown(ctx)
}

// Close stops background work and releases connections
func (a *App) Close() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.Deps != nil && a.Deps.Auth != nil {
		a.Deps.Auth.Wait()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			zap.L().Warn("Failed to close session cache", zap.Error(err))
		}
	}

	if a.Deps != nil && a.Deps.DB != nil {
		if sqlDB, err := a.Deps.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
