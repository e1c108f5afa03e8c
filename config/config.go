// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	_                  = pflag.Bool("seed", false, "Seeds the database with a demo user and exits")
	_                  = pflag.String("config", "", "Path to a config.toml file")
	validLogLevels     = []string{"debug", "info", "warn", "error", "fatal"}
	validDatabaseTypes = []string{"sqlite", "postgres"}
)

// ErrMissingSecret is returned when no auth secret has been configured
var ErrMissingSecret = errors.New("auth.secret is not set")

// GenSecret returns a random base64 encoded 32 byte secret
func GenSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	err := Load()
	if errors.Is(err, ErrMissingSecret) {
		fmt.Println("WARNING: You haven't set an auth secret, so it has been generated for you. Please set it as the AUTH_SECRET environment variable or in the config.toml file.\nYour random auth secret:\n\n" + GenSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

// Load binds environment variables, applies defaults, reads the optional
// config file and validates the result. It doesn't touch command line flags.
func Load() error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.domain", "HOST_DOMAIN")
	v.BindEnv("host.cors", "HOST_CORS")
	v.BindEnv("host.trusted_proxies", "HOST_TRUSTED_PROXIES")

	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")

	v.BindEnv("auth.secret", "AUTH_SECRET")
	v.BindEnv("auth.base_url", "AUTH_BASE_URL")
	v.BindEnv("auth.trusted_origins", "AUTH_TRUSTED_ORIGINS")
	v.BindEnv("auth.vercel_url", "VERCEL_URL")
	v.BindEnv("auth.session.expires_in", "AUTH_SESSION_EXPIRES_IN")
	v.BindEnv("auth.session.update_age", "AUTH_SESSION_UPDATE_AGE")
	v.BindEnv("auth.cookie_cache.enabled", "AUTH_COOKIE_CACHE")
	v.BindEnv("auth.cookie_cache.max_age", "AUTH_COOKIE_CACHE_MAX_AGE")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	v.BindEnv("security.max_body_size", "SECURITY_MAX_BODY_SIZE")

	v.BindEnv("mail.enabled", "MAIL_ENABLED")
	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.sender_address", "MAIL_SENDER_ADDRESS")
	v.BindEnv("mail.password", "MAIL_PASSWORD")

	v.BindEnv("storage.enabled", "STORAGE_ENABLED")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.region", "STORAGE_REGION")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("storage.max_avatar_size", "STORAGE_MAX_AVATAR_SIZE")

	//
	// Defaults
	//
	v.SetDefault("app.name", "LLM Stack")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)
	v.SetDefault("host.trusted_proxies", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "database.db")

	v.SetDefault("auth.session.expires_in", time.Hour*24*7)
	v.SetDefault("auth.session.update_age", time.Hour*24)
	v.SetDefault("auth.cookie_cache.enabled", true)
	v.SetDefault("auth.cookie_cache.max_age", time.Minute*5)

	v.SetDefault("redis.db", 0)

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.max_body_size", 1)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.max_avatar_size", 2)

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDatabaseTypes, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.url") == "" {
		return errors.New("database.url can't be empty")
	}

	if v.GetString("auth.secret") == "" {
		return ErrMissingSecret
	}

	if len(v.GetString("auth.secret")) < 32 {
		return errors.New("auth.secret must be at least 32 characters long")
	}

	if v.GetString("auth.base_url") == "" {
		scheme := "http"
		if v.GetBool("host.ssl.enabled") {
			scheme = "https"
		}

		v.Set("auth.base_url", fmt.Sprintf("%s://%s:%d", scheme, v.GetString("host.domain"), v.GetInt("host.port")))
	}

	if _, err := url.ParseRequestURI(v.GetString("auth.base_url")); err != nil {
		return fmt.Errorf("invalid auth.base_url, %w", err)
	}

	v.Set("auth.trusted_origins", TrustedOrigins())

	if v.GetDuration("auth.session.expires_in") <= 0 {
		return errors.New("auth.session.expires_in must be bigger than 0")
	}

	if v.GetDuration("auth.session.update_age") < 0 {
		return errors.New("auth.session.update_age can't be negative")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetInt64("security.max_body_size") <= 0 {
		return errors.New("security.max_body_size must be bigger than 0")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail host can't be empty")
		}
		if v.GetString("mail.sender_address") == "" {
			return errors.New("mail sender address can't be empty")
		}
	}

	if v.GetBool("storage.enabled") {
		if v.GetString("storage.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("storage.access_key_id") == "" {
			return errors.New("storage access key id can't be empty")
		}
		if v.GetString("storage.secret_access_key") == "" {
			return errors.New("storage secret access key can't be empty")
		}
		if v.GetString("storage.public_url") == "" {
			return errors.New("storage public url can't be empty")
		}
		if v.GetInt64("storage.max_avatar_size") <= 0 {
			return errors.New("max avatar size must be bigger than 0")
		}
	}

	return nil
}

// TrustedOrigins returns the base URL origin, every configured trusted
// origin and the deployment origin derived from VERCEL_URL, deduplicated
func TrustedOrigins() []string {
	var origins []string

	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}

	if u, err := url.Parse(v.GetString("auth.base_url")); err == nil && u.Host != "" {
		add(u.Scheme + "://" + u.Host)
	}

	for _, o := range v.GetStringSlice("auth.trusted_origins") {
		for part := range strings.SplitSeq(o, ",") {
			add(part)
		}
	}

	if vercel := v.GetString("auth.vercel_url"); vercel != "" {
		add("https://" + vercel)
	}

	return origins
}
