package internal

import (
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/internal/service"
	"bitwise74/web-starter/pkg/middleware"

	"gorm.io/gorm"
)

// Deps is handed to every handler
type Deps struct {
	DB       *gorm.DB
	Auth     *auth.Service
	Sessions *middleware.Sessions
	// Avatars is nil when object storage isn't configured
	Avatars *service.AvatarUploader

	AppName string
	// SecureCookies marks every cookie Secure, set when serving over TLS
	SecureCookies bool
}
