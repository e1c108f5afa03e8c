// Package auth implements email/password authentication with server side
// sessions stored next to the users in the relational store
package auth

import (
	"context"
	"sync"
	"time"

	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultExpiresIn       = time.Hour * 24 * 7
	DefaultUpdateAge       = time.Hour * 24
	DefaultVerificationTTL = time.Hour

	mailTimeout = 30 * time.Second

	verificationPurpose = "email-verification"
)

// Mailer delivers verification links
type Mailer interface {
	SendVerificationMail(ctx context.Context, to, link string) error
}

type Options struct {
	// ExpiresIn is the lifetime of a session
	ExpiresIn time.Duration
	// UpdateAge is how old a session has to be before its expiry gets pushed
	// back on use
	UpdateAge time.Duration
	// VerificationTTL is how long e-mail verification links stay valid
	VerificationTTL time.Duration
	// BaseURL is used to build links sent by mail
	BaseURL string

	// Mailer is optional, no verification mails are sent without it
	Mailer Mailer
	// Cache is optional secondary storage for sessions
	Cache SessionCache

	Now func() time.Time
}

type Service struct {
	db    *gorm.DB
	argon *security.ArgonHash
	opts  Options

	mail sync.WaitGroup
}

// SessionWithUser is what a session token resolves to
type SessionWithUser struct {
	Session model.Session `json:"session"`
	User    model.User    `json:"user"`

	// Refreshed is set when the expiry got pushed back while resolving
	Refreshed bool `json:"-"`
}

func New(db *gorm.DB, argon *security.ArgonHash, opts Options) *Service {
	if opts.ExpiresIn <= 0 {
		opts.ExpiresIn = DefaultExpiresIn
	}
	if opts.UpdateAge < 0 {
		opts.UpdateAge = DefaultUpdateAge
	}
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = DefaultVerificationTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if argon == nil {
		argon = security.New()
	}

	return &Service{
		db:    db,
		argon: argon,
		opts:  opts,
	}
}

// ExpiresIn returns the configured session lifetime
func (s *Service) ExpiresIn() time.Duration {
	return s.opts.ExpiresIn
}

// MailEnabled reports whether verification mails can be sent
func (s *Service) MailEnabled() bool {
	return s.opts.Mailer != nil
}

// Wait blocks until verification mails queued by SignUpEmail are sent
func (s *Service) Wait() {
	s.mail.Wait()
}

func (s *Service) now() time.Time {
	return s.opts.Now()
}

func (s *Service) cacheSet(ctx context.Context, sw *SessionWithUser) {
	if s.opts.Cache == nil {
		return
	}

	ttl := sw.Session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}

	if err := s.opts.Cache.Set(ctx, sw.Session.Token, sw, ttl); err != nil {
		zap.L().Warn("Failed to cache session", zap.Error(err))
	}
}

func (s *Service) cacheDelete(ctx context.Context, tokens ...string) {
	if s.opts.Cache == nil {
		return
	}

	for _, t := range tokens {
		if err := s.opts.Cache.Delete(ctx, t); err != nil {
			zap.L().Warn("Failed to remove cached session", zap.Error(err))
		}
	}
}

// forgetUserSessions drops every cached session of a user so the next
// lookup reloads the user record
func (s *Service) forgetUserSessions(ctx context.Context, userID string) {
	if s.opts.Cache == nil {
		return
	}

	var tokens []string
	err := s.db.WithContext(ctx).
		Model(model.Session{}).
		Where("user_id = ?", userID).
		Pluck("token", &tokens).
		Error
	if err != nil {
		zap.L().Warn("Failed to list sessions to uncache", zap.Error(err), zap.String("userID", userID))
		return
	}

	s.cacheDelete(ctx, tokens...)
}
