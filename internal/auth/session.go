package auth

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) createSession(tx *gorm.DB, userID, ip, userAgent string) (*model.Session, error) {
	id, err := security.NewID()
	if err != nil {
		return nil, err
	}

	token, err := security.NewSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.Session{
		ID:        id,
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.opts.ExpiresIn),
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := tx.Create(session).Error; err != nil {
		return nil, err
	}

	return session, nil
}

// GetSession resolves a session token. Expired sessions are deleted and
// reported as ErrSessionNotFound. Sessions older than UpdateAge get their
// expiry pushed back to now + ExpiresIn
func (s *Service) GetSession(ctx context.Context, token string) (*SessionWithUser, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	now := s.now()

	sw, err := s.lookupSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if sw.Session.Expired(now) {
		if err := s.deleteSessions(ctx, "token = ?", token); err != nil {
			zap.L().Warn("Failed to delete expired session", zap.Error(err))
		}

		return nil, ErrSessionNotFound
	}

	// The session was issued (or last refreshed) at ExpiresAt - ExpiresIn
	dueAt := sw.Session.ExpiresAt.Add(-s.opts.ExpiresIn).Add(s.opts.UpdateAge)
	if !now.Before(dueAt) {
		expiresAt := now.Add(s.opts.ExpiresIn)

		err := s.db.WithContext(ctx).
			Model(model.Session{}).
			Where("token = ?", token).
			Updates(map[string]any{
				"expires_at": expiresAt,
				"updated_at": now,
			}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to refresh session, %w", err)
		}

		sw.Session.ExpiresAt = expiresAt
		sw.Session.UpdatedAt = now
		sw.Refreshed = true
		s.cacheSet(ctx, sw)
	}

	return sw, nil
}

func (s *Service) lookupSession(ctx context.Context, token string) (*SessionWithUser, error) {
	if s.opts.Cache != nil {
		sw, err := s.opts.Cache.Get(ctx, token)
		if err == nil {
			return sw, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			zap.L().Warn("Failed to read cached session", zap.Error(err))
		}
	}

	var session model.Session
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("failed to fetch session, %w", err)
	}

	var user model.User
	err = s.db.WithContext(ctx).Where("id = ?", session.UserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("failed to fetch session user, %w", err)
	}

	sw := &SessionWithUser{Session: session, User: user}
	if !session.Expired(s.now()) {
		s.cacheSet(ctx, sw)
	}

	return sw, nil
}

// SignOut deletes the session behind token. Unknown tokens are ignored
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.deleteSessions(ctx, "token = ?", token); err != nil {
		return fmt.Errorf("failed to delete session, %w", err)
	}

	return nil
}

// ListSessions returns the active sessions of a user, newest first
func (s *Service) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	var sessions []model.Session

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, s.now()).
		Order("created_at desc").
		Find(&sessions).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions, %w", err)
	}

	return sessions, nil
}

// RevokeSession deletes one session of a user
func (s *Service) RevokeSession(ctx context.Context, userID, token string) error {
	if err := s.deleteSessions(ctx, "user_id = ? AND token = ?", userID, token); err != nil {
		return fmt.Errorf("failed to revoke session, %w", err)
	}

	return nil
}

// RevokeOtherSessions deletes every session of a user except keepToken
func (s *Service) RevokeOtherSessions(ctx context.Context, userID, keepToken string) error {
	if err := s.deleteSessions(ctx, "user_id = ? AND token <> ?", userID, keepToken); err != nil {
		return fmt.Errorf("failed to revoke sessions, %w", err)
	}

	return nil
}

// deleteSessions removes matching sessions from the store and the cache
func (s *Service) deleteSessions(ctx context.Context, query string, args ...any) error {
	var tokens []string

	err := s.db.WithContext(ctx).
		Model(model.Session{}).
		Where(query, args...).
		Pluck("token", &tokens).
		Error
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		return nil
	}

	err = s.db.WithContext(ctx).
		Where("token IN ?", tokens).
		Delete(&model.Session{}).
		Error
	if err != nil {
		return err
	}

	s.cacheDelete(ctx, tokens...)
	return nil
}

// CleanupExpired deletes expired sessions and verification records
func (s *Service) CleanupExpired(ctx context.Context) (sessions, verifications int64, err error) {
	now := s.now()

	r := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Session{})
	if r.Error != nil {
		return 0, 0, fmt.Errorf("failed to delete expired sessions, %w", r.Error)
	}
	sessions = r.RowsAffected

	r = s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Verification{})
	if r.Error != nil {
		return sessions, 0, fmt.Errorf("failed to delete expired verifications, %w", r.Error)
	}

	return sessions, r.RowsAffected, nil
}
