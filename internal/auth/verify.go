package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/security"

	"gorm.io/gorm"
)

// SendVerificationEmail issues a new verification link for a user that
// hasn't verified their e-mail yet
func (s *Service) SendVerificationEmail(ctx context.Context, userID string) error {
	if s.opts.Mailer == nil {
		return ErrMailDisabled
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	return s.sendVerification(ctx, user)
}

func (s *Service) sendVerification(ctx context.Context, user *model.User) error {
	id, err := security.NewID()
	if err != nil {
		return fmt.Errorf("failed to generate verification ID, %w", err)
	}

	token, err := security.NewVerificationToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token, %w", err)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Create(&model.Verification{
		ID:         id,
		Identifier: verificationPurpose + ":" + user.ID,
		Value:      token,
		ExpiresAt:  now.Add(s.opts.VerificationTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to store verification token, %w", err)
	}

	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s&callbackURL=%s",
		strings.TrimRight(s.opts.BaseURL, "/"), token, url.QueryEscape("/dashboard"))

	return s.opts.Mailer.SendVerificationMail(ctx, user.Email, link)
}

// VerifyEmail consumes a verification token and marks its user as verified
func (s *Service) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var v model.Verification
	err := s.db.WithContext(ctx).
		Where("value = ? AND identifier LIKE ?", token, verificationPurpose+":%").
		First(&v).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, fmt.Errorf("failed to fetch verification token, %w", err)
	}

	if !s.now().Before(v.ExpiresAt) {
		s.db.WithContext(ctx).Delete(&v)
		return nil, ErrTokenExpired
	}

	userID := strings.TrimPrefix(v.Identifier, verificationPurpose+":")

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Model(model.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"email_verified": true,
				"updated_at":     s.now(),
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return tx.Where("identifier = ?", v.Identifier).Delete(&model.Verification{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, fmt.Errorf("failed to verify user, %w", err)
	}

	s.forgetUserSessions(ctx, userID)

	return s.GetUser(ctx, userID)
}
