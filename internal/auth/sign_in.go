package auth

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SignInInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// SignInEmail checks the credentials and opens a new session. Unknown
// e-mails and wrong passwords fail with the same error
func (s *Service) SignInEmail(ctx context.Context, in SignInInput) (*SessionWithUser, error) {
	if err := validators.EmailValidator(in.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	if in.Password == "" {
		return nil, ErrInvalidEmailOrPassword
	}

	var user model.User
	err := s.db.WithContext(ctx).
		Where("email = ?", validators.NormalizeEmail(in.Email)).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Hash anyway so response timing doesn't reveal registered emails
			s.argon.GenerateFromPassword(in.Password)
			return nil, ErrInvalidEmailOrPassword
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	var account model.Account
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", user.ID, model.ProviderCredential).
		First(&account).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmailOrPassword
		}

		return nil, fmt.Errorf("failed to fetch credential account, %w", err)
	}

	if account.Password == nil {
		return nil, ErrInvalidEmailOrPassword
	}

	ok, err := s.argon.VerifyPasswd(in.Password, *account.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrInvalidEmailOrPassword
	}

	if s.argon.NeedsRehash(*account.Password) {
		s.rehash(ctx, &account, in.Password)
	}

	session, err := s.createSession(s.db.WithContext(ctx), user.ID, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session, %w", err)
	}

	sw := &SessionWithUser{Session: *session, User: user}
	s.cacheSet(ctx, sw)

	return sw, nil
}

// rehash upgrades a stored hash to the current parameters. Failures only
// get logged, the old hash keeps working
func (s *Service) rehash(ctx context.Context, account *model.Account, password string) {
	hash, err := s.argon.GenerateFromPassword(password)
	if err != nil {
		zap.L().Warn("Failed to rehash password", zap.Error(err))
		return
	}

	err = s.db.WithContext(ctx).
		Model(account).
		Updates(map[string]any{
			"password":   hash,
			"updated_at": s.now(),
		}).Error
	if err != nil {
		zap.L().Warn("Failed to store rehashed password", zap.Error(err), zap.String("userID", account.UserID))
	}
}
