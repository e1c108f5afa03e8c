package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/security"
	"bitwise74/web-starter/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SignUpInput struct {
	Name      string
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// SignUpEmail registers a new user with a credential account and signs them
// in right away
func (s *Service) SignUpEmail(ctx context.Context, in SignUpInput) (*SessionWithUser, error) {
	if err := validators.NameValidator(in.Name); err != nil {
		return nil, ErrInvalidName
	}

	if err := validators.EmailValidator(in.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	if err := passwordError(in.Password); err != nil {
		return nil, err
	}

	email := validators.NormalizeEmail(in.Email)

	var count int64
	err := s.db.WithContext(ctx).
		Model(model.User{}).
		Where("email = ?", email).
		Count(&count).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to check if user is registered, %w", err)
	}

	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.argon.GenerateFromPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := security.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	accountID, err := security.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate account ID, %w", err)
	}

	now := s.now()
	user := model.User{
		ID:        userID,
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var session *model.Session

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if err := tx.Create(&model.Account{
			ID:         accountID,
			UserID:     userID,
			AccountID:  userID,
			ProviderID: model.ProviderCredential,
			Password:   &hash,
			CreatedAt:  now,
			UpdatedAt:  now,
		}).Error; err != nil {
			return err
		}

		created, err := s.createSession(tx, userID, in.IPAddress, in.UserAgent)
		if err != nil {
			return err
		}

		session = created
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}

		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	if s.opts.Mailer != nil {
		s.sendVerificationAsync(user)
	}

	sw := &SessionWithUser{Session: *session, User: user}
	s.cacheSet(ctx, sw)

	return sw, nil
}

func passwordError(p string) error {
	switch validators.PasswordValidator(p) {
	case nil:
		return nil
	case validators.ErrPasswordTooLong:
		return ErrPasswordTooLong
	default:
		return ErrPasswordTooShort
	}
}

// sendVerificationAsync mails the verification link off the request path.
// Failures are logged, Wait blocks until pending mails are done
func (s *Service) sendVerificationAsync(user model.User) {
	s.mail.Add(1)

	go func() {
		defer s.mail.Done()

		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := s.sendVerification(ctx, &user); err != nil {
			zap.L().Error("Failed to send verification email", zap.Error(err), zap.String("userID", user.ID))
		}
	}()
}
