package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/validators"

	"gorm.io/gorm"
)

type UpdateUserInput struct {
	Name  *string
	Image *string
}

func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User

	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &user, nil
}

// UpdateUser changes the profile fields that are set in in. An empty image
// removes the current one
func (s *Service) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (*model.User, error) {
	updates := map[string]any{}

	if in.Name != nil {
		if err := validators.NameValidator(*in.Name); err != nil {
			return nil, ErrInvalidName
		}

		updates["name"] = strings.TrimSpace(*in.Name)
	}

	if in.Image != nil {
		if *in.Image == "" {
			updates["image"] = nil
		} else {
			updates["image"] = *in.Image
		}
	}

	if len(updates) > 0 {
		updates["updated_at"] = s.now()

		r := s.db.WithContext(ctx).
			Model(model.User{}).
			Where("id = ?", userID).
			Updates(updates)
		if r.Error != nil {
			return nil, fmt.Errorf("failed to update user, %w", r.Error)
		}

		if r.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}

		s.forgetUserSessions(ctx, userID)
	}

	return s.GetUser(ctx, userID)
}
