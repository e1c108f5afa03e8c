package service

import (
	"context"
	"errors"

	"bitwise74/web-starter/internal/auth"

	"go.uber.org/zap"
)

const (
	DemoName     = "Demo User"
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
)

// Seed creates the demo user. An existing demo user is left alone
func Seed(ctx context.Context, a *auth.Service) error {
	_, err := a.SignUpEmail(ctx, auth.SignUpInput{
		Name:     DemoName,
		Email:    DemoEmail,
		Password: DemoPassword,
	})
	if errors.Is(err, auth.ErrUserAlreadyExists) {
		zap.L().Info("Demo user already exists, skipping", zap.String("email", DemoEmail))
		return nil
	}

	if err != nil {
		return err
	}

	zap.L().Info("Created demo user", zap.String("email", DemoEmail), zap.String("password", DemoPassword))
	return nil
}
