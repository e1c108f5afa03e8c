package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bitwise74/web-starter/pkg/security"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

var (
	ErrAvatarTooLarge    = errors.New("avatar exceeds the size limit")
	ErrAvatarUnsupported = errors.New("avatar must be a png, jpeg, gif or webp image")
)

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore is where avatars end up
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Key(url string) (string, bool)
}

type AvatarUploader struct {
	Store   ObjectStore
	MaxSize int64
}

func NewAvatarUploader(s ObjectStore, maxSize int64) *AvatarUploader {
	return &AvatarUploader{
		Store:   s,
		MaxSize: maxSize,
	}
}

// Upload sniffs the content type of r, stores it for userID and returns the
// public URL. r is read up to MaxSize bytes
func (u *AvatarUploader) Upload(ctx context.Context, userID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read avatar, %w", err)
	}

	if int64(len(data)) > u.MaxSize {
		return "", ErrAvatarTooLarge
	}

	mime := mimetype.Detect(data)
	contentType := mime.String()
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", ErrAvatarUnsupported
	}

	id, err := security.NewID()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	key := avatarPrefix(userID) + id + ext
	return u.Store.Put(ctx, key, bytes.NewReader(data), contentType)
}

// Remove deletes an avatar previously uploaded by userID. URLs that don't
// belong to the store or to another user's avatar prefix are ignored
func (u *AvatarUploader) Remove(ctx context.Context, userID, url string) {
	key, ok := u.Store.Key(url)
	if !ok || userID == "" || !strings.HasPrefix(key, avatarPrefix(userID)) {
		return
	}

	if err := u.Store.Delete(ctx, key); err != nil {
		zap.L().Warn("Failed to delete old avatar", zap.Error(err), zap.String("key", key))
	}
}

func avatarPrefix(userID string) string {
	return "avatars/" + userID + "/"
}
