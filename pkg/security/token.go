package security

import (
	"encoding/hex"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength        = 32
	tokenByteLength = 32
)

// NewID returns a random 32 character alphanumeric ID used as a primary key
func NewID() (string, error) {
	return gonanoid.Generate(alphabet, idLength)
}

// NewSessionToken returns a random 32 character alphanumeric session token
func NewSessionToken() (string, error) {
	return gonanoid.Generate(alphabet, idLength)
}

// NewVerificationToken returns a random hex encoded token for links sent by mail
func NewVerificationToken() (string, error) {
	b, err := RandBytes(tokenByteLength)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
