package auth

import "net/http"

// Error is returned by every Service method for failures the caller can act
// on. Message is safe to show to the user as is
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUserAlreadyExists      = &Error{"USER_ALREADY_EXISTS", "User already exists", http.StatusUnprocessableEntity}
	ErrInvalidEmailOrPassword = &Error{"INVALID_EMAIL_OR_PASSWORD", "Invalid email or password", http.StatusUnauthorized}
	ErrInvalidEmail           = &Error{"INVALID_EMAIL", "Invalid email", http.StatusBadRequest}
	ErrPasswordTooShort       = &Error{"PASSWORD_TOO_SHORT", "Password too short", http.StatusBadRequest}
	ErrPasswordTooLong        = &Error{"PASSWORD_TOO_LONG", "Password too long", http.StatusBadRequest}
	ErrInvalidName            = &Error{"INVALID_NAME", "Name is required and must be at most 255 characters", http.StatusBadRequest}
	ErrSessionNotFound        = &Error{"SESSION_NOT_FOUND", "Session not found", http.StatusUnauthorized}
	ErrUserNotFound           = &Error{"USER_NOT_FOUND", "User not found", http.StatusNotFound}
	ErrInvalidToken           = &Error{"INVALID_TOKEN", "Invalid token", http.StatusBadRequest}
	ErrTokenExpired           = &Error{"TOKEN_EXPIRED", "Token expired", http.StatusBadRequest}
	ErrEmailAlreadyVerified   = &Error{"EMAIL_ALREADY_VERIFIED", "Email is already verified", http.StatusBadRequest}
	ErrMailDisabled           = &Error{"MAIL_DISABLED", "Sending emails is disabled", http.StatusServiceUnavailable}
)
