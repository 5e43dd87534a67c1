package service

import "errors"

// Error kinds the handlers translate into HTTP responses. Use cases
// never leak raw store or crypto errors past this boundary.
var (
	ErrEmailTaken         = errors.New("user already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	// ErrTokenReuse means a superseded refresh token was presented
	// while a newer one is stored: treated as theft, session cleared.
	ErrTokenReuse    = errors.New("refresh token reuse detected")
	ErrResetToken    = errors.New("wrong reset password token")
	ErrEmailDelivery = errors.New("sending reset email failed")
	ErrInternal      = errors.New("internal error")
)
