package service

import "errors"

// Sentinel errors returned by the auth services. Handlers map these onto the
// HTTP status contract; everything else is treated as an internal error.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("too many attempts, try again later")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenTypeMismatch  = errors.New("token type mismatch")
	ErrMFANotConfigured   = errors.New("MFA not configured for this user")
	ErrMFAAlreadyEnabled  = errors.New("MFA already enabled for this user")
	ErrInvalidMFACode     = errors.New("invalid MFA code")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrNotFound           = errors.New("not found")
)
