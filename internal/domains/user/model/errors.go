package model

import "library-lite/internal/shared/apperror"

var (
	ErrUserNotFound       = apperror.NotFound("USER001", "User not found")
	ErrEmailTaken         = apperror.Conflict("USER002", "Email already registered")
	ErrInvalidCredentials = apperror.Unauthorized("USER003", "Invalid email or password")
	ErrInvalidToken       = apperror.Unauthorized("USER004", "Invalid or expired token")
	ErrNotProvisioned     = apperror.Unauthorized("USER005", "Account is not provisioned in the library")
	ErrProfileForbidden   = apperror.Forbidden("USER006", "You can only access your own profile")
)
