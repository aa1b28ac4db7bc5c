package usecase

import "errors"

// Error taxonomy. Services wrap these with fmt.Errorf("...: %w", ...);
// handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyExists    = errors.New("already registered")
	ErrInvalidOrExpired = errors.New("invalid or expired OTP")
	ErrAlreadyActivated = errors.New("license already activated")
	ErrCodeMismatch     = errors.New("license code does not match the issued code")
	ErrDispatch         = errors.New("notification dispatch failed")
	ErrStorage          = errors.New("storage failure")
)
