package types

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource already exists")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrSessionExpired   = errors.New("session expired")
	ErrValidationFailed = errors.New("validation failed")
)
