package app

import (
	"errors"

	"travel-journal/internal/media"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("not allowed to modify this entry")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
)

var (
	ErrInvalidMediaType   = media.ErrInvalidMediaType
	ErrPayloadTooLarge    = media.ErrPayloadTooLarge
	ErrTooManyAttachments = media.ErrTooManyAttachments
)
