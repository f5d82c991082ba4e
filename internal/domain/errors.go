package domain

import "errors"

var (
	ErrNoSession         = errors.New("no active session")
	ErrInvalidType       = errors.New("invalid or unsupported image type")
	ErrTooLarge          = errors.New("file size exceeds maximum allowed")
	ErrCompressionFailed = errors.New("image compression failed")
	ErrProcessingFailed  = errors.New("background removal failed")
	ErrNotCompleted      = errors.New("processed result is not ready")
	ErrDeleteFailed      = errors.New("failed to release session resources")
	ErrHandleNotFound    = errors.New("handle is not registered")
)
