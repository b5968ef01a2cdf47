package app

import "errors"

var (
	// ErrNoExtraction rejects a follow-up question before any image has
	// been processed since the last reset.
	ErrNoExtraction = errors.New("no extracted data available: process an image first")
	// ErrExternalService wraps a failed or timed-out hosted model call.
	// The caller may retry the same request.
	ErrExternalService = errors.New("external model call failed")
	// ErrInvalidAsset indicates the image upload or a stored asset id could
	// not be resolved to readable bytes.
	ErrInvalidAsset = errors.New("invalid or unreadable image")
	// ErrInvalidMode rejects an unknown processing mode or a manual mode
	// request without an instruction.
	ErrInvalidMode = errors.New("invalid processing mode")
	// ErrEmptyQuestion rejects a follow-up with a blank question.
	ErrEmptyQuestion = errors.New("question is required")
)
