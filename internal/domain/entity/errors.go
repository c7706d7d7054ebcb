package entity

import "errors"

// Standard domain errors
var (
	ErrMessageRequired  = errors.New("message is required")
	ErrEmptyCompletion  = errors.New("upstream returned no completion choices")
	ErrUnsupportedRole  = errors.New("unsupported conversation role")
	ErrMalformedHistory = errors.New("malformed conversation history")
)
