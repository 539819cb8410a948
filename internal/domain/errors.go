package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidTransition  = errors.New("invalid state transition")

	// model output failures
	ErrNoStructuredOutput = errors.New("model returned no structured output")
	ErrMalformedOutput    = errors.New("model output does not match schema")
	ErrPolicyViolation    = errors.New("model output violates safety score policy")
	ErrModelUnavailable   = errors.New("generative model not configured")
	ErrUpstream           = errors.New("upstream service failed")
)
