package ratelimit

import "errors"

// Sentinel errors for this package.
var (
	ErrInvalidPolicy    = errors.New("invalid rate limit policy")
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)
