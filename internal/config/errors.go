package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. Every validation error wraps
// ErrInvalidConfig, so callers may match either the kind or the cause.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	ErrEmptyAddr        = fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	ErrUnknownBackend   = fmt.Errorf("%w: unknown rate_limit_backend", ErrInvalidConfig)
	ErrMissingRedisAddr = fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
	ErrNotPositive      = fmt.Errorf("%w: value must be positive", ErrInvalidConfig)
)
