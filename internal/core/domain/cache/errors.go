package cache

import "errors"

var (
	ErrEmptyKey       = errors.New("cache key must not be empty")
	ErrInvalidTTL     = errors.New("cache ttl must be positive")
	ErrSerialization  = errors.New("cache value serialization failed")
	ErrInvalidKeyPart = errors.New("cache key part must be non-empty and free of ':' and '*'")
)
