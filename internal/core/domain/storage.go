package domain

import "errors"

// ErrKeyNotFound is returned by durable storage for an absent key.
var ErrKeyNotFound = errors.New("key not found")
