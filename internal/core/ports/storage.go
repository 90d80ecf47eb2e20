package ports

import "context"

// KeyValueStore is durable, string-valued storage: the browser's local
// storage on the client side, a Redis namespace on the server side.
type KeyValueStore interface {
	// Get returns domain.ErrKeyNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// SessionStorage hands out the durable storage of one server-side session
// and indexes sessions by user so they can be ended together.
type SessionStorage interface {
	Namespace(sessionID string) KeyValueStore
	// Track records that sessionID belongs to userID.
	Track(ctx context.Context, userID, sessionID string) error
	// RevokeUser deletes every tracked session of userID and reports how
	// many were ended.
	RevokeUser(ctx context.Context, userID string) (int, error)
}
