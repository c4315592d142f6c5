package port

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when a key has never been written or
// has been removed.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the persistent store the data layer runs on. Values are
// opaque strings; callers own serialization.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
