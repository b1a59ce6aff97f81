package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Delete when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Blob is the minimal object store surface the product photo pipeline needs.
type Blob interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
