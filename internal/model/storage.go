package model

import (
	"context"
	"io"
)

// Storage is an object store.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}
