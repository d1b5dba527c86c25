package storage

import (
	"errors"
	"io"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("blob not found")

// BlobStore holds uploaded scan images.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
