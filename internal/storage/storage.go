// Package storage keeps uploaded binary objects (profile avatars) outside the
// relational database, either on local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"` // in bytes
	ContentType string    `json:"content_type"`
	Hash        string    `json:"hash"` // sha256 of content, hex
	StoredAt    time.Time `json:"stored_at"`
}

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data io.Reader) (*Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	// Delete is idempotent: removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
