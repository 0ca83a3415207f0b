// Package storage persists proof-of-payment and ticket-photo blobs in an
// S3-compatible object store (MinIO in the reference deployment).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a requested blob does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the blob persistence contract.
type ObjectStore interface {
	Put(ctx context.Context, key string, content io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds a collision-free storage path of the form
// {category}/{uuid}_{unix}.{ext}.
func ObjectKey(category, ext string) string {
	return fmt.Sprintf("%s/%s_%d.%s", category, uuid.NewString(), time.Now().Unix(), ext)
}
