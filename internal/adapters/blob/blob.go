// Package blob stores uploaded images (member portraits, gallery artwork)
// behind a small driver interface. The content store writes image bytes
// here and keeps only the returned public URL in the entity record.
package blob

import (
	"context"
	"errors"
	"io"
)

// Driver identifies a blob backend driver.
type Driver string

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem Driver = "filesystem"
	// DriverS3 is the S3-compatible driver.
	DriverS3 Driver = "s3"
	// DriverMemory is the in-memory test driver.
	DriverMemory Driver = "memory"
)

// Store errors
var (
	ErrNotFound   = errors.New("blob not found")
	ErrEmptyKey   = errors.New("blob key cannot be empty")
	ErrBadDriver  = errors.New("unknown blob driver")
	ErrEmptyBytes = errors.New("blob content cannot be empty")
)

// Store is the interface for blob storage backends.
type Store interface {
	// Put writes the content under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, content io.Reader) (string, error)
	// Delete removes the blob; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
