package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Storage abstracts where registration documents live. Keys are opaque
// to callers; only the metadata rows in the database reference them.
type Storage interface {
	// Store saves a blob and returns its storage key.
	Store(ctx context.Context, userID int64, filename, contentType string, size int64, content io.Reader) (string, error)

	// Retrieve opens a blob by storage key.
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a blob. Missing blobs are not an error.
	Delete(ctx context.Context, key string) error

	// GetURL returns a signed URL (S3) or a servable path (local).
	GetURL(ctx context.Context, key string, expiration time.Duration) (string, error)

	// Exists reports whether a blob is present.
	Exists(ctx context.Context, key string) (bool, error)
}

type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

type Config struct {
	Type      Type
	LocalPath string
	S3Bucket  string
	S3Region  string
}

// New builds the backend named by the config.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		return NewS3Storage(cfg.S3Bucket, cfg.S3Region)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(filename)
}
