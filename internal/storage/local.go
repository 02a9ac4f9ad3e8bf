package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "uploads"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) Store(ctx context.Context, userID int64, filename, contentType string, size int64, content io.Reader) (string, error) {
	key := newKey(userID, filename)

	fullPath := filepath.Join(ls.basePath, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return key, nil
}

func (ls *LocalStorage) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := ls.safePath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found")
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := ls.safePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (ls *LocalStorage) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return fmt.Sprintf("/files/%s", key), nil
}

func (ls *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := ls.safePath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// safePath rejects keys that would escape the base directory.
func (ls *LocalStorage) safePath(key string) (string, error) {
	fullPath := filepath.Join(ls.basePath, key)

	absBase, err := filepath.Abs(ls.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absFull, absBase) {
		return "", fmt.Errorf("invalid file path: path traversal detected")
	}
	return fullPath, nil
}

// newKey shapes keys as user_id/year/month/uuid_filename so a user's
// uploads stay grouped and names never collide.
func newKey(userID int64, filename string) string {
	now := time.Now()
	return fmt.Sprintf("%d/%d/%02d/%s_%s",
		userID,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		sanitizeFilename(filename),
	)
}
