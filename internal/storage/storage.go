// Package storage abstracts where uploaded bytes (avatars, task
// attachments) live.  The application only ever needs two capabilities:
// put a buffer somewhere public and delete it again by key.
package storage

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "strings"
)

// Uploader stores uploaded files and serves them under a public URL.
type Uploader interface {
    // Upload writes data under key and returns the public URL it will be
    // served from.
    Upload(ctx context.Context, key string, data []byte) (string, error)
    // Delete removes a previously uploaded object.  Deleting a missing
    // key is not an error.
    Delete(ctx context.Context, key string) error
}

// DiskStorage implements Uploader on the local filesystem.  Files are
// written under BaseDir and assumed to be served by the HTTP layer (or a
// reverse proxy) under BaseURL.
type DiskStorage struct {
    BaseDir string
    BaseURL string
}

// NewDiskStorage creates the base directory if needed and returns a
// filesystem-backed Uploader.
func NewDiskStorage(baseDir, baseURL string) (*DiskStorage, error) {
    if err := os.MkdirAll(baseDir, 0o755); err != nil {
        return nil, fmt.Errorf("create upload dir: %w", err)
    }
    return &DiskStorage{BaseDir: baseDir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (d *DiskStorage) Upload(_ context.Context, key string, data []byte) (string, error) {
    path := filepath.Join(d.BaseDir, filepath.FromSlash(key))
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return "", err
    }
    if err := os.WriteFile(path, data, 0o644); err != nil {
        return "", err
    }
    return d.BaseURL + "/" + key, nil
}

func (d *DiskStorage) Delete(_ context.Context, key string) error {
    err := os.Remove(filepath.Join(d.BaseDir, filepath.FromSlash(key)))
    if os.IsNotExist(err) {
        return nil
    }
    return err
}
