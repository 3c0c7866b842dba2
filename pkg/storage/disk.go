// Package storage is the file storage layer for menu images.
//
// Two drivers are available:
//   - "local": local filesystem (default), served under STORAGE_URL
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//	disk, err := storage.Open(ctx)
//	err = disk.Put(ctx, "menu/abc.jpg", file, "image/jpeg")
//	url := disk.URL("menu/abc.jpg")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/shashiranjanraj/grinfood/config"
)

// ErrNotFound is returned by Get for a missing file.
var ErrNotFound = errors.New("storage: file not found")

// ErrInvalidPath is returned for absolute paths or paths escaping the root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes r to p, replacing any existing file.
	Put(ctx context.Context, p string, r io.Reader, contentType string) error
	// Get opens the file at p. The caller must close it.
	Get(ctx context.Context, p string) (io.ReadCloser, error)
	Exists(ctx context.Context, p string) (bool, error)
	// Delete removes a file. It returns nil if the file did not exist.
	Delete(ctx context.Context, p string) error
	// URL returns the public URL for p.
	URL(p string) string
}

// Open returns the disk selected by STORAGE_DISK.
func Open(ctx context.Context) (Disk, error) {
	switch d := config.StorageDefault(); d {
	case "local", "":
		return NewLocal(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unknown STORAGE_DISK %q", d)
	}
}

// clean normalises a slash-separated relative path.
func clean(p string) (string, error) {
	p = strings.TrimLeft(p, "/")
	c := path.Clean(p)
	if p == "" || c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return c, nil
}
