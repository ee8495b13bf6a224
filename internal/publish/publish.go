// Package publish copies export artifacts to a blob store.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver names a store backend.
type Driver string

const (
	DriverFS     Driver = "fs"
	DriverMemory Driver = "memory"
	DriverS3     Driver = "s3"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("object not found")

// Info describes a stored object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a flat key/value object store. Put overwrites existing keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Config selects and configures a store.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open builds the store named by cfg.Driver. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(strings.ToLower(string(cfg.Driver))) {
	case "", DriverFS:
		return NewFS(cfg.FSRoot)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown publish driver %q (want fs, memory or s3)", cfg.Driver)
	}
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	return path.Clean(key), nil
}

// Join builds an object key from path segments.
func Join(parts ...string) string {
	return path.Join(parts...)
}
