// Package storage keeps uploaded objects in named buckets. Objects are
// addressed by slash-separated paths such as "42/<listing>/image-0.png".
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectExists   = errors.New("object already exists")
	ErrInvalidPath    = errors.New("invalid object path")
)

// Object describes a stored file.
type Object struct {
	Path        string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Bucket is one namespace of objects. Implementations must be safe for
// concurrent use.
type Bucket interface {
	// Put stores r under p. Without upsert an existing object is kept and
	// ErrObjectExists returned.
	Put(ctx context.Context, p string, r io.Reader, contentType string, upsert bool) error
	Open(ctx context.Context, p string) (io.ReadCloser, *Object, error)
	Remove(ctx context.Context, p string) error
	Exists(ctx context.Context, p string) (bool, error)
}

// Provider hands out buckets by name.
type Provider interface {
	Bucket(name string) Bucket
}

// CleanPath normalizes an object path and rejects anything that could
// escape the bucket.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", ErrInvalidPath
	}
	return clean, nil
}
