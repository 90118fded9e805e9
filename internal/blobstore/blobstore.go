// Package blobstore lists, reads and writes corpus images in object storage.
package blobstore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

var ErrNotFound = errors.New("object not found")

// Store is a read-only view over named collections of objects (buckets).
type Store interface {
	// List returns every object name in corpus, in the backend's listing
	// order. Placeholder "directory" entries are omitted.
	List(ctx context.Context, corpus string) ([]string, error)

	// Open streams one object. Missing objects wrap ErrNotFound.
	Open(ctx context.Context, corpus, name string) (io.ReadCloser, error)
}

// Writer adds and removes objects. Uploaded query images are written
// through it so they sit in the corpus for the duration of one run.
type Writer interface {
	Put(ctx context.Context, corpus, name string, r io.Reader, contentType string) error

	// Delete removes one object. Missing objects wrap ErrNotFound.
	Delete(ctx context.Context, corpus, name string) error
}

// ReadWriter is a Store that can also write.
type ReadWriter interface {
	Store
	Writer
}

// PublicURL builds <base>/<corpus>/<name> with each segment of name escaped.
func PublicURL(base, corpus, name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(corpus) + "/" + strings.Join(segments, "/")
}
