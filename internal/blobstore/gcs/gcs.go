// Package gcs serves corpora from Google Cloud Storage buckets.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
)

type Store struct {
	client *storage.Client
}

// New creates a client from a service account file, or from Application
// Default Credentials when credentialsFile is empty. Extra options are
// appended (endpoint overrides in tests).
func New(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*Store, error) {
	if credentialsFile != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsFile)}, opts...)
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) List(ctx context.Context, corpus string) ([]string, error) {
	it := s.client.Bucket(corpus).Objects(ctx, nil)

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s: %w", corpus, err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		names = append(names, attrs.Name)
	}

	return names, nil
}

func (s *Store) Open(ctx context.Context, corpus, name string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(corpus).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", corpus, name, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("open gs://%s/%s: %w", corpus, name, err)
	}
	return r, nil
}

func (s *Store) Put(ctx context.Context, corpus, name string, r io.Reader, contentType string) error {
	w := s.client.Bucket(corpus).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", corpus, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", corpus, name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, corpus, name string) error {
	if err := s.client.Bucket(corpus).Object(name).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("gs://%s/%s: %w", corpus, name, blobstore.ErrNotFound)
		}
		return fmt.Errorf("delete gs://%s/%s: %w", corpus, name, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

var _ blobstore.ReadWriter = (*Store)(nil)
