// Package fs serves corpora addressed by URL through viant/afs: local
// directories (plain paths or file://), mem:// in tests, and any scheme
// registered with afs.
package fs

import (
	"context"
	"fmt"
	"io"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
)

type Store struct {
	fs afs.Service
}

func New() *Store {
	return &Store{fs: afs.New()}
}

// List returns the files directly under corpus. Sub-directories are not
// descended into.
func (s *Store) List(ctx context.Context, corpus string) ([]string, error) {
	objects, err := s.fs.List(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", corpus, err)
	}

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		names = append(names, obj.Name())
	}
	return names, nil
}

func (s *Store) Open(ctx context.Context, corpus, name string) (io.ReadCloser, error) {
	target := url.Join(corpus, name)

	exists, err := s.fs.Exists(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", target, blobstore.ErrNotFound)
	}

	rc, err := s.fs.OpenURL(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}
	return rc, nil
}

func (s *Store) Put(ctx context.Context, corpus, name string, r io.Reader, _ string) error {
	target := url.Join(corpus, name)
	if err := s.fs.Upload(ctx, target, 0o644, r); err != nil {
		return fmt.Errorf("upload %s: %w", target, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, corpus, name string) error {
	target := url.Join(corpus, name)

	exists, err := s.fs.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", target, blobstore.ErrNotFound)
	}

	if err := s.fs.Delete(ctx, target); err != nil {
		return fmt.Errorf("delete %s: %w", target, err)
	}
	return nil
}

var _ blobstore.ReadWriter = (*Store)(nil)
