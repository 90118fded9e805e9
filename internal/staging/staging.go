// Package staging holds downloaded images in temporary files for the
// duration of one extraction.
package staging

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
)

// Stager creates staged files under Dir (os.TempDir when empty).
type Stager struct {
	Dir string
}

func New(dir string) *Stager {
	return &Stager{Dir: dir}
}

// File is a staged copy. Release removes it and is safe to call more than
// once and from several goroutines.
type File struct {
	Path string
	Size int64

	once sync.Once
	err  error
}

// Stage copies r into a new temporary file. The extension of name is kept
// so decoders and external tools can sniff the type from the path. On
// error nothing is left behind.
func (s *Stager) Stage(r io.Reader, name string) (*File, error) {
	ext := strings.ToLower(path.Ext(name))
	if strings.ContainsAny(ext, `/\*`) {
		ext = ""
	}

	tmp, err := os.CreateTemp(s.Dir, "facefinder-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return nil, fmt.Errorf("write staging file: %w", copyErr)
		}
		return nil, fmt.Errorf("close staging file: %w", closeErr)
	}

	return &File{Path: tmp.Name(), Size: n}, nil
}

// Release deletes the staged file. A file that is already gone is not an
// error.
func (f *File) Release() error {
	if f == nil {
		return nil
	}
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			f.err = fmt.Errorf("remove staging file: %w", err)
		}
	})
	return f.err
}
