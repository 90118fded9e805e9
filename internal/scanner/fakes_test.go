package scanner

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/diagnostic"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

var errBlobMissing = errors.New("blob missing")

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

// memStore serves a fixed listing. Every name is a valid PNG unless it has
// an override in blobs or an error in openErr.
type memStore struct {
	names   []string
	image   []byte
	blobs   map[string][]byte
	openErr map[string]error
	listErr error

	mu     sync.Mutex
	opened []string
}

func (m *memStore) List(context.Context, string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.names, nil
}

func (m *memStore) Open(_ context.Context, _ string, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.opened = append(m.opened, name)
	m.mu.Unlock()

	if err := m.openErr[name]; err != nil {
		return nil, err
	}
	if b, ok := m.blobs[name]; ok {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return io.NopCloser(bytes.NewReader(m.image)), nil
}

// scriptedExtractor returns canned detections keyed by image ref.
type scriptedExtractor struct {
	faces map[string][]provider.Detection
	errs  map[string]error
	// block makes Extract wait for ctx cancellation for the given refs
	block map[string]bool
	// hook runs before each extraction
	hook func(ref string)
}

func (s *scriptedExtractor) Name() string { return "scripted" }

func (s *scriptedExtractor) Extract(ctx context.Context, img *imaging.Image) ([]provider.Detection, error) {
	if s.hook != nil {
		s.hook(img.Ref)
	}
	if s.block[img.Ref] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := s.errs[img.Ref]; err != nil {
		return nil, err
	}
	return s.faces[img.Ref], nil
}

func det(embedding ...float64) provider.Detection {
	return provider.Detection{Embedding: embedding}
}

type countingProgress struct {
	mu       sync.Mutex
	total    int
	advanced []string
	finished bool
}

func (p *countingProgress) Start(total int) { p.total = total }

func (p *countingProgress) Advance(entry string, _ bool) {
	p.mu.Lock()
	p.advanced = append(p.advanced, entry)
	p.mu.Unlock()
}

func (p *countingProgress) Finish() { p.finished = true }

type captureSink struct {
	mu     sync.Mutex
	levels map[string]int
}

func (c *captureSink) Send(_ context.Context, e diagnostic.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.levels == nil {
		c.levels = map[string]int{}
	}
	c.levels[string(e.Level)]++
	return nil
}

func (c *captureSink) count(level string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels[level]
}
