package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/diagnostic"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

type stubFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *stubFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type memStore struct {
	names []string
	image []byte
}

func (m *memStore) List(context.Context, string) ([]string, error) {
	return m.names, nil
}

func (m *memStore) Open(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.image)), nil
}

// scriptedExtractor returns canned detections keyed by image ref.
type scriptedExtractor struct {
	mu    sync.Mutex
	faces map[string][]provider.Detection
	errs  map[string]error
	refs  []string
}

func (s *scriptedExtractor) Name() string { return "scripted" }

func (s *scriptedExtractor) Extract(_ context.Context, img *imaging.Image) ([]provider.Detection, error) {
	s.mu.Lock()
	s.refs = append(s.refs, img.Ref)
	s.mu.Unlock()
	if err := s.errs[img.Ref]; err != nil {
		return nil, err
	}
	return s.faces[img.Ref], nil
}

func (s *scriptedExtractor) extracted(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.refs {
		if r == ref {
			return true
		}
	}
	return false
}

type stubCounter struct {
	n   int
	err error
}

func (c stubCounter) CountFaces(context.Context, *imaging.Image) (int, error) {
	return c.n, c.err
}

type memAuditor struct {
	audits []*domain.ScanAudit
	err    error
}

func (a *memAuditor) Create(_ context.Context, audit *domain.ScanAudit) error {
	a.audits = append(a.audits, audit)
	return a.err
}

func det(embedding ...float64) provider.Detection {
	return provider.Detection{Embedding: embedding}
}

func box(w, h float64, embedding ...float64) provider.Detection {
	return provider.Detection{
		Box:       provider.BoundingBox{Width: w, Height: h},
		Embedding: embedding,
	}
}

type eventSink struct {
	mu     sync.Mutex
	events []diagnostic.Event
}

func (s *eventSink) Send(_ context.Context, e diagnostic.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *eventSink) levels() []diagnostic.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]diagnostic.Level, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Level)
	}
	return out
}

func (s *eventSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Message)
	}
	return out
}
