package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/repository"
)

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
}

// MockMatchRunner is a mock implementation of MatchRunner
type MockMatchRunner struct {
	mock.Mock
}

func (m *MockMatchRunner) Run(ctx context.Context, imageURL, corpus string, opts ...pipeline.RunOption) (*domain.MatchResult, error) {
	args := m.Called(ctx, imageURL, corpus, len(opts))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

// MockAuditReader is a mock implementation of AuditReader
type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScanAudit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScanAudit), args.Error(1)
}

func (m *MockAuditReader) ListRecent(ctx context.Context, filter repository.ScanAuditFilter) ([]domain.ScanAudit, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScanAudit), args.Error(1)
}

// MockImageRunner is a mock implementation of ImageRunner
type MockImageRunner struct {
	mock.Mock
}

func (m *MockImageRunner) RunImage(ctx context.Context, data []byte, name, corpus string, opts ...pipeline.RunOption) (*domain.MatchResult, error) {
	args := m.Called(ctx, data, name, corpus, len(opts))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

// MockCorpusStore is a mock implementation of blobstore.Writer and CorpusLister
type MockCorpusStore struct {
	mock.Mock
}

func (m *MockCorpusStore) Put(ctx context.Context, corpus, name string, r io.Reader, contentType string) error {
	data, _ := io.ReadAll(r)
	return m.Called(ctx, corpus, name, data, contentType).Error(0)
}

func (m *MockCorpusStore) Delete(ctx context.Context, corpus, name string) error {
	return m.Called(ctx, corpus, name).Error(0)
}

func (m *MockCorpusStore) List(ctx context.Context, corpus string) ([]string, error) {
	args := m.Called(ctx, corpus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
