package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/config"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		FaceProvider:      "mock",
		PreflightProvider: "extractor",
		BlobBackend:       "fs",
		MatchThreshold:    0.91,
		CanonicalPolicy:   "first",
		ExcludeMatch:      "exact",
		ScanWorkers:       1,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "fs backend with mock provider"},
		{name: "largest policy", mutate: func(c *config.Config) { c.CanonicalPolicy = "largest" }},
		{name: "extractor preflight", mutate: func(c *config.Config) { c.RequireSingleFace = true }},
		{name: "sink endpoint", mutate: func(c *config.Config) { c.LogEndpoint = "http://127.0.0.1:1/capture-logs" }},
		{name: "unknown backend", mutate: func(c *config.Config) { c.BlobBackend = "ftp" }, wantErr: "unknown blob backend"},
		{name: "unknown provider", mutate: func(c *config.Config) { c.FaceProvider = "magic" }, wantErr: "unknown provider type"},
		{name: "unknown policy", mutate: func(c *config.Config) { c.CanonicalPolicy = "tallest" }, wantErr: "unknown canonical policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			a, err := Build(context.Background(), cfg, testLogger(), Overrides{})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, a.Close()) }()

			assert.NotNil(t, a.Pipeline)
			assert.NotNil(t, a.Recorder)
			assert.Nil(t, a.DB)
			assert.Nil(t, a.Audits)
		})
	}
}

func TestBuild_Overrides(t *testing.T) {
	cfg := testConfig()
	cfg.BlobBackend = "gcs"
	cfg.FaceProvider = "deepface"

	// overrides skip credential lookup and remote provider setup
	a, err := Build(context.Background(), cfg, testLogger(), Overrides{
		Store:     memStore{},
		Extractor: mock.New(),
	})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	assert.NotNil(t, a.Pipeline)

	_, ok := a.UploadStore()
	assert.False(t, ok, "read-only store does not accept uploads")
}

func TestBuild_FSStoreAcceptsUploads(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), testLogger(), Overrides{})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NotNil(t, a.Store)
	w, ok := a.UploadStore()
	assert.True(t, ok)
	assert.NotNil(t, w)
}

func TestApp_CloseRunsInReverse(t *testing.T) {
	var order []int
	a := &App{}
	for i := 1; i <= 3; i++ {
		i := i
		a.closers = append(a.closers, func() error {
			order = append(order, i)
			return nil
		})
	}

	require.NoError(t, a.Close())
	assert.Equal(t, []int{3, 2, 1}, order)
	require.NoError(t, a.Close(), "second close is a no-op")
}

type memStore struct{}

func (memStore) List(context.Context, string) ([]string, error) { return nil, nil }

func (memStore) Open(context.Context, string, string) (io.ReadCloser, error) {
	return nil, io.EOF
}
