// Package app assembles the match pipeline and its optional persistence from
// configuration. The CLI and the API server share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/acquire"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore/fs"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore/gcs"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore/s3"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/config"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/database"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/diagnostic"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/face"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/repository"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/scanner"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/staging"
)

const sinkTimeout = 5 * time.Second

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Recorder *diagnostic.Recorder
	Pipeline *pipeline.Pipeline
	Store    blobstore.Store

	// Set only when DATABASE_URL is configured.
	DB          *pgxpool.Pool
	Audits      *repository.ScanAuditRepository
	RateLimiter *ratelimit.RateLimiter

	closers []func() error
}

// Overrides replaces the store or extractor chosen from configuration.
// Tests use it to run the full stack without network services.
type Overrides struct {
	Store     blobstore.Store
	Extractor provider.Extractor
}

// Build wires every component selected by cfg. Resources opened along the
// way are released by Close, also when Build fails half way.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, ov Overrides) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var sink diagnostic.Sink = diagnostic.NopSink{}
	if cfg.LogEndpoint != "" {
		sink = diagnostic.NewHTTPSink(cfg.LogEndpoint, sinkTimeout)
	}
	a.Recorder = diagnostic.NewRecorder(logger, sink)

	store := ov.Store
	if store == nil {
		if store, err = a.newStore(ctx); err != nil {
			return nil, err
		}
	}

	a.Store = store

	extractor := ov.Extractor
	if extractor == nil {
		if extractor, err = face.NewExtractor(cfg); err != nil {
			return nil, err
		}
		if c, ok := extractor.(io.Closer); ok {
			a.closers = append(a.closers, c.Close)
		}
	}

	counter, err := face.NewFaceCounter(ctx, cfg, extractor)
	if err != nil {
		return nil, err
	}

	policy, err := pipeline.PolicyByName(cfg.CanonicalPolicy)
	if err != nil {
		return nil, err
	}

	stager := staging.New(cfg.StagingDir)

	sc := scanner.New(store, extractor, stager, a.Recorder, scanner.Config{
		Workers:       cfg.ScanWorkers,
		EntryTimeout:  cfg.EntryTimeout,
		FoldExclusion: cfg.ExcludeMatch == "fold",
	})

	fetcher := acquire.NewFetcher(acquire.Config{
		Timeout:        cfg.AcquireTimeout,
		Retries:        cfg.AcquireRetries,
		MaxBytes:       cfg.AcquireMaxBytes,
		InitialBackoff: acquire.DefaultConfig().InitialBackoff,
		UserAgent:      acquire.DefaultConfig().UserAgent,
	})

	var opts []pipeline.Option
	if counter != nil {
		opts = append(opts, pipeline.WithFaceCounter(counter))
	}

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		a.DB = pool
		a.Audits = repository.NewScanAuditRepository(pool)
		a.RateLimiter = ratelimit.NewRateLimiter(pool, time.Minute)
		opts = append(opts, pipeline.WithAuditor(a.Audits))
	}

	a.Pipeline = pipeline.New(fetcher, stager, extractor, sc, a.Recorder, pipeline.Config{
		Threshold: cfg.MatchThreshold,
		Policy:    policy,
	}, opts...)

	logger.Debug("pipeline ready",
		slog.String("provider", extractor.Name()),
		slog.String("blob_backend", cfg.BlobBackend),
		slog.Float64("threshold", cfg.MatchThreshold),
		slog.Int("workers", cfg.ScanWorkers),
		slog.Bool("preflight", counter != nil),
		slog.Bool("database", cfg.HasDatabase()),
	)

	return a, nil
}

func (a *App) newStore(ctx context.Context) (blobstore.Store, error) {
	switch a.Config.BlobBackend {
	case "gcs", "":
		st, err := gcs.New(ctx, a.Config.GCSCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("create gcs store: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		return st, nil

	case "s3":
		st, err := s3.New(ctx, s3.Config{
			Region:       a.Config.AWSRegion,
			Endpoint:     a.Config.S3Endpoint,
			UsePathStyle: a.Config.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 store: %w", err)
		}
		return st, nil

	case "fs":
		return fs.New(), nil

	default:
		return nil, fmt.Errorf("unknown blob backend: %s (supported: gcs, s3, fs)", a.Config.BlobBackend)
	}
}

// UploadStore returns the corpus store when its backend accepts writes.
func (a *App) UploadStore() (blobstore.Writer, bool) {
	w, ok := a.Store.(blobstore.Writer)
	return w, ok
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
