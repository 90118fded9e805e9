// Package pipeline runs one query end to end: acquire the query image,
// extract its canonical face and scan the corpus for the same identity.
// The query comes from a URL (Run) or from bytes already in hand (RunImage).
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/acquire"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/diagnostic"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/scanner"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/similarity"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/staging"
)

// Fetcher downloads the query image. Failures must be domain.ErrAcquisition.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Auditor persists a summary of each run.
type Auditor interface {
	Create(ctx context.Context, audit *domain.ScanAudit) error
}

type Config struct {
	Threshold float64
	Policy    CanonicalPolicy
}

func DefaultConfig() Config {
	return Config{Threshold: similarity.DefaultThreshold, Policy: FirstDetection}
}

type Pipeline struct {
	fetcher   Fetcher
	stager    *staging.Stager
	extractor provider.Extractor
	scanner   *scanner.Scanner
	recorder  *diagnostic.Recorder
	counter   provider.FaceCounter
	auditor   Auditor
	config    Config
}

type Option func(*Pipeline)

// WithFaceCounter enables the single-face preflight on the query image.
func WithFaceCounter(c provider.FaceCounter) Option {
	return func(p *Pipeline) {
		p.counter = c
	}
}

// WithAuditor records a ScanAudit for every run, successful or not.
func WithAuditor(a Auditor) Option {
	return func(p *Pipeline) {
		p.auditor = a
	}
}

func New(fetcher Fetcher, stager *staging.Stager, extractor provider.Extractor, sc *scanner.Scanner, recorder *diagnostic.Recorder, config Config, opts ...Option) *Pipeline {
	if config.Policy == nil {
		config.Policy = FirstDetection
	}
	if recorder == nil {
		recorder = diagnostic.Discard()
	}
	p := &Pipeline{
		fetcher:   fetcher,
		stager:    stager,
		extractor: extractor,
		scanner:   sc,
		recorder:  recorder,
		config:    config,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type runOptions struct {
	threshold *float64
	progress  scanner.Progress
}

type RunOption func(*runOptions)

// WithThreshold overrides the configured threshold for one run.
func WithThreshold(t float64) RunOption {
	return func(o *runOptions) {
		o.threshold = &t
	}
}

// WithProgress reports corpus scan progress.
func WithProgress(p scanner.Progress) RunOption {
	return func(o *runOptions) {
		o.progress = p
	}
}

// query is the image a run searches for. load returns its bytes; name is
// the corpus entry excluded from the scan.
type query struct {
	ref  string
	name string
	load func(ctx context.Context) ([]byte, error)
}

// Run finds the corpus entries showing the identity of the face in the
// image at imageURL. The first fatal error is returned as a *domain.AppError
// or *domain.ExtractionError; per-entry corpus failures are not fatal.
func (p *Pipeline) Run(ctx context.Context, imageURL, corpus string, opts ...RunOption) (*domain.MatchResult, error) {
	return p.run(ctx, query{
		ref:  imageURL,
		name: acquire.ExclusionName(imageURL),
		load: func(ctx context.Context) ([]byte, error) {
			data, err := p.fetcher.Fetch(ctx, imageURL)
			if err != nil {
				p.recorder.Error(ctx, "Failed to download image from URL", map[string]any{"error": err.Error()})
				return nil, err
			}
			p.recorder.Info(ctx, "Downloaded input image from URL", map[string]any{"bytes": len(data)})
			return data, nil
		},
	}, corpus, opts...)
}

// RunImage is Run for an image the caller already holds, typically an
// upload stored in the corpus as name. That entry is excluded from the scan.
func (p *Pipeline) RunImage(ctx context.Context, data []byte, name, corpus string, opts ...RunOption) (*domain.MatchResult, error) {
	return p.run(ctx, query{
		ref:  name,
		name: name,
		load: func(context.Context) ([]byte, error) {
			if len(data) == 0 {
				return nil, domain.ErrUsage.WithError(errors.New("empty image"))
			}
			return data, nil
		},
	}, corpus, opts...)
}

func (p *Pipeline) run(ctx context.Context, q query, corpus string, opts ...RunOption) (result *domain.MatchResult, err error) {
	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	threshold := p.config.Threshold
	if o.threshold != nil {
		threshold = *o.threshold
	}

	start := time.Now()
	runID := uuid.New()

	defer func() {
		p.audit(ctx, runID, q.name, corpus, threshold, start, result, err)
	}()

	if q.ref == "" || corpus == "" {
		return nil, domain.ErrUsage
	}
	if !similarity.ValidThreshold(threshold) {
		return nil, domain.ErrUsage.WithError(fmt.Errorf("threshold %v outside [-1, 1]", threshold))
	}

	target, err := p.canonicalEmbedding(ctx, q)
	if err != nil {
		return nil, err
	}

	scan, err := p.scanner.Scan(ctx, scanner.Request{
		Corpus:    corpus,
		Exclude:   q.name,
		Target:    target,
		Threshold: threshold,
		Progress:  o.progress,
	})
	if err != nil {
		return nil, err
	}

	p.recorder.Info(ctx, "Face matching completed successfully.", map[string]any{
		"run_id":  runID.String(),
		"matches": len(scan.Matches),
	})

	return &domain.MatchResult{
		RunID:           runID,
		Query:           q.ref,
		Corpus:          corpus,
		Threshold:       threshold,
		MatchingEntries: scan.Matches,
		Stats:           scan.Stats,
		Duration:        time.Since(start),
	}, nil
}

// canonicalEmbedding loads and stages the query, then extracts the
// embedding of its canonical face. The staged file is removed before
// returning on every path.
func (p *Pipeline) canonicalEmbedding(ctx context.Context, q query) ([]float64, error) {
	data, err := q.load(ctx)
	if err != nil {
		return nil, err
	}

	stageName := q.name
	if stageName == "" {
		stageName = "query.jpg"
	}
	file, err := p.stager.Stage(bytes.NewReader(data), stageName)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}
	defer func() {
		if err := file.Release(); err != nil {
			p.recorder.Warn(ctx, "Failed to delete temporary image file", map[string]any{"path": file.Path, "error": err.Error()})
			return
		}
		p.recorder.Info(ctx, "Temporary image file deleted.", map[string]any{"path": file.Path})
	}()

	img, err := imaging.DecodeFile(q.ref, file.Path)
	if err != nil {
		p.recorder.Error(ctx, "Error during face detection and embedding computation", map[string]any{"error": err.Error()})
		return nil, err
	}

	if p.counter != nil {
		if err := p.preflight(ctx, img); err != nil {
			return nil, err
		}
	}

	detections, err := p.extractor.Extract(ctx, img)
	if err != nil {
		p.recorder.Error(ctx, "Error during face detection and embedding computation", map[string]any{"error": err.Error()})
		return nil, err
	}
	p.recorder.Info(ctx, fmt.Sprintf("Detected %d face(s) in the image.", len(detections)), nil)

	canonical, err := SelectCanonicalDetection(detections, p.config.Policy)
	if err != nil {
		p.recorder.Warn(ctx, "No face detected in the input image.", nil)
		return nil, err
	}
	return canonical.Embedding, nil
}

func (p *Pipeline) preflight(ctx context.Context, img *imaging.Image) error {
	n, err := p.counter.CountFaces(ctx, img)
	if err != nil {
		p.recorder.Error(ctx, "Face count preflight failed", map[string]any{"error": err.Error()})
		return err
	}
	switch {
	case n == 0:
		p.recorder.Warn(ctx, "No face detected in the input image.", map[string]any{"stage": "preflight"})
		return domain.ErrNoFaceDetected
	case n > 1:
		p.recorder.Warn(ctx, "Multiple faces detected in the input image.", map[string]any{"faces": n})
		return domain.ErrMultipleFaces
	}
	return nil
}

func (p *Pipeline) audit(ctx context.Context, runID uuid.UUID, queryName, corpus string, threshold float64, start time.Time, result *domain.MatchResult, runErr error) {
	if p.auditor == nil {
		return
	}

	record := &domain.ScanAudit{
		ID:        runID,
		QueryName: queryName,
		Corpus:    corpus,
		Threshold: threshold,
		LatencyMs: time.Since(start).Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
	if result != nil {
		record.MatchesCount = len(result.MatchingEntries)
		record.Candidates = result.Stats.Candidates
		record.Skipped = result.Stats.Skipped
	}
	if runErr != nil {
		code := domain.AsAppError(runErr).Code
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			code = "CANCELLED"
		}
		record.ErrorCode = &code
	}

	if err := p.auditor.Create(context.WithoutCancel(ctx), record); err != nil {
		p.recorder.Warn(ctx, "Failed to record scan audit", map[string]any{"run_id": runID.String(), "error": err.Error()})
	}
}
