// Package scanner walks a corpus and reports the entries that contain a
// face matching a target embedding.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/diagnostic"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/similarity"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/staging"
)

type Config struct {
	// Workers bounds concurrent entry processing. 1 is strictly sequential.
	Workers int
	// EntryTimeout bounds fetch and extraction of one entry. 0 disables it.
	EntryTimeout time.Duration
	// FoldExclusion compares the exclusion name case- and
	// normalisation-insensitively instead of byte for byte.
	FoldExclusion bool
}

func DefaultConfig() Config {
	return Config{Workers: 1, EntryTimeout: 60 * time.Second}
}

type Request struct {
	Corpus    string
	Exclude   string
	Target    []float64
	Threshold float64
	Progress  Progress
}

type Result struct {
	// Matches holds matching entry names in listing order, each once.
	Matches []string
	Stats   domain.ScanStats
}

type Scanner struct {
	store     blobstore.Store
	extractor provider.Extractor
	stager    *staging.Stager
	recorder  *diagnostic.Recorder
	config    Config
}

func New(store blobstore.Store, extractor provider.Extractor, stager *staging.Stager, recorder *diagnostic.Recorder, config Config) *Scanner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if recorder == nil {
		recorder = diagnostic.Discard()
	}
	return &Scanner{
		store:     store,
		extractor: extractor,
		stager:    stager,
		recorder:  recorder,
		config:    config,
	}
}

// Scan lists the corpus, filters it and compares every remaining entry
// against req.Target. A listing failure, a dimension mismatch or
// cancellation of ctx aborts the scan; any other per-entry failure is
// recorded and the entry skipped.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	progress := req.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	names, err := s.store.List(ctx, req.Corpus)
	if err != nil {
		s.recorder.Error(ctx, "Error during face matching in corpus", map[string]any{
			"corpus": req.Corpus,
			"error":  err.Error(),
		})
		return nil, domain.ErrCorpusScan.WithError(err)
	}

	stats := domain.ScanStats{Listed: len(names)}
	exclude := newExclusion(req.Exclude, s.config.FoldExclusion)

	candidates := make([]domain.CorpusEntry, 0, len(names))
	for _, name := range names {
		entry, ok := domain.NewCorpusEntry(name)
		if !ok {
			stats.Filtered++
			continue
		}
		if exclude.matches(name) {
			stats.Excluded++
			continue
		}
		candidates = append(candidates, entry)
	}
	stats.Candidates = len(candidates)

	progress.Start(len(candidates))
	defer progress.Finish()

	set := newMatchSet(len(candidates))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for i, entry := range candidates {
		if gctx.Err() != nil {
			break
		}
		i, entry := i, entry
		g.Go(func() error {
			matched, err := s.scanEntry(gctx, req, entry)
			if err != nil {
				if isFatal(err) || gctx.Err() != nil {
					return err
				}
				skipped.Add(1)
				s.recorder.Error(gctx, fmt.Sprintf("Error processing %s", entry.Name), map[string]any{
					"entry": entry.Name,
					"error": err.Error(),
				})
			}
			if matched {
				set.add(i)
			}
			progress.Advance(entry.Name, matched)
			return nil
		})
	}

	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, waitErr
	}

	matches := set.entries(candidates)
	stats.Matched = len(matches)
	stats.Skipped = int(skipped.Load())

	s.recorder.Info(ctx, fmt.Sprintf("Matching faces found: %d", len(matches)), map[string]any{
		"corpus":     req.Corpus,
		"candidates": stats.Candidates,
		"skipped":    stats.Skipped,
	})

	return &Result{Matches: matches, Stats: stats}, nil
}

// scanEntry fetches, stages, decodes and extracts one entry. It stops at
// the first detection whose score reaches the threshold.
func (s *Scanner) scanEntry(ctx context.Context, req Request, entry domain.CorpusEntry) (bool, error) {
	if s.config.EntryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.EntryTimeout)
		defer cancel()
	}

	rc, err := s.store.Open(ctx, req.Corpus, entry.Name)
	if err != nil {
		return false, fmt.Errorf("fetch: %w", err)
	}
	file, err := s.stager.Stage(rc, entry.Name)
	_ = rc.Close()
	if err != nil {
		return false, fmt.Errorf("stage: %w", err)
	}
	defer func() {
		if err := file.Release(); err != nil {
			s.recorder.Warn(ctx, "Failed to delete temporary file", map[string]any{
				"path":  file.Path,
				"error": err.Error(),
			})
		}
	}()

	img, err := imaging.DecodeFile(entry.Name, file.Path)
	if err != nil {
		return false, err
	}

	detections, err := s.extractor.Extract(ctx, img)
	if err != nil {
		return false, err
	}
	s.recorder.Info(ctx, fmt.Sprintf("Detected %d face(s) in the image.", len(detections)), map[string]any{
		"entry": entry.Name,
	})

	for _, d := range detections {
		score, err := similarity.CosineSimilarity(req.Target, d.Embedding)
		if err != nil {
			return false, fmt.Errorf("compare %s: %w", entry.Name, err)
		}
		if similarity.IsMatch(score, req.Threshold) {
			return true, nil
		}
	}
	return false, nil
}

// isFatal reports errors that invalidate the whole scan rather than one
// entry. Mismatched dimensions mean the extractor is misconfigured.
func isFatal(err error) bool {
	return errors.Is(err, domain.ErrDimensionMismatch)
}

// matchSet records matches by candidate position so concurrent workers can
// insert in any order while the result keeps listing order.
type matchSet struct {
	mu      sync.Mutex
	matched []bool
}

func newMatchSet(n int) *matchSet {
	return &matchSet{matched: make([]bool, n)}
}

func (m *matchSet) add(i int) {
	m.mu.Lock()
	m.matched[i] = true
	m.mu.Unlock()
}

func (m *matchSet) entries(candidates []domain.CorpusEntry) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0)
	for i, ok := range m.matched {
		if ok {
			out = append(out, candidates[i].Name)
		}
	}
	return out
}
