package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/similarity"
)

// MatchRunner runs one query against a corpus.
type MatchRunner interface {
	Run(ctx context.Context, imageURL, corpus string, opts ...pipeline.RunOption) (*domain.MatchResult, error)
}

type MatchHandler struct {
	runner        MatchRunner
	publicBaseURL string
	logger        *slog.Logger
}

func NewMatchHandler(runner MatchRunner, publicBaseURL string, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		runner:        runner,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

type MatchRequest struct {
	ImageURL  string   `json:"image_url"`
	Corpus    string   `json:"corpus"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type MatchResponse struct {
	RunID           string           `json:"run_id"`
	MatchingEntries []string         `json:"matchingEntries"`
	MatchingURLs    []string         `json:"matchingUrls,omitempty"`
	Threshold       float64          `json:"threshold"`
	Stats           domain.ScanStats `json:"stats"`
	LatencyMs       int64            `json:"latency_ms"`
}

// Match POST /v1/matches - find corpus images showing the query's face
func (h *MatchHandler) Match(c *fiber.Ctx) error {
	var req MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrUsage.WithError(err)
	}

	req.ImageURL = strings.TrimSpace(req.ImageURL)
	req.Corpus = strings.TrimSpace(req.Corpus)
	if req.ImageURL == "" || req.Corpus == "" {
		return domain.ErrUsage.WithError(errors.New("image_url and corpus are required"))
	}

	var opts []pipeline.RunOption
	if req.Threshold != nil {
		if !similarity.ValidThreshold(*req.Threshold) {
			return domain.ErrUsage.WithError(errors.New("threshold must be within [-1, 1]"))
		}
		opts = append(opts, pipeline.WithThreshold(*req.Threshold))
	}

	result, err := h.runner.Run(c.UserContext(), req.ImageURL, req.Corpus, opts...)
	if err != nil {
		return err
	}

	resp := newMatchResponse(result, req.Corpus, h.publicBaseURL)

	h.logger.Info("match completed",
		slog.String("run_id", resp.RunID),
		slog.String("corpus", req.Corpus),
		slog.Int("matches", len(resp.MatchingEntries)),
	)

	return c.JSON(resp)
}

func newMatchResponse(result *domain.MatchResult, corpus, publicBaseURL string) MatchResponse {
	payload := domain.NewResultPayload(result)
	resp := MatchResponse{
		RunID:           result.RunID.String(),
		MatchingEntries: payload.MatchingEntries,
		Threshold:       result.Threshold,
		Stats:           result.Stats,
		LatencyMs:       result.Duration.Milliseconds(),
	}

	if publicBaseURL != "" {
		resp.MatchingURLs = make([]string, 0, len(payload.MatchingEntries))
		for _, name := range payload.MatchingEntries {
			resp.MatchingURLs = append(resp.MatchingURLs, blobstore.PublicURL(publicBaseURL, corpus, name))
		}
	}
	return resp
}
