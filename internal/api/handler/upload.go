package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/similarity"
)

// ImageRunner runs one query whose bytes are already in hand.
type ImageRunner interface {
	RunImage(ctx context.Context, data []byte, name, corpus string, opts ...pipeline.RunOption) (*domain.MatchResult, error)
}

type UploadHandler struct {
	runner        ImageRunner
	store         blobstore.Writer
	publicBaseURL string
	logger        *slog.Logger
}

func NewUploadHandler(runner ImageRunner, store blobstore.Writer, publicBaseURL string, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		runner:        runner,
		store:         store,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

type UploadResponse struct {
	MatchResponse
	UploadedName string `json:"uploaded_name"`
}

// Upload POST /v1/uploads - store an uploaded photo in the corpus, find the
// other corpus images showing the same face, then remove the upload
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	corpus := strings.TrimSpace(c.FormValue("corpus"))
	if corpus == "" {
		return domain.ErrUsage.WithError(errors.New("corpus is required"))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return domain.ErrUsage.WithError(errors.New("image file is required"))
	}

	var opts []pipeline.RunOption
	if raw := strings.TrimSpace(c.FormValue("threshold")); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || !similarity.ValidThreshold(t) {
			return domain.ErrUsage.WithError(errors.New("threshold must be within [-1, 1]"))
		}
		opts = append(opts, pipeline.WithThreshold(t))
	}

	f, err := file.Open()
	if err != nil {
		return domain.ErrUsage.WithError(fmt.Errorf("read upload: %w", err))
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return domain.ErrUsage.WithError(fmt.Errorf("read upload: %w", err))
	}

	ctx := c.UserContext()
	name := uploadName(file.Filename)
	if err := h.store.Put(ctx, corpus, name, bytes.NewReader(data), file.Header.Get("Content-Type")); err != nil {
		return domain.ErrInternal.WithError(fmt.Errorf("store upload: %w", err))
	}
	h.logger.Info("uploaded image stored", slog.String("corpus", corpus), slog.String("name", name))

	defer func() {
		if err := h.store.Delete(context.WithoutCancel(ctx), corpus, name); err != nil {
			h.logger.Warn("failed to delete uploaded image",
				slog.String("corpus", corpus),
				slog.String("name", name),
				slog.Any("error", err),
			)
			return
		}
		h.logger.Info("uploaded image deleted", slog.String("corpus", corpus), slog.String("name", name))
	}()

	result, err := h.runner.RunImage(ctx, data, name, corpus, opts...)
	if err != nil {
		return err
	}

	resp := UploadResponse{
		MatchResponse: newMatchResponse(result, corpus, h.publicBaseURL),
		UploadedName:  name,
	}

	h.logger.Info("upload match completed",
		slog.String("run_id", resp.RunID),
		slog.String("corpus", corpus),
		slog.Int("matches", len(resp.MatchingEntries)),
	)

	return c.JSON(resp)
}

// uploadName keeps the client's extension when it is an image type so the
// stored object is recognisable in the corpus listing.
func uploadName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := domain.NewCorpusEntry("x" + ext); !ok {
		ext = ".jpg"
	}
	return "upload_" + uuid.NewString() + ext
}
