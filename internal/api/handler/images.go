package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

// CorpusLister lists the objects of a corpus.
type CorpusLister interface {
	List(ctx context.Context, corpus string) ([]string, error)
}

type ImageHandler struct {
	store         CorpusLister
	publicBaseURL string
	logger        *slog.Logger
}

func NewImageHandler(store CorpusLister, publicBaseURL string, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		store:         store,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

type ImageEntry struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type ImageListResponse struct {
	Corpus string       `json:"corpus"`
	Images []ImageEntry `json:"images"`
	Total  int          `json:"total"`
}

// List GET /v1/images?corpus= - list the objects of a corpus
func (h *ImageHandler) List(c *fiber.Ctx) error {
	corpus := strings.TrimSpace(c.Query("corpus"))
	if corpus == "" {
		return domain.ErrUsage.WithError(errors.New("corpus is required"))
	}

	names, err := h.store.List(c.UserContext(), corpus)
	if err != nil {
		return domain.ErrCorpusScan.WithError(err)
	}

	images := make([]ImageEntry, 0, len(names))
	for _, name := range names {
		entry := ImageEntry{Name: name}
		if h.publicBaseURL != "" {
			entry.URL = blobstore.PublicURL(h.publicBaseURL, corpus, name)
		}
		images = append(images, entry)
	}

	h.logger.Debug("listed corpus", slog.String("corpus", corpus), slog.Int("count", len(images)))

	return c.JSON(ImageListResponse{
		Corpus: corpus,
		Images: images,
		Total:  len(images),
	})
}
