package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/repository"
)

// AuditReader reads persisted scan audits.
type AuditReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ScanAudit, error)
	ListRecent(ctx context.Context, filter repository.ScanAuditFilter) ([]domain.ScanAudit, error)
}

var ErrScanNotFound = &domain.AppError{
	Code:       "SCAN_NOT_FOUND",
	Message:    "scan not found",
	StatusCode: fiber.StatusNotFound,
}

type ScanHandler struct {
	audits AuditReader
	logger *slog.Logger
}

func NewScanHandler(audits AuditReader, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{audits: audits, logger: logger}
}

type ScanListResponse struct {
	Scans []domain.ScanAudit `json:"scans"`
	Count int                `json:"count"`
}

// List GET /v1/scans - most recent runs first
func (h *ScanHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return domain.ErrUsage.WithError(errors.New("limit must not be negative"))
	}

	scans, err := h.audits.ListRecent(c.UserContext(), repository.ScanAuditFilter{
		Corpus: c.Query("corpus"),
		Limit:  limit,
	})
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(ScanListResponse{Scans: scans, Count: len(scans)})
}

// Get GET /v1/scans/:id
func (h *ScanHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrUsage.WithError(err)
	}

	scan, err := h.audits.GetByID(c.UserContext(), id)
	if errors.Is(err, repository.ErrScanAuditNotFound) {
		return ErrScanNotFound
	}
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(scan)
}
