package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use. pgxmock's
// pool satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ScanAuditRepositoryInterface defines operations for scan audit logging
type ScanAuditRepositoryInterface interface {
	Create(ctx context.Context, audit *domain.ScanAudit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ScanAudit, error)
	ListRecent(ctx context.Context, filter ScanAuditFilter) ([]domain.ScanAudit, error)
}
