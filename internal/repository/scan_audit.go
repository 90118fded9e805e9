package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

var ErrScanAuditNotFound = errors.New("scan audit not found")

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// ScanAuditFilter narrows ListRecent. Empty Corpus lists every corpus.
type ScanAuditFilter struct {
	Corpus string
	Limit  int
}

type ScanAuditRepository struct {
	pool PgxPool
}

func NewScanAuditRepository(pool PgxPool) *ScanAuditRepository {
	return &ScanAuditRepository{pool: pool}
}

// Create inserts a new scan audit record
func (r *ScanAuditRepository) Create(ctx context.Context, audit *domain.ScanAudit) error {
	query := `
		INSERT INTO scan_audits (
			id, query_name, corpus, threshold, matches_count,
			candidates, skipped, error_code, latency_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		audit.ID,
		audit.QueryName,
		audit.Corpus,
		audit.Threshold,
		audit.MatchesCount,
		audit.Candidates,
		audit.Skipped,
		audit.ErrorCode,
		audit.LatencyMs,
	).Scan(&audit.CreatedAt)

	if err != nil {
		return fmt.Errorf("create scan audit: %w", err)
	}

	return nil
}

func (r *ScanAuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScanAudit, error) {
	query := `
		SELECT id, query_name, corpus, threshold, matches_count,
			candidates, skipped, error_code, latency_ms, created_at
		FROM scan_audits
		WHERE id = $1
	`

	var a domain.ScanAudit
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.QueryName,
		&a.Corpus,
		&a.Threshold,
		&a.MatchesCount,
		&a.Candidates,
		&a.Skipped,
		&a.ErrorCode,
		&a.LatencyMs,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScanAuditNotFound
		}
		return nil, fmt.Errorf("get scan audit: %w", err)
	}

	return &a, nil
}

// ListRecent returns the newest audits first.
func (r *ScanAuditRepository) ListRecent(ctx context.Context, filter ScanAuditFilter) ([]domain.ScanAudit, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	query := `
		SELECT id, query_name, corpus, threshold, matches_count,
			candidates, skipped, error_code, latency_ms, created_at
		FROM scan_audits
		WHERE ($1 = '' OR corpus = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, filter.Corpus, limit)
	if err != nil {
		return nil, fmt.Errorf("list scan audits: %w", err)
	}
	defer rows.Close()

	audits := make([]domain.ScanAudit, 0)
	for rows.Next() {
		var a domain.ScanAudit
		if err := rows.Scan(
			&a.ID,
			&a.QueryName,
			&a.Corpus,
			&a.Threshold,
			&a.MatchesCount,
			&a.Candidates,
			&a.Skipped,
			&a.ErrorCode,
			&a.LatencyMs,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan scan audit: %w", err)
		}
		audits = append(audits, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan audits: %w", err)
	}

	return audits, nil
}
