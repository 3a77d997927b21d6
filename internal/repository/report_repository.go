package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/reportql/internal/domain"
)

// reportRepository implements ReportRepository over Postgres.
type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a repository for saved report templates.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Save(ctx context.Context, name, html string) (domain.Report, error) {
	report := domain.Report{ID: uuid.New(), Name: name, HTML: html}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO reports (id, name, html) VALUES ($1, $2, $3) RETURNING created_at`,
		report.ID, report.Name, report.HTML,
	)
	if err := row.Scan(&report.CreatedAt); err != nil {
		return domain.Report{}, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Report, error) {
	var report domain.Report
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, html, created_at FROM reports WHERE id = $1`, id,
	)
	if err := row.Scan(&report.ID, &report.Name, &report.HTML, &report.CreatedAt); err != nil {
		return domain.Report{}, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

func (r *reportRepository) List(ctx context.Context, limit, offset int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, html, created_at FROM reports ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var report domain.Report
		if err := rows.Scan(&report.ID, &report.Name, &report.HTML, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}
