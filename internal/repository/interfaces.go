package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpattn/reportql/internal/domain"
)

// DataSource is the query capability the engine runs compiled plans
// against: grouping, metric, filter, order and limit primitives over a
// named model. The concrete data-access layer supplies the implementation.
type DataSource interface {
	// Execute runs the plan and returns raw rows keyed by projection key.
	Execute(ctx context.Context, plan domain.QueryPlan) ([]map[string]any, error)
	// SQL renders the query the plan would execute, for previewing.
	SQL(plan domain.QueryPlan) (string, []any, error)
}

// ReportRepository persists saved report templates.
type ReportRepository interface {
	Save(ctx context.Context, name, html string) (domain.Report, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Report, error)
	List(ctx context.Context, limit, offset int) ([]domain.Report, error)
}
