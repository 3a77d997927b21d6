package query

import (
	"context"
	"time"

	"github.com/rpattn/reportql/internal/domain"
	"github.com/rpattn/reportql/internal/repository"
)

// Executor runs compiled plans against a data source and maps the raw rows
// into labeled, display-formatted presentation rows.
type Executor struct {
	source repository.DataSource
}

// NewExecutor creates an executor over the given data source.
func NewExecutor(source repository.DataSource) *Executor {
	return &Executor{source: source}
}

// Execute runs the plan and formats every output column in the order the
// columns were declared in the original specification. Null values stay nil;
// the "-" sentinel belongs to the HTML rendering stage.
func (e *Executor) Execute(ctx context.Context, plan domain.QueryPlan) ([]domain.OutputRow, error) {
	raw, err := e.source.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.OutputRow, 0, len(raw))
	for _, line := range raw {
		row := make(domain.OutputRow, 0, len(plan.Output))
		for _, out := range plan.Output {
			row = append(row, domain.OutputCell{
				Label: out.Label,
				Value: formatValue(line[out.Key], out.Display),
			})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// formatValue applies the display formatting for one cell.
func formatValue(value any, display domain.DisplayType) any {
	if value == nil {
		return nil
	}

	switch display {
	case domain.DisplayType(domain.FieldTypeBool):
		if b, ok := value.(bool); ok {
			if b {
				return "Sim"
			}
			return "Não"
		}
	case domain.DisplayDate:
		if t, ok := asTime(value); ok {
			return t.Format("02/01/2006")
		}
	case domain.DisplayType(domain.FieldTypeDateTime):
		if t, ok := asTime(value); ok {
			return t.Format("02/01/2006 15:04")
		}
	case domain.DisplayMonth:
		if t, ok := asTime(value); ok {
			return t.Format("01/2006")
		}
	case domain.DisplayYear:
		if t, ok := asTime(value); ok {
			return t.Format("2006")
		}
	}
	return value
}

func asTime(value any) (time.Time, bool) {
	switch t := value.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}
