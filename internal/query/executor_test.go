package query

import (
	"context"
	"testing"
	"time"

	"github.com/rpattn/reportql/internal/domain"
)

type fakeSource struct {
	rows []map[string]any
}

func (f *fakeSource) Execute(ctx context.Context, plan domain.QueryPlan) ([]map[string]any, error) {
	return f.rows, nil
}

func (f *fakeSource) SQL(plan domain.QueryPlan) (string, []any, error) {
	return "", nil, nil
}

func TestExecuteFormatsRows(t *testing.T) {
	created := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	source := &fakeSource{rows: []map[string]any{
		{"nome": "Alpha", "ativo": true, "criado_em": created, "unidades_id_count": int64(4)},
		{"nome": "Beta", "ativo": false, "criado_em": nil, "unidades_id_count": int64(0)},
	}}

	plan := domain.QueryPlan{
		Output: []domain.OutputColumn{
			{Key: "nome", Label: "Nome", Display: domain.DisplayForField(domain.FieldTypeString)},
			{Key: "ativo", Label: "Ativo", Display: domain.DisplayForField(domain.FieldTypeBool)},
			{Key: "criado_em", Label: "Criado em", Display: domain.DisplayForField(domain.FieldTypeDateTime)},
			{Key: "unidades_id_count", Label: "Total", Display: domain.DisplayNumber},
		},
	}

	rows, err := NewExecutor(source).Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first[0].Value != "Alpha" {
		t.Fatalf("unexpected string cell: %v", first[0].Value)
	}
	if first[1].Value != "Sim" {
		t.Fatalf("expected Sim for true, got %v", first[1].Value)
	}
	if first[2].Value != "15/03/2024 14:30" {
		t.Fatalf("unexpected datetime cell: %v", first[2].Value)
	}
	if first[3].Value != int64(4) {
		t.Fatalf("numbers must pass through unchanged, got %v", first[3].Value)
	}

	second := rows[1]
	if second[1].Value != "Não" {
		t.Fatalf("expected Não for false, got %v", second[1].Value)
	}
	if second[2].Value != nil {
		t.Fatalf("null values must stay nil until rendering, got %v", second[2].Value)
	}
}

func TestExecuteColumnOrderAndLabels(t *testing.T) {
	source := &fakeSource{rows: []map[string]any{
		{"b": 2, "a": 1},
	}}
	plan := domain.QueryPlan{
		Output: []domain.OutputColumn{
			{Key: "b", Label: "Segundo"},
			{Key: "a", Label: "Primeiro"},
		},
	}
	rows, err := NewExecutor(source).Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	labels := rows[0].Labels()
	if labels[0] != "Segundo" || labels[1] != "Primeiro" {
		t.Fatalf("cells must follow declared column order, got %v", labels)
	}
}

func TestFormatValueTruncations(t *testing.T) {
	moment := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := formatValue(moment, domain.DisplayDate); got != "01/07/2024" {
		t.Fatalf("unexpected date format: %v", got)
	}
	if got := formatValue(moment, domain.DisplayMonth); got != "07/2024" {
		t.Fatalf("unexpected month format: %v", got)
	}
	if got := formatValue(moment, domain.DisplayYear); got != "2024" {
		t.Fatalf("unexpected year format: %v", got)
	}
}
