package query

import (
	"testing"

	"github.com/rpattn/reportql/internal/domain"
)

func testSchema(t *testing.T) domain.Schema {
	t.Helper()
	s := domain.Schema{
		"Base": {
			AppModel: "base.Base",
			Fields: []domain.FieldDef{
				{Label: "Nome", Name: "nome", Type: domain.FieldTypeString},
				{Label: "Ativo", Name: "ativo", Type: domain.FieldTypeBool},
				{Label: "Criado em", Name: "criado_em", Type: domain.FieldTypeDateTime},
			},
			Relations: []domain.RelationDef{
				{FriendlyName: "Unidades", RelationField: "unidades", TargetEntity: "Unidade", FKColumn: "base_id", Reverse: true},
			},
		},
		"Unidade": {
			AppModel: "unidade.Unidade",
			Fields: []domain.FieldDef{
				{Label: "ID", Name: "id", Type: domain.FieldTypeInt},
				{Label: "Nome", Name: "nome", Type: domain.FieldTypeString},
			},
		},
	}
	if err := s.Init(); err != nil {
		t.Fatalf("schema init failed: %v", err)
	}
	return s
}

func TestValidateGroupedQuery(t *testing.T) {
	v := NewValidator(testSchema(t))
	spec := domain.QuerySpec{
		RootEntity: "Base",
		Columns: []domain.ColumnSpec{
			{Field: "nome", Label: "Nome da Base"},
			{Field: "unidades__id", Label: "Total de Unidades", Aggregation: "Count"},
		},
	}

	resolved, err := v.Validate(spec)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if resolved.RootTable != "base_base" {
		t.Fatalf("expected root table base_base, got %q", resolved.RootTable)
	}
	if len(resolved.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(resolved.Columns))
	}

	plain := resolved.Columns[0]
	if plain.Aggregated() || plain.Truncated() {
		t.Fatalf("plain column must carry no function")
	}
	if plain.Display != domain.DisplayForField(domain.FieldTypeString) {
		t.Fatalf("unexpected display for plain column: %q", plain.Display)
	}

	agg := resolved.Columns[1]
	if agg.Agg != domain.AggregationCount {
		t.Fatalf("expected count aggregation, got %q", agg.Agg)
	}
	if agg.Alias != "unidades_id_count" {
		t.Fatalf("expected alias unidades_id_count, got %q", agg.Alias)
	}
	if agg.Display != domain.DisplayNumber {
		t.Fatalf("aggregated columns must display as number, got %q", agg.Display)
	}
	if resolved.AliasByField["unidades__id"] != "unidades_id_count" {
		t.Fatalf("alias lookup missing for aggregated field")
	}
	if resolved.Limit != MaxLimit {
		t.Fatalf("expected default limit %d, got %d", MaxLimit, resolved.Limit)
	}
}

func TestValidateNoColumns(t *testing.T) {
	v := NewValidator(testSchema(t))
	_, err := v.Validate(domain.QuerySpec{RootEntity: "Base"})
	if err == nil {
		t.Fatalf("expected error for query without columns")
	}
	if domain.ErrorKindOf(err) != domain.ErrorKindValidation {
		t.Fatalf("expected validation error kind, got %q", domain.ErrorKindOf(err))
	}
}

func TestValidateUnknownRootEntity(t *testing.T) {
	v := NewValidator(testSchema(t))
	_, err := v.Validate(domain.QuerySpec{
		RootEntity: "Fantasma",
		Columns:    []domain.ColumnSpec{{Field: "nome"}},
	})
	if err == nil {
		t.Fatalf("expected error for unknown root entity")
	}
	if domain.ErrorKindOf(err) != domain.ErrorKindSchema {
		t.Fatalf("expected schema error kind, got %q", domain.ErrorKindOf(err))
	}
}

func TestValidateTruncation(t *testing.T) {
	v := NewValidator(testSchema(t))
	resolved, err := v.Validate(domain.QuerySpec{
		RootEntity: "Base",
		Columns:    []domain.ColumnSpec{{Field: "criado_em", Truncation: "month"}},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	col := resolved.Columns[0]
	if col.Trunc != domain.TruncationMonth {
		t.Fatalf("expected month truncation, got %q", col.Trunc)
	}
	if col.Alias != "criado_em_month" {
		t.Fatalf("expected alias criado_em_month, got %q", col.Alias)
	}
	if col.Display != domain.DisplayMonth {
		t.Fatalf("expected month display, got %q", col.Display)
	}
}

func TestValidateTruncationRequiresTemporalField(t *testing.T) {
	v := NewValidator(testSchema(t))
	_, err := v.Validate(domain.QuerySpec{
		RootEntity: "Base",
		Columns:    []domain.ColumnSpec{{Field: "nome", Truncation: "month"}},
	})
	if err == nil {
		t.Fatalf("expected error truncating a string field")
	}
	if domain.ErrorKindOf(err) != domain.ErrorKindFunction {
		t.Fatalf("expected function error kind, got %q", domain.ErrorKindOf(err))
	}
}

// A column carrying both functions resolves as an aggregation; the
// truncation is ignored rather than rejected.
func TestValidateAggregationWinsOverTruncation(t *testing.T) {
	v := NewValidator(testSchema(t))
	resolved, err := v.Validate(domain.QuerySpec{
		RootEntity: "Base",
		Columns:    []domain.ColumnSpec{{Field: "criado_em", Aggregation: "Max", Truncation: "month"}},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	col := resolved.Columns[0]
	if !col.Aggregated() {
		t.Fatalf("expected aggregated column")
	}
	if col.Alias != "criado_em_max" {
		t.Fatalf("expected alias criado_em_max, got %q", col.Alias)
	}
}

func TestValidateUnknownAggregation(t *testing.T) {
	v := NewValidator(testSchema(t))
	_, err := v.Validate(domain.QuerySpec{
		RootEntity: "Base",
		Columns:    []domain.ColumnSpec{{Field: "unidades__id", Aggregation: "Median"}},
	})
	if err == nil {
		t.Fatalf("expected error for unknown aggregation")
	}
	if domain.ErrorKindOf(err) != domain.ErrorKindFunction {
		t.Fatalf("expected function error kind, got %q", domain.ErrorKindOf(err))
	}
}

func TestValidateLimitClamping(t *testing.T) {
	v := NewValidator(testSchema(t))
	cases := []struct {
		limit int
		want  int
	}{
		{0, MaxLimit},
		{-5, MaxLimit},
		{2000, MaxLimit},
		{50, 50},
		{MaxLimit, MaxLimit},
	}
	for _, tc := range cases {
		resolved, err := v.Validate(domain.QuerySpec{
			RootEntity: "Base",
			Columns:    []domain.ColumnSpec{{Field: "nome"}},
			Limit:      tc.limit,
		})
		if err != nil {
			t.Fatalf("Validate failed for limit %d: %v", tc.limit, err)
		}
		if resolved.Limit != tc.want {
			t.Fatalf("limit %d clamped to %d, want %d", tc.limit, resolved.Limit, tc.want)
		}
	}
}

func TestValidateBooleanFilterCoercion(t *testing.T) {
	v := NewValidator(testSchema(t))
	resolved, err := v.Validate(domain.QuerySpec{
		RootEntity: "Base",
		Columns:    []domain.ColumnSpec{{Field: "nome"}},
		Filters: []domain.FilterSpec{
			{Field: "ativo", Operator: "exact", Value: "true"},
		},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got, ok := resolved.Filters[0].Coerced.(bool); !ok || !got {
		t.Fatalf("expected coerced boolean true, got %v", resolved.Filters[0].Coerced)
	}
}

func TestValidateOrderingDirection(t *testing.T) {
	v := NewValidator(testSchema(t))
	resolved, err := v.Validate(domain.QuerySpec{
		RootEntity: "Base",
		Columns:    []domain.ColumnSpec{{Field: "nome"}},
		Orderings: []domain.OrderSpec{
			{Field: "nome", Direction: "DESC"},
			{Field: "criado_em"},
		},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !resolved.Orderings[0].Desc {
		t.Fatalf("expected descending order for DESC")
	}
	if resolved.Orderings[1].Desc {
		t.Fatalf("expected ascending order by default")
	}
}

func TestValidateUnknownFilterField(t *testing.T) {
	v := NewValidator(testSchema(t))
	_, err := v.Validate(domain.QuerySpec{
		RootEntity: "Base",
		Columns:    []domain.ColumnSpec{{Field: "nome"}},
		Filters:    []domain.FilterSpec{{Field: "inexistente", Operator: "exact", Value: 1}},
	})
	if err == nil {
		t.Fatalf("expected error for unknown filter field")
	}
}
