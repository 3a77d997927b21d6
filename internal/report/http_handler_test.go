package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rpattn/reportql/internal/domain"
	"github.com/rpattn/reportql/internal/query"
	"github.com/rpattn/reportql/internal/repository"
)

type fakeReportRepo struct {
	saved []domain.Report
}

func (f *fakeReportRepo) Save(ctx context.Context, name, html string) (domain.Report, error) {
	report := domain.Report{ID: uuid.New(), Name: name, HTML: html}
	f.saved = append(f.saved, report)
	return report, nil
}

func (f *fakeReportRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Report, error) {
	for _, r := range f.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Report{}, context.Canceled
}

func (f *fakeReportRepo) List(ctx context.Context, limit, offset int) ([]domain.Report, error) {
	return f.saved, nil
}

func newTestHandler(t *testing.T, rows []map[string]any, repo repository.ReportRepository) http.Handler {
	t.Helper()
	s := testSchema(t)
	validator := query.NewValidator(s)
	compiler := query.NewCompiler()
	source := &fakeSource{rows: rows}
	executor := query.NewExecutor(source)
	merger := NewMerger(validator, compiler, executor)
	return NewHTTPHandler(s, validator, compiler, source, executor, merger, repo)
}

func TestHandleQuery(t *testing.T) {
	handler := newTestHandler(t, []map[string]any{{"nome": "Alpha", "ativo": true}}, &fakeReportRepo{})

	body := `{"fonte_principal":"Base","colunas":[{"campo":"nome","rotulo":"Nome"},{"campo":"ativo","rotulo":"Ativo"}]}`
	req := httptest.NewRequest(http.MethodPost, "/reports/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := rec.Body.String()
	if !strings.Contains(out, `"Nome": "Alpha"`) {
		t.Fatalf("missing row value: %s", out)
	}
	if !strings.Contains(out, `"Ativo": "Sim"`) {
		t.Fatalf("boolean not formatted: %s", out)
	}
}

func TestHandleQueryRejectsBadSpec(t *testing.T) {
	handler := newTestHandler(t, nil, &fakeReportRepo{})

	body := `{"fonte_principal":"Fantasma","colunas":[{"campo":"nome"}]}`
	req := httptest.NewRequest(http.MethodPost, "/reports/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown entity, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "erro") {
		t.Fatalf("expected error payload, got %s", rec.Body.String())
	}
}

func TestHandleSQLPreview(t *testing.T) {
	handler := newTestHandler(t, nil, &fakeReportRepo{})

	body := `{"fonte_principal":"Base","colunas":[{"campo":"nome"}]}`
	req := httptest.NewRequest(http.MethodPost, "/reports/sql", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"sql"`) {
		t.Fatalf("expected sql preview payload, got %s", rec.Body.String())
	}
}

func TestHandleRender(t *testing.T) {
	handler := newTestHandler(t, []map[string]any{{"nome": "Alpha", "ativo": false}}, &fakeReportRepo{})

	body := `{"html":"<table data-config-consulta='{\"fonte_principal\":\"Base\",\"colunas\":[{\"campo\":\"nome\"}]}'><tbody><tr><td>x</td></tr></tbody></table>"}`
	req := httptest.NewRequest(http.MethodPost, "/reports/render", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), SpecAttribute) {
		t.Fatalf("rendered markup must not carry the spec attribute: %s", rec.Body.String())
	}
}

func TestHandleSchema(t *testing.T) {
	handler := newTestHandler(t, nil, &fakeReportRepo{})

	req := httptest.NewRequest(http.MethodGet, "/reports/schema", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "base.Base") {
		t.Fatalf("expected schema payload, got %s", rec.Body.String())
	}
}

func TestHandleSaveAndList(t *testing.T) {
	repo := &fakeReportRepo{}
	handler := newTestHandler(t, nil, repo)

	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(`{"nome":"Mensal","html":"<p>ok</p>"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.saved) != 1 || repo.saved[0].Name != "Mensal" {
		t.Fatalf("report not persisted: %+v", repo.saved)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/reports", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	if !strings.Contains(listRec.Body.String(), "Mensal") {
		t.Fatalf("saved report missing from listing: %s", listRec.Body.String())
	}
}

func TestHandleSaveRequiresName(t *testing.T) {
	handler := newTestHandler(t, nil, &fakeReportRepo{})

	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(`{"html":"<p>ok</p>"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without nome, got %d", rec.Code)
	}
}

func TestHandleExportCSV(t *testing.T) {
	handler := newTestHandler(t, []map[string]any{{"nome": "Alpha"}}, &fakeReportRepo{})

	body := `{"fonte_principal":"Base","colunas":[{"campo":"nome","rotulo":"Nome"}]}`
	req := httptest.NewRequest(http.MethodPost, "/reports/export?format=csv", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Nome\nAlpha\n") {
		t.Fatalf("unexpected CSV body: %q", rec.Body.String())
	}
}
