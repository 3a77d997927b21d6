package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/reportql/internal/domain"
	"github.com/rpattn/reportql/internal/export"
	"github.com/rpattn/reportql/internal/query"
	"github.com/rpattn/reportql/internal/repository"
)

// Handler exposes the report engine over HTTP.
type Handler struct {
	schema    domain.Schema
	validator *query.Validator
	compiler  *query.Compiler
	source    repository.DataSource
	executor  *query.Executor
	merger    *Merger
	reports   repository.ReportRepository
}

func NewHTTPHandler(
	schema domain.Schema,
	validator *query.Validator,
	compiler *query.Compiler,
	source repository.DataSource,
	executor *query.Executor,
	merger *Merger,
	reports repository.ReportRepository,
) http.Handler {
	return &Handler{
		schema:    schema,
		validator: validator,
		compiler:  compiler,
		source:    source,
		executor:  executor,
		merger:    merger,
		reports:   reports,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/schema"):
		h.handleSchema(w, r)
		return
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/query"):
		h.handleQuery(w, r)
		return
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/sql"):
		h.handleSQL(w, r)
		return
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/render"):
		h.handleRender(w, r)
		return
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/export"):
		h.handleExport(w, r)
		return
	case r.Method == http.MethodPost:
		h.handleSave(w, r)
		return
	case r.Method == http.MethodGet:
		if id, ok := pathID(r.URL.Path); ok {
			h.handleGet(w, r, id)
			return
		}
		h.handleList(w, r)
		return
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
}

// handleSchema returns the report schema so editors can offer fields and
// relations without a second source of truth.
func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.schema)
}

// handleQuery runs one specification through the full pipeline and returns
// the formatted rows.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var spec domain.QuerySpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	rows, err := h.runPipeline(r, spec, w)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, rowsPayload(rows))
}

// handleSQL renders the SQL a specification would execute, for previewing
// in the report editor.
func (h *Handler) handleSQL(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var spec domain.QuerySpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	resolved, err := h.validator.Validate(spec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	plan, err := h.compiler.Compile(resolved)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sql, args, err := h.source.SQL(plan)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sql": sql, "args": args})
}

type renderPayload struct {
	HTML string `json:"html"`
}

// handleRender merges every placeholder table in the submitted markup and
// returns the populated document.
func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload renderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.HTML) == "" {
		http.Error(w, "html is required", http.StatusBadRequest)
		return
	}
	merged, err := h.merger.Merge(r.Context(), payload.HTML)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": merged})
}

// handleExport streams the query result as a spreadsheet attachment. The
// format query parameter selects csv; xlsx is the default.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var spec domain.QuerySpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	rows, err := h.runPipeline(r, spec, w)
	if err != nil {
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="relatorio.csv"`)
		if err := export.WriteCSV(w, rows); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="relatorio.xlsx"`)
	if err := export.WriteXLSX(w, rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type savePayload struct {
	Name string `json:"nome"`
	HTML string `json:"html"`
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload savePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		http.Error(w, "nome is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.HTML) == "" {
		http.Error(w, "html is required", http.StatusBadRequest)
		return
	}
	saved, err := h.reports.Save(r.Context(), payload.Name, payload.HTML)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	saved, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("report not found: %v", err), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 50
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
			return
		}
		offset = parsed
	}
	reports, err := h.reports.List(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("list reports: %v", err), http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// runPipeline validates, compiles and executes a specification, writing the
// error response itself on failure.
func (h *Handler) runPipeline(r *http.Request, spec domain.QuerySpec, w http.ResponseWriter) ([]domain.OutputRow, error) {
	resolved, err := h.validator.Validate(spec)
	if err != nil {
		h.writeError(w, err)
		return nil, err
	}
	plan, err := h.compiler.Compile(resolved)
	if err != nil {
		h.writeError(w, err)
		return nil, err
	}
	rows, err := h.executor.Execute(r.Context(), plan)
	if err != nil {
		h.writeError(w, err)
		return nil, err
	}
	return rows, nil
}

// writeError maps pipeline failures onto HTTP statuses: schema, function and
// validation errors are the client's fault, everything else is ours.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if domain.IsClientError(err) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"erro": err.Error()})
}

// rowsPayload renders rows as label-keyed objects plus the label order, so
// clients keep the declared column order despite JSON object semantics.
func rowsPayload(rows []domain.OutputRow) map[string]any {
	labels := []string{}
	if len(rows) > 0 {
		labels = rows[0].Labels()
	}
	lines := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		line := make(map[string]any, len(row))
		for _, cell := range row {
			line[cell.Label] = cell.Value
		}
		lines = append(lines, line)
	}
	return map[string]any{"colunas": labels, "linhas": lines}
}

func pathID(path string) (uuid.UUID, bool) {
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx == -1 || idx == len(path)-1 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(path[idx+1:])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
