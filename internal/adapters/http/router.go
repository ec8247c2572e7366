package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"
	"github.com/rs/cors"

	"github.com/kirillkom/review-sentiment/internal/config"
	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
	"github.com/kirillkom/review-sentiment/internal/observability/metrics"
)

const serviceName = "api"

// BatchService is the subset of the bulk use case the API exposes.
type BatchService interface {
	ports.BatchSubmitter
	ports.BatchReader
}

type Dependencies struct {
	Analyzer  ports.TextAnalyzer
	Batches   BatchService
	History   ports.HistoryReader
	Dashboard ports.DashboardBuilder
	Settings  ports.SettingsManager
	Metrics   *metrics.HTTPServerMetrics
}

type Router struct {
	cfg  config.Config
	deps Dependencies
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	return &Router{cfg: cfg, deps: deps}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.json", rt.openAPI)
	mux.HandleFunc("POST /v1/analyze", rt.analyze)
	mux.HandleFunc("POST /v1/batches", rt.submitBatch)
	mux.HandleFunc("GET /v1/batches/{id}", rt.getBatch)
	mux.HandleFunc("GET /v1/batches/{id}/export", rt.exportBatch)
	mux.HandleFunc("GET /v1/history", rt.listHistory)
	mux.HandleFunc("POST /v1/history/clear", rt.clearHistory)
	mux.HandleFunc("GET /v1/dashboard", rt.dashboard)
	mux.HandleFunc("GET /v1/settings", rt.getSettings)
	mux.HandleFunc("PUT /v1/settings", rt.updateSettings)

	var onLimited func(string)
	var handler http.Handler = mux
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
		onLimited = func(path string) { rt.deps.Metrics.RecordRateLimited(serviceName, path) }
	}
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onLimited)
	handler = rt.corsHandler().Handler(handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) corsHandler() *cors.Cors {
	origins := rt.cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
	})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	payload, err := apiDescription()
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	analysis, err := rt.deps.Analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordPrediction(serviceName, analysis.Label)
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (rt *Router) submitBatch(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxBytes.Limit))
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	batch, err := rt.deps.Batches.Submit(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, batch)
}

func (rt *Router) getBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := bindBatchID(w, r)
	if !ok {
		return
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit: %v", err))
		return
	}
	previewRows := 0
	if limit != nil {
		if *limit < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be positive")
			return
		}
		previewRows = *limit
	}

	view, err := rt.deps.Batches.Get(r.Context(), id, previewRows)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) exportBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := bindBatchID(w, r)
	if !ok {
		return
	}

	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid format: %v", err))
		return
	}
	exportFormat := domain.ExportCSV
	if format != nil && strings.TrimSpace(*format) != "" {
		exportFormat = domain.ExportFormat(strings.ToLower(strings.TrimSpace(*format)))
	}

	file, err := rt.deps.Batches.Export(r.Context(), id, exportFormat)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		slog.WarnContext(r.Context(), "export_write_failed",
			"request_id", requestIDFromContext(r.Context()),
			"batch_id", id,
			"error", err.Error(),
		)
	}
}

func (rt *Router) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.deps.History.List(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (rt *Router) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := rt.deps.History.Clear(r.Context()); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared."})
}

func (rt *Router) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := rt.deps.Dashboard.Build(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (rt *Router) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.deps.Settings.Current())
}

func (rt *Router) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	decoder := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	updated, err := rt.deps.Settings.Update(r.Context(), req)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func bindBatchID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || strings.TrimSpace(id) == "" {
		writeError(w, r, http.StatusBadRequest, "batch id is required")
		return "", false
	}
	return id, true
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err.Error(),
		)
	}
	writeError(w, r, status, err.Error())
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("response_encode_failed", "error", err.Error())
	}
}
