package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cognicore/sentimap/pkg/sentimap/dataset"
	"github.com/cognicore/sentimap/pkg/sentimap/jobs"
)

// DefaultMaxUploadBytes bounds the size of an uploaded file.
const DefaultMaxUploadBytes = 32 << 20

// JobService is the job registry behind the HTTP surface.
type JobService interface {
	Submit(ctx context.Context, ds *dataset.Dataset) (string, error)
	Progress(ctx context.Context, id string) (int, error)
	Outcome(ctx context.Context, id string) (jobs.Outcome, error)
}

// Handler serves the analysis endpoints.
type Handler struct {
	Jobs           JobService
	MaxUploadBytes int64
}

// NewHandler creates a handler backed by svc.
func NewHandler(svc JobService, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{Jobs: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts the endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Health)
	r.Post("/analyze", h.Analyze)
	r.Get("/progress/{jobID}", h.Progress)
	r.Get("/result/{jobID}", h.Result)
}

// NewRouter builds the full router: middleware, CORS and routes.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.RegisterRoutes(r)
	return r
}

// Health reports that the service is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("sentimap is running"))
}

// Analyze accepts a multipart CSV upload in field "file" and starts a job.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	ds, err := dataset.ReadCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read CSV: %v", err))
		return
	}

	id, err := h.Jobs.Submit(r.Context(), ds)
	if err != nil {
		if dataset.IsInputError(err) {
			writeError(w, http.StatusBadRequest, "CSV file is missing required data: "+err.Error())
			return
		}
		slog.Error("[API] submit failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to start analysis")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

// Progress returns {"progress": n}; unknown ids report 0 and failed jobs -1.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	progress, err := h.Jobs.Progress(r.Context(), id)
	if err != nil {
		slog.Error("[API] progress lookup failed", slog.String("job_id", id), slog.Any("error", err))
		writeError(w, http.StatusServiceUnavailable, "Job store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"progress": progress})
}

// Result returns the finished result, the failure descriptor, or 202 while
// the job is still running or unknown.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	out, err := h.Jobs.Outcome(r.Context(), id)
	if err != nil {
		slog.Error("[API] result lookup failed", slog.String("job_id", id), slog.Any("error", err))
		writeError(w, http.StatusServiceUnavailable, "Job store unavailable")
		return
	}

	switch out.State {
	case jobs.StateDone:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(out.Result)
	case jobs.StateFailed:
		writeError(w, http.StatusOK, out.Error)
	default:
		writeError(w, http.StatusAccepted, "Result not ready")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("[API] encode response failed", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs each request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("[API] request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()))
	})
}
