package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// BatchSource returns the most recent processed batch, or nil before the first.
type BatchSource interface {
	Latest() *domain.Batch
}

// Server exposes health, readiness, metrics and batch inspection endpoints.
type Server struct {
	httpServer *http.Server
	batches    BatchSource
	logger     *slog.Logger
}

// BatchSummary is the body of GET /batches/latest.
type BatchSummary struct {
	RunID       string                   `json:"run_id"`
	ProcessedAt time.Time                `json:"processed_at"`
	Records     int                      `json:"records"`
	ByCategory  map[domain.Category]int  `json:"by_category"`
	Numerosity  map[domain.Category]int  `json:"numerosity"`
	IDs         []string                 `json:"ids"`
	Skipped     []string                 `json:"skipped"`
	Excluded    []string                 `json:"excluded"`
	Warnings    int                      `json:"warnings"`
	Authority   *domain.AuthoritySummary `json:"authority,omitempty"`
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /batches/latest routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, batches BatchSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		batches: batches,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /batches/latest", s.handleLatest)
	mux.HandleFunc("GET /batches/latest/records/{id}", s.handleRecord)
	mux.HandleFunc("GET /batches/latest/warnings", s.handleWarnings)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) latest(w http.ResponseWriter) *domain.Batch {
	b := s.batches.Latest()
	if b == nil {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no batch processed yet"})
	}
	return b
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	b := s.latest(w)
	if b == nil {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, Summarize(b))
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	b := s.latest(w)
	if b == nil {
		return
	}
	rec, ok := b.Records[r.PathValue("id")]
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "record not in latest batch"})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleWarnings(w http.ResponseWriter, _ *http.Request) {
	b := s.latest(w)
	if b == nil {
		return
	}
	warnings := b.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, warnings)
}

// Summarize counts the records of a batch per category. Numerosity is the
// number of real respondents the records stand for.
func Summarize(b *domain.Batch) BatchSummary {
	sum := BatchSummary{
		RunID:       b.RunID,
		ProcessedAt: b.ProcessedAt,
		Records:     len(b.Records),
		ByCategory:  make(map[domain.Category]int),
		Numerosity:  make(map[domain.Category]int),
		IDs:         make([]string, 0, len(b.Records)),
		Skipped:     nonNil(b.Skipped),
		Excluded:    nonNil(b.Excluded),
		Warnings:    len(b.Warnings),
		Authority:   b.Authority,
	}
	for id, rec := range b.Records {
		sum.ByCategory[rec.Category]++
		sum.Numerosity[rec.Category] += rec.NumUsers
		sum.IDs = append(sum.IDs, id)
	}
	sort.Strings(sum.IDs)
	return sum
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
