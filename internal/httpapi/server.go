package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"sales-stats/internal/artifact"
	"sales-stats/internal/charts"
	"sales-stats/internal/dataset"
	"sales-stats/internal/metrics"
	"sales-stats/internal/report"
)

// ArtifactReader returns the latest computed statistics and their raw bytes.
type ArtifactReader interface {
	Load() (report.StatsResult, []byte, error)
}

// Options configure the server.
type Options struct {
	SourcePath    string
	HistogramBins int
}

// Server serves the statistics API.
type Server struct {
	artifacts ArtifactReader
	loader    *dataset.Loader
	opts      Options
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewServer constructs a Server.
func NewServer(artifacts ArtifactReader, loader *dataset.Loader, opts Options, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = 10
	}
	return &Server{
		artifacts: artifacts,
		loader:    loader,
		opts:      opts,
		metrics:   m,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

// Handler registers the routes and wraps them with middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.HandleFunc("POST /soma", s.somaHandler)
	mux.HandleFunc("GET /charts/prices.png", s.priceChartHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return withRequestID(s.withLogging(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	_, raw, err := s.artifacts.Load()
	switch {
	case errors.Is(err, artifact.ErrNotComputed):
		writeError(w, http.StatusNotFound, "statistics not computed yet; run `salesstats compute` first")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("read statistics artifact")
		writeError(w, http.StatusInternalServerError, "statistics file is unreadable; it may be corrupt")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

type somaRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type somaResponse struct {
	Resultado float64 `json:"resultado"`
}

func (s *Server) somaHandler(w http.ResponseWriter, r *http.Request) {
	var req somaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, http.StatusUnprocessableEntity, "fields x and y are required")
		return
	}
	writeJSON(w, http.StatusOK, somaResponse{Resultado: *req.X + *req.Y})
}

func (s *Server) priceChartHandler(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Load(s.opts.SourcePath)
	if err != nil {
		var notFound *dataset.SourceNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "sales source not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := charts.WritePriceHistogram(&buf, ds, s.opts.HistogramBins); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			writeError(w, http.StatusUnprocessableEntity, "sales source has no rows")
			return
		}
		s.logger.Error().Err(err).Msg("render price histogram")
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
