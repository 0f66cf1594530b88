package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/forest-climate-dashboard/internal/adapter/chart"
	"github.com/couchcryptid/forest-climate-dashboard/internal/adapter/xlsx"
	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Dashboard renders view models from filters.
type Dashboard interface {
	ReadinessChecker
	Defaults() domain.Filters
	Render(surface string, filters domain.Filters, showRaw bool) (view.ViewModel, error)
}

// ChartRenderer draws a named chart of a view model as PNG.
type ChartRenderer interface {
	Render(w io.Writer, name string, vm view.ViewModel) error
}


// Server exposes the dashboard page, its JSON API, chart images, the XLSX
// export, and health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	charts     ChartRenderer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the dashboard and operational routes.
func NewServer(addr string, dashboard Dashboard, charts ChartRenderer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           withRequestID(withLogging(logger, mux)),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		dashboard: dashboard,
		charts:    charts,
		logger:    logger,
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/controls", s.handleControls)
	mux.HandleFunc("GET /charts/{file}", s.handleChart)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(dashboard))
	mux.Handle("GET /metrics", promhttp.Handler())

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

// render parses the request filters and runs the dashboard. On failure it
// has already written the error response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, surface string) (view.ViewModel, bool, bool) {
	if err := s.dashboard.CheckReadiness(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return view.ViewModel{}, false, false
	}

	filters, showRaw, err := parseFilters(r.URL.Query(), s.dashboard.Defaults())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return view.ViewModel{}, false, false
	}

	vm, err := s.dashboard.Render(surface, filters, showRaw)
	if err != nil {
		s.logger.Error("render dashboard failed", "error", err, "surface", surface,
			"request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, errors.New("render failed"))
		return view.ViewModel{}, false, false
	}
	return vm, showRaw, true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	vm, showRaw, ok := s.render(w, r, "page")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := renderPage(&buf, newPageData(vm, showRaw)); err != nil {
		s.logger.Error("render page failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, errors.New("render failed"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := s.render(w, r, "api")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

type controlsResponse struct {
	Controls view.Controls  `json:"controls"`
	Defaults domain.Filters `json:"defaults"`
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboard.CheckReadiness(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defaults := s.dashboard.Defaults()
	vm, err := s.dashboard.Render("api", defaults, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("render failed"))
		return
	}
	writeJSON(w, http.StatusOK, controlsResponse{Controls: vm.Controls, Defaults: defaults})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok || !slices.Contains(chart.Names, name) {
		writeError(w, http.StatusNotFound, errors.New("unknown chart"))
		return
	}

	vm, _, ok := s.render(w, r, "chart")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.charts.Render(&buf, name, vm); err != nil {
		s.logger.Error("render chart failed", "error", err, "chart", name,
			"request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, errors.New("render failed"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := s.render(w, r, "export")
	if !ok {
		return
	}

	tables := []view.Table{vm.Filtered}
	if vm.Raw != nil {
		tables = append(tables, *vm.Raw)
	}

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, tables...); err != nil {
		s.logger.Error("export failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, errors.New("export failed"))
		return
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="forest-climate.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func itoa(i int) string { return strconv.Itoa(i) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
