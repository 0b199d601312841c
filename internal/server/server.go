package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Sabbasth/rp-exporter/internal/poller"
	"github.com/Sabbasth/rp-exporter/internal/version"
)

// CollectionStatus reports the most recent collection cycle.
type CollectionStatus interface {
	LastCollection() (poller.Status, bool)
}

// Server exposes the metrics endpoint and a few operational routes.
type Server struct {
	httpServer  *http.Server
	registry    *prometheus.Registry
	status      CollectionStatus
	metricsPath string
	logger      *zap.Logger
	mux         *http.ServeMux
}

// New creates a Server listening on addr. status may be nil.
func New(addr, metricsPath string, reg *prometheus.Registry, status CollectionStatus, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          zap.NewStdLog(logger.Named("http")),
		},
		registry:    reg,
		status:      status,
		metricsPath: metricsPath,
		logger:      logger,
		mux:         mux,
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	metrics := promhttp.InstrumentMetricHandler(s.registry, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(s.logger.Named("promhttp")),
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      s.registry,
	}))

	s.mux.Handle("GET "+s.metricsPath, metrics)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metricsPath != "/" {
		s.mux.HandleFunc("GET /{$}", s.handleLanding)
	}
	s.mux.HandleFunc("/", s.handleNotFound)

	s.logger.Debug("mounted routes", zap.String("metrics_path", s.metricsPath))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.httpServer.Addr),
		zap.String("metrics_path", s.metricsPath),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// healthResponse is the body of GET /healthz. Status is "ok" before the
// first cycle and after a successful one, "degraded" after a failed one.
type healthResponse struct {
	Status         string            `json:"status"`
	Service        string            `json:"service"`
	Version        map[string]string `json:"version"`
	LastCollection *poller.Status    `json:"last_collection"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Service: "rp-exporter",
		Version: version.Map(),
	}
	if s.status != nil {
		if st, ok := s.status.LastCollection(); ok {
			resp.LastCollection = &st
			if !st.Success {
				resp.Status = "degraded"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RP-Exporter-Version", version.Short())
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to write health response", zap.Error(err))
	}
}

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head><title>Redpanda disk usage exporter</title></head>
<body>
<h1>Redpanda disk usage exporter</h1>
<p>Version {{.Version}}</p>
<ul>
<li><a href="{{.MetricsPath}}">Metrics</a></li>
<li><a href="/healthz">Health</a></li>
</ul>
</body>
</html>
`))

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := landingPage.Execute(w, struct {
		Version     string
		MetricsPath string
	}{version.Short(), s.metricsPath})
	if err != nil {
		s.logger.Warn("failed to render landing page", zap.Error(err))
	}
}

// handleNotFound answers every request no GET route matched. Known paths
// hit with another method get a 405.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case s.metricsPath, "/healthz", "/":
		w.Header().Set("Allow", "GET, HEAD")
		MethodNotAllowed(w, fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path), r.URL.Path)
	default:
		NotFound(w, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path), r.URL.Path)
	}
}
