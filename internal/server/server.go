// Package server exposes balancing over HTTP. A task table POSTed to
// /balance is balanced with the configured defaults, overridable per
// request through query parameters; the last plan is kept for GET /plan.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joshharrison/lineloom/internal/config"
	"github.com/joshharrison/lineloom/internal/graph"
	"github.com/joshharrison/lineloom/internal/heuristic"
	"github.com/joshharrison/lineloom/internal/logging"
	"github.com/joshharrison/lineloom/internal/planner"
	"github.com/joshharrison/lineloom/internal/reporter"
	"github.com/joshharrison/lineloom/internal/source"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons used in responses and the failures counter.
const (
	ReasonRequest    = "request"
	ReasonParse      = "parse"
	ReasonGraph      = "graph"
	ReasonInfeasible = "infeasible"
	ReasonInternal   = "internal"
)

// Server balances task tables over HTTP.
type Server struct {
	balance  config.BalanceConfig
	server   config.ServerConfig
	logger   *logging.Logger
	metrics  *Metrics
	registry *prom.Registry

	mu    sync.RWMutex
	plan  *planner.BalancePlan
	graph *graph.TaskGraph
}

// New creates a Server with its own Prometheus registry.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	reg := prom.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &Server{
		balance:  cfg.Balance,
		server:   cfg.Server,
		logger:   logger.WithPhase("server"),
		metrics:  m,
		registry: reg,
	}, nil
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleBalance(w, r)
	})
	mux.HandleFunc("/plan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleGetPlan(w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.server.ReadTimeout(),
		WriteTimeout: s.server.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Plan returns the most recent plan, or nil.
func (s *Server) Plan() *planner.BalancePlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.planConfig(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, ReasonRequest, err)
		return
	}

	format, err := requestFormat(r)
	if err != nil {
		s.fail(w, http.StatusUnsupportedMediaType, ReasonRequest, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.server.MaxBodyBytes)
	records, err := source.Parse(format, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, ReasonRequest, err)
			return
		}
		s.fail(w, http.StatusBadRequest, ReasonParse, err)
		return
	}

	start := time.Now()
	g, err := graph.BuildFromRaw(records)
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, ReasonGraph, err)
		return
	}
	plan, err := planner.Generate(g, cfg, planner.WithLogger(s.logger))
	if err != nil {
		status, reason := classify(err)
		s.fail(w, status, reason, err)
		return
	}
	s.metrics.ObservePlan(plan, time.Since(start))

	s.mu.Lock()
	s.plan = plan
	s.graph = g
	s.mu.Unlock()

	data, err := reporter.New(plan).JSON()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, ReasonInternal, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	plan, g := s.plan, s.graph
	s.mu.RUnlock()

	if plan == nil {
		http.Error(w, "no plan balanced yet", http.StatusNotFound)
		return
	}

	rpt := reporter.New(plan)
	switch r.URL.Query().Get("format") {
	case "", "json":
		data, err := rpt.JSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		rpt.PrintReport(w)
	case "dot":
		var buf bytes.Buffer
		reporter.PrintDOT(&buf, g, plan)
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write(buf.Bytes())
	default:
		http.Error(w, "format must be json, text or dot", http.StatusBadRequest)
	}
}

// planConfig overlays query parameters on the configured defaults.
func (s *Server) planConfig(r *http.Request) (planner.PlanConfig, error) {
	cfg := s.balance.PlanConfig()
	q := r.URL.Query()

	if v := q.Get("beat"); v != "" {
		beat, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("beat: %w", err)
		}
		cfg.Beat = beat
	}
	if v := q.Get("heuristic"); v != "" {
		cfg.Heuristic = v
	}
	if v := q.Get("tie_break"); v != "" {
		cfg.TieBreak = v
	}
	if v := q.Get("improve"); v != "" {
		improve, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("improve: %w", err)
		}
		cfg.Improve = improve
	}
	if v := q.Get("max_rounds"); v != "" {
		rounds, err := strconv.Atoi(v)
		if err != nil || rounds < 0 {
			return cfg, fmt.Errorf("max_rounds: invalid value %q", v)
		}
		cfg.MaxRounds = rounds
	}

	if cfg.Beat <= 0 {
		return cfg, config.ErrBeatRequired
	}
	return cfg, nil
}

// requestFormat picks the task table encoding from the format query
// parameter, then the Content-Type header. CSV is the default.
func requestFormat(r *http.Request) (source.Format, error) {
	if v := r.URL.Query().Get("format"); v != "" {
		return source.ParseFormat(v)
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return source.FormatCSV, nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: %s", source.ErrUnsupportedFormat, ct)
	}
	switch {
	case mediaType == "application/json":
		return source.FormatJSON, nil
	case strings.HasSuffix(mediaType, "yaml"):
		return source.FormatYAML, nil
	case mediaType == "text/csv", mediaType == "text/plain":
		return source.FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", source.ErrUnsupportedFormat, mediaType)
	}
}

// classify maps a planning error to an HTTP status and failure reason.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, heuristic.ErrInfeasibleTask):
		return http.StatusUnprocessableEntity, ReasonInfeasible
	case errors.Is(err, heuristic.ErrInvalidBeat),
		errors.Is(err, heuristic.ErrUnknownHeuristic),
		errors.Is(err, heuristic.ErrUnknownTieBreak):
		return http.StatusBadRequest, ReasonRequest
	case errors.Is(err, graph.ErrCyclicDependency),
		errors.Is(err, graph.ErrInvalidReference),
		errors.Is(err, graph.ErrDuplicateTask):
		return http.StatusUnprocessableEntity, ReasonGraph
	default:
		return http.StatusInternalServerError, ReasonInternal
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, reason string, err error) {
	s.metrics.ObserveFailure(reason)
	s.logger.Warn("balance request rejected", "status", status, "reason", reason, "error", err.Error())
	http.Error(w, fmt.Sprintf("%s: %v", reason, err), status)
}
