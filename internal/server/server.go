// Package server serves a story catalogue over the HTTP API the browser
// consumes. It exists for local development and integration tests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pders01/stories/internal/config"
	"github.com/pders01/stories/internal/debuglog"
	"github.com/pders01/stories/internal/index"
	"github.com/pders01/stories/internal/stories"
)

// Catalogue is the story store behind the API.
type Catalogue interface {
	Page(query string, offset, limit int) ([]stories.Story, int, error)
	Len() int
}

var _ Catalogue = (*index.Index)(nil)

type Server struct {
	cfg       config.ServerConfig
	catalogue Catalogue
	log       debuglog.Logger
	registry  *prometheus.Registry
	metrics   *metrics
	router    *mux.Router
}

func New(cfg *config.Config, catalogue Catalogue, log debuglog.Logger) *Server {
	if log == nil {
		log = debuglog.Nop()
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:       cfg.Server,
		catalogue: catalogue,
		log:       log.WithFields(map[string]any{"component": "server"}),
		registry:  reg,
		metrics:   newMetrics(reg),
	}
	s.metrics.catalogueSize.Set(float64(catalogue.Len()))
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/stories", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/stories/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the handler in an http.Server bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve runs until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := s.HTTPServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Infof("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.log.Infof("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ListenAndServe binds the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	pageSize, err := intParam(q.Get("pageSize"), s.cfg.DefaultPageSize)
	if err != nil || pageSize < 1 || (s.cfg.MaxPageSize > 0 && pageSize > s.cfg.MaxPageSize) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("pageSize must be between 1 and %d", s.cfg.MaxPageSize))
		return
	}
	query := strings.TrimSpace(q.Get("query"))

	items, total, err := s.catalogue.Page(query, (page-1)*pageSize, pageSize)
	if err != nil {
		s.log.Errorf("listing page %d: %v", page, err)
		writeError(w, http.StatusInternalServerError, "listing stories failed")
		return
	}
	if items == nil {
		items = []stories.Story{}
	}

	s.log.Debugf("page %d size %d query %q: %d of %d", page, pageSize, query, len(items), total)
	s.metrics.storiesServed.WithLabelValues("/stories").Add(float64(len(items)))
	writeJSON(w, http.StatusOK, stories.PageResponse{Items: items, TotalCount: total})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"), s.cfg.MaxPageSize)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if s.cfg.MaxPageSize > 0 && limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	query := strings.TrimSpace(q.Get("query"))

	items, _, err := s.catalogue.Page(query, 0, limit)
	if err != nil {
		s.log.Errorf("searching %q: %v", query, err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if items == nil {
		items = []stories.Story{}
	}

	s.metrics.storiesServed.WithLabelValues("/stories/search").Add(float64(len(items)))
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, "OK"); err != nil {
		s.log.Warnf("writing health response: %v", err)
	}
}

// instrument records request counts and latency per route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.log.Debugf("%s %s -> %d", r.Method, r.URL.RequestURI(), rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
