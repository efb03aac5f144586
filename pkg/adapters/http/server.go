package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/toolserve/pkg/cors"
	"github.com/aretw0/toolserve/pkg/domain"
)

// Dispatcher is the core the transport frames requests for.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.InvocationRequest) domain.Result
	Tools() []domain.Descriptor
}

// ExchangeRecorder counts HTTP exchanges and exposes them for scraping.
type ExchangeRecorder interface {
	ObserveExchange(method string, status int)
	Handler() http.Handler
}

// Server speaks the stateless streamable HTTP flavour of MCP: every POST
// carries one JSON-RPC request and gets exactly one response. No state is
// kept between exchanges.
type Server struct {
	dispatcher   Dispatcher
	descriptors  map[string]domain.Descriptor
	path         string
	policy       cors.Policy
	logger       *slog.Logger
	maxBody      int64
	metrics      ExchangeRecorder
	info         mcp.Implementation
	instructions string
	jsonOnly     bool
	stateful     http.Handler
}

// NewServer builds a transport around d.
func NewServer(d Dispatcher, opts ...Option) *Server {
	s := &Server{
		dispatcher: d,
		path:       DefaultPath,
		policy:     cors.Permissive(),
		logger:     slog.Default(),
		maxBody:    DefaultMaxBodyBytes,
		info:       mcp.Implementation{Name: "toolserve", Version: "dev"},
	}
	for _, opt := range opts {
		opt(s)
	}
	// The registry is sealed before a transport exists, so the index stays valid.
	s.descriptors = make(map[string]domain.Descriptor)
	for _, desc := range d.Tools() {
		s.descriptors[desc.Name] = desc
	}
	return s
}

// NewHandler creates the HTTP handler serving the tool endpoint, /health and,
// when metrics are configured, /metrics.
func NewHandler(d Dispatcher, opts ...Option) http.Handler {
	return NewServer(d, opts...).Handler()
}

// Path returns the mount point of the tool endpoint.
func (s *Server) Path() string { return s.path }

// Handler assembles the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observeExchanges)
	r.Use(middleware.Recoverer)
	r.Use(s.policy.Middleware(s.logger))

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	if s.stateful != nil {
		r.Handle(s.path, s.stateful)
		return r
	}

	r.Post(s.path, s.handlePost)
	r.Get(s.path, s.methodNotAllowed)
	r.Delete(s.path, s.methodNotAllowed)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tools":  len(s.dispatcher.Tools()),
	}, s.logger)
}

// methodNotAllowed answers GET and DELETE: stateless mode holds no
// server-initiated streams and no sessions to terminate.
func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeJSON(w, http.StatusMethodNotAllowed,
		errorResponse(nil, mcp.INVALID_REQUEST, "method not allowed: stateless server has no streams or sessions"),
		s.logger)
}

// handlePost runs one exchange: Received, Parsed, Dispatched, Responded.
// A framing failure short-circuits to a 4xx without touching the dispatcher.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if ferr := checkContentType(r); ferr != nil {
		s.fail(w, r, ferr)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, framingError(http.StatusRequestEntityTooLarge, mcp.INVALID_REQUEST, "request body too large"))
			return
		}
		s.fail(w, r, framingError(http.StatusBadRequest, mcp.PARSE_ERROR, "could not read request body"))
		return
	}

	req, ferr := decodeRequest(body)
	if ferr != nil {
		s.fail(w, r, ferr)
		return
	}

	if req.isNotification() {
		s.logger.Debug("Notification accepted", "method", req.Method)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	resp, ferr := s.route(r.Context(), req)
	if ferr != nil {
		s.fail(w, r, ferr)
		return
	}
	s.respond(w, r, resp)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, ferr *domain.FramingError) {
	s.logger.Warn("Framing error", "status", ferr.Status, "code", ferr.Code, "message", ferr.Message,
		"request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, ferr.Status, errorResponse(nil, ferr.Code, ferr.Message), s.logger)
}

// observeExchanges logs one line per exchange and feeds exchange metrics.
func (s *Server) observeExchanges(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("HTTP exchange",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
		if s.metrics != nil {
			s.metrics.ObserveExchange(r.Method, status)
		}
	})
}

func checkContentType(r *http.Request) *domain.FramingError {
	ct := r.Header.Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if ct == "" || err != nil || mt != "application/json" {
		return framingError(http.StatusUnsupportedMediaType, mcp.INVALID_REQUEST, "Content-Type must be application/json")
	}
	return nil
}
