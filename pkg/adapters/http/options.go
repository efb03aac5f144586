package http

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/toolserve/pkg/cors"
)

// DefaultPath is where the tool endpoint is mounted.
const DefaultPath = "/mcp"

// DefaultMaxBodyBytes bounds a single JSON-RPC request body (1MB).
const DefaultMaxBodyBytes int64 = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithPath mounts the tool endpoint at path.
func WithPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.path = path
		}
	}
}

// WithPolicy replaces the default permissive cross-origin policy.
func WithPolicy(p cors.Policy) Option {
	return func(s *Server) {
		s.policy = p
	}
}

// WithLogger sets the logger used for exchange and framing logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxBodyBytes bounds request bodies. Larger bodies get 413.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithMetrics records every exchange and mounts GET /metrics.
func WithMetrics(m ExchangeRecorder) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithServerInfo sets the name and version reported by initialize.
func WithServerInfo(name, version string) Option {
	return func(s *Server) {
		s.info.Name = name
		s.info.Version = version
	}
}

// WithInstructions sets the optional usage hint returned by initialize.
func WithInstructions(text string) Option {
	return func(s *Server) {
		s.instructions = text
	}
}

// WithJSONResponse always answers with application/json, even when the
// client accepts text/event-stream.
func WithJSONResponse() Option {
	return func(s *Server) {
		s.jsonOnly = true
	}
}

// WithStatefulHandler hands the tool endpoint over to a session-bound
// handler. CORS, health and metrics stay in front of it.
func WithStatefulHandler(h http.Handler) Option {
	return func(s *Server) {
		s.stateful = h
	}
}
