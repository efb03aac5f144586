package toolserve

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/toolserve/internal/tools"
	httpadapter "github.com/aretw0/toolserve/pkg/adapters/http"
	mcpadapter "github.com/aretw0/toolserve/pkg/adapters/mcp"
	"github.com/aretw0/toolserve/pkg/adapters/process"
	"github.com/aretw0/toolserve/pkg/dispatch"
	"github.com/aretw0/toolserve/pkg/registry"
)

// Name is the server name reported to clients.
const Name = "toolserve"

// Version is the release version, overridable at link time.
var Version = "0.1.0"

// Toolset registers a group of tools.
type Toolset func(reg *registry.Registry) error

// ProcessTools registers the command-backed tools declared in the YAML or
// JSON file at path.
func ProcessTools(path string) Toolset {
	return func(reg *registry.Registry) error {
		tools, err := process.LoadTools(path)
		if err != nil {
			return err
		}
		return process.Register(reg, tools)
	}
}

// Server is the high-level entry point: a sealed registry, the dispatcher in
// front of it, and constructors for every transport.
type Server struct {
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

type settings struct {
	logger         *slog.Logger
	toolsets       []Toolset
	builtins       bool
	observers      []dispatch.Observer
	maxMessageSize int
}

// Option defines a functional option for configuring the Server.
type Option func(*settings)

// WithLogger sets the logger shared by the dispatcher and transports.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithTools adds a toolset, registered after the built-in tools.
func WithTools(ts Toolset) Option {
	return func(s *settings) {
		s.toolsets = append(s.toolsets, ts)
	}
}

// WithoutBuiltins skips add, list_files and get_system_info.
func WithoutBuiltins() Option {
	return func(s *settings) {
		s.builtins = false
	}
}

// WithObserver is notified after every invocation.
func WithObserver(o dispatch.Observer) Option {
	return func(s *settings) {
		s.observers = append(s.observers, o)
	}
}

// WithMaxMessageSize bounds client-facing failure messages.
func WithMaxMessageSize(n int) Option {
	return func(s *settings) {
		s.maxMessageSize = n
	}
}

// New builds the registry from the configured toolsets, seals it and puts a
// dispatcher in front. A registration error, such as a duplicate name, is
// returned here and is fatal for the caller.
func New(opts ...Option) (*Server, error) {
	cfg := settings{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		builtins: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	toolsets := cfg.toolsets
	if cfg.builtins {
		toolsets = append([]Toolset{func(reg *registry.Registry) error { return tools.Register(reg) }}, toolsets...)
	}

	reg := registry.NewRegistry()
	for _, ts := range toolsets {
		if err := ts(reg); err != nil {
			return nil, err
		}
	}
	reg.Seal()

	dopts := []dispatch.Option{
		dispatch.WithLogger(cfg.logger),
		dispatch.WithMaxMessageSize(cfg.maxMessageSize),
	}
	for _, o := range cfg.observers {
		dopts = append(dopts, dispatch.WithObserver(o))
	}

	return &Server{
		Registry:   reg,
		Dispatcher: dispatch.New(reg, dopts...),
		logger:     cfg.logger,
	}, nil
}

// HTTPHandler returns the stateless streamable HTTP transport.
func (s *Server) HTTPHandler(opts ...httpadapter.Option) http.Handler {
	base := []httpadapter.Option{
		httpadapter.WithLogger(s.logger),
		httpadapter.WithServerInfo(Name, Version),
	}
	return httpadapter.NewHandler(s.Dispatcher, append(base, opts...)...)
}

// MCP returns the mcp-go bridge used for stdio and session-bound HTTP.
func (s *Server) MCP() (*mcpadapter.Server, error) {
	return mcpadapter.NewServer(s.Dispatcher, Name, Version, s.logger)
}
