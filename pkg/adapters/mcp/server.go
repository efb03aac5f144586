package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/schema"
)

// Dispatcher is the core the bridge publishes.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.InvocationRequest) domain.Result
	Tools() []domain.Descriptor
}

// Server bridges the dispatcher onto an mcp-go server, for the stdio
// transport and for the session-bound streamable HTTP transport.
type Server struct {
	dispatcher Dispatcher
	mcpServer  *server.MCPServer
	order      map[string]int
	logger     *slog.Logger
}

// NewServer publishes every tool of d on a new mcp-go server.
func NewServer(d Dispatcher, name, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		dispatcher: d,
		order:      make(map[string]int),
		logger:     logger,
	}
	s.mcpServer = server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolFilter(s.registrationOrder),
	)
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// MCPServer exposes the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// HandleMessage answers one JSON-RPC message. Calls to unregistered tools
// are dispatched here so they come back as isError results.
func (s *Server) HandleMessage(ctx context.Context, msg json.RawMessage) mcp.JSONRPCMessage {
	if reply, ok := s.answerUnknownTool(ctx, msg); ok {
		return reply
	}
	return s.mcpServer.HandleMessage(ctx, msg)
}

// ServeStdio serves on Stdin/Stdout until the input is closed or the process
// is interrupted.
func (s *Server) ServeStdio() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen serves newline-delimited JSON-RPC from in, writing replies to out.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}
	pr, pw := io.Pipe()
	defer pr.Close()

	go s.filterInput(ctx, in, pw, w)
	return server.NewStdioServer(s.mcpServer).Listen(ctx, pr, w)
}

// filterInput answers unknown-tool calls itself and forwards every other line.
func (s *Server) filterInput(ctx context.Context, in io.Reader, pw *io.PipeWriter, out io.Writer) {
	reader := bufio.NewReader(in)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if reply, ok := s.answerUnknownTool(ctx, line); ok {
				if werr := writeLine(out, reply); werr != nil {
					pw.CloseWithError(werr)
					return
				}
			} else if _, werr := pw.Write(line); werr != nil {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			pw.CloseWithError(err)
			return
		}
	}
}

// StreamableHTTPHandler returns the session-bound HTTP transport. It issues
// Mcp-Session-Id and keeps server-held streams, unlike the stateless adapter.
func (s *Server) StreamableHTTPHandler(path string) http.Handler {
	sessions := &server.InsecureStatefulSessionIdManager{}
	streamable := server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath(path),
		server.WithSessionIdManager(sessions),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			streamable.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		// Requests outside a live session go to mcp-go, which rejects them.
		if terminated, err := sessions.Validate(r.Header.Get(server.HeaderKeySessionID)); err == nil && !terminated {
			if reply, ok := s.answerUnknownTool(r.Context(), body); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				if err := json.NewEncoder(w).Encode(reply); err != nil {
					s.logger.Warn("Failed to write MCP response", "err", err)
				}
				return
			}
		}
		streamable.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() error {
	for i, desc := range s.dispatcher.Tools() {
		raw, err := json.Marshal(schema.InputSchema(desc))
		if err != nil {
			return fmt.Errorf("input schema for %q: %w", desc.Name, err)
		}
		s.order[desc.Name] = i
		s.mcpServer.AddTool(mcp.NewToolWithRawSchema(desc.Name, desc.Description, raw), s.handle(desc))
	}
	return nil
}

// handle routes one tools/call through the dispatcher. Failures become
// isError results, never protocol errors.
func (s *Server) handle(desc domain.Descriptor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := s.dispatcher.Dispatch(ctx, domain.InvocationRequest{
			Tool:      request.Params.Name,
			Arguments: request.GetArguments(),
		})
		return s.toolResult(desc, res), nil
	}
}

func (s *Server) toolResult(desc domain.Descriptor, res domain.Result) *mcp.CallToolResult {
	if res.Failed {
		s.logger.Debug("MCP tool call failed", "tool", desc.Name, "outcome", res.Outcome())
		return mcp.NewToolResultError(res.Message)
	}
	if structured := schema.StructuredResult(desc, res.Value); structured != nil {
		return mcp.NewToolResultStructured(structured, res.Text())
	}
	return mcp.NewToolResultText(res.Text())
}

// registrationOrder restores the registry order that mcp-go's listing
// replaces with a name sort.
func (s *Server) registrationOrder(_ context.Context, tools []mcp.Tool) []mcp.Tool {
	out := slices.Clone(tools)
	slices.SortStableFunc(out, func(a, b mcp.Tool) int {
		return s.order[a.Name] - s.order[b.Name]
	})
	return out
}
