package mcp

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/toolserve/pkg/domain"
)

// toolCall is the part of a tools/call request needed to spot unknown names.
type toolCall struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      mcp.RequestId `json:"id"`
	Method  mcp.MCPMethod `json:"method"`
	Params  struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

// answerUnknownTool handles a tools/call whose name is not registered.
// mcp-go answers those with a protocol error; here the dispatcher decides,
// so the client sees an isError result like any other failed call.
// Everything else, including malformed messages, is left to mcp-go.
func (s *Server) answerUnknownTool(ctx context.Context, msg []byte) (mcp.JSONRPCMessage, bool) {
	var call toolCall
	if err := json.Unmarshal(msg, &call); err != nil {
		return nil, false
	}
	if call.JSONRPC != mcp.JSONRPC_VERSION || call.Method != mcp.MethodToolsCall || call.ID.IsNil() {
		return nil, false
	}
	if call.Params.Name == "" {
		return nil, false
	}
	if _, known := s.order[call.Params.Name]; known {
		return nil, false
	}

	res := s.dispatcher.Dispatch(ctx, domain.InvocationRequest{
		Tool:      call.Params.Name,
		Arguments: call.Params.Arguments,
	})
	return mcp.NewJSONRPCResultResponse(call.ID, s.toolResult(domain.Descriptor{Name: call.Params.Name}, res)), true
}

// syncWriter serialises writes from mcp-go's stdio server and the
// unknown-tool path onto one stream.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

func writeLine(w io.Writer, msg mcp.JSONRPCMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
