// Package mcp publishes the tool registry through the mcp-go server, which
// provides the stdio transport and the session-bound streamable HTTP mode.
package mcp
