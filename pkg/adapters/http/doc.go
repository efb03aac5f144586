// Package http exposes the tool dispatcher over the MCP streamable HTTP
// transport in stateless mode.
//
// Each POST to the endpoint carries one JSON-RPC 2.0 request (initialize,
// ping, tools/list or tools/call) and receives one response, either as
// application/json or as a single text/event-stream message event.
// Notifications are acknowledged with 202. Malformed exchanges are answered
// with a 4xx before the dispatcher is involved, while a tool that runs and
// fails is a normal result with isError set.
package http
