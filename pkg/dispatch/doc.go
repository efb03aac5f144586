/*
Package dispatch is the invocation boundary between transports and tool handlers.

A Dispatcher looks the requested tool up in its Catalog, binds and coerces the
raw arguments with package schema, runs the handler and packages the outcome
as a domain.Result. Unknown tools, invalid arguments, handler errors and handler
panics all come back as Failure values with a sanitized message; nothing a
handler does can take the process down.

Observers (metrics, tracing) are notified after every dispatch.
*/
package dispatch
