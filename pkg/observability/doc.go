/*
Package observability records tool invocations and HTTP exchanges.

Metrics exposes prometheus counters and histograms and serves them on
/metrics. Tracing turns every finished invocation into an OpenTelemetry span.
Both plug into the dispatcher as dispatch.Observer values.
*/
package observability
