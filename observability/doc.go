// Package observability wires the auth core into OpenTelemetry.
//
// InitMeter and InitTracer install global OTLP-backed providers.
// AuthMetrics carries the instruments the gateway and middleware record:
// login outcomes, token verifications, rate-limit rejections, session
// evictions, and IP blocks. Health types let components report liveness
// to an embedding service's health endpoint.
package observability
