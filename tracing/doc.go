// Package tracing integrates OpenTelemetry with the conveyor runtime. Every
// unit invocation becomes a span nested under the span of its enclosing unit.
// Instrumentation lives in its own package so applications that do not need
// tracing can leave it out of their build.
package tracing
