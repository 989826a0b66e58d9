// Package idgen wraps the UUID generator so that it can be stubbed in tests.
// Container executions and queued messages take their identifiers from here;
// callers should treat identifiers as opaque strings.
package idgen
