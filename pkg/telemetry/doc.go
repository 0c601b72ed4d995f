// Package telemetry wires OpenTelemetry exporters and meters for the
// Scottish Budget service.
//
// It centralises trace provider setup, applies service resource attributes,
// and records per-simulation meters so operators can correlate reform
// calculations with request behaviour.
package telemetry
