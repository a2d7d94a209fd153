// Package instrumentation provides OpenTelemetry metrics for the
// export pipeline.
//
// The surface is deliberately small: a counter of processed messages
// by outcome and a histogram of run durations, exported periodically
// to stderr when enabled. A disabled provider hands out no-op
// recorders, so calling code never branches on whether metrics are on.
package instrumentation
