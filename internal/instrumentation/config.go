package instrumentation

import "time"

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: gmail2md).
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Enabled determines if instrumentation is active. When false the
	// provider hands out no-op recorders and exports nothing.
	Enabled bool

	// ExportInterval is how often accumulated metrics are written to
	// the exporter (default: 60s).
	ExportInterval time.Duration
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "gmail2md",
		ExportInterval: 60 * time.Second,
	}
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = "gmail2md"
	}
	if c.ExportInterval <= 0 {
		c.ExportInterval = 60 * time.Second
	}
	return c
}
