package config

// InstrumentationConfig defines the tracing configuration.
type InstrumentationConfig struct {
	// Tracing enables OpenTelemetry tracing of the node RPC calls.
	Tracing bool `mapstructure:"tracing" yaml:"tracing" comment:"Enable OpenTelemetry tracing"`
	// TracingEndpoint is the OTLP/HTTP endpoint traces are exported to.
	TracingEndpoint string `mapstructure:"tracing_endpoint" yaml:"tracing_endpoint" comment:"OTLP endpoint for traces (host:port)"`
	// TracingServiceName is reported as the service.name resource attribute.
	TracingServiceName string `mapstructure:"tracing_service_name" yaml:"tracing_service_name" comment:"OpenTelemetry service.name"`
	// TracingSampleRate is the TraceID ratio of the sampler, within [0, 1].
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate" yaml:"tracing_sample_rate" comment:"Trace sampling rate (0.0-1.0)"`
}

// DefaultInstrumentationConfig returns tracing disabled with the usual
// collector defaults.
func DefaultInstrumentationConfig() InstrumentationConfig {
	return InstrumentationConfig{
		Tracing:            false,
		TracingEndpoint:    "localhost:4318",
		TracingServiceName: "celestia-client",
		TracingSampleRate:  0.1,
	}
}

// IsTracingEnabled returns true if tracing is enabled and an endpoint is set.
func (cfg *InstrumentationConfig) IsTracingEnabled() bool {
	return cfg.Tracing && cfg.TracingEndpoint != ""
}
