package config

const (
	// DefaultNodeURL is the RPC endpoint of a light node running locally.
	DefaultNodeURL = "ws://localhost:26658"
	// DefaultNamespace is the sub-ID of the demo namespace.
	DefaultNamespace = "0xDEADBEEF"
	// DefaultSubmitData is the payload of the submit command.
	DefaultSubmitData = "Hello, World!"
)

// DefaultConfig returns the default configuration. No auth token is set.
func DefaultConfig() Config {
	return Config{
		NodeURL:   DefaultNodeURL,
		Namespace: DefaultNamespace,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Submit: SubmitConfig{
			Data: DefaultSubmitData,
		},
		Instrumentation: DefaultInstrumentationConfig(),
	}
}
