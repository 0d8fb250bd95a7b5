package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/evstack/celestia-rpc-client/pkg/namespace"
)

const (
	// FlagNodeURL is the RPC endpoint of the light node
	FlagNodeURL = "celestia-node-url"
	// FlagAuthToken is the bearer token sent to the light node
	FlagAuthToken = "celestia-node-auth-token" // #nosec G101
	// FlagConfig is an optional YAML file holding any of the flags below
	FlagConfig = "config"
	// FlagNamespace is the namespace watched and submitted to, a version 0
	// sub-ID or a full namespace in hex
	FlagNamespace = "namespace"

	// Logging configuration flags

	// FlagLogLevel is a flag for specifying the log level
	FlagLogLevel = "log.level"
	// FlagLogFormat is a flag for specifying the log format
	FlagLogFormat = "log.format"

	// Submit configuration flags

	// FlagSubmitData is the payload published by the submit command
	FlagSubmitData = "data"
	// FlagSubmitGasPrice is the gas price hint for the submit command
	FlagSubmitGasPrice = "gas-price"
	// FlagSubmitTimeout bounds the submit call
	FlagSubmitTimeout = "submit-timeout"
	// FlagSubmitStrict makes extra blobs in the namespace a failure
	FlagSubmitStrict = "strict"

	// Tracing configuration flags

	// FlagTracing enables OpenTelemetry tracing
	FlagTracing = "instrumentation.tracing"
	// FlagTracingEndpoint configures the OTLP endpoint (host:port)
	FlagTracingEndpoint = "instrumentation.tracing_endpoint"
	// FlagTracingServiceName configures the service.name resource attribute
	FlagTracingServiceName = "instrumentation.tracing_service_name"
	// FlagTracingSampleRate configures the TraceID ratio-based sampler
	FlagTracingSampleRate = "instrumentation.tracing_sample_rate"
)

const (
	// EnvNodeURL is the environment fallback for FlagNodeURL
	EnvNodeURL = "CELESTIA_NODE_URL"
	// EnvAuthToken is the environment fallback for FlagAuthToken
	EnvAuthToken = "CELESTIA_NODE_AUTH_TOKEN" // #nosec G101
	// EnvPrefix prefixes the environment fallback of every other flag,
	// e.g. CELESTIA_CLIENT_LOG_LEVEL
	EnvPrefix = "CELESTIA_CLIENT"
)

var (
	// ErrEmptyAuthToken is returned when a token is provided but empty.
	ErrEmptyAuthToken = errors.New("the authentication token must not be empty; omit it to connect without authentication")
	// ErrReadConfig is returned when the configuration file cannot be used.
	ErrReadConfig = errors.New("error while reading configuration file")
)

// Config holds the client configuration.
type Config struct {
	NodeURL string `mapstructure:"celestia-node-url" yaml:"celestia-node-url" comment:"RPC endpoint of the light node (ws:// for subscriptions)"`
	// AuthToken is nil when no token was provided.
	AuthToken *string `mapstructure:"-" yaml:"-"`
	Namespace string  `mapstructure:"namespace" yaml:"namespace" comment:"Namespace in hex, a version 0 sub-ID or all 29 bytes"`

	Log             LogConfig             `mapstructure:"log" yaml:"log"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
	Submit          SubmitConfig          `mapstructure:",squash" yaml:",inline"`
}

// LogConfig contains all logging configuration parameters
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" comment:"Log level (debug, info, warn, error)"`
	Format string `mapstructure:"format" yaml:"format" comment:"Log format (text, json)"`
}

// SubmitConfig contains the parameters of the submit command
type SubmitConfig struct {
	Data     string        `mapstructure:"data" yaml:"data" comment:"Payload to submit"`
	GasPrice float64       `mapstructure:"gas-price" yaml:"gas-price" comment:"Gas price hint, 0 lets the node estimate"`
	Timeout  time.Duration `mapstructure:"submit-timeout" yaml:"submit-timeout" comment:"Deadline of the submit call, 0 waits for inclusion"`
	Strict   bool          `mapstructure:"strict" yaml:"strict" comment:"Fail when other blobs share the namespace at the inclusion height"`
}

// Validate validates the config.
func (c *Config) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("%s must not be empty", FlagNodeURL)
	}
	if _, err := url.Parse(c.NodeURL); err != nil {
		return fmt.Errorf("invalid %s: %w", FlagNodeURL, err)
	}
	if c.AuthToken != nil && *c.AuthToken == "" {
		return ErrEmptyAuthToken
	}

	if _, err := c.BlobNamespace(); err != nil {
		return fmt.Errorf("invalid %s: %w", FlagNamespace, err)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, expected text or json", c.Log.Format)
	}
	if r := c.Instrumentation.TracingSampleRate; r < 0 || r > 1 {
		return fmt.Errorf("%s must be within [0, 1], got %v", FlagTracingSampleRate, r)
	}
	if c.Submit.GasPrice < 0 {
		return fmt.Errorf("%s must not be negative", FlagSubmitGasPrice)
	}
	if c.Submit.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", FlagSubmitTimeout)
	}
	return nil
}

// BlobNamespace parses the configured namespace.
func (c *Config) BlobNamespace() (libshare.Namespace, error) {
	return namespace.ParseHex(c.Namespace)
}

// AddFlags adds the connection and logging flags to cmd and its subcommands.
func AddFlags(cmd *cobra.Command) {
	def := DefaultConfig()

	cmd.PersistentFlags().StringP(FlagNodeURL, "u", def.NodeURL, "celestia light node RPC endpoint [env "+EnvNodeURL+"]")
	cmd.PersistentFlags().StringP(FlagAuthToken, "t", "", "celestia light node auth token [env "+EnvAuthToken+"]")
	cmd.PersistentFlags().String(FlagConfig, "", "path to a YAML configuration file")
	cmd.PersistentFlags().String(FlagNamespace, def.Namespace, "namespace in hex, a version 0 sub-ID or a full namespace")
	cmd.PersistentFlags().String(FlagLogLevel, def.Log.Level, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(FlagLogFormat, def.Log.Format, "log format (text, json)")

	cmd.PersistentFlags().Bool(FlagTracing, def.Instrumentation.Tracing, "enable OpenTelemetry tracing")
	cmd.PersistentFlags().String(FlagTracingEndpoint, def.Instrumentation.TracingEndpoint, "OTLP endpoint for traces (host:port)")
	cmd.PersistentFlags().String(FlagTracingServiceName, def.Instrumentation.TracingServiceName, "OpenTelemetry service.name")
	cmd.PersistentFlags().Float64(FlagTracingSampleRate, def.Instrumentation.TracingSampleRate, "trace sampling rate (0.0-1.0)")
}

// AddSubmitFlags adds the flags of the submit command.
func AddSubmitFlags(cmd *cobra.Command) {
	def := DefaultConfig()

	cmd.Flags().String(FlagSubmitData, def.Submit.Data, "payload to submit")
	cmd.Flags().Float64(FlagSubmitGasPrice, def.Submit.GasPrice, "gas price hint (0 lets the node estimate)")
	cmd.Flags().Duration(FlagSubmitTimeout, def.Submit.Timeout, "deadline of the submit call (0 waits for inclusion)")
	cmd.Flags().Bool(FlagSubmitStrict, def.Submit.Strict, "fail when other blobs share the namespace at the inclusion height")
}

// Load resolves the configuration of cmd. Precedence is flag, environment,
// configuration file, default.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()

	if err := bindFlags(cmd, v); err != nil {
		return Config{}, err
	}

	if file := v.GetString(FlagConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Join(ErrReadConfig, err)
		}
	}

	cfg, err := loadFromViper(v)
	if err != nil {
		return cfg, err
	}

	// empty environment variables are unset for viper, so only an explicit
	// flag or a config entry can produce an empty token
	if v.IsSet(FlagAuthToken) {
		token := v.GetString(FlagAuthToken)
		cfg.AuthToken = &token
	}

	return cfg, cfg.Validate()
}

func loadFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, errors.Join(ErrReadConfig, fmt.Errorf("failed creating decoder: %w", err))
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return cfg, errors.Join(ErrReadConfig, fmt.Errorf("failed decoding viper: %w", err))
	}

	return cfg, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bindFlags failed: %v", r)
		}
	}()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err = v.BindEnv(f.Name, envName(f.Name)); err != nil {
			panic(err)
		}
		if err = v.BindPFlag(f.Name, f); err != nil {
			panic(err)
		}
	})

	return err
}

// envName maps a flag to its environment variable. Dots and dashes are not
// allowed in environment variables, e.g. --log.level becomes
// CELESTIA_CLIENT_LOG_LEVEL.
func envName(flag string) string {
	switch flag {
	case FlagNodeURL:
		return EnvNodeURL
	case FlagAuthToken:
		return EnvAuthToken
	}
	name := strings.NewReplacer("-", "_", ".", "_").Replace(flag)
	return EnvPrefix + "_" + strings.ToUpper(name)
}
