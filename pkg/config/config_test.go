package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evstack/celestia-rpc-client/pkg/namespace"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	AddFlags(cmd)
	AddSubmitFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvNodeURL, EnvAuthToken, "CELESTIA_CLIENT_LOG_LEVEL", "CELESTIA_CLIENT_GAS_PRICE", "CELESTIA_CLIENT_NAMESPACE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefaultConfig(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, "ws://localhost:26658", def.NodeURL)
	assert.Nil(t, def.AuthToken)
	assert.Equal(t, "Hello, World!", def.Submit.Data)
	assert.Equal(t, LogConfig{Level: "info", Format: "text"}, def.Log)
	require.NoError(t, def.Validate())

	ns, err := def.BlobNamespace()
	require.NoError(t, err)
	assert.True(t, ns.Equals(namespace.Demo()))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newTestCommand(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Flags(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newTestCommand(t,
		"-u", "http://node:26658",
		"-t", "secret",
		"--log.level", "debug",
		"--log.format", "json",
		"--data", "payload",
		"--gas-price", "0.002",
		"--submit-timeout", "30s",
		"--strict",
	))
	require.NoError(t, err)

	assert.Equal(t, "http://node:26658", cfg.NodeURL)
	require.NotNil(t, cfg.AuthToken)
	assert.Equal(t, "secret", *cfg.AuthToken)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, SubmitConfig{Data: "payload", GasPrice: 0.002, Timeout: 30 * time.Second, Strict: true}, cfg.Submit)
}

func TestLoad_Instrumentation(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newTestCommand(t))
	require.NoError(t, err)
	assert.False(t, cfg.Instrumentation.IsTracingEnabled())

	cfg, err = Load(newTestCommand(t,
		"--instrumentation.tracing",
		"--instrumentation.tracing_endpoint", "collector:4318",
		"--instrumentation.tracing_sample_rate", "1",
	))
	require.NoError(t, err)
	assert.True(t, cfg.Instrumentation.IsTracingEnabled())
	assert.Equal(t, "collector:4318", cfg.Instrumentation.TracingEndpoint)
	assert.Equal(t, "celestia-client", cfg.Instrumentation.TracingServiceName)
	assert.Equal(t, 1.0, cfg.Instrumentation.TracingSampleRate)

	cfg, err = Load(newTestCommand(t, "--instrumentation.tracing", "--instrumentation.tracing_endpoint", ""))
	require.NoError(t, err)
	assert.False(t, cfg.Instrumentation.IsTracingEnabled())
}

func TestLoad_Namespace(t *testing.T) {
	clearEnv(t)
	cafe, err := namespace.NewV0([]byte{0xCA, 0xFE})
	require.NoError(t, err)

	cfg, err := Load(newTestCommand(t, "--namespace", "cafe"))
	require.NoError(t, err)
	ns, err := cfg.BlobNamespace()
	require.NoError(t, err)
	assert.True(t, ns.Equals(cafe))

	t.Setenv("CELESTIA_CLIENT_NAMESPACE", "0x"+hex.EncodeToString(cafe.Bytes()))
	cfg, err = Load(newTestCommand(t))
	require.NoError(t, err)
	ns, err = cfg.BlobNamespace()
	require.NoError(t, err)
	assert.True(t, ns.Equals(cafe))

	_, err = Load(newTestCommand(t, "--namespace", "0xzz"))
	require.ErrorIs(t, err, namespace.ErrInvalidNamespace)
}

func TestLoad_AuthToken(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		want    *string
		wantErr error
	}{
		{name: "absent", want: nil},
		{name: "flag", args: []string{"--celestia-node-auth-token", "abc"}, want: ptr("abc")},
		{name: "short flag", args: []string{"-t", "abc"}, want: ptr("abc")},
		{name: "env", env: map[string]string{EnvAuthToken: "from-env"}, want: ptr("from-env")},
		{name: "flag wins over env", args: []string{"-t", "flag"}, env: map[string]string{EnvAuthToken: "env"}, want: ptr("flag")},
		{name: "empty env is absent", env: map[string]string{EnvAuthToken: ""}, want: nil},
		{name: "empty flag", args: []string{"-t", ""}, wantErr: ErrEmptyAuthToken},
		{name: "empty flag with env", args: []string{"--celestia-node-auth-token="}, env: map[string]string{EnvAuthToken: "env"}, wantErr: ErrEmptyAuthToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(newTestCommand(t, tt.args...))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.AuthToken)
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
celestia-node-url: ws://from-file:26658
celestia-node-auth-token: file-token
gas-price: 0.5
submit-timeout: 1m
log:
  level: warn
  format: json
`), 0o600))

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load(newTestCommand(t, "--config", file))
		require.NoError(t, err)
		assert.Equal(t, "ws://from-file:26658", cfg.NodeURL)
		require.NotNil(t, cfg.AuthToken)
		assert.Equal(t, "file-token", *cfg.AuthToken)
		assert.Equal(t, 0.5, cfg.Submit.GasPrice)
		assert.Equal(t, time.Minute, cfg.Submit.Timeout)
		assert.Equal(t, LogConfig{Level: "warn", Format: "json"}, cfg.Log)
		assert.Equal(t, "Hello, World!", cfg.Submit.Data)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv(EnvNodeURL, "ws://from-env:26658")
		t.Setenv("CELESTIA_CLIENT_LOG_LEVEL", "error")
		cfg, err := Load(newTestCommand(t, "--config", file))
		require.NoError(t, err)
		assert.Equal(t, "ws://from-env:26658", cfg.NodeURL)
		assert.Equal(t, "error", cfg.Log.Level)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv(EnvNodeURL, "ws://from-env:26658")
		cfg, err := Load(newTestCommand(t, "--config", file, "-u", "ws://from-flag:26658"))
		require.NoError(t, err)
		assert.Equal(t, "ws://from-flag:26658", cfg.NodeURL)
	})
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(newTestCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	require.ErrorIs(t, err, ErrReadConfig)

	_, err = Load(newTestCommand(t, "--log.format", "xml"))
	require.Error(t, err)

	_, err = Load(newTestCommand(t, "-u", ""))
	require.Error(t, err)

	_, err = Load(newTestCommand(t, "--gas-price", "-1"))
	require.Error(t, err)

	_, err = Load(newTestCommand(t, "--instrumentation.tracing_sample_rate", "2"))
	require.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, EnvNodeURL, envName(FlagNodeURL))
	assert.Equal(t, EnvAuthToken, envName(FlagAuthToken))
	assert.Equal(t, "CELESTIA_CLIENT_LOG_LEVEL", envName(FlagLogLevel))
	assert.Equal(t, "CELESTIA_CLIENT_SUBMIT_TIMEOUT", envName(FlagSubmitTimeout))
	assert.Equal(t, "CELESTIA_CLIENT_INSTRUMENTATION_TRACING_ENDPOINT", envName(FlagTracingEndpoint))
}

func ptr(s string) *string {
	return &s
}
