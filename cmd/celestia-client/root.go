package main

import (
	"context"
	"fmt"
	"io"
	"time"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/evstack/celestia-rpc-client/pkg/config"
	"github.com/evstack/celestia-rpc-client/pkg/logging"
	"github.com/evstack/celestia-rpc-client/pkg/rpc"
	"github.com/evstack/celestia-rpc-client/pkg/telemetry"
)

// AppName is the name of the binary.
const AppName = "celestia-client"

const noTokenWarning = "WARNING: The authentication token is not provided. Make sure the light node is running with --rpc.skip-auth\n" +
	"  i.e. `celestia light start --core.ip rpc.celestia.pops.one --p2p.network celestia --rpc.skip-auth`\n" +
	"  If you are running a full node, you can set the token with `export CELESTIA_NODE_AUTH_TOKEN=<token>`\n" +
	"\n"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: "Watch a celestia light node for blobs in a namespace (0xDEADBEEF by default).",
		Long: `celestia-client subscribes to the headers of a celestia light node and, for
every new header, fetches the blobs published in the namespace set with
--namespace, 0xDEADBEEF by default.

Subscriptions need a websocket endpoint (ws:// or wss://). Run the light node
with --rpc.skip-auth or pass its auth token.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runSubscribe,
	}
	config.AddFlags(rootCmd)

	rootCmd.AddCommand(
		newSubscribeCmd(),
		newSubmitCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// session is what every command needs once the node is reachable.
type session struct {
	cfg    config.Config
	ns     libshare.Namespace
	logger zerolog.Logger
	client *rpc.Client
	// api is client, traced when tracing is enabled.
	api telemetry.NodeAPI

	shutdownTracing func(context.Context) error
}

// connect loads the configuration, prints the banner and dials the node.
func connect(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	ns, err := cfg.BlobNamespace()
	if err != nil {
		return nil, err
	}

	printBanner(cmd.OutOrStdout(), cfg)

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("component", "main").Logger()

	shutdownTracing, err := telemetry.InitTracing(cmd.Context(), cfg.Instrumentation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	var opts []rpc.Option
	if httpClient := telemetry.RPCHTTPClient(cfg.Instrumentation); httpClient != nil {
		opts = append(opts, rpc.WithHTTPClient(httpClient))
	}
	client, err := rpc.NewClient(cmd.Context(), logger, cfg.NodeURL, cfg.AuthToken, opts...)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, err
	}

	s := &session{
		cfg:             cfg,
		ns:              ns,
		logger:          logger,
		client:          client,
		api:             client,
		shutdownTracing: shutdownTracing,
	}
	if cfg.Instrumentation.IsTracingEnabled() {
		s.api = telemetry.WithTracingClient(client)
	}
	return s, nil
}

// close releases the node connections and flushes pending spans.
func (s *session) close() {
	s.client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.shutdownTracing(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to shut down tracing")
	}
}

func printBanner(w io.Writer, cfg config.Config) {
	fmt.Fprintf(w, "URL: %s\n", cfg.NodeURL)
	if cfg.AuthToken == nil {
		fmt.Fprintln(w, "Token: None")
		fmt.Fprint(w, noTokenWarning)
		return
	}
	fmt.Fprintf(w, "Token: Some(%q)\n", *cfg.AuthToken)
}
