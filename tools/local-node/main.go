package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/evstack/celestia-rpc-client/pkg/localnode"
)

const (
	defaultHost = "localhost"
	defaultPort = "26658"
)

func main() {
	var (
		host        string
		port        string
		listenAll   bool
		token       string
		jwtSecret   string
		chainID     string
		maxBlobSize uint64
		blockTime   time.Duration
	)
	flag.StringVar(&port, "port", defaultPort, "listening port")
	flag.StringVar(&host, "host", defaultHost, "listening address")
	flag.BoolVar(&listenAll, "listen-all", false, "listen on all network interfaces (0.0.0.0) instead of just localhost")
	flag.StringVar(&token, "auth-token", "", "require this bearer token; empty serves every request like --rpc.skip-auth")
	flag.StringVar(&jwtSecret, "jwt-secret", "", "hex-encoded secret; JWTs signed with it grant the permissions in their Allow claim")
	flag.StringVar(&chainID, "chain-id", localnode.DefaultChainID, "chain id reported in headers")
	flag.Uint64Var(&maxBlobSize, "max-blob-size", localnode.DefaultMaxBlobSize, "maximum blob size in bytes")
	flag.DurationVar(&blockTime, "block-time", localnode.DefaultBlockTime, "time between empty blocks (e.g., 1s, 500ms)")
	flag.Parse()

	if listenAll {
		host = "0.0.0.0"
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	node := localnode.NewNode(logger,
		localnode.WithChainID(chainID),
		localnode.WithMaxBlobSize(maxBlobSize),
		localnode.WithBlockTime(blockTime),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node.Start(ctx)

	var opts []localnode.ServerOption
	if jwtSecret != "" {
		secret, err := localnode.DecodeSecret(jwtSecret)
		if err != nil {
			logger.Error().Err(err).Msg("invalid --jwt-secret")
			os.Exit(1)
		}
		adminToken, err := localnode.NewJWT(secret, 0, localnode.AllPermissions...)
		if err != nil {
			logger.Error().Err(err).Msg("failed to issue admin token")
			os.Exit(1)
		}
		opts = append(opts, localnode.WithJWTSecret(secret))
		logger.Info().Str("token", adminToken).Msg("admin JWT, export CELESTIA_NODE_AUTH_TOKEN to use it")
	}

	srv := localnode.NewServer(logger, node, token, opts...)
	addr, err := srv.Start(net.JoinHostPort(host, port))
	if err != nil {
		logger.Error().Err(err).Msg("error while creating local node RPC server")
		os.Exit(1)
	}

	logger.Info().
		Str("addr", addr).
		Str("chainID", chainID).
		Bool("auth", token != "" || jwtSecret != "").
		Uint64("maxBlobSize", maxBlobSize).
		Dur("blockTime", blockTime).
		Msg("Listening on")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	fmt.Println("\nCtrl+C pressed. Exiting...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error shutting down server")
	}
}
