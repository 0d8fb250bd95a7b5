package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evstack/celestia-rpc-client/pkg/watcher"
)

func newSubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe",
		Short: "Report the blobs of every new block (default command)",
		Args:  cobra.NoArgs,
		RunE:  runSubscribe,
	}
}

func runSubscribe(cmd *cobra.Command, _ []string) error {
	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	w := watcher.New(s.api, s.api, s.ns,
		watcher.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		watcher.WithLogger(s.logger),
	)
	if err := w.Run(cmd.Context()); err != nil {
		return fmt.Errorf("failed subscribing to incoming headers: %w", err)
	}
	return nil
}
