package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evstack/celestia-rpc-client/pkg/config"
	"github.com/evstack/celestia-rpc-client/pkg/submit"
)

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a blob to the namespace and read it back",
		Long: `Submit a blob to the namespace, wait for its inclusion, then fetch
the blobs at the inclusion height and check that the submitted one is there
with the same data and commitment. Works over http:// and ws:// endpoints.`,
		Args: cobra.NoArgs,
		RunE: runSubmit,
	}
	config.AddSubmitFlags(cmd)
	return cmd
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	res, err := submit.RoundTrip(cmd.Context(), s.api, s.ns, []byte(s.cfg.Submit.Data), submit.Options{
		GasPrice: s.cfg.Submit.GasPrice,
		Timeout:  s.cfg.Submit.Timeout,
		Strict:   s.cfg.Submit.Strict,
		Logger:   s.logger,
	})
	if res != nil {
		fmt.Fprintf(out, "Blob was included at height %d\n", res.Height)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Retrieved %d blobs at height %d, commitment 0x%s matches\n",
		len(res.Retrieved), res.Height, hex.EncodeToString(res.Commitment))
	return nil
}
