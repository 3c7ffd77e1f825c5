package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csheth/tumorscope/internal/inference"
)

func newPingCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the analysis service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.setupHeadlessLogging(cmd)
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := inference.New(cfg.InferenceConfig())
			if err != nil {
				return err
			}
			banner, err := client.Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s unreachable: %w", cfg.Endpoint.BaseURL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.Endpoint.BaseURL, banner)
			return nil
		},
	}
}
