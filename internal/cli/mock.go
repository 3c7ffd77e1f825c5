package cli

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/csheth/tumorscope/internal/mockserver"
)

func newMockCommand(opts *globalOptions) *cobra.Command {
	var (
		addr  string
		mopts mockserver.Options
	)
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Serve a synthetic analysis endpoint for local development",
		Long: `Serve GET / and POST /explain with deterministic synthetic results so the client
can be exercised without the model service. Results are not medical predictions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(cmd.ErrOrStderr())
			mopts.Quiet = !opts.verbose
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mockserver.Serve(ctx, addr, mopts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().IntVar(&mopts.ForceStatus, "status", 0, "answer every analysis with this HTTP status")
	cmd.Flags().StringVar(&mopts.ForceClass, "class", "", "force the predicted class (glioma, meningioma, pituitary, notumor)")
	cmd.Flags().DurationVar(&mopts.Latency, "latency", 0, "delay each analysis response")
	cmd.Flags().IntVar(&mopts.Counterfactuals, "counterfactuals", 4, "number of counterfactual images")
	cmd.Flags().IntVar(&mopts.ImageSize, "size", 299, "edge length of generated images")
	return cmd
}
