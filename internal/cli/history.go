package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/csheth/tumorscope/internal/history"
	"github.com/csheth/tumorscope/internal/workflow"
)

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.setupHeadlessLogging(cmd)
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			records, err := history.Recent(cfg.Storage.HistoryPath, limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No analyses recorded yet.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tFILE\tCLASS\tCONFIDENCE\tENTROPY\tVARIANCE")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.AnalyzedAt.Local().Format("2006-01-02 15:04"),
					r.FileName,
					r.PredictedClass,
					workflow.FormatConfidence(r.Confidence),
					workflow.FormatMetric(r.Entropy),
					workflow.FormatMetric(r.Variance),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of analyses to show (0 for all)")
	return cmd
}
