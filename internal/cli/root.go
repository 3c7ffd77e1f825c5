// Package cli wires the tumorscope commands.
package cli

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/tumorscope/internal/config"
)

type globalOptions struct {
	configPath string
	endpoint   string
	timeout    time.Duration
	history    string
	verbose    bool
}

// NewRootCommand creates the root command.
func NewRootCommand(version, commit, date string) *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "tumorscope",
		Short: "Brain MRI tumor classification client",
		Long: `tumorscope submits brain MRI images (JPG or PNG) to a tumor classification
service and shows the predicted class, confidence and uncertainty metrics, together
with a LIME explanation and counterfactual examples when a tumor is detected.

Running tumorscope without a subcommand opens the terminal UI.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "analysis service base URL (eg. http://localhost:8000)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (0 waits indefinitely)")
	rootCmd.PersistentFlags().StringVar(&opts.history, "history", "", "path to the analysis history JSON file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	ui := &uiOptions{}
	rootCmd.Flags().BoolVar(&ui.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	rootCmd.Flags().StringVar(&ui.dropDir, "drop-dir", "", "watch this folder and select images copied into it")
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, opts, ui)
	}

	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))
	rootCmd.AddCommand(newMockCommand(opts))
	rootCmd.AddCommand(newPingCommand(opts))
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// loadConfig resolves configuration and applies persistent flag overrides.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if o.configPath == "" {
		if path, ok := config.FindConfigFile(); ok {
			log.Printf("[cli] using config %s", path)
		}
	}
	cfg, err := config.NewLoader().LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.endpoint != "" {
		cfg.Endpoint.BaseURL = o.endpoint
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Endpoint.Timeout = o.timeout
	}
	if o.history != "" {
		cfg.Storage.HistoryPath = o.history
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupHeadlessLogging routes the standard logger to stderr only in verbose mode.
func (o *globalOptions) setupHeadlessLogging(cmd *cobra.Command) {
	if o.verbose {
		log.SetOutput(cmd.ErrOrStderr())
		return
	}
	log.SetOutput(io.Discard)
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tumorscope %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
