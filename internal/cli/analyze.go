package cli

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/csheth/tumorscope/internal/history"
	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/notify"
	"github.com/csheth/tumorscope/internal/upload"
	"github.com/csheth/tumorscope/internal/workflow"
)

type analyzeOptions struct {
	jsonOutput bool
	imagesDir  string
	noHistory  bool
}

func newAnalyzeCommand(opts *globalOptions) *cobra.Command {
	aopts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a single MRI image without the terminal UI",
		Long: `Submit one JPG or PNG image to the analysis service and print the result.

Examples:
  tumorscope analyze scan.png
  tumorscope analyze --json scan.jpg
  tumorscope analyze --images ./out scan.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, aopts, args[0])
		},
	}
	cmd.Flags().BoolVar(&aopts.jsonOutput, "json", false, "print the raw result as JSON")
	cmd.Flags().StringVar(&aopts.imagesDir, "images", "", "write the explanation and counterfactual PNGs to this directory")
	cmd.Flags().BoolVar(&aopts.noHistory, "no-history", false, "do not record the analysis in the history file")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *globalOptions, aopts *analyzeOptions, path string) error {
	opts.setupHeadlessLogging(cmd)
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := inference.New(cfg.InferenceConfig())
	if err != nil {
		return err
	}

	file, err := upload.Open(path)
	if err != nil {
		return err
	}
	ctrl := workflow.New(workflow.Config{
		Endpoint: client,
		Notifier: notify.NewWriter(cmd.ErrOrStderr()),
		Timeout:  cfg.Endpoint.Timeout,
	})
	defer ctrl.Close()

	if !ctrl.Choose(file) {
		return fmt.Errorf("%s: %w", file.Name, upload.ErrUnsupportedType)
	}
	ctrl.AnalyzeAndWait(cmd.Context())
	state := ctrl.State()
	if state.Error != "" {
		return errors.New(state.Error)
	}
	result := state.Result

	out := cmd.OutOrStdout()
	if aopts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(out, file, result)
	}

	if aopts.imagesDir != "" {
		written, err := writeImages(aopts.imagesDir, result)
		if err != nil {
			return err
		}
		for _, p := range written {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", p)
		}
	}

	if !aopts.noHistory && cfg.Storage.HistoryPath != "" {
		if err := history.Append(cfg.Storage.HistoryPath, history.NewRecord(file, result, client.Endpoint())); err != nil {
			log.Printf("[cli] history append failed: %v", err)
		}
	}
	return nil
}

func printResult(w io.Writer, file upload.File, result *inference.Result) {
	fmt.Fprintf(w, "Image:            %s (%s, %d bytes)\n", file.Name, file.MediaType, file.Size())
	fmt.Fprintf(w, "Predicted Class:  %s\n", result.PredictedClass)
	if result.PredictedClassEnsemble != "" && result.PredictedClassEnsemble != result.PredictedClass {
		fmt.Fprintf(w, "Ensemble Class:   %s\n", result.PredictedClassEnsemble)
	}
	fmt.Fprintf(w, "Confidence:       %s\n", workflow.FormatConfidence(result.Confidence))
	fmt.Fprintf(w, "Entropy:          %s\n", workflow.FormatMetric(result.Entropy))
	fmt.Fprintf(w, "Variance:         %s\n", workflow.FormatMetric(result.Variance))
	switch {
	case result.NoTumor():
		fmt.Fprintln(w, "No tumor detected; explanation and counterfactuals omitted.")
	default:
		if workflow.ShowExplanation(result) {
			fmt.Fprintln(w, "LIME Explanation: available")
		}
		if items := workflow.Gallery(result); len(items) > 0 {
			fmt.Fprintf(w, "Counterfactuals:  %d\n", len(items))
		}
	}
}

// writeImages saves the eligible image payloads as PNG files and returns their paths.
func writeImages(dir string, result *inference.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	save := func(name, encoded string) error {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}
	if workflow.ShowExplanation(result) {
		if err := save("lime_explanation.png", result.LimeExplanation); err != nil {
			return written, err
		}
	}
	for _, item := range workflow.Gallery(result) {
		if err := save(fmt.Sprintf("counterfactual_%d.png", item.Ordinal), item.Image); err != nil {
			return written, err
		}
	}
	return written, nil
}
