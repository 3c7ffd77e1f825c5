package cli

import (
	"fmt"
	"log"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/tumorscope/internal/dropzone"
	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/tui"
)

type uiOptions struct {
	noAltScreen bool
	dropDir     string
}

func runTUI(cmd *cobra.Command, opts *globalOptions, ui *uiOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if ui.dropDir != "" {
		cfg.UI.DropDir = ui.dropDir
	}
	if ui.noAltScreen {
		cfg.UI.AltScreen = false
	}

	logFile, err := tea.LogToFile(cfg.Storage.LogFile, "tumorscope")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	client, err := inference.New(cfg.InferenceConfig())
	if err != nil {
		return err
	}

	historyPath := cfg.Storage.HistoryPath
	if historyPath != "" {
		if abs, err := filepath.Abs(historyPath); err == nil {
			historyPath = abs
		}
	}

	tuiConfig := tui.Config{
		Endpoint:       client,
		EndpointLabel:  client.Endpoint(),
		Timeout:        cfg.Endpoint.Timeout,
		HistoryPath:    historyPath,
		ThumbnailWidth: cfg.UI.ThumbnailWidth,
	}
	if cfg.UI.DropDir != "" {
		watcher, err := dropzone.Watch(cfg.UI.DropDir, 0)
		if err != nil {
			return err
		}
		defer watcher.Close()
		go func() {
			for err := range watcher.Errors() {
				log.Printf("[dropzone] %v", err)
			}
		}()
		tuiConfig.DropEvents = watcher.Events()
		tuiConfig.DropDir = watcher.Dir()
	}

	var programOpts []tea.ProgramOption
	if cfg.UI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	log.Printf("[cli] starting ui (endpoint=%s)", client.Endpoint())
	if _, err := tea.NewProgram(tui.New(tuiConfig), programOpts...).Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
