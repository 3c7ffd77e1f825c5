package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/tumorscope/internal/history"
	"github.com/csheth/tumorscope/internal/workflow"
)

func analyzeJob(sub *workflow.Submission) jobRunner {
	file := sub.File
	return func(ctx context.Context) (tea.Msg, error) {
		outcome := sub.Run(ctx)
		return analysisDoneMsg{file: file, outcome: outcome}, outcome.Err
	}
}

func saveHistoryJob(path string, record history.Record) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		err := history.Append(path, record)
		return historySavedMsg{path: path, err: err}, err
	}
}

func waitForDrop(events <-chan string) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-events
		if !ok {
			return dropClosedMsg{}
		}
		return dropMsg{path: path}
	}
}

func expireToastCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}
