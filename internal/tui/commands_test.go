package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/csheth/tumorscope/internal/history"
	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/upload"
	"github.com/csheth/tumorscope/internal/workflow"
)

func TestAnalyzeJobReportsOutcome(t *testing.T) {
	ctrl := workflow.New(workflow.Config{Endpoint: &fakeEndpoint{err: errors.New("refused")}})
	ctrl.Choose(upload.File{Name: "a.png", MediaType: upload.MediaTypePNG, Data: []byte("x")})
	sub, ok := ctrl.Analyze()
	if !ok {
		t.Fatal("analyze should start")
	}

	msg, err := analyzeJob(sub)(context.Background())
	if err == nil {
		t.Fatal("expected the job to report the failure")
	}
	done, ok := msg.(analysisDoneMsg)
	if !ok {
		t.Fatalf("unexpected payload %T", msg)
	}
	if done.file.Name != "a.png" || done.outcome.Generation != sub.Generation {
		t.Fatalf("unexpected outcome %+v", done)
	}
}

func TestSaveHistoryJobAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	record := history.NewRecord(upload.File{Name: "a.png"}, &inference.Result{PredictedClass: "glioma"}, "")

	msg, err := saveHistoryJob(path, record)(context.Background())
	if err != nil {
		t.Fatalf("save error = %v", err)
	}
	if saved := msg.(historySavedMsg); saved.err != nil || saved.path != path {
		t.Fatalf("unexpected msg %+v", saved)
	}
	records, err := history.Load(path)
	if err != nil || len(records) != 1 {
		t.Fatalf("Load() = %v, %v", records, err)
	}
}

func TestWaitForDrop(t *testing.T) {
	if waitForDrop(nil) != nil {
		t.Fatal("nil channel should yield no command")
	}
	events := make(chan string, 1)
	events <- "/tmp/scan.png"
	if msg := waitForDrop(events)(); msg != (dropMsg{path: "/tmp/scan.png"}) {
		t.Fatalf("unexpected msg %#v", msg)
	}
	close(events)
	if _, ok := waitForDrop(events)().(dropClosedMsg); !ok {
		t.Fatal("closed channel should report dropClosedMsg")
	}
}

func TestJobBusIDs(t *testing.T) {
	bus := newJobBus()
	defer bus.Stop()
	first := bus.nextID(jobKindAnalyze)
	second := bus.nextID(jobKindHistory)
	if first != "analyze-1" || !strings.HasPrefix(second, "history-") {
		t.Fatalf("unexpected ids %q %q", first, second)
	}
	if bus.Start(jobKindAnalyze, nil) == nil {
		t.Fatal("Start should return a command")
	}
}

func TestExpireToastCmd(t *testing.T) {
	if expireToastCmd(1, time.Millisecond) == nil {
		t.Fatal("expected a tick command")
	}
}
