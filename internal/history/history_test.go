package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/upload"
)

func TestNewRecordSummarizesResult(t *testing.T) {
	t.Parallel()

	file := upload.File{Name: "scan.png", MediaType: upload.MediaTypePNG, Data: []byte("12345")}
	result := &inference.Result{
		PredictedClass:  "glioma",
		Confidence:      0.91,
		Entropy:         0.2,
		Variance:        0.003,
		LimeExplanation: "abc",
		Counterfactuals: []string{"a", "b"},
	}
	rec := NewRecord(file, result, "http://localhost:8000/explain")
	if rec.FileName != "scan.png" || rec.SizeBytes != 5 || rec.PredictedClass != "glioma" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Counterfactuals != 2 || !rec.HasExplanation {
		t.Fatalf("payload summary wrong: %+v", rec)
	}
	if rec.AnalyzedAt.IsZero() {
		t.Fatal("expected timestamp")
	}
	if rec.NoTumor() {
		t.Fatal("glioma is not the no-tumor class")
	}
}

func TestAppendAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "history.json")
	first := Record{FileName: "a.png", PredictedClass: "notumor", AnalyzedAt: time.Now()}
	second := Record{FileName: "b.jpg", PredictedClass: "pituitary", AnalyzedAt: time.Now()}

	if err := Append(path, first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := Append(path, second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].FileName != "a.png" || got[1].FileName != "b.jpg" {
		t.Fatalf("unexpected records: %#v", got)
	}
	if got[0].EntryType != entryTypeAnalysis || !got[0].NoTumor() {
		t.Fatalf("unexpected first record: %#v", got[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	got, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || len(got) != 0 {
		t.Fatalf("Load() = %v, %v", got, err)
	}
}

func TestLoadSkipsForeignEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	payload := `[{"entryType":"note","title":"x"},{"fileName":"legacy.png","predictedClass":"glioma"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].FileName != "legacy.png" {
		t.Fatalf("unexpected records: %#v", got)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt history")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{FileName: "old.png", AnalyzedAt: base},
		{FileName: "newest.png", AnalyzedAt: base.Add(2 * time.Hour)},
		{FileName: "middle.png", AnalyzedAt: base.Add(time.Hour)},
	}
	if err := Append(path, records...); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := Recent(path, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].FileName != "newest.png" || got[1].FileName != "middle.png" {
		t.Fatalf("unexpected order: %#v", got)
	}

	all, err := Recent(path, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("Recent(0) = %d records, %v", len(all), err)
	}
}

func TestAppendWithoutPathIsNoop(t *testing.T) {
	t.Parallel()

	if err := Append("", Record{FileName: "x.png"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestConcurrentAppendsKeepEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	const writers = 12

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := Record{FileName: fmt.Sprintf("scan-%d.png", i), PredictedClass: "glioma", AnalyzedAt: time.Now()}
			if err := Append(path, record); err != nil {
				t.Errorf("Append(%d): %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != writers {
		t.Fatalf("got %d records, want %d", len(got), writers)
	}
	seen := map[string]bool{}
	for _, r := range got {
		seen[r.FileName] = true
	}
	if len(seen) != writers {
		t.Fatalf("duplicate or missing records: %v", seen)
	}
}
