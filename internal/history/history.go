// Package history keeps a local JSON log of completed analyses.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/upload"
)

const entryTypeAnalysis = "analysis"

// writeMu serializes read-modify-write cycles on history files.
var writeMu sync.Mutex

type entryHeader struct {
	EntryType string `json:"entryType"`
}

// Record summarizes one completed analysis. Image payloads are not stored.
type Record struct {
	EntryType       string    `json:"entryType"`
	FileName        string    `json:"fileName"`
	MediaType       string    `json:"mediaType"`
	SizeBytes       int       `json:"sizeBytes"`
	PredictedClass  string    `json:"predictedClass"`
	Confidence      float64   `json:"confidence"`
	Entropy         float64   `json:"entropy"`
	Variance        float64   `json:"variance"`
	Counterfactuals int       `json:"counterfactuals"`
	HasExplanation  bool      `json:"hasExplanation"`
	Endpoint        string    `json:"endpoint,omitempty"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}

// NewRecord builds a record for a successful analysis of f.
func NewRecord(f upload.File, r *inference.Result, endpoint string) Record {
	rec := Record{
		EntryType:  entryTypeAnalysis,
		FileName:   f.Name,
		MediaType:  f.MediaType,
		SizeBytes:  f.Size(),
		Endpoint:   endpoint,
		AnalyzedAt: time.Now(),
	}
	if r != nil {
		rec.PredictedClass = r.PredictedClass
		rec.Confidence = r.Confidence
		rec.Entropy = r.Entropy
		rec.Variance = r.Variance
		rec.Counterfactuals = len(r.Counterfactuals)
		rec.HasExplanation = r.LimeExplanation != ""
	}
	return rec
}

// NoTumor reports whether the record carries the no-tumor class.
func (r Record) NoTumor() bool {
	return r.PredictedClass == inference.NoTumorClass
}

// Append appends records to the history file, creating it if necessary.
func Append(path string, records ...Record) error {
	if path == "" || len(records) == 0 {
		return nil
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	entries, err := loadEntries(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}
	for _, record := range records {
		record.EntryType = entryTypeAnalysis
		raw, err := json.Marshal(record)
		if err != nil {
			return err
		}
		entries = append(entries, raw)
	}
	return writeEntries(path, entries)
}

// Load returns every stored record in file order. A missing file yields no records.
func Load(path string) ([]Record, error) {
	entries, err := loadEntries(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	records := make([]Record, 0, len(entries))
	for _, raw := range entries {
		var header entryHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			return nil, err
		}
		if header.EntryType != "" && header.EntryType != entryTypeAnalysis {
			continue
		}
		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func Recent(path string, limit int) ([]Record, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AnalyzedAt.After(records[j].AnalyzedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func writeEntries(path string, entries []json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
