package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cashback-scraper/models"
)

// JSONWriter persists the run report as a single JSON document, overwriting
// the previous run's file.
type JSONWriter struct {
	path string
}

func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

func (w *JSONWriter) Path() string {
	return w.path
}

// Write creates intermediate directories and replaces the output file.
func (w *JSONWriter) Write(_ context.Context, report *models.RunReport) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("json: create file %q: %w", w.path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		_ = f.Close()
		return fmt.Errorf("json: encode report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("json: close %q: %w", w.path, err)
	}
	return nil
}

// PreviousBest reads the report currently on disk, before it gets replaced.
// A missing file yields an empty map.
func (w *JSONWriter) PreviousBest(_ context.Context, kind models.OfferKind) (map[string]float64, error) {
	report, err := ReadReport(w.path)
	if os.IsNotExist(err) {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(report.Merchants))
	for _, m := range report.Merchants {
		if b := m.Best(kind); b != nil {
			out[m.Name] = b.Rate
		}
	}
	return out, nil
}

func (w *JSONWriter) Close() error {
	return nil
}

// ReadReport loads a report previously written by JSONWriter.
func ReadReport(path string) (*models.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r models.RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("json: decode %q: %w", path, err)
	}
	return &r, nil
}
