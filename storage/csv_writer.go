package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cashback-scraper/models"
)

// CSVWriter writes one row per extracted offer, a flat dump of the run.
type CSVWriter struct {
	path string
}

// NewCSVWriter records the destination. Nothing touches the file before
// Write, so an aborted run leaves the previous CSV in place.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write replaces the file with a header and every offer of the report.
// Intermediate directories are created automatically.
func (c *CSVWriter) Write(_ context.Context, report *models.RunReport) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	w := csv.NewWriter(f)

	// Write header
	if err := w.Write([]string{
		"run_id", "merchant", "category", "platform", "type", "rate", "url", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}

	scrapedAt := report.LastUpdated.Format(time.RFC3339)
	for _, m := range report.Merchants {
		for _, o := range m.Offers {
			row := []string{
				report.RunID,
				m.Name,
				m.Category,
				o.Platform,
				string(o.Kind),
				strconv.FormatFloat(o.Rate, 'f', -1, 64),
				o.URL,
				scrapedAt,
			}
			if err := w.Write(row); err != nil {
				_ = f.Close()
				return fmt.Errorf("csv: write row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csv: close %q: %w", c.path, err)
	}
	return nil
}

func (c *CSVWriter) Close() error {
	return nil
}
