package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"cropprice-harvester/models"
)

var _ RecordExporter = (*CSVWriter)(nil)

// CSVWriter exports price records as one CSV line per crop entry.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"ts", "region", "district", "crop", "min_price", "max_price",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one line per crop entry of every record. Null prices are
// written as empty cells.
func (c *CSVWriter) Write(records []*models.PriceRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		for _, crop := range r.CropPrices {
			row := []string{
				r.Date.Format("2006-01-02"),
				r.Region,
				r.District,
				crop.Name,
				formatPrice(crop.Min),
				formatPrice(crop.Max),
			}
			if err := c.writer.Write(row); err != nil {
				return fmt.Errorf("csv: write row: %w", err)
			}
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatPrice(p models.NullPrice) string {
	if !p.Valid {
		return ""
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}
