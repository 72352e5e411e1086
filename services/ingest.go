package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"cropprice-harvester/models"
	"cropprice-harvester/storage"
	"cropprice-harvester/utils"
)

// recordCrops is the order crop entries take in a PriceRecord.
var recordCrops = []string{
	"maize",
	"rice",
	"beans",
	"sorghum_millet",
	"bulrush_millet",
	"finger_millet",
	"wheat",
	"irish_potato",
}

var (
	spaceRegexp = regexp.MustCompile(`\s+`)
	camelRegexp = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// camelToSnake turns a column header such as "Irish Potato Min" into
// "irish_potato_min".
func camelToSnake(name string) string {
	name = spaceRegexp.ReplaceAllString(name, "_")
	return strings.ToLower(camelRegexp.ReplaceAllString(name, "${1}_${2}"))
}

// DocumentStream yields harvested bulletins one at a time and returns io.EOF
// once the listing is exhausted.
type DocumentStream interface {
	Next(ctx context.Context) (*models.HarvestedDocument, error)
	Stats() models.StreamStats
}

// StreamFactory builds a DocumentStream that never fetches a URL in skip.
type StreamFactory func(skip *utils.URLSet) DocumentStream

// Ingester is the run-level driver: it pulls bulletins from the stream and
// commits each one's records to the store in its own transaction.
type Ingester struct {
	store     storage.PriceStore
	newStream StreamFactory
	logger    *utils.Logger
	metrics   *utils.Metrics
}

// NewIngester creates an Ingester. A nil metrics gets a private registry.
func NewIngester(store storage.PriceStore, newStream StreamFactory, logger *utils.Logger, metrics *utils.Metrics) *Ingester {
	if metrics == nil {
		metrics = utils.NewMetrics()
	}
	return &Ingester{store: store, newStream: newStream, logger: logger, metrics: metrics}
}

// Run performs one harvest. Any extraction, fetch or store failure aborts the
// run; bulletins committed before the failure stay committed and are skipped
// on the next run.
func (in *Ingester) Run(ctx context.Context) (*models.HarvestReport, error) {
	report := &models.HarvestReport{
		RunID:     ulid.Make().String(),
		StartedAt: time.Now(),
	}
	log := in.logger.With("run", report.RunID)
	defer func() {
		report.FinishedAt = time.Now()
		in.metrics.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}()

	ingested, err := in.store.IngestedURLs(ctx)
	if err != nil {
		return report, fmt.Errorf("ingest: load ingested urls: %w", err)
	}
	skip := utils.NewURLSet(ingested...)
	log.Info("[ingest] %d documents already ingested", skip.Size())

	stream := in.newStream(skip)
	defer func() {
		stats := stream.Stats()
		report.Pages = stats.Pages
		report.DocumentsSeen = stats.Seen
		report.DocumentsSkipped = stats.Skipped
		in.metrics.Documents.WithLabelValues("skipped").Add(float64(stats.Skipped))
	}()

	for {
		doc, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			in.metrics.Documents.WithLabelValues("failed").Inc()
			log.Error("[ingest] Run aborted: %v", err)
			return report, fmt.Errorf("ingest: %w", err)
		}

		records := BuildRecords(doc.SourceURL, doc.Table)
		if len(records) == 0 {
			log.Info("[ingest] No new data in %s", doc.SourceURL)
			report.DocumentsEmpty++
			in.metrics.Documents.WithLabelValues("empty").Inc()
			continue
		}

		if err := in.store.CommitRecords(ctx, doc.SourceURL, records); err != nil {
			in.metrics.Documents.WithLabelValues("failed").Inc()
			log.Error("[ingest] Run aborted while storing %s: %v", doc.SourceURL, err)
			return report, fmt.Errorf("ingest: %w", err)
		}

		report.DocumentsIngested++
		report.RecordsWritten += len(records)
		in.metrics.Documents.WithLabelValues("ingested").Inc()
		in.metrics.RecordsWritten.Add(float64(len(records)))
		log.Info("[ingest] Stored %d records from %s", len(records), doc.SourceURL)
	}

	in.metrics.LastSuccessEpoch.SetToCurrentTime()
	return report, nil
}

// BuildRecords reshapes a bulletin table into PriceRecords, one per row.
// A crop whose min and max are both null is left out of the row's list.
func BuildRecords(sourceURL string, table *models.NormalizedTable) []*models.PriceRecord {
	if table.Empty() {
		return nil
	}

	// Price cells are addressed by snake_case column name, e.g. "maize_min".
	priceIndex := make(map[string]int, models.PriceColumnCount)
	for i, col := range table.Columns {
		// Columns: date, region, district, then the price cells.
		if i >= 3 {
			priceIndex[camelToSnake(col)] = i - 3
		}
	}

	records := make([]*models.PriceRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		cell := func(name string) models.NullPrice {
			if i, ok := priceIndex[name]; ok {
				return row.Prices[i]
			}
			return models.NullPrice{}
		}

		crops := make([]models.CropPrice, 0, len(recordCrops))
		for _, crop := range recordCrops {
			lo, hi := cell(crop+"_min"), cell(crop+"_max")
			if !lo.Valid && !hi.Valid {
				continue
			}
			crops = append(crops, models.CropPrice{Name: crop, Min: lo, Max: hi})
		}

		records = append(records, &models.PriceRecord{
			SourceURL:  sourceURL,
			Date:       row.Date,
			Region:     row.Region,
			District:   row.District,
			CropPrices: crops,
		})
	}
	return records
}
