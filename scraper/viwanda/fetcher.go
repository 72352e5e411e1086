package viwanda

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cropprice-harvester/utils"
)

// Fetcher downloads bulletins into temporary files that live only for the
// duration of a callback.
type Fetcher struct {
	client  *HTTPClient
	logger  *utils.Logger
	metrics *utils.Metrics
}

// NewFetcher creates a Fetcher. A nil metrics gets a private registry.
func NewFetcher(client *HTTPClient, logger *utils.Logger, metrics *utils.Metrics) *Fetcher {
	if metrics == nil {
		metrics = utils.NewMetrics()
	}
	return &Fetcher{client: client, logger: logger, metrics: metrics}
}

// WithDocument downloads url, hands the staged file's path to fn and deletes
// the file once fn returns, whatever the outcome. The path must not be used
// after fn returns.
func (f *Fetcher) WithDocument(ctx context.Context, url string, fn func(path string) error) error {
	start := time.Now()
	f.logger.Info("[fetcher] Downloading %s", url)

	body, _, err := f.client.Get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "bulletin-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: stage %s: %w", ErrFetch, url, err)
	}
	path := tmp.Name()
	defer func() {
		f.logger.Debug("[fetcher] Deleting temporary file %s", path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			f.logger.Warn("[fetcher] Could not delete %s: %v", path, err)
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: download %s: %w", ErrFetch, url, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: stage %s: %w", ErrFetch, url, err)
	}
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	return fn(path)
}
