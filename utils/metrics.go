package utils

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the harvester's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	PagesVisited     prometheus.Counter
	Documents        *prometheus.CounterVec
	RecordsWritten   prometheus.Counter
	FetchDuration    prometheus.Histogram
	RunDuration      prometheus.Histogram
	LastSuccessEpoch prometheus.Gauge
}

// NewMetrics registers the harvester collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PagesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_listing_pages_visited_total",
			Help: "Listing pages fetched while walking the index",
		}),
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_documents_total",
			Help: "Bulletins handled, by outcome",
		}, []string{"outcome"}), // ingested, skipped, empty, failed
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_records_written_total",
			Help: "Price records committed to the store",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvester_document_fetch_seconds",
			Help:    "Time spent downloading one bulletin",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvester_run_seconds",
			Help:    "Duration of one ingestion run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		LastSuccessEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harvester_last_success_timestamp_seconds",
			Help: "Unix time of the last run that finished without error",
		}),
	}
	m.Registry.MustRegister(
		m.PagesVisited, m.Documents, m.RecordsWritten,
		m.FetchDuration, m.RunDuration, m.LastSuccessEpoch,
	)
	return m
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("[metrics] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[metrics] Server stopped: %v", err)
		}
	}()
}
