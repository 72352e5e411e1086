package storage

import (
	"context"
	"errors"

	"cropprice-harvester/models"
)

// ErrStoreWrite marks a failed commit of a document's records.
var ErrStoreWrite = errors.New("store write failed")

// PriceStore is the interface any storage backend must satisfy.
type PriceStore interface {
	// IngestedURLs lists every origin URL that already has records.
	IngestedURLs(ctx context.Context) ([]string, error)
	// CommitRecords writes all records of one document in a single
	// transaction.
	CommitRecords(ctx context.Context, sourceURL string, records []*models.PriceRecord) error
	// FetchAll reads back every stored record.
	FetchAll(ctx context.Context) ([]*models.PriceRecord, error)
	Close() error
}

// RecordExporter writes stored records to a secondary sink.
type RecordExporter interface {
	Write(records []*models.PriceRecord) error
	Close() error
}
