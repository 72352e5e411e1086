package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cropprice-harvester/models"
)

const dateLayout = "2006-01-02"

// dialect captures what differs between the SQL backends.
type dialect struct {
	name   string
	schema string
	insert string
	// dateArg converts a publication date to the driver's bind value.
	dateArg func(time.Time) any
}

// sqlStore implements PriceStore over database/sql.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *sqlStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.schema)
	return err
}

// IngestedURLs lists the distinct origin URLs present in the store.
func (s *sqlStore) IngestedURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source_url FROM cn_crop_prices`)
	if err != nil {
		return nil, fmt.Errorf("%s: ingested urls: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("%s: scan url: %w", s.dialect.name, err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// CommitRecords inserts the records of one document in one transaction.
// Any failed insert, a duplicate key included, rolls back the whole document.
func (s *sqlStore) CommitRecords(ctx context.Context, sourceURL string, records []*models.PriceRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin %s: %w: %w", s.dialect.name, sourceURL, ErrStoreWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range records {
		blob, err := json.Marshal(r.CropPrices)
		if err != nil {
			return fmt.Errorf("%s: encode crop prices: %w: %w", s.dialect.name, ErrStoreWrite, err)
		}
		if _, err := tx.ExecContext(ctx, s.dialect.insert,
			r.SourceURL, s.dialect.dateArg(r.Date), r.Region, r.District, string(blob),
		); err != nil {
			return fmt.Errorf("%s: insert %s/%s: %w: %w", s.dialect.name, r.Region, r.District, ErrStoreWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit %s: %w: %w", s.dialect.name, sourceURL, ErrStoreWrite, err)
	}
	return nil
}

// FetchAll retrieves all stored records ordered by date, region and district.
func (s *sqlStore) FetchAll(ctx context.Context) ([]*models.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_url, ts, region, district, crop_prices
		FROM cn_crop_prices
		ORDER BY ts, region, district, source_url
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var records []*models.PriceRecord
	for rows.Next() {
		var (
			r    models.PriceRecord
			ts   dateValue
			blob []byte
		)
		if err := rows.Scan(&r.SourceURL, &ts, &r.Region, &r.District, &blob); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.dialect.name, err)
		}
		if err := json.Unmarshal(blob, &r.CropPrices); err != nil {
			return nil, fmt.Errorf("%s: decode crop prices: %w", s.dialect.name, err)
		}
		r.Date = ts.Time
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// dateValue scans a DATE column returned either as time.Time or as text.
type dateValue struct {
	time.Time
}

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		d.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported date type %T", src)
}

func (d *dateValue) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
