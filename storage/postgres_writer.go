package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"cropprice-harvester/utils"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS cn_crop_prices (
			source_url  VARCHAR NOT NULL,
			ts          DATE    NOT NULL,
			region      VARCHAR NOT NULL,
			district    VARCHAR NOT NULL,
			crop_prices JSON    NOT NULL,
			PRIMARY KEY (source_url, ts, region, district)
		);

		CREATE INDEX IF NOT EXISTS idx_cn_crop_prices_ts     ON cn_crop_prices(ts);
		CREATE INDEX IF NOT EXISTS idx_cn_crop_prices_region ON cn_crop_prices(region);
	`,
	insert: `
		INSERT INTO cn_crop_prices (source_url, ts, region, district, crop_prices)
		VALUES ($1, $2, $3, $4, $5)
	`,
	dateArg: func(t time.Time) any { return t.Format(dateLayout) },
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, creates the price table if needed and returns a ready store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (PriceStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	s := &sqlStore{db: db, dialect: postgresDialect}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}
