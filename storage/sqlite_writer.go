package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
CREATE TABLE IF NOT EXISTS cn_crop_prices (
	source_url  TEXT NOT NULL,
	ts          TEXT NOT NULL,
	region      TEXT NOT NULL,
	district    TEXT NOT NULL,
	crop_prices TEXT NOT NULL,
	PRIMARY KEY (source_url, ts, region, district)
);

CREATE INDEX IF NOT EXISTS idx_cn_crop_prices_ts ON cn_crop_prices(ts);
`,
	insert: `
INSERT INTO cn_crop_prices (source_url, ts, region, district, crop_prices)
VALUES (?, ?, ?, ?, ?)
`,
	dateArg: func(t time.Time) any { return t.Format(dateLayout) },
}

// NewSQLiteStore opens (or creates) a SQLite database at path with WAL mode
// enabled. Intended for local runs without a PostgreSQL server.
func NewSQLiteStore(ctx context.Context, path string) (PriceStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; keeps transactions on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: wal: %w", err)
	}

	s := &sqlStore{db: db, dialect: sqliteDialect}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}
