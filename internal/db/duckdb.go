package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id              VARCHAR NOT NULL,
	actor           VARCHAR NOT NULL,
	content         VARCHAR,
	ts_micros       BIGINT NOT NULL,
	kind            VARCHAR NOT NULL,
	in_reply_to     VARCHAR,
	engagement      VARCHAR,
	observed_micros BIGINT NOT NULL,
	PRIMARY KEY (id, actor)
);

CREATE TABLE IF NOT EXISTS monitoring_sessions (
	session_id       VARCHAR PRIMARY KEY,
	started_micros   BIGINT NOT NULL,
	ended_micros     BIGINT,
	accounts_checked VARCHAR,
	records_found    INTEGER DEFAULT 0,
	errors           VARCHAR
);
`

// Open opens the DuckDB file at path and runs migrations. An empty path opens
// an in-memory database.
func Open(path string) (*sql.DB, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("INSTALL json"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install JSON extension: %w", err)
	}

	if _, err := db.Exec("LOAD json"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load JSON extension: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
