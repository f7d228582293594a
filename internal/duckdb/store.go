// Package duckdb persists simulation runs and sequence diffs in DuckDB.
// Run metadata is written row by row; mutation logs, generation stats and
// diff records are bulk-loaded through the Appender API.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// ErrNotFound is returned when a run or diff id has no stored row.
var ErrNotFound = errors.New("not found")

// Store manages a DuckDB connection for simulation results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS simulation_runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		seq_id VARCHAR,
		input_path VARCHAR,
		input_size BIGINT,
		input_mtime TIMESTAMP,
		seed BIGINT,
		generations BIGINT,
		substitution_rate DOUBLE,
		insertion_rate DOUBLE,
		deletion_rate DOUBLE,
		dispatch VARCHAR,
		algorithm VARCHAR,
		reference_preview VARCHAR,
		final_sequence VARCHAR,
		total_mutations BIGINT,
		final_length BIGINT,
		avg_mutations_per_gen DOUBLE,
		fitness DOUBLE,
		warnings VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS mutation_log (
		run_id VARCHAR,
		seq BIGINT,
		generation BIGINT,
		pos BIGINT,
		idx BIGINT,
		kind VARCHAR,
		change VARCHAR,
		amino_acid_change VARCHAR,
		feature VARCHAR,
		feature_type VARCHAR,
		is_coding BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS generation_stats (
		run_id VARCHAR,
		generation BIGINT,
		population_size BIGINT,
		mutation_count BIGINT,
		coding_density DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS sequence_diffs (
		diff_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		ref_id VARCHAR,
		query_id VARCHAR,
		substitutions BIGINT,
		insertions BIGINT,
		deletions BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS diff_records (
		diff_id VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		diff_type VARCHAR
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// appendRows bulk-loads a table through a DuckDB appender bound to a
// dedicated connection. fill is called once with the appender.
func (s *Store) appendRows(ctx context.Context, table string, fill func(*goduckdb.Appender) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}
	defer appender.Close()

	if err := fill(appender); err != nil {
		return err
	}
	return appender.Flush()
}
