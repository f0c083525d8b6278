// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/playerpulse/internal/logging"
)

// Tables:
//   - player_samples: append-only fact table, one row per observed
//     (game, player count, timestamp). No primary key and no uniqueness
//     constraint: duplicates and near-duplicate timestamps are legal and
//     the read queries are written to tolerate them.
//   - schema_migrations: versioned migration tracking.
//
// Index strategy: the (appid, observed_at) composite index serves every
// read path - latest-per-game, windowed history, and the trend lookback.
// A standalone observed_at index covers the global freshness query.

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements.
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS player_samples (
			appid BIGINT NOT NULL,
			name TEXT NOT NULL,
			player_count BIGINT NOT NULL DEFAULT 0 CHECK (player_count >= 0),
			observed_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
	}
}

// createIndexes creates database indexes for query optimization.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexQueries returns index creation SQL statements.
func (db *DB) getIndexQueries() []string {
	return []string{
		// Composite index serving per-game reads (latest, history, trend window)
		`CREATE INDEX IF NOT EXISTS idx_samples_appid_observed ON player_samples(appid, observed_at);`,

		// Global freshness queries (health endpoint, retention tooling)
		`CREATE INDEX IF NOT EXISTS idx_samples_observed ON player_samples(observed_at);`,
	}
}

// Migration represents a single versioned schema migration.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

// getMigrations returns all known migrations in version order. The initial
// schema lives in getTableCreationQueries; migrations exist for
// post-release changes only.
func (db *DB) getMigrations() []Migration {
	return []Migration{}
}

// runVersionedMigrations executes only migrations that have not been
// applied yet, recording each in schema_migrations.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, m := range db.getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}

		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description)
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}

		logging.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applied database migration")
	}

	return nil
}

// getAppliedMigrations returns a map of version -> Migration for all
// applied migrations.
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}
