// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/playerpulse/internal/metrics"
	"github.com/tomtom215/playerpulse/internal/models"
)

// InsertSampleBatch appends one sample row per input tuple inside a single
// transaction. All rows are inserted or none: on any failure the
// transaction rolls back and zero rows are visible to readers.
//
// Every row in the batch carries the same observed_at, read once at
// transaction start, so one cycle's samples form one logical observation
// even if the inserts themselves take time.
func (db *DB) InsertSampleBatch(ctx context.Context, samples []models.RawSample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordDBQuery("insert_sample_batch", time.Since(start), err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op after a successful commit
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO player_samples (appid, name, player_count, observed_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		metrics.RecordDBQuery("insert_sample_batch", time.Since(start), err)
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "insert statement")

	observedAt := time.Now().UTC()
	for _, s := range samples {
		if s.PlayerCount < 0 {
			err := fmt.Errorf("negative player count %d for appid %d", s.PlayerCount, s.AppID)
			metrics.RecordDBQuery("insert_sample_batch", time.Since(start), err)
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, s.AppID, s.Name, s.PlayerCount, observedAt); err != nil {
			metrics.RecordDBQuery("insert_sample_batch", time.Since(start), err)
			return 0, fmt.Errorf("failed to insert sample for appid %d: %w", s.AppID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDBQuery("insert_sample_batch", time.Since(start), err)
		return 0, fmt.Errorf("failed to commit sample batch: %w", err)
	}

	metrics.RecordDBQuery("insert_sample_batch", time.Since(start), nil)
	return int64(len(samples)), nil
}

// CountSamples returns the total number of sample rows.
func (db *DB) CountSamples(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM player_samples`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}

// LastObservedAt returns the most recent observation timestamp across all
// games, or nil when the store is empty.
func (db *DB) LastObservedAt(ctx context.Context) (*time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var last *time.Time
	err := db.conn.QueryRowContext(ctx, `SELECT MAX(observed_at) FROM player_samples`).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last observation: %w", err)
	}
	return last, nil
}
