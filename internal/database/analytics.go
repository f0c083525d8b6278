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

// This file contains the read-time resolvers over player_samples. Every
// query here is a pure aggregate: no side effects, idempotent, and safe to
// run concurrently with an in-flight write batch (readers see the
// pre-batch state until the batch commits).

// LatestSnapshots returns each game's most recent sample, ordered by
// player_count descending with appid ascending as the tie-break. The
// per-game row is selected by maximum observed_at, not insertion order, so
// results stay correct if batches ever land out of order. With duplicate
// timestamps the higher count wins, keeping the result deterministic.
func (db *DB) LatestSnapshots(ctx context.Context, limit int) ([]models.Snapshot, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT appid, name, player_count, observed_at
		FROM (
			SELECT appid, name, player_count, observed_at,
			       ROW_NUMBER() OVER (
			           PARTITION BY appid
			           ORDER BY observed_at DESC, player_count DESC
			       ) AS rn
			FROM player_samples
		) t
		WHERE rn = 1
		ORDER BY player_count DESC, appid ASC
		LIMIT ?`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("latest_snapshots", time.Since(start), err)
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		metrics.RecordDBQuery("latest_snapshots", time.Since(start), err)
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]models.Snapshot, 0, limit)
	for rows.Next() {
		var s models.Snapshot
		if err := rows.Scan(&s.AppID, &s.Name, &s.PlayerCount, &s.ObservedAt); err != nil {
			metrics.RecordDBQuery("latest_snapshots", time.Since(start), err)
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.HeaderImage = models.HeaderImageURL(s.AppID)
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("latest_snapshots", time.Since(start), err)
		return nil, fmt.Errorf("snapshot row iteration failed: %w", err)
	}

	metrics.RecordDBQuery("latest_snapshots", time.Since(start), nil)
	return snapshots, nil
}

// History returns the ordered (oldest to newest) sample series for one
// game inside the lookback window, capped at the most recent maxPoints.
// An empty result is valid: a new or stale game yields an empty series,
// never an error.
func (db *DB) History(ctx context.Context, appID int64, window time.Duration, maxPoints int) ([]models.HistoryPoint, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT player_count, observed_at
		FROM (
			SELECT player_count, observed_at
			FROM player_samples
			WHERE appid = ? AND observed_at >= ?
			ORDER BY observed_at DESC
			LIMIT ?
		) t
		ORDER BY observed_at ASC`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("history", time.Since(start), err)
		return nil, err
	}

	since := time.Now().UTC().Add(-window)
	rows, err := stmt.QueryContext(ctx, appID, since, maxPoints)
	if err != nil {
		metrics.RecordDBQuery("history", time.Since(start), err)
		return nil, fmt.Errorf("failed to query history for appid %d: %w", appID, err)
	}
	defer rows.Close()

	points := make([]models.HistoryPoint, 0, maxPoints)
	for rows.Next() {
		var p models.HistoryPoint
		if err := rows.Scan(&p.PlayerCount, &p.ObservedAt); err != nil {
			metrics.RecordDBQuery("history", time.Since(start), err)
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("history", time.Since(start), err)
		return nil, fmt.Errorf("history row iteration failed: %w", err)
	}

	metrics.RecordDBQuery("history", time.Since(start), nil)
	return points, nil
}

// peakSelect is the shared shape of the peak queries. The window orders by
// player_count descending then observed_at ascending, so when a game hit
// its maximum more than once the earliest occurrence is always the one
// reported.
const peakSelect = `
	SELECT appid, name, player_count, observed_at
	FROM (
		SELECT appid, name, player_count, observed_at,
		       ROW_NUMBER() OVER (
		           PARTITION BY appid
		           ORDER BY player_count DESC, observed_at ASC
		       ) AS rn
		FROM player_samples
		%s
	) t
	WHERE rn = 1`

// PeakForEntity returns the all-time peak for one game, or nil when the
// game has no samples.
func (db *DB) PeakForEntity(ctx context.Context, appID int64) (*models.PeakRecord, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf(peakSelect, "WHERE appid = ?")

	rows, err := db.conn.QueryContext(ctx, query, appID)
	if err != nil {
		metrics.RecordDBQuery("peak_for_entity", time.Since(start), err)
		return nil, fmt.Errorf("failed to query peak for appid %d: %w", appID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			metrics.RecordDBQuery("peak_for_entity", time.Since(start), err)
			return nil, fmt.Errorf("peak row iteration failed: %w", err)
		}
		metrics.RecordDBQuery("peak_for_entity", time.Since(start), nil)
		return nil, nil
	}

	var rec models.PeakRecord
	if err := rows.Scan(&rec.AppID, &rec.Name, &rec.PeakCount, &rec.PeakAt); err != nil {
		metrics.RecordDBQuery("peak_for_entity", time.Since(start), err)
		return nil, fmt.Errorf("failed to scan peak row: %w", err)
	}
	rec.HeaderImage = models.HeaderImageURL(rec.AppID)

	metrics.RecordDBQuery("peak_for_entity", time.Since(start), nil)
	return &rec, nil
}

// PeaksForAll returns the all-time peak leaderboard in a single query,
// ordered by peak_count descending with appid ascending as the tie-break.
func (db *DB) PeaksForAll(ctx context.Context, limit int) ([]models.PeakRecord, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf(peakSelect, "") + `
	ORDER BY player_count DESC, appid ASC
	LIMIT ?`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("peaks_for_all", time.Since(start), err)
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		metrics.RecordDBQuery("peaks_for_all", time.Since(start), err)
		return nil, fmt.Errorf("failed to query peak leaderboard: %w", err)
	}
	defer rows.Close()

	records := make([]models.PeakRecord, 0, limit)
	for rows.Next() {
		var rec models.PeakRecord
		if err := rows.Scan(&rec.AppID, &rec.Name, &rec.PeakCount, &rec.PeakAt); err != nil {
			metrics.RecordDBQuery("peaks_for_all", time.Since(start), err)
			return nil, fmt.Errorf("failed to scan peak row: %w", err)
		}
		rec.HeaderImage = models.HeaderImageURL(rec.AppID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("peaks_for_all", time.Since(start), err)
		return nil, fmt.Errorf("peak row iteration failed: %w", err)
	}

	metrics.RecordDBQuery("peaks_for_all", time.Since(start), nil)
	return records, nil
}

// SamplesSince returns all samples for one game observed at or after the
// given instant, ascending by observed_at. The trend resolver feeds these
// into its pure past-lookup; the 48h fallback window means the result set
// stays small regardless of total history size.
func (db *DB) SamplesSince(ctx context.Context, appID int64, since time.Time) ([]models.HistoryPoint, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT player_count, observed_at
		FROM player_samples
		WHERE appid = ? AND observed_at >= ?
		ORDER BY observed_at ASC`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("samples_since", time.Since(start), err)
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, appID, since)
	if err != nil {
		metrics.RecordDBQuery("samples_since", time.Since(start), err)
		return nil, fmt.Errorf("failed to query samples for appid %d: %w", appID, err)
	}
	defer rows.Close()

	var points []models.HistoryPoint
	for rows.Next() {
		var p models.HistoryPoint
		if err := rows.Scan(&p.PlayerCount, &p.ObservedAt); err != nil {
			metrics.RecordDBQuery("samples_since", time.Since(start), err)
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("samples_since", time.Since(start), err)
		return nil, fmt.Errorf("sample row iteration failed: %w", err)
	}

	metrics.RecordDBQuery("samples_since", time.Since(start), nil)
	return points, nil
}
