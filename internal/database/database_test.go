// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/playerpulse/internal/config"
)

// testDBSemaphore limits concurrent database creation to prevent resource
// exhaustion in CI. Concurrent DuckDB CGO calls can hang under resource
// pressure, so database access is fully serialized across tests.
var testDBSemaphore = make(chan struct{}, 1)

// testDBMutex serializes the New() call itself.
var testDBMutex sync.Mutex

// setupTestDB creates a new in-memory test database with timeout
// protection. The semaphore is held for the entire test lifecycle (via
// t.Cleanup), not just creation, so only one test has an active DuckDB
// connection at a time.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}

	type result struct {
		db  *DB
		err error
	}

	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Logf("Failed to close test database: %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}

// insertSampleAt inserts one sample row with an explicit timestamp,
// bypassing the batch writer. Tests use it to construct histories at
// chosen instants.
func insertSampleAt(t *testing.T, db *DB, appID int64, name string, count int64, observedAt time.Time) {
	t.Helper()

	_, err := db.conn.ExecContext(context.Background(),
		`INSERT INTO player_samples (appid, name, player_count, observed_at) VALUES (?, ?, ?, ?)`,
		appID, name, count, observedAt.UTC())
	if err != nil {
		t.Fatalf("failed to insert test sample: %v", err)
	}
}

func TestNewInitializesSchema(t *testing.T) {
	db := setupTestDB(t)

	count, err := db.CountSamples(context.Background())
	checkNoError(t, err)
	if count != 0 {
		t.Errorf("expected empty store, got %d rows", count)
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	checkNoError(t, db.Ping(context.Background()))
}

func TestCheckpoint(t *testing.T) {
	db := setupTestDB(t)
	checkNoError(t, db.Checkpoint(context.Background()))
}

func TestLastObservedAtEmpty(t *testing.T) {
	db := setupTestDB(t)

	last, err := db.LastObservedAt(context.Background())
	checkNoError(t, err)
	if last != nil {
		t.Errorf("expected nil last observation for empty store, got %v", last)
	}
}

func TestLastObservedAt(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	insertSampleAt(t, db, 730, "Counter-Strike 2", 1000, now.Add(-2*time.Hour))
	insertSampleAt(t, db, 570, "Dota 2", 500, now.Add(-time.Hour))

	last, err := db.LastObservedAt(context.Background())
	checkNoError(t, err)
	if last == nil {
		t.Fatal("expected a last observation timestamp")
	}
	if !last.Equal(now.Add(-time.Hour)) {
		t.Errorf("expected last observation %v, got %v", now.Add(-time.Hour), last)
	}
}
