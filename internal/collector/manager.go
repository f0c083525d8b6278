// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

/*
manager.go - Collection Cycle Manager

This file implements one collection cycle: fetch the top-games ranking,
resolve a live count and display name for each ranked game through a
bounded worker pool, and commit the batch in a single transaction.

Failure semantics:
  - Ranking fetch failure aborts the cycle. The ranking drives everything.
  - Per-game resolution failure excludes that game from the batch. One
    unresponsive app must not sink the other 99.
  - Write failure rolls back the whole batch. Readers never see a
    half-written cycle.
*/

package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/playerpulse/internal/config"
	"github.com/tomtom215/playerpulse/internal/logging"
	"github.com/tomtom215/playerpulse/internal/metrics"
	"github.com/tomtom215/playerpulse/internal/models"
	"github.com/tomtom215/playerpulse/internal/steam"
)

// Store is the persistence surface the collector writes to.
type Store interface {
	InsertSampleBatch(ctx context.Context, samples []models.RawSample) (int64, error)
}

// CycleResult summarizes one completed collection cycle.
type CycleResult struct {
	CycleID  string
	Written  int64
	Skipped  int
	Duration time.Duration
}

// Manager runs collection cycles against the Steam API and the sample store.
type Manager struct {
	client steam.API
	store  Store
	cfg    *config.CollectorConfig
}

// NewManager creates a collection manager.
func NewManager(client steam.API, store Store, cfg *config.CollectorConfig) *Manager {
	return &Manager{
		client: client,
		store:  store,
		cfg:    cfg,
	}
}

// resolved carries one worker's outcome, keyed by ranking position so the
// assembled batch preserves ranking order regardless of completion order.
type resolved struct {
	pos    int
	sample models.RawSample
	err    error
}

// RunCycle executes one collection cycle. Concurrent calls are safe; each
// cycle is independent and commits its own transaction.
func (m *Manager) RunCycle(ctx context.Context) (*CycleResult, error) {
	cycleID := logging.GenerateCycleID()
	ctx = logging.ContextWithCycleID(ctx, cycleID)

	if m.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.CycleTimeout)
		defer cancel()
	}

	start := time.Now()
	log := logging.Ctx(ctx)
	log.Info().Int("top_limit", m.cfg.TopLimit).Msg("Starting collection cycle")

	ranks, err := m.client.TopEntities(ctx, m.cfg.TopLimit)
	if err != nil {
		metrics.RecordCollectionCycle(time.Since(start), 0, 0, errorType(ctx, "upstream"))
		log.Error().Err(err).Msg("Collection cycle aborted: ranking fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	samples, skipped := m.resolveAll(ctx, ranks)
	if len(samples) == 0 {
		metrics.RecordCollectionCycle(time.Since(start), 0, skipped, errorType(ctx, "upstream"))
		log.Error().Int("skipped", skipped).Msg("Collection cycle aborted: no games resolved")
		return nil, fmt.Errorf("%w: all %d ranked games failed resolution", ErrUpstreamUnavailable, len(ranks))
	}

	written, err := m.store.InsertSampleBatch(ctx, samples)
	if err != nil {
		metrics.RecordCollectionCycle(time.Since(start), 0, skipped, errorType(ctx, "write"))
		log.Error().Err(err).Msg("Collection cycle aborted: batch write failed")
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	duration := time.Since(start)
	metrics.RecordCollectionCycle(duration, written, skipped, "")
	log.Info().
		Int64("written", written).
		Int("skipped", skipped).
		Dur("duration", duration).
		Msg("Collection cycle complete")

	return &CycleResult{
		CycleID:  cycleID,
		Written:  written,
		Skipped:  skipped,
		Duration: duration,
	}, nil
}

// resolveAll fans the ranked games out to a bounded worker pool and
// assembles the successfully resolved samples in ranking order.
func (m *Manager) resolveAll(ctx context.Context, ranks []models.RankedEntity) ([]models.RawSample, int) {
	workers := m.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(ranks) {
		workers = len(ranks)
	}

	jobs := make(chan int)
	results := make(chan resolved, len(ranks))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				sample, err := m.resolveOne(ctx, ranks[pos])
				results <- resolved{pos: pos, sample: sample, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for pos := range ranks {
			select {
			case jobs <- pos:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byPos := make([]*models.RawSample, len(ranks))
	skipped := 0
	log := logging.Ctx(ctx)
	for r := range results {
		if r.err != nil {
			skipped++
			log.Warn().
				Int64("appid", ranks[r.pos].AppID).
				Err(r.err).
				Msg("Excluding game from cycle")
			continue
		}
		s := r.sample
		byPos[r.pos] = &s
	}

	samples := make([]models.RawSample, 0, len(ranks))
	for _, s := range byPos {
		if s != nil {
			samples = append(samples, *s)
		}
	}
	return samples, skipped
}

// resolveOne fetches the live count and display name for one ranked game.
// Transient failures get one retry; a second failure excludes the game.
func (m *Manager) resolveOne(ctx context.Context, entity models.RankedEntity) (models.RawSample, error) {
	count, err := withRetry(ctx, func() (int64, error) {
		return m.client.LiveCount(ctx, entity.AppID)
	})
	if err != nil {
		return models.RawSample{}, fmt.Errorf("live count: %w", err)
	}

	name, err := withRetry(ctx, func() (string, error) {
		return m.client.DisplayName(ctx, entity.AppID)
	})
	if err != nil {
		return models.RawSample{}, fmt.Errorf("display name: %w", err)
	}

	return models.RawSample{
		AppID:       entity.AppID,
		Name:        name,
		PlayerCount: count,
	}, nil
}

// retryDelay spaces the single retry attempt.
const retryDelay = 500 * time.Millisecond

// withRetry runs fn and retries once after a short delay.
func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-time.After(retryDelay):
	}

	return fn()
}

// errorType maps a failed cycle to its metrics label, distinguishing
// cancellation from genuine upstream or write failures.
func errorType(ctx context.Context, kind string) string {
	if ctx.Err() != nil {
		return "canceled"
	}
	return kind
}
