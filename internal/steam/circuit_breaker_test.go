// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package steam

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/playerpulse/internal/models"
)

// stubAPI returns canned results for circuit breaker passthrough tests.
type stubAPI struct {
	ranks []models.RankedEntity
	count int64
	name  string
	err   error
}

func (s *stubAPI) TopEntities(context.Context, int) ([]models.RankedEntity, error) {
	return s.ranks, s.err
}

func (s *stubAPI) LiveCount(context.Context, int64) (int64, error) {
	return s.count, s.err
}

func (s *stubAPI) DisplayName(context.Context, int64) (string, error) {
	return s.name, s.err
}

func TestCircuitBreakerPassthroughSuccess(t *testing.T) {
	stub := &stubAPI{
		ranks: []models.RankedEntity{{AppID: 730, Rank: 1, CurrentCount: 100}},
		count: 42,
		name:  "Counter-Strike 2",
	}
	cbc := NewCircuitBreakerClient(stub)
	ctx := context.Background()

	ranks, err := cbc.TopEntities(ctx, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranks) != 1 || ranks[0].AppID != 730 {
		t.Errorf("unexpected ranks: %+v", ranks)
	}

	count, err := cbc.LiveCount(ctx, 730)
	if err != nil || count != 42 {
		t.Errorf("expected count 42, got %d (err=%v)", count, err)
	}

	name, err := cbc.DisplayName(ctx, 730)
	if err != nil || name != "Counter-Strike 2" {
		t.Errorf("expected name passthrough, got %q (err=%v)", name, err)
	}
}

func TestCircuitBreakerPassthroughError(t *testing.T) {
	wantErr := errors.New("upstream down")
	cbc := NewCircuitBreakerClient(&stubAPI{err: wantErr})

	if _, err := cbc.LiveCount(context.Background(), 730); !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}

func TestCastResult(t *testing.T) {
	got, err := castResult[int64](int64(7), nil)
	if err != nil || got != 7 {
		t.Errorf("expected 7, got %d (err=%v)", got, err)
	}

	if _, err := castResult[int64]("not an int", nil); err == nil {
		t.Error("expected type mismatch error")
	}

	wantErr := errors.New("boom")
	if _, err := castResult[string](nil, wantErr); !errors.Is(err, wantErr) {
		t.Errorf("expected error passthrough, got %v", err)
	}
}

func TestStateConversions(t *testing.T) {
	if stateToString(gobreaker.StateClosed) != "closed" ||
		stateToString(gobreaker.StateHalfOpen) != "half-open" ||
		stateToString(gobreaker.StateOpen) != "open" {
		t.Error("unexpected state string mapping")
	}
	if stateToFloat(gobreaker.StateClosed) != 0 ||
		stateToFloat(gobreaker.StateHalfOpen) != 1 ||
		stateToFloat(gobreaker.StateOpen) != 2 {
		t.Error("unexpected state float mapping")
	}
}
