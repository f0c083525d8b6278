// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/playerpulse/internal/config"
)

// newTestClient points every endpoint at the given test server.
func newTestClient(serverURL string) *Client {
	return NewClient(&config.SteamConfig{
		ChartsURL:          serverURL,
		StatsURL:           serverURL,
		StoreURL:           serverURL,
		RequestTimeout:     5 * time.Second,
		StoreRatePerSecond: 1000,
		StoreRateBurst:     100,
	})
}

func TestTopEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/GetMostPlayedGames/v1/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"ranks":[
			{"rank":1,"appid":730,"concurrent_in_game":1200000,"peak_in_game":1500000},
			{"rank":2,"appid":570,"concurrent_in_game":650000,"peak_in_game":800000},
			{"rank":3,"appid":578080,"concurrent_in_game":400000,"peak_in_game":600000}
		]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ranks, err := client.TopEntities(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranks) != 3 {
		t.Fatalf("expected 3 ranks, got %d", len(ranks))
	}
	if ranks[0].AppID != 730 || ranks[0].Rank != 1 {
		t.Errorf("unexpected first rank: %+v", ranks[0])
	}
	if ranks[0].CurrentCount != 1200000 {
		t.Errorf("expected concurrent_in_game 1200000, got %d", ranks[0].CurrentCount)
	}
	if ranks[0].PeakToday != 1500000 {
		t.Errorf("expected peak_in_game 1500000, got %d", ranks[0].PeakToday)
	}
}

func TestTopEntitiesCapsAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"ranks":[
			{"rank":1,"appid":1,"concurrent_in_game":30},
			{"rank":2,"appid":2,"concurrent_in_game":20},
			{"rank":3,"appid":3,"concurrent_in_game":10}
		]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ranks, err := client.TopEntities(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranks) != 2 {
		t.Fatalf("expected 2 ranks after cap, got %d", len(ranks))
	}
	if ranks[1].AppID != 2 {
		t.Errorf("expected ranking order preserved, got %+v", ranks)
	}
}

func TestTopEntitiesEmptyRanking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"ranks":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.TopEntities(context.Background(), 100); err == nil {
		t.Fatal("expected error for empty ranking")
	}
}

func TestTopEntitiesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.TopEntities(context.Background(), 100); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestLiveCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("appid"); got != "730" {
			t.Errorf("expected appid=730, got %q", got)
		}
		_, _ = w.Write([]byte(`{"response":{"player_count":1234567,"result":1}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	count, err := client.LiveCount(context.Background(), 730)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1234567 {
		t.Errorf("expected count 1234567, got %d", count)
	}
}

func TestLiveCountUnpublished(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"result":42}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.LiveCount(context.Background(), 99999); err == nil {
		t.Fatal("expected error for result != 1")
	}
}

func TestLiveCountZeroIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"player_count":0,"result":1}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	count, err := client.LiveCount(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
}

func TestDisplayName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("appids"); got != "730" {
			t.Errorf("expected appids=730, got %q", got)
		}
		_, _ = w.Write([]byte(`{"730":{"success":true,"data":{"name":"Counter-Strike 2"}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	name, err := client.DisplayName(context.Background(), 730)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Counter-Strike 2" {
		t.Errorf("expected name %q, got %q", "Counter-Strike 2", name)
	}
}

func TestDisplayNameNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"99999":{"success":false}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.DisplayName(context.Background(), 99999); err == nil {
		t.Fatal("expected error for success=false")
	}
}

func TestDisplayNameRateLimiterHonorsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"730":{"success":true,"data":{"name":"Counter-Strike 2"}}}`))
	}))
	defer server.Close()

	// Zero burst means the limiter can never admit the request; the call
	// must fail on context cancellation instead of hanging.
	client := NewClient(&config.SteamConfig{
		ChartsURL:          server.URL,
		StatsURL:           server.URL,
		StoreURL:           server.URL,
		RequestTimeout:     5 * time.Second,
		StoreRatePerSecond: 0.001,
		StoreRateBurst:     0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.DisplayName(ctx, 730); err == nil {
		t.Fatal("expected rate limiter wait to fail on canceled context")
	}
}
