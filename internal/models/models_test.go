// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestHeaderImageURL(t *testing.T) {
	got := HeaderImageURL(730)
	want := "https://cdn.cloudflare.steamstatic.com/steam/apps/730/header.jpg"
	if got != want {
		t.Errorf("HeaderImageURL(730) = %q, want %q", got, want)
	}
}

func TestTrendRecordScoreNotSerialized(t *testing.T) {
	rec := TrendRecord{AppID: 570, Name: "Dota 2", Score: 42.5}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "42.5") {
		t.Errorf("internal score leaked into JSON: %s", data)
	}
}

func TestCollectResponseShape(t *testing.T) {
	resp := CollectResponse{
		Success:      true,
		CountWritten: 97,
		Timestamp:    time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, field := range []string{`"success":true`, `"count_written":97`, `"timestamp"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in %s", field, data)
		}
	}
}

func TestHistoryPeriods(t *testing.T) {
	if len(HistoryPeriods) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(HistoryPeriods))
	}
	if HistoryPeriods["7d"] != 7*24*time.Hour {
		t.Errorf("unexpected 7d duration %s", HistoryPeriods["7d"])
	}
	if HistoryPeriods["1y"] != 365*24*time.Hour {
		t.Errorf("unexpected 1y duration %s", HistoryPeriods["1y"])
	}
}
