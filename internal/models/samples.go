// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

// Package models defines the persisted sample type, the derived analytics
// records computed from it, and the HTTP request/response shapes.
package models

import (
	"fmt"
	"time"
)

// Sample is one immutable observation of one game at one instant. Samples
// are append-only: corrections are made by inserting new samples, never by
// updating old ones.
type Sample struct {
	// AppID is the stable numeric id assigned by Steam.
	AppID int64 `json:"appid"`
	// Name is the display name at sampling time. It may change across
	// samples for the same app and is stored point-in-time, not normalized.
	Name string `json:"name"`
	// PlayerCount is the observed concurrent player count. Zero is a valid
	// observation ("nobody playing"); it is never negative and never null.
	PlayerCount int64 `json:"player_count"`
	// ObservedAt is assigned by the writer at transaction time.
	ObservedAt time.Time `json:"observed_at"`
}

// RawSample is a resolved (app, name, count) tuple assembled during a
// collection cycle, before the writer assigns the timestamp.
type RawSample struct {
	AppID       int64
	Name        string
	PlayerCount int64
}

// RankedEntity is one row of the upstream top-games ranking.
type RankedEntity struct {
	AppID        int64 `json:"appid"`
	Rank         int   `json:"rank"`
	CurrentCount int64 `json:"concurrent_in_game"`
	PeakToday    int64 `json:"peak_in_game"`
}

// Snapshot is the most recent sample for a game: the row with the maximum
// ObservedAt among all its samples, not merely the last row inserted.
type Snapshot struct {
	AppID       int64     `json:"appid"`
	Name        string    `json:"name"`
	PlayerCount int64     `json:"player_count"`
	ObservedAt  time.Time `json:"observed_at"`
	HeaderImage string    `json:"header_image,omitempty"`
}

// PeakRecord is the all-time maximum observed count for a game. PeakAt is
// the earliest ObservedAt among samples sharing the maximum count, so the
// record is deterministic when the peak was reached more than once.
type PeakRecord struct {
	AppID       int64          `json:"appid"`
	Name        string         `json:"name"`
	PeakCount   int64          `json:"peak_count"`
	PeakAt      time.Time      `json:"peak_at"`
	HeaderImage string         `json:"header_image,omitempty"`
	History     []HistoryPoint `json:"history,omitempty"`
}

// TrendRecord is the 24-hour momentum result for a game.
type TrendRecord struct {
	AppID       int64  `json:"appid"`
	Name        string `json:"name"`
	Current     int64  `json:"current_players"`
	Past        int64  `json:"past_players"`
	Change      int64  `json:"change"`
	// ChangePercent is (Change/Past)*100 rounded to one decimal when Past
	// is positive. A game growing from zero reports 100 - a display
	// convention for "new arrival", not a real percentage.
	ChangePercent float64        `json:"change_percent"`
	Score         float64        `json:"-"`
	HeaderImage   string         `json:"header_image,omitempty"`
	History       []HistoryPoint `json:"history,omitempty"`
}

// HistoryPoint is one point of a charting series.
type HistoryPoint struct {
	PlayerCount int64     `json:"player_count"`
	ObservedAt  time.Time `json:"observed_at"`
}

// headerImageURLFormat is the Steam CDN location for capsule art. The CDN
// serves a placeholder for unknown apps, so synthesis never needs a lookup.
const headerImageURLFormat = "https://cdn.cloudflare.steamstatic.com/steam/apps/%d/header.jpg"

// HeaderImageURL synthesizes the Steam CDN header image URL for an app.
func HeaderImageURL(appID int64) string {
	return fmt.Sprintf(headerImageURLFormat, appID)
}
