// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package models

import "time"

// LeaderboardRequest carries the validated query parameters shared by the
// latest/peaks/trending endpoints.
type LeaderboardRequest struct {
	Limit int `validate:"min=1,max=100"`
}

// HistoryRequest carries the validated parameters of the history endpoint.
type HistoryRequest struct {
	AppID  int64  `validate:"min=1"`
	Period string `validate:"oneof=7d 30d 90d 1y"`
}

// HistoryPeriods maps the accepted period names to lookback durations.
var HistoryPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}
