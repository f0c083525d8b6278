// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

// Package trend computes 24-hour momentum rankings from sampled player
// counts. The past-value lookup is deliberately a pure function over an
// already-sorted sample slice: closest-to-target matching with tiered
// fallback is easy to get subtly wrong, so it is kept off the database
// and unit-tested against hand-built series.
package trend

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/playerpulse/internal/models"
)

// Default lookup parameters. The past value is the sample closest to 24
// hours ago within a one hour tolerance either side; when nothing lands in
// that window the oldest sample of the last 48 hours stands in for it.
const (
	DefaultLookback       = 24 * time.Hour
	DefaultTolerance      = time.Hour
	DefaultFallbackWindow = 48 * time.Hour

	// DefaultLimit caps the ranked result list.
	DefaultLimit = 100

	// gainBoost weights positive movement above equal-magnitude decline.
	gainBoost = 1.5
)

// ResolvePast finds the reference count for "24 hours ago" in a sample
// series sorted ascending by ObservedAt.
//
// Resolution tiers:
//  1. Among samples observed within [target-tolerance, target+tolerance],
//     pick the one whose distance to target is smallest.
//  2. Otherwise use the oldest sample within [now-fallbackWindow, now].
//  3. Otherwise report 0 and found=false (no history at all).
func ResolvePast(samples []models.HistoryPoint, now, target time.Time, tolerance, fallbackWindow time.Duration) (past int64, found bool) {
	var (
		best     int64
		bestDist time.Duration = -1
	)
	for _, s := range samples {
		dist := s.ObservedAt.Sub(target)
		if dist < 0 {
			dist = -dist
		}
		if dist > tolerance {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best = s.PlayerCount
			bestDist = dist
		}
	}
	if bestDist >= 0 {
		return best, true
	}

	// Fallback: earliest sample inside the fallback window. The input is
	// ascending, so the first in-window sample is the oldest.
	cutoff := now.Add(-fallbackWindow)
	for _, s := range samples {
		if s.ObservedAt.Before(cutoff) || s.ObservedAt.After(now) {
			continue
		}
		return s.PlayerCount, true
	}

	return 0, false
}

// ChangePercent computes the percentage change from past to current,
// rounded to one decimal.
//
// A game growing from past==0 reports 100: "infinite growth from nothing"
// capped at 100 is a display convention carried over for output parity,
// not a meaningful percentage. Zero to zero reports 0.
func ChangePercent(current, past int64) float64 {
	switch {
	case past > 0:
		pct := (float64(current-past) / float64(past)) * 100
		return math.Round(pct*10) / 10
	case current > 0:
		return 100
	default:
		return 0
	}
}

// Score converts a change percentage into the ranking score. Gainers get
// a 1.5x boost over decliners of equal magnitude; decliners rank by the
// magnitude of their drop.
func Score(changePercent float64) float64 {
	if changePercent > 0 {
		return changePercent * gainBoost
	}
	return math.Abs(changePercent)
}

// Build assembles a TrendRecord for one game from its snapshot and its
// recent sample series (ascending). Returns ok=false for games with no
// signal (current and past both zero), which are excluded from rankings.
func Build(snapshot models.Snapshot, samples []models.HistoryPoint, now time.Time) (models.TrendRecord, bool) {
	target := now.Add(-DefaultLookback)
	past, _ := ResolvePast(samples, now, target, DefaultTolerance, DefaultFallbackWindow)

	current := snapshot.PlayerCount
	if current == 0 && past == 0 {
		return models.TrendRecord{}, false
	}

	pct := ChangePercent(current, past)
	return models.TrendRecord{
		AppID:         snapshot.AppID,
		Name:          snapshot.Name,
		Current:       current,
		Past:          past,
		Change:        current - past,
		ChangePercent: pct,
		Score:         Score(pct),
		HeaderImage:   models.HeaderImageURL(snapshot.AppID),
	}, true
}

// Rank sorts trend records by score descending and caps the list. Records
// with equal scores order by appid ascending so repeated calls over the
// same data produce identical output.
func Rank(records []models.TrendRecord, limit int) []models.TrendRecord {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].AppID < records[j].AppID
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records
}
