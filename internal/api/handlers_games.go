// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/playerpulse/internal/logging"
	"github.com/tomtom215/playerpulse/internal/models"
	"github.com/tomtom215/playerpulse/internal/trend"
	"github.com/tomtom215/playerpulse/internal/validation"
)

// historyMaxPoints caps the point count of the period history endpoint. A
// year of hourly cycles is ~8760 rows; the cap keeps responses bounded if
// cycles ever run more often.
const historyMaxPoints = 10000

// Latest returns the current player-count leaderboard: each game's most
// recent sample, ordered by count descending.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	queryStart := time.Now()
	snapshots, err := h.db.LatestSnapshots(r.Context(), limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Latest snapshots query failed")
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query snapshots", nil)
		return
	}

	respondSuccess(w, r, snapshots, len(snapshots), queryStart)
}

// History returns the sample series for one game over a named period.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	appID, err := strconv.ParseInt(chi.URLParam(r, "appid"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "appid must be an integer", nil)
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "7d"
	}

	req := models.HistoryRequest{AppID: appID, Period: period}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	queryStart := time.Now()
	points, err := h.db.History(r.Context(), appID, models.HistoryPeriods[period], historyMaxPoints)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("History query failed")
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query history", nil)
		return
	}

	respondSuccess(w, r, points, len(points), queryStart)
}

// Peaks returns the all-time peak leaderboard with attached sparklines.
func (h *Handler) Peaks(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	queryStart := time.Now()
	records, err := h.db.PeaksForAll(r.Context(), limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Peak leaderboard query failed")
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query peaks", nil)
		return
	}

	// A failed sparkline read excludes that game; one degraded entity
	// must not take the rest of the leaderboard with it.
	out := make([]models.PeakRecord, 0, len(records))
	for _, rec := range records {
		history, err := h.db.History(r.Context(), rec.AppID, h.cfg.API.SparklineWindow, h.cfg.API.SparklinePoints)
		if err != nil {
			logging.Ctx(r.Context()).Warn().
				Int64("appid", rec.AppID).
				Err(err).
				Msg("Excluding game from peak leaderboard")
			continue
		}
		rec.History = history
		out = append(out, rec)
	}

	respondSuccess(w, r, out, len(out), queryStart)
}

// Trending computes the 24-hour momentum ranking over the games with
// current snapshots. Games with no signal (zero now and zero then) are
// excluded; everything else ranks by score.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	queryStart := time.Now()
	snapshots, err := h.db.LatestSnapshots(r.Context(), h.cfg.API.MaxLimit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Trending snapshot query failed")
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query snapshots", nil)
		return
	}

	now := time.Now().UTC()
	since := now.Add(-trend.DefaultFallbackWindow)

	records := make([]models.TrendRecord, 0, len(snapshots))
	for _, snapshot := range snapshots {
		samples, err := h.db.SamplesSince(r.Context(), snapshot.AppID, since)
		if err != nil {
			logging.Ctx(r.Context()).Warn().
				Int64("appid", snapshot.AppID).
				Err(err).
				Msg("Excluding game from trending leaderboard")
			continue
		}

		rec, include := trend.Build(snapshot, samples, now)
		if !include {
			continue
		}

		rec.History = sparklineTail(samples, h.cfg.API.SparklinePoints)
		records = append(records, rec)
	}

	ranked := trend.Rank(records, limit)
	respondSuccess(w, r, ranked, len(ranked), queryStart)
}

// topDefaultLimit keeps the live proxy small by default; each request
// goes straight to the upstream API.
const topDefaultLimit = 10

// Top proxies the live most-played ranking straight from the upstream
// API, bypassing the sample store entirely.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimitDefault(w, r, topDefaultLimit)
	if !ok {
		return
	}

	queryStart := time.Now()
	ranks, err := h.steam.TopEntities(r.Context(), limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Live ranking fetch failed")
		respondError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "steam api unavailable", nil)
		return
	}

	respondSuccess(w, r, ranks, len(ranks), queryStart)
}

// sparklineTail returns the most recent maxPoints of an ascending series.
// The trending handler already holds each game's 48h samples for the
// momentum math, so the sparkline reuses them instead of a second query.
func sparklineTail(samples []models.HistoryPoint, maxPoints int) []models.HistoryPoint {
	if maxPoints <= 0 || len(samples) <= maxPoints {
		return samples
	}
	return samples[len(samples)-maxPoints:]
}
