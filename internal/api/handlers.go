// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/playerpulse/internal/collector"
	"github.com/tomtom215/playerpulse/internal/config"
	"github.com/tomtom215/playerpulse/internal/logging"
	"github.com/tomtom215/playerpulse/internal/models"
	"github.com/tomtom215/playerpulse/internal/steam"
	"github.com/tomtom215/playerpulse/internal/validation"
)

// Store is the query surface the read handlers depend on. Satisfied by
// *database.DB.
type Store interface {
	LatestSnapshots(ctx context.Context, limit int) ([]models.Snapshot, error)
	History(ctx context.Context, appID int64, window time.Duration, maxPoints int) ([]models.HistoryPoint, error)
	PeaksForAll(ctx context.Context, limit int) ([]models.PeakRecord, error)
	SamplesSince(ctx context.Context, appID int64, since time.Time) ([]models.HistoryPoint, error)
	CountSamples(ctx context.Context) (int64, error)
	LastObservedAt(ctx context.Context) (*time.Time, error)
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	db        Store
	steam     steam.API
	collector *collector.Manager
	cfg       *config.Config
	version   string
}

// NewHandler creates the handler set.
func NewHandler(db Store, steamClient steam.API, manager *collector.Manager, cfg *config.Config, version string) *Handler {
	return &Handler{
		db:        db,
		steam:     steamClient,
		collector: manager,
		cfg:       cfg,
		version:   version,
	}
}

// Collect triggers one collection cycle. Requires the cron secret as a
// bearer token; external schedulers hit this endpoint.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeCron(r) {
		logging.Ctx(r.Context()).Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected collection trigger")
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "invalid or missing authorization", nil)
		return
	}

	h.runCollection(w, r)
}

// CollectTest triggers one collection cycle without authentication. It
// exists for local verification and runs the identical cycle.
func (h *Handler) CollectTest(w http.ResponseWriter, r *http.Request) {
	h.runCollection(w, r)
}

func (h *Handler) runCollection(w http.ResponseWriter, r *http.Request) {
	result, err := h.collector.RunCycle(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, collector.ErrUpstreamUnavailable):
			respondError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "steam api unavailable", nil)
		case errors.Is(err, collector.ErrWriteFailed):
			respondError(w, r, http.StatusInternalServerError, "COLLECTION_ERROR", "failed to persist samples", nil)
		default:
			respondError(w, r, http.StatusInternalServerError, "COLLECTION_ERROR", "collection cycle failed", nil)
		}
		return
	}

	respondSuccess(w, r, models.CollectResponse{
		Success:      true,
		CountWritten: result.Written,
		Timestamp:    time.Now().UTC(),
	}, 0, time.Now())
}

// authorizeCron checks the bearer token against the configured cron
// secret in constant time. An empty configured secret rejects everything;
// the endpoint cannot be accidentally left open.
func (h *Handler) authorizeCron(r *http.Request) bool {
	secret := h.cfg.Security.CronSecret
	if secret == "" {
		return false
	}

	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// Health reports liveness plus basic data freshness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	queryStart := time.Now()

	count, err := h.db.CountSamples(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to read sample count", nil)
		return
	}

	last, err := h.db.LastObservedAt(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to read last observation", nil)
		return
	}

	respondSuccess(w, r, models.HealthResponse{
		Status:       "ok",
		SampleCount:  count,
		LastObserved: last,
		Version:      h.version,
	}, 0, queryStart)
}

// parseLimit reads and validates the limit query parameter, falling back
// to the configured default. On failure it writes the error response and
// reports ok=false.
func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	return h.parseLimitDefault(w, r, h.cfg.API.DefaultLimit)
}

func (h *Handler) parseLimitDefault(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	limit := fallback
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer", nil)
			return 0, false
		}
		limit = parsed
	}

	req := models.LeaderboardRequest{Limit: limit}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return 0, false
	}
	return limit, true
}

// respondValidationError maps a validation failure onto the error envelope.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}
