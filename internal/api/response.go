// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

// Package api provides the HTTP surface: Chi routing, middleware, and the
// collection and analytics handlers.
package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/playerpulse/internal/logging"
	"github.com/tomtom215/playerpulse/internal/models"
)

// respondSuccess writes a success envelope. count is the number of records
// when data is a list (0 omits the field), queryStart marks when database
// work began so query_time_ms reflects query cost, not serialization.
//
// GET responses get a weak ETag derived from the data payload (not the
// envelope, whose timestamp changes every response); a matching
// If-None-Match short-circuits to 304 with no body.
func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}, count int, queryStart time.Time) {
	payload, err := json.Marshal(data)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response payload")
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "failed to encode response", nil)
		return
	}

	if r.Method == http.MethodGet {
		etag := computeETag(payload)
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	response := models.APIResponse{
		Status: "success",
		Data:   json.RawMessage(payload),
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(queryStart).Milliseconds(),
			Count:       count,
		},
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// respondError writes an error envelope with the given status and code.
func respondError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, details map[string]interface{}) {
	response := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode error response")
	}
}

// computeETag derives a weak ETag from a length+FNV fingerprint of the
// data payload.
func computeETag(payload []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(payload)
	return fmt.Sprintf(`W/"%x-%x"`, len(payload), h.Sum64())
}
