// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package collector

import "errors"

var (
	// ErrUpstreamUnavailable marks a cycle aborted because the ranking
	// fetch failed or produced nothing usable. No samples are written.
	ErrUpstreamUnavailable = errors.New("upstream ranking unavailable")

	// ErrWriteFailed marks a cycle whose samples were resolved but could
	// not be committed. The transaction rolls back; no partial batches.
	ErrWriteFailed = errors.New("sample batch write failed")
)
