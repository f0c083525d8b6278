// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQueryCountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("test_op"))

	RecordDBQuery("test_op", 5*time.Millisecond, nil)
	RecordDBQuery("test_op", 5*time.Millisecond, errors.New("boom"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("test_op"))
	if after-before != 1 {
		t.Errorf("expected 1 error recorded, got %v", after-before)
	}
}

func TestRecordSteamRequestResultLabel(t *testing.T) {
	okBefore := testutil.ToFloat64(SteamRequestsTotal.WithLabelValues("charts", "success"))
	failBefore := testutil.ToFloat64(SteamRequestsTotal.WithLabelValues("charts", "failure"))

	RecordSteamRequest("charts", time.Millisecond, nil)
	RecordSteamRequest("charts", time.Millisecond, errors.New("timeout"))

	if got := testutil.ToFloat64(SteamRequestsTotal.WithLabelValues("charts", "success")) - okBefore; got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(SteamRequestsTotal.WithLabelValues("charts", "failure")) - failBefore; got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
}

func TestRecordCollectionCycle(t *testing.T) {
	writtenBefore := testutil.ToFloat64(CollectionSamplesWritten)
	errorsBefore := testutil.ToFloat64(CollectionErrors.WithLabelValues("upstream"))

	RecordCollectionCycle(2*time.Second, 97, 3, "")
	RecordCollectionCycle(time.Second, 0, 0, "upstream")

	if got := testutil.ToFloat64(CollectionSamplesWritten) - writtenBefore; got != 97 {
		t.Errorf("expected 97 samples recorded, got %v", got)
	}
	if got := testutil.ToFloat64(CollectionErrors.WithLabelValues("upstream")) - errorsBefore; got != 1 {
		t.Errorf("expected 1 upstream error, got %v", got)
	}
	if testutil.ToFloat64(CollectionLastSuccess) == 0 {
		t.Error("expected last success timestamp to be set")
	}
}
