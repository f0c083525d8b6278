// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

// Service wrappers adapting the application's components to the
// suture.Service interface.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/playerpulse/internal/logging"
)

// HTTPServer matches *http.Server's lifecycle methods, enabling testing
// with mocks.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService wraps an HTTP server as a supervised service. It
// translates http.Server's blocking ListenAndServe pattern to suture's
// context-aware Serve pattern: start in a goroutine, wait for context
// cancellation or server error, shut down gracefully with a timeout.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService creates an HTTP server service wrapper. The
// shutdownTimeout bounds how long active connections get to drain.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service. http.ErrServerClosed is converted to
// nil since it is expected on shutdown.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// Shutdown needs a fresh context; the original is canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer. Suture uses it to identify the service
// in log messages.
func (h *HTTPServerService) String() string {
	return h.name
}

// StartStopPoller matches the collection poller's lifecycle.
type StartStopPoller interface {
	Start(ctx context.Context) error
	Stop()
}

// PollerService wraps the collection poller as a supervised service. The
// poller handles its own goroutine internally, so the wrapper just
// orchestrates the lifecycle transitions.
type PollerService struct {
	poller StartStopPoller
	name   string
}

// NewPollerService creates a poller service wrapper.
func NewPollerService(poller StartStopPoller) *PollerService {
	return &PollerService{
		poller: poller,
		name:   "collection-poller",
	}
}

// Serve implements suture.Service. If Start fails the error is returned
// immediately, causing suture to restart the service per its backoff
// policy.
func (s *PollerService) Serve(ctx context.Context) error {
	if err := s.poller.Start(ctx); err != nil {
		return fmt.Errorf("collection poller start failed: %w", err)
	}

	<-ctx.Done()

	// Stop blocks until an in-flight cycle finishes.
	s.poller.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *PollerService) String() string {
	return s.name
}

// Checkpointer matches the database's checkpoint method.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService periodically forces a WAL checkpoint so the database
// file stays bounded under an append-heavy write pattern. A zero interval
// disables the service; Serve blocks until cancellation without ticking.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	name     string
}

// NewCheckpointService creates a checkpoint maintenance service.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	return &CheckpointService{
		db:       db,
		interval: interval,
		name:     "db-checkpoint",
	}
}

// Serve implements suture.Service. Checkpoint failures are logged, not
// returned; a transient failure must not restart the data layer.
func (s *CheckpointService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.db.Checkpoint(ctx); err != nil {
				logging.Warn().Err(err).Msg("Periodic checkpoint failed")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *CheckpointService) String() string {
	return s.name
}
