// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockHTTPServer implements HTTPServer with controllable behavior.
type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	shutdowns   atomic.Int32
	release     chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{release: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.release
	return errors.New("http: Server closed")
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	m.shutdowns.Add(1)
	close(m.release)
	return m.shutdownErr
}

func TestHTTPServerServiceShutsDownOnCancel(t *testing.T) {
	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	if server.shutdowns.Load() != 1 {
		t.Errorf("expected 1 shutdown call, got %d", server.shutdowns.Load())
	}
}

func TestHTTPServerServiceReportsListenFailure(t *testing.T) {
	server := newMockHTTPServer()
	server.listenErr = errors.New("address in use")
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("expected listen error, got %v", err)
	}
}

func TestHTTPServerServiceName(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), 0)
	if svc.String() != "http-server" {
		t.Errorf("unexpected service name %q", svc.String())
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout, got %v", svc.shutdownTimeout)
	}
}

// mockPoller implements StartStopPoller.
type mockPoller struct {
	startErr error
	starts   atomic.Int32
	stops    atomic.Int32
}

func (m *mockPoller) Start(ctx context.Context) error {
	m.starts.Add(1)
	return m.startErr
}

func (m *mockPoller) Stop() {
	m.stops.Add(1)
}

func TestPollerServiceLifecycle(t *testing.T) {
	poller := &mockPoller{}
	svc := NewPollerService(poller)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	if poller.starts.Load() != 1 || poller.stops.Load() != 1 {
		t.Errorf("expected 1 start and 1 stop, got %d/%d", poller.starts.Load(), poller.stops.Load())
	}
}

func TestPollerServiceStartFailure(t *testing.T) {
	poller := &mockPoller{startErr: errors.New("boom")}
	svc := NewPollerService(poller)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, poller.startErr) {
		t.Errorf("expected start error, got %v", err)
	}
	if poller.stops.Load() != 0 {
		t.Error("stop should not be called after failed start")
	}
}

// mockCheckpointer implements Checkpointer.
type mockCheckpointer struct {
	calls atomic.Int32
	err   error
}

func (m *mockCheckpointer) Checkpoint(ctx context.Context) error {
	m.calls.Add(1)
	return m.err
}

func TestCheckpointServiceTicks(t *testing.T) {
	db := &mockCheckpointer{}
	svc := NewCheckpointService(db, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if db.calls.Load() < 2 {
		t.Errorf("expected multiple checkpoint calls, got %d", db.calls.Load())
	}
}

func TestCheckpointServiceToleratesFailures(t *testing.T) {
	db := &mockCheckpointer{err: errors.New("checkpoint failed")}
	svc := NewCheckpointService(db, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Failures are logged, not returned; the service keeps ticking.
	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if db.calls.Load() < 2 {
		t.Errorf("expected service to keep ticking through failures, got %d calls", db.calls.Load())
	}
}

func TestCheckpointServiceDisabledInterval(t *testing.T) {
	db := &mockCheckpointer{}
	svc := NewCheckpointService(db, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if db.calls.Load() != 0 {
		t.Errorf("expected no checkpoints with zero interval, got %d", db.calls.Load())
	}
}
