// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package collector

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/playerpulse/internal/logging"
)

// Poller runs collection cycles on a fixed interval. Deployments that
// trigger collection externally (cron hitting the collect endpoint) run
// with the poller disabled.
type Poller struct {
	manager  *Manager
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPoller creates a poller that runs one cycle every interval.
func NewPoller(manager *Manager, interval time.Duration) *Poller {
	return &Poller{
		manager:  manager,
		interval: interval,
	}
}

// Start begins the polling loop. Idempotent.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	logging.Info().Dur("interval", p.interval).Msg("Starting collection poller")

	p.wg.Add(1)
	go p.pollLoop(ctx)

	return nil
}

// Stop stops the polling loop and waits for an in-flight cycle to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	logging.Info().Msg("Collection poller stopped")
}

// pollLoop runs an initial cycle, then one per tick.
func (p *Poller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// runOnce executes one cycle. Cycle failures are logged inside RunCycle
// and recorded in metrics; the loop keeps ticking either way.
func (p *Poller) runOnce(ctx context.Context) {
	if _, err := p.manager.RunCycle(ctx); err != nil {
		logging.Error().Err(err).Msg("Scheduled collection cycle failed")
	}
}
