package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FullRefresher is anything that can refresh all of its data at once
type FullRefresher interface {
	RefreshAll(ctx context.Context)
}

// Refresher runs RefreshAll on a fixed interval
type Refresher struct {
	target      FullRefresher
	interval    time.Duration
	warmOnStart bool
	logger      zerolog.Logger

	// State
	running bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRefresher creates a refresher for target. With warmOnStart set, Start
// performs one full refresh before returning.
func NewRefresher(target FullRefresher, interval time.Duration, warmOnStart bool, logger zerolog.Logger) *Refresher {
	return &Refresher{
		target:      target,
		interval:    interval,
		warmOnStart: warmOnStart,
		logger:      logger.With().Str("component", "cache_refresher").Logger(),
	}
}

// Start begins the refresh loop
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("refresher already running")
	}
	if r.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", r.interval)
	}

	if r.warmOnStart {
		start := time.Now()
		r.target.RefreshAll(ctx)
		r.logger.Info().Dur("took", time.Since(start)).Msg("initial cache refresh done")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go r.loop(loopCtx)

	r.logger.Info().Dur("interval", r.interval).Msg("cache refresher started")
	return nil
}

// Stop cancels the loop and waits for an in-flight refresh to finish.
// The refresher counts as stopped once the loop is cancelled, even when
// ctx ends before the in-flight refresh returns.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.running = false

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.target.RefreshAll(ctx)
		}
	}
}
