package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CacheEvictor drops expired cache entries during the sweep
type CacheEvictor interface {
	EvictExpired() int
}

// Janitor runs the periodic housekeeping sweep: expiring overdue
// reservations, purging old terminal rows and evicting stale cache
// entries. If a sweep is still running when the next tick fires, the tick
// is skipped rather than queued.
type Janitor struct {
	manager   *inventory.ReservationManager
	evictor   CacheEvictor
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
	interval  time.Duration
	retention time.Duration

	running  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewJanitor creates a janitor. The evictor may be nil when no cache needs
// sweeping; a zero retention disables the terminal purge.
func NewJanitor(
	manager *inventory.ReservationManager,
	evictor CacheEvictor,
	interval time.Duration,
	retention time.Duration,
	logger *zap.Logger,
) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		manager:   manager,
		evictor:   evictor,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// SetMetrics attaches business metrics recording
func (j *Janitor) SetMetrics(m *telemetry.BusinessMetrics) {
	j.metrics = m
}

// Start launches the sweep loop. It returns immediately; Stop shuts the
// loop down and waits for an in-flight sweep to finish.
func (j *Janitor) Start(ctx context.Context) {
	go func() {
		defer close(j.doneChan)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.logger.Info("Janitor started", zap.Duration("interval", j.interval))

		for {
			select {
			case <-ticker.C:
				j.Sweep(ctx)
			case <-j.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts down the sweep loop and waits for it to exit
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
	})
	<-j.doneChan
	j.logger.Info("Janitor stopped")
}

// Sweep runs one housekeeping pass. Concurrent calls are collapsed: if a
// sweep is already in flight, the call returns without doing anything.
func (j *Janitor) Sweep(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Debug("Sweep already in progress, skipping tick")
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	now := time.Now()

	expired, err := j.manager.ExpireDue(ctx, now)
	if err != nil {
		j.logger.Error("Reservation expiry sweep failed", zap.Error(err))
	} else {
		j.metrics.RecordReservationsExpired(ctx, expired)
	}

	var purged int64
	if j.retention > 0 {
		purged, err = j.manager.PurgeTerminal(ctx, j.retention, now)
		if err != nil {
			j.logger.Error("Terminal reservation purge failed", zap.Error(err))
		}
	}

	evicted := 0
	if j.evictor != nil {
		evicted = j.evictor.EvictExpired()
	}

	if expired > 0 || purged > 0 || evicted > 0 {
		j.logger.Info("Sweep complete",
			zap.Int("expired", expired),
			zap.Int64("purged", purged),
			zap.Int("evicted", evicted),
			zap.Duration("took", time.Since(start)),
		)
	}
}
