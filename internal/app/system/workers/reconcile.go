// internal/app/system/workers/reconcile.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Reconciler recomputes denormalized counters and reports how many
// documents it fixed.
type Reconciler interface {
	Reconcile(ctx context.Context) (int64, error)
}

// StatsReconcile is a background worker that periodically brings article
// stats back in line with the interaction ledger.
type StatsReconcile struct {
	target   Reconciler
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStatsReconcile creates a worker that runs target every interval.
func NewStatsReconcile(target Reconciler, logger *zap.Logger, interval time.Duration) *StatsReconcile {
	return &StatsReconcile{
		target:   target,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the loop. The first pass runs right away.
func (w *StatsReconcile) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("stats reconcile worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *StatsReconcile) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("stats reconcile worker stopped")
	})
}

func (w *StatsReconcile) run() {
	defer w.wg.Done()

	w.RunOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single reconciliation pass.
func (w *StatsReconcile) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	fixed, err := w.target.Reconcile(ctx)
	if err != nil {
		w.log.Error("stats reconcile failed", zap.Error(err))
		return
	}
	if fixed > 0 {
		w.log.Info("reconciled article stats", zap.Int64("fixed", fixed))
	}
}
