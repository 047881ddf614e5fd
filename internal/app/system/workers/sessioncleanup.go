package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpiredSessionDeleter removes server sessions past their expiry.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionCleanup periodically deletes expired sessions. The TTL index on
// sessions.expires_at does the same eventually; this worker keeps the
// collection tight on deployments where the TTL monitor lags.
type SessionCleanup struct {
	sessions ExpiredSessionDeleter
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionCleanup creates the worker. interval is how often it runs.
func NewSessionCleanup(sessions ExpiredSessionDeleter, logger *zap.Logger, interval time.Duration) *SessionCleanup {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SessionCleanup{
		sessions: sessions,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *SessionCleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

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

// RunOnce performs a single cleanup pass.
func (w *SessionCleanup) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("failed to delete expired sessions", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("deleted expired sessions", zap.Int64("count", count))
	}
}
