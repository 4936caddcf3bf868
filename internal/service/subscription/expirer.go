package subscription

import (
	"context"
	"time"

	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/repository"
)

const defaultExpireInterval = time.Minute

// Expirer periodically marks active subscriptions past their end date as expired
// Quota does not depend on it: ended subscription grants nothing even before it is marked
type Expirer struct {
	interval time.Duration
	now      func() time.Time
	storage  repository.Storage
	logger   logger.Logger
}

// interval and now may be zero, defaults are used then
func NewExpirer(interval time.Duration, now func() time.Time, storage repository.Storage, logger logger.Logger) *Expirer {
	if interval == 0 {
		interval = defaultExpireInterval
	}
	if now == nil {
		now = time.Now
	}

	return &Expirer{interval: interval, now: now, storage: storage, logger: logger}
}

// Run expires subscriptions on every tick until ctx is done
// Returned channel is closed when the loop stopped
func (e *Expirer) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	e.logger.Debug("Starting subscription expirer", "interval", e.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				e.logger.Debug("Subscription expirer stopped by context")
				return

			case <-ticker.C:
				e.ExpireOnce(ctx)
			}
		}
	}()

	return idleStopped
}

// ExpireOnce runs single pass and returns number of expired subscriptions
func (e *Expirer) ExpireOnce(ctx context.Context) int64 {
	n, err := e.storage.Subscription().ExpireSubscriptions(ctx, e.now())
	if err != nil {
		e.logger.Error("Failed to expire subscriptions", "error", err)
		return 0
	}

	if n > 0 {
		e.logger.Info("Subscriptions expired", "count", n)
	}

	return n
}
