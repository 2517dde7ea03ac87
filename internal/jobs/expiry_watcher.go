package jobs

import (
	"context"
	"fmt"
	"time"

	"subscription-shop/internal/calendar"
	"subscription-shop/internal/monitoring"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"go.uber.org/zap"
)

const watcherBatch = 200

// ExpiryWatcher reminds users shortly before their subscription ends and
// tells them once it has ended. Each notice is sent at most once per
// subscription term.
type ExpiryWatcher struct {
	repo      *repository.Repository
	notify    *notify.Dispatcher
	interval  time.Duration
	lookahead time.Duration
	civil     *time.Location
	log       *zap.Logger
	now       func() time.Time
}

// CycleReport counts notices sent in one pass
type CycleReport struct {
	Reminded int
	Expired  int
}

// NewExpiryWatcher creates a new expiry watcher job
func NewExpiryWatcher(
	repo *repository.Repository,
	dispatcher *notify.Dispatcher,
	interval, lookahead time.Duration,
	civil *time.Location,
	log *zap.Logger,
) *ExpiryWatcher {
	return &ExpiryWatcher{
		repo:      repo,
		notify:    dispatcher,
		interval:  interval,
		lookahead: lookahead,
		civil:     civil,
		log:       log.With(zap.String("component", "expiry_watcher")),
		now:       time.Now,
	}
}

// Start runs a pass immediately and then every interval until ctx is done
func (w *ExpiryWatcher) Start(ctx context.Context) error {
	w.log.Info("Starting expiry watcher", zap.Duration("interval", w.interval), zap.Duration("lookahead", w.lookahead))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.safeCycle(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.log.Info("Stopping expiry watcher")
			return nil
		}
	}
}

// safeCycle keeps a failing or panicking pass from ending the loop
func (w *ExpiryWatcher) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.WatcherCyclesTotal.WithLabelValues("panic").Inc()
			w.log.Error("expiry cycle panicked", zap.Any("panic", r))
		}
	}()

	report, err := w.RunOnce(ctx)
	if err != nil {
		monitoring.WatcherCyclesTotal.WithLabelValues("error").Inc()
		w.log.Warn("expiry cycle failed", zap.Error(err))
		return
	}

	monitoring.WatcherCyclesTotal.WithLabelValues("ok").Inc()
	if report.Reminded > 0 || report.Expired > 0 {
		w.log.Info("expiry cycle done", zap.Int("reminded", report.Reminded), zap.Int("expired", report.Expired))
	}
}

// RunOnce performs a single pass: owners of subscriptions ending within the
// lookahead get a reminder and operators hear about subscriptions that have
// ended. A flag is set whether or not the message was delivered.
func (w *ExpiryWatcher) RunOnce(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	now := w.now().UTC()

	expiring, err := w.repo.ListExpiringSoon(ctx, now, now.Add(w.lookahead), watcherBatch)
	if err != nil {
		return report, fmt.Errorf("list expiring subscriptions: %w", err)
	}
	for _, sub := range expiring {
		w.notify.User(ctx, sub.UserID, fmt.Sprintf(
			"Your subscription ends on %s. Renew to keep access.",
			calendar.Format(sub.ExpiresAt, w.civil),
		))
		marked, err := w.repo.MarkReminded(ctx, sub.UserID, sub.Version)
		if err != nil {
			return report, fmt.Errorf("mark reminded %d: %w", sub.UserID, err)
		}
		if marked {
			report.Reminded++
		}
	}

	expired, err := w.repo.ListExpiredUnnotified(ctx, now, watcherBatch)
	if err != nil {
		return report, fmt.Errorf("list expired subscriptions: %w", err)
	}
	for _, sub := range expired {
		w.notify.Operators(ctx, fmt.Sprintf(
			"Subscription of user %d ended on %s.",
			sub.UserID, calendar.Format(sub.ExpiresAt, w.civil),
		))
		marked, err := w.repo.MarkExpiredNotified(ctx, sub.UserID, sub.Version)
		if err != nil {
			return report, fmt.Errorf("mark expired %d: %w", sub.UserID, err)
		}
		if marked {
			report.Expired++
		}
	}

	return report, nil
}
