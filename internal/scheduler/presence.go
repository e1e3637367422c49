package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

// Presence refreshes the bot status on a fixed interval.
type Presence struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	update    func(ctx context.Context)
}

// NewPresence creates a presence job. A non-positive interval defaults to
// 30 minutes.
func NewPresence(loc *time.Location, interval time.Duration, update func(ctx context.Context)) *Presence {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	return &Presence{
		scheduler: s,
		interval:  interval,
		update:    update,
	}
}

// Run fires the update immediately and then every interval until ctx is
// cancelled.
func (p *Presence) Run(ctx context.Context) error {
	const op = "scheduler/presence/Run"

	logger := log.From(ctx).With(slog.String("op", op))

	_, err := p.scheduler.Every(p.interval).StartImmediately().Do(func() {
		if ctx.Err() != nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				logger.Error("presence_panic", slog.Any("panic", r))
			}
		}()
		p.update(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: schedule: %w", op, err)
	}

	p.scheduler.StartAsync()
	logger.Info("presence_started", slog.Duration("interval", p.interval))

	<-ctx.Done()
	p.scheduler.Stop()
	logger.Info("presence_stopped")

	return nil
}
