// Package scheduler drives the fixed daily wake slots and the periodic
// presence refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

// State is the daily loop's current phase.
type State int32

const (
	Waiting State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "RUNNING"
	}
	return "WAITING"
}

// ErrNoWakeHours is returned when the schedule has no slots.
var ErrNoWakeHours = errors.New("no wake hours configured")

// NextWake returns the earliest configured hour strictly after now on the
// same local day, else the first hour of the next day. Times are computed
// in loc.
func NextWake(now time.Time, hours []int, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()

	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)

	for _, h := range sorted {
		t := time.Date(y, m, d, h, 0, 0, 0, loc)
		if t.After(local) {
			return t
		}
	}
	return time.Date(y, m, d+1, sorted[0], 0, 0, 0, loc)
}

// Cycle is one unit of scheduled work.
type Cycle func(ctx context.Context) error

// Daily wakes at fixed local hours and runs a cycle each time. The next
// wake is derived from the clock after every cycle, so there is no catch-up
// for missed slots.
type Daily struct {
	hours []int
	loc   *time.Location
	cycle Cycle

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	state atomic.Int32
}

// DailyOption customizes a Daily loop.
type DailyOption func(*Daily)

// WithClock overrides the time source.
func WithClock(now func() time.Time) DailyOption {
	return func(d *Daily) {
		if now != nil {
			d.now = now
		}
	}
}

// WithSleep overrides how the loop waits. The function must return a
// non-nil error when ctx is done.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) DailyOption {
	return func(d *Daily) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// NewDaily creates a loop over hours (0–23) in loc.
func NewDaily(hours []int, loc *time.Location, cycle Cycle, opts ...DailyOption) (*Daily, error) {
	if len(hours) == 0 {
		return nil, ErrNoWakeHours
	}
	for _, h := range hours {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("wake hour %d out of range", h)
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	d := &Daily{
		hours: append([]int(nil), hours...),
		loc:   loc,
		cycle: cycle,
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// State reports whether a cycle is in progress.
func (d *Daily) State() State {
	return State(d.state.Load())
}

// Run blocks until ctx is cancelled. Cycle errors and panics are logged and
// never stop the loop.
func (d *Daily) Run(ctx context.Context) error {
	const op = "scheduler/scheduler/Run"

	logger := log.From(ctx).With(slog.String("op", op))
	logger.Info("scheduler_started", slog.Any("hours", d.hours), slog.String("tz", d.loc.String()))

	for {
		now := d.now()
		next := NextWake(now, d.hours, d.loc)
		logger.Info("next_wake", slog.Time("at", next), slog.Duration("in", next.Sub(now)))

		if err := d.sleep(ctx, next.Sub(now)); err != nil {
			logger.Info("scheduler_stopped")
			return ctx.Err()
		}

		d.runOnce(ctx, logger)
	}
}

func (d *Daily) runOnce(ctx context.Context, logger *slog.Logger) {
	d.state.Store(int32(Running))
	defer d.state.Store(int32(Waiting))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("cycle_panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := d.cycle(ctx); err != nil {
		logger.Error("cycle_failed", slog.String("err", err.Error()))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
