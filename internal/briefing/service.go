// Package briefing runs one delivery cycle: gather weather, pick a post,
// compose the digest and post both to a channel.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/content"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/digest"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/media"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/metrics"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

// Cycle triggers. The chat commands use "command" and "test".
const (
	TriggerScheduled = "scheduled"
	TriggerAPI       = "api"
)

// Placeholders sent when no post could be selected.
const (
	ScheduledPlaceholder = "No fresh desi meme today 😢"
	OnDemandPlaceholder  = "No fresh meme right now 😢"
)

// ScheduledReactions are added to the post of a scheduled cycle.
var ScheduledReactions = []string{"👍", "👎", "😂"}

// Messenger posts to a chat channel. Send methods return the message id.
type Messenger interface {
	SendText(ctx context.Context, channelID, text string) (string, error)
	SendFile(ctx context.Context, channelID, text string, p media.Payload) (string, error)
	SendDigest(ctx context.Context, channelID string, rec digest.Record) (string, error)
	React(ctx context.Context, channelID, messageID, emoji string) error
	Typing(ctx context.Context, channelID string) error
}

// Weather is the aggregation side of a cycle.
type Weather interface {
	Location() weather.Location
	Current(ctx context.Context) (weather.Conditions, bool)
	Gather(ctx context.Context) weather.Report
}

// Picker selects the post of a cycle.
type Picker interface {
	Select(ctx context.Context) (content.Selection, bool)
}

// Service runs briefing cycles.
type Service struct {
	weather   Weather
	picker    Picker
	messenger Messenger

	fallbackStatuses []string
	now              func() time.Time
	intn             func(n int) int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand overrides the random index source for fallback statuses.
func WithRand(intn func(n int) int) Option {
	return func(s *Service) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// WithFallbackStatuses sets the presence texts used without weather data.
func WithFallbackStatuses(statuses []string) Option {
	return func(s *Service) {
		s.fallbackStatuses = statuses
	}
}

// NewService creates a Service.
func NewService(w Weather, p Picker, m Messenger, opts ...Option) *Service {
	s := &Service{
		weather:   w,
		picker:    p,
		messenger: m,
		now:       time.Now,
		intn:      rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview composes the digest without selecting a post or delivering.
func (s *Service) Preview(ctx context.Context) digest.Record {
	return s.compose(s.weather.Gather(ctx))
}

// PresenceText builds the current status line.
func (s *Service) PresenceText(ctx context.Context) string {
	loc := s.weather.Location()
	if c, ok := s.weather.Current(ctx); ok {
		return digest.PresenceText(loc.City, &c, s.fallbackStatuses, s.intn)
	}
	return digest.PresenceText(loc.City, nil, s.fallbackStatuses, s.intn)
}

func (s *Service) compose(report weather.Report) digest.Record {
	loc := s.weather.Location()
	return digest.Compose(digest.Input{
		City:     loc.City,
		Timezone: loc.Timezone,
		Report:   report,
		Now:      s.now(),
	})
}

// Deliver runs one full cycle to channelID. Weather and post selection run
// concurrently; a missing post is replaced by a placeholder text. The
// returned error joins every failed send.
func (s *Service) Deliver(ctx context.Context, channelID, trigger string) error {
	const op = "briefing/service/Deliver"

	cycleID := uuid.NewString()
	start := time.Now()

	ctx, span := otel.Tracer("briefing").Start(ctx, "briefing.Cycle", trace.WithAttributes(
		attribute.String("briefing.cycle_id", cycleID),
		attribute.String("briefing.trigger", trigger),
		attribute.String("briefing.channel", channelID),
	))
	defer span.End()

	logger := log.From(ctx).With(
		slog.String("op", op),
		slog.String("cycle_id", cycleID),
		slog.String("trigger", trigger),
		slog.String("channel", channelID),
	)
	ctx = log.Into(ctx, logger)
	logger.Info("cycle_started")

	if err := s.messenger.Typing(ctx, channelID); err != nil {
		logger.Debug("typing_failed", slog.String("err", err.Error()))
	}

	var (
		g      errgroup.Group
		report weather.Report
		sel    content.Selection
		picked bool
	)
	g.Go(func() error {
		defer absorb(logger, "gather")
		report = s.weather.Gather(ctx)
		return nil
	})
	g.Go(func() error {
		defer absorb(logger, "select")
		sel, picked = s.picker.Select(ctx)
		return nil
	})
	_ = g.Wait()

	rec := s.compose(report)

	var errs []error
	if picked {
		msgID, err := s.messenger.SendFile(ctx, channelID, fmt.Sprintf("**%s**", sel.Title), sel.Payload)
		switch {
		case err != nil:
			errs = append(errs, err)
		case trigger == TriggerScheduled:
			for _, emoji := range ScheduledReactions {
				if err := s.messenger.React(ctx, channelID, msgID, emoji); err != nil {
					logger.Warn("react_failed", slog.String("emoji", emoji), slog.String("err", err.Error()))
				}
			}
		}
	} else {
		placeholder := OnDemandPlaceholder
		if trigger == TriggerScheduled {
			placeholder = ScheduledPlaceholder
		}
		if _, err := s.messenger.SendText(ctx, channelID, placeholder); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := s.messenger.SendDigest(ctx, channelID, rec); err != nil {
		errs = append(errs, err)
	}

	elapsed := time.Since(start)
	metrics.CycleDuration.Observe(elapsed.Seconds())

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		metrics.Cycles.WithLabelValues(trigger, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	span.SetStatus(codes.Ok, "delivered")
	metrics.Cycles.WithLabelValues(trigger, "ok").Inc()
	logger.Info("cycle_completed",
		slog.Bool("post", picked),
		slog.Bool("weather", !rec.Error),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// absorb logs a panic in a concurrent cycle step. The step's result is left
// at its zero value, which reads as absent.
func absorb(logger *slog.Logger, step string) {
	if r := recover(); r != nil {
		logger.Error("cycle_step_panic",
			slog.String("step", step),
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		)
	}
}
