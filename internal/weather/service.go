package weather

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

// DefaultFallbackImage is used when the image search yields nothing.
const DefaultFallbackImage = "https://upload.wikimedia.org/wikipedia/commons/thumb/5/59/Kolkata_skyline_from_Hooghly_bridge.jpg/1280px-Kolkata_skyline_from_Hooghly_bridge.jpg"

const imageSearchPages = 10

// Service aggregates the independent upstream sources for one location.
// Every source is optional; the service never fails as a whole.
type Service struct {
	loc        Location
	conditions ConditionsProvider
	history    HistoryProvider
	images     ImageSearcher
	cache      HistoryCache

	landmarks   []string
	fallbackURL string
	now         func() time.Time
	intn        func(n int) int

	flight singleflight.Group
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

// WithRand overrides the random index source used for image choices.
func WithRand(intn func(n int) int) Option {
	return func(s *Service) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// WithLandmarks sets the landmark terms mixed into image queries.
func WithLandmarks(landmarks []string) Option {
	return func(s *Service) {
		s.landmarks = landmarks
	}
}

// WithFallbackImage sets the image used when search fails.
func WithFallbackImage(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.fallbackURL = url
		}
	}
}

// NewService creates a new Service.
func NewService(loc Location, conditions ConditionsProvider, history HistoryProvider, images ImageSearcher, cache HistoryCache, opts ...Option) *Service {
	s := &Service{
		loc:         loc,
		conditions:  conditions,
		history:     history,
		images:      images,
		cache:       cache,
		fallbackURL: DefaultFallbackImage,
		now:         time.Now,
		intn:        rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the configured location.
func (s *Service) Location() Location {
	return s.loc
}

// Current returns the current conditions.
func (s *Service) Current(ctx context.Context) (Conditions, bool) {
	return s.conditions.Current(ctx, s.loc)
}

// DailyRange derives today's min/max from the forecast.
func (s *Service) DailyRange(ctx context.Context) (DailyRange, bool) {
	f, ok := s.conditions.Forecast(ctx, s.loc)
	if !ok {
		return DailyRange{}, false
	}
	return DailyRangeFor(f, s.now(), s.loc)
}

// AirQuality returns the display label, or "N/A" when unavailable.
func (s *Service) AirQuality(ctx context.Context) string {
	aqi, ok := s.conditions.AirQuality(ctx, s.loc)
	if !ok {
		return "N/A"
	}
	return aqi.Label()
}

// Historical returns the reading for the same calendar date one year ago,
// or nil. At most one upstream call is made per local calendar day; concurrent
// callers on a cold day share the in-flight call.
func (s *Service) Historical(ctx context.Context) *HistoricalReading {
	const op = "weather/service/Historical"

	now := s.now()
	day := s.loc.DayKey(now)

	if r, hit := s.cache.Get(day); hit {
		return r
	}

	v, _, _ := s.flight.Do(day, func() (interface{}, error) {
		if r, hit := s.cache.Get(day); hit {
			return r, nil
		}

		lastYear := now.In(s.loc.tz()).AddDate(-1, 0, 0)
		reading, ok := s.history.DayReading(ctx, s.loc, lastYear)
		if !ok && ctx.Err() != nil {
			// Cancelled mid-call; leave the slot cold for the next caller.
			return (*HistoricalReading)(nil), nil
		}

		var r *HistoricalReading
		if ok {
			r = &reading
		}
		s.cache.Put(day, r)

		log.From(ctx).Debug("historical_cached",
			slog.String("op", op),
			slog.String("day", day),
			slog.Bool("present", ok),
		)
		return r, nil
	})

	r, _ := v.(*HistoricalReading)
	return r
}

// Illustration picks a landscape image URL for the conditions: a random
// result page first, then page 1, then the fixed fallback image.
func (s *Service) Illustration(ctx context.Context, c Conditions) string {
	const op = "weather/service/Illustration"

	now := s.now().In(s.loc.tz())
	query := ImageQuery(s.loc.City, s.landmarks, c, now.Month(), s.intn)

	urls, ok := s.images.Search(ctx, query, s.intn(imageSearchPages)+1)
	if !ok || len(urls) == 0 {
		urls, ok = s.images.Search(ctx, query, 1)
	}
	if ok && len(urls) > 0 {
		return urls[s.intn(len(urls))]
	}

	log.From(ctx).Warn("image_search_fallback",
		slog.String("op", op),
		slog.String("query", query),
	)
	return s.fallbackURL
}

// Gather queries all sources concurrently and bundles what succeeded.
func (s *Service) Gather(ctx context.Context) Report {
	var (
		g      errgroup.Group
		report Report
		cur    Conditions
		hasCur bool
	)

	g.Go(func() error {
		cur, hasCur = s.Current(ctx)
		return nil
	})
	g.Go(func() error {
		report.Historical = s.Historical(ctx)
		return nil
	})
	g.Go(func() error {
		if r, ok := s.DailyRange(ctx); ok {
			report.Range = &r
		}
		return nil
	})
	g.Go(func() error {
		report.AirQuality = s.AirQuality(ctx)
		return nil
	})
	_ = g.Wait()

	if hasCur {
		report.Current = &cur
		report.ImageURL = s.Illustration(ctx, cur)
	}

	return report
}
