// Package content picks one fresh image post per cycle from a set of
// equally weighted pools, never repeating a post within a calendar day.
package content

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/media"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/metrics"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

// ListingLimit is how many posts are requested from each pool.
const ListingLimit = 100

// Pool is one source of candidate posts.
type Pool interface {
	Name() string
	Hot(ctx context.Context, limit int) ([]Item, error)
}

// ShownSet records the identifiers already delivered on a given day.
// Snapshot rolls the set over when day is newer than the stored one. Add
// reports false when id was already present.
type ShownSet interface {
	Snapshot(ctx context.Context, day string) (map[string]struct{}, error)
	Add(ctx context.Context, day, id string) (bool, error)
}

// Downloader fetches raw media bytes.
type Downloader interface {
	FetchBytes(ctx context.Context, rawURL string, headers map[string]string) ([]byte, bool)
}

// TranscodeFunc turns raw bytes into an uploadable payload.
type TranscodeFunc func(ctx context.Context, raw []byte) (media.Payload, bool)

// Selection is the chosen post with its rendered media.
type Selection struct {
	Candidate
	Pool    string
	Payload media.Payload
}

// Selector runs the pool → rank → sample → transcode → mark pipeline.
type Selector struct {
	pools     []Pool
	shown     ShownSet
	download  Downloader
	transcode TranscodeFunc

	userAgent string
	tz        *time.Location
	now       func() time.Time
	intn      func(n int) int
}

// Option customizes a Selector.
type Option func(*Selector)

// WithClock overrides the time source used for the day key.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand overrides the random index source used for shuffling and sampling.
func WithRand(intn func(n int) int) Option {
	return func(s *Selector) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// WithUserAgent sets the User-Agent sent when downloading media.
func WithUserAgent(ua string) Option {
	return func(s *Selector) {
		s.userAgent = ua
	}
}

// WithTranscoder replaces media.Transcode.
func WithTranscoder(fn TranscodeFunc) Option {
	return func(s *Selector) {
		if fn != nil {
			s.transcode = fn
		}
	}
}

// NewSelector creates a Selector. Days are keyed in tz.
func NewSelector(pools []Pool, shown ShownSet, download Downloader, tz *time.Location, opts ...Option) *Selector {
	if tz == nil {
		tz = time.UTC
	}
	s := &Selector{
		pools:     pools,
		shown:     shown,
		download:  download,
		transcode: media.Transcode,
		tz:        tz,
		now:       time.Now,
		intn:      rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns one post not yet shown today, or false when every pool is
// exhausted or unusable. A post is marked shown only after its media has
// been transcoded successfully.
func (s *Selector) Select(ctx context.Context) (Selection, bool) {
	const op = "content/selector/Select"

	ctx, span := otel.Tracer("content").Start(ctx, "content.Select")
	defer span.End()

	logger := log.From(ctx).With(slog.String("op", op))

	day := s.now().In(s.tz).Format(time.DateOnly)
	shown, err := s.shown.Snapshot(ctx, day)
	if err != nil {
		span.RecordError(err)
		logger.Error("shown_set_unavailable", slog.String("err", err.Error()))
		metrics.Selections.WithLabelValues("store_error").Inc()
		return Selection{}, false
	}

	if len(s.pools) == 0 {
		logger.Warn("selection_no_pools")
		metrics.Selections.WithLabelValues("no_pools").Inc()
		return Selection{}, false
	}

	for _, pool := range s.shuffled() {
		if ctx.Err() != nil {
			break
		}

		sel, ok, err := s.tryPool(ctx, logger, pool, day, shown)
		if err != nil {
			span.RecordError(err)
			logger.Error("shown_set_unavailable", slog.String("err", err.Error()))
			metrics.Selections.WithLabelValues("store_error").Inc()
			return Selection{}, false
		}
		if ok {
			span.SetAttributes(
				attribute.String("content.pool", sel.Pool),
				attribute.String("content.id", sel.ID),
				attribute.Bool("content.animated", sel.Payload.Animated),
			)
			logger.Info("candidate_selected",
				slog.String("pool", sel.Pool),
				slog.String("id", sel.ID),
				slog.Int("score", sel.Score),
				slog.Bool("animated", sel.Payload.Animated),
			)
			metrics.Selections.WithLabelValues("selected").Inc()
			return sel, true
		}
	}

	logger.Info("selection_exhausted", slog.String("day", day))
	metrics.Selections.WithLabelValues("exhausted").Inc()
	return Selection{}, false
}

// tryPool samples one candidate from pool. A non-nil error means the shown
// set could not be updated.
func (s *Selector) tryPool(ctx context.Context, logger *slog.Logger, pool Pool, day string, shown map[string]struct{}) (Selection, bool, error) {
	items, err := pool.Hot(ctx, ListingLimit)
	if err != nil {
		logger.Warn("pool_unavailable", slog.String("pool", pool.Name()), slog.String("err", err.Error()))
		return Selection{}, false, nil
	}

	ranked := Rank(items, shown)
	if len(ranked) == 0 {
		logger.Debug("pool_empty", slog.String("pool", pool.Name()), slog.Int("items", len(items)))
		return Selection{}, false, nil
	}

	c := ranked[s.intn(len(ranked))]

	var headers map[string]string
	if s.userAgent != "" {
		headers = map[string]string{"User-Agent": s.userAgent}
	}
	raw, ok := s.download.FetchBytes(ctx, c.MediaURL, headers)
	if !ok {
		return Selection{}, false, nil
	}

	payload, ok := s.transcode(ctx, raw)
	if !ok {
		logger.Warn("candidate_unusable", slog.String("pool", pool.Name()), slog.String("id", c.ID))
		return Selection{}, false, nil
	}

	added, err := s.shown.Add(ctx, day, c.ID)
	if err != nil {
		return Selection{}, false, err
	}
	if !added {
		// A concurrent cycle delivered the same post first.
		logger.Info("candidate_taken", slog.String("pool", pool.Name()), slog.String("id", c.ID))
		return Selection{}, false, nil
	}

	return Selection{Candidate: c, Pool: pool.Name(), Payload: payload}, true, nil
}

func (s *Selector) shuffled() []Pool {
	out := make([]Pool, len(s.pools))
	copy(out, s.pools)
	for i := len(out) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
