package weather

import (
	"context"
	"time"
)

// ConditionsProvider abstracts the current/forecast/air-quality vendor.
// A false second return value means the upstream is unavailable.
type ConditionsProvider interface {
	Current(ctx context.Context, loc Location) (Conditions, bool)
	Forecast(ctx context.Context, loc Location) (Forecast, bool)
	AirQuality(ctx context.Context, loc Location) (AirQuality, bool)
}

// HistoryProvider returns the daily summary for a past calendar date.
type HistoryProvider interface {
	DayReading(ctx context.Context, loc Location, day time.Time) (HistoricalReading, bool)
}

// ImageSearcher returns candidate landscape image URLs for a query.
type ImageSearcher interface {
	Search(ctx context.Context, query string, page int) ([]string, bool)
}

// HistoryCache is the single-slot, date-keyed memo for historical readings.
// A cached nil reading records that today's fetch already came back empty.
type HistoryCache interface {
	Get(day string) (reading *HistoricalReading, hit bool)
	Put(day string, reading *HistoricalReading)
}
