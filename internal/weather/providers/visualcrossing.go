package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/fetch"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

// VisualCrossingProvider implements weather.HistoryProvider using the
// Visual Crossing timeline API.
type VisualCrossingProvider struct {
	apiKey  string
	baseURL string
	gw      *fetch.Gateway
}

func NewVisualCrossingProvider(gw *fetch.Gateway, apiKey string, opts ...Option) *VisualCrossingProvider {
	o := buildOptions("https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline", opts)
	return &VisualCrossingProvider{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		gw:      gw,
	}
}

type vcTimeline struct {
	Days []struct {
		Datetime   string   `json:"datetime"`
		Temp       *float64 `json:"temp"`
		Conditions string   `json:"conditions"`
	} `json:"days"`
}

// DayReading fetches the daily summary for day (a calendar date in the
// location's timezone).
func (p *VisualCrossingProvider) DayReading(ctx context.Context, loc weather.Location, day time.Time) (weather.HistoricalReading, bool) {
	date := day.Format(time.DateOnly)
	place := url.PathEscape(fmt.Sprintf("%s,%s", coord(loc.Lat), coord(loc.Lon)))

	values := url.Values{}
	values.Set("unitGroup", "metric")
	values.Set("key", p.apiKey)
	values.Set("contentType", "json")
	values.Set("include", "days")

	u := fmt.Sprintf("%s/%s/%s/%s?%s", p.baseURL, place, date, date, values.Encode())

	payload, ok := fetch.GetJSON[vcTimeline](ctx, p.gw, u, nil)
	if !ok || len(payload.Days) == 0 {
		return weather.HistoricalReading{}, false
	}

	d := payload.Days[0]
	if d.Datetime == "" {
		d.Datetime = date
	}
	return weather.HistoricalReading{
		Date:       d.Datetime,
		Temp:       d.Temp,
		Conditions: d.Conditions,
	}, true
}
