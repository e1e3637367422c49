package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/fetch"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

// OpenWeatherProvider implements weather.ConditionsProvider for OpenWeatherMap.
type OpenWeatherProvider struct {
	apiKey  string
	baseURL string
	gw      *fetch.Gateway
}

func NewOpenWeatherProvider(gw *fetch.Gateway, apiKey string, opts ...Option) *OpenWeatherProvider {
	o := buildOptions("https://api.openweathermap.org", opts)
	return &OpenWeatherProvider{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		gw:      gw,
	}
}

func (p *OpenWeatherProvider) endpoint(path string, loc weather.Location, metric bool) string {
	values := url.Values{}
	values.Set("lat", coord(loc.Lat))
	values.Set("lon", coord(loc.Lon))
	values.Set("appid", p.apiKey)
	if metric {
		values.Set("units", "metric")
	}
	return fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
}

type owmCurrent struct {
	Dt   int64 `json:"dt"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility float64 `json:"visibility"`
	Sys        struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// Current fetches /data/2.5/weather. A payload without "main" or "weather"
// is treated as unavailable.
func (p *OpenWeatherProvider) Current(ctx context.Context, loc weather.Location) (weather.Conditions, bool) {
	payload, ok := fetch.GetJSON[owmCurrent](ctx, p.gw, p.endpoint("/data/2.5/weather", loc, true), nil)
	if !ok || payload.Main == nil || len(payload.Weather) == 0 {
		return weather.Conditions{}, false
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}
	w := payload.Weather[0]

	return weather.Conditions{
		ObservedAt:  ts,
		Temp:        payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		TempMin:     payload.Main.TempMin,
		TempMax:     payload.Main.TempMax,
		Humidity:    payload.Main.Humidity,
		WindSpeedMS: payload.Wind.Speed,
		WindDeg:     payload.Wind.Deg,
		VisibilityM: payload.Visibility,
		Sunrise:     time.Unix(payload.Sys.Sunrise, 0).UTC(),
		Sunset:      time.Unix(payload.Sys.Sunset, 0).UTC(),
		ConditionID: w.ID,
		Group:       w.Main,
		Description: w.Description,
		Icon:        w.Icon,
	}, true
}

type owmForecast struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
}

// Forecast fetches the 5 day / 3 hour forecast. Entries without a
// temperature are skipped.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, loc weather.Location) (weather.Forecast, bool) {
	payload, ok := fetch.GetJSON[owmForecast](ctx, p.gw, p.endpoint("/data/2.5/forecast", loc, true), nil)
	if !ok || payload.List == nil {
		return nil, false
	}

	out := make(weather.Forecast, 0, len(payload.List))
	for _, item := range payload.List {
		if item.Main == nil {
			continue
		}
		out = append(out, weather.ForecastEntry{
			At:   time.Unix(item.Dt, 0).UTC(),
			Temp: item.Main.Temp,
		})
	}
	return out, true
}

type owmAirPollution struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

// AirQuality fetches the current air pollution index.
func (p *OpenWeatherProvider) AirQuality(ctx context.Context, loc weather.Location) (weather.AirQuality, bool) {
	payload, ok := fetch.GetJSON[owmAirPollution](ctx, p.gw, p.endpoint("/data/2.5/air_pollution", loc, false), nil)
	if !ok || len(payload.List) == 0 {
		return 0, false
	}
	return weather.AirQuality(payload.List[0].Main.AQI), true
}
