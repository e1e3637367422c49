package weather

import (
	"strings"
	"time"
)

// Location is the fixed place the briefing reports on.
type Location struct {
	City     string         `json:"city"`
	Country  string         `json:"country"`
	Lat      float64        `json:"lat"`
	Lon      float64        `json:"lon"`
	Timezone *time.Location `json:"-"`
}

// DayKey returns the calendar date of t in the location's timezone.
func (l Location) DayKey(t time.Time) string {
	return t.In(l.tz()).Format(time.DateOnly)
}

func (l Location) tz() *time.Location {
	if l.Timezone == nil {
		return time.UTC
	}
	return l.Timezone
}

// Conditions is the current-conditions snapshot of one upstream response.
type Conditions struct {
	ObservedAt  time.Time `json:"observedAt"`
	Temp        float64   `json:"temp"`
	FeelsLike   float64   `json:"feelsLike"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Humidity    int       `json:"humidity"`
	WindSpeedMS float64   `json:"windSpeedMs"`
	WindDeg     float64   `json:"windDeg"`
	VisibilityM float64   `json:"visibilityM"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`

	// ConditionID is the vendor weather-condition code (2xx thunderstorm ... 80x clouds).
	ConditionID int    `json:"conditionId"`
	Group       string `json:"group"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// IsNight follows the vendor icon convention: "01n" is night, "01d" is day.
func (c Conditions) IsNight() bool {
	return strings.HasSuffix(c.Icon, "n")
}

// ForecastEntry is one point of the short-range forecast time series.
type ForecastEntry struct {
	At   time.Time `json:"at"`
	Temp float64   `json:"temp"`
}

// Forecast is ordered by At ascending.
type Forecast []ForecastEntry

// DailyRange is today's rounded temperature extremes.
type DailyRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// AirQuality is the 1 (good) to 5 (very poor) air quality index.
type AirQuality int

// Label renders the index for display.
func (a AirQuality) Label() string {
	switch a {
	case 1:
		return "Good 🟢"
	case 2:
		return "Fair 🟡"
	case 3:
		return "Moderate 🟠"
	case 4:
		return "Poor 🔴"
	case 5:
		return "Very Poor ⚫"
	default:
		return "Unknown"
	}
}

// HistoricalReading is the daily summary for a past date.
type HistoricalReading struct {
	Date       string   `json:"date"`
	Temp       *float64 `json:"temp,omitempty"`
	Conditions string   `json:"conditions,omitempty"`
}

// Report bundles everything one cycle gathered. Nil fields are upstreams
// that were unavailable.
type Report struct {
	Current    *Conditions        `json:"current,omitempty"`
	Historical *HistoricalReading `json:"historical,omitempty"`
	Range      *DailyRange        `json:"range,omitempty"`
	AirQuality string             `json:"airQuality"`
	ImageURL   string             `json:"imageUrl"`
}
