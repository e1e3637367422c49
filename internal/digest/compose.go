// Package digest turns aggregated weather data into a presentation-ready
// record. Everything here is pure; callers supply the clock and randomness.
package digest

import (
	"fmt"
	"time"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

// Footer credits the upstream sources.
const Footer = "OpenWeather • Visual Crossing • Reddit"

const thumbnailURL = "https://openweathermap.org/img/wn/%s@4x.png"

// Palette is the temperature band that drives the accent color.
type Palette string

const (
	Cool Palette = "cool"
	Warm Palette = "warm"
	Hot  Palette = "hot"
)

// Color returns the RGB accent of the palette.
func (p Palette) Color() int {
	switch p {
	case Cool:
		return 0x3498DB
	case Warm:
		return 0xF39C12
	default:
		return 0xE74C3C
	}
}

// PaletteFor bands a rounded temperature: below 20 cool, below 30 warm,
// otherwise hot.
func PaletteFor(temp int) Palette {
	switch {
	case temp < 20:
		return Cool
	case temp < 30:
		return Warm
	default:
		return Hot
	}
}

// Trend compares today with the same date last year.
type Trend string

const (
	Warmer Trend = "warmer"
	Cooler Trend = "cooler"
	Same   Trend = "same"
)

func (t Trend) label() string {
	switch t {
	case Warmer:
		return "warmer 📈"
	case Cooler:
		return "cooler 📉"
	default:
		return "same"
	}
}

// YearOverYear is today's temperature against last year's reading.
type YearOverYear struct {
	LastYear int   `json:"lastYear"`
	Diff     int   `json:"diff"`
	Trend    Trend `json:"trend"`
}

// Field is one labelled value of the record.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Record is the composed digest. When Error is set only Title, Description
// and Color are meaningful.
type Record struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color"`
	Error       bool   `json:"error,omitempty"`

	Palette      Palette       `json:"palette,omitempty"`
	Night        bool          `json:"night"`
	Temp         int           `json:"temp"`
	FeelsLike    int           `json:"feelsLike"`
	Low          int           `json:"low"`
	High         int           `json:"high"`
	Humidity     int           `json:"humidity"`
	Wind         string        `json:"wind,omitempty"`
	Visibility   string        `json:"visibility,omitempty"`
	AirQuality   string        `json:"airQuality,omitempty"`
	Sunrise      string        `json:"sunrise,omitempty"`
	Sunset       string        `json:"sunset,omitempty"`
	YearOverYear *YearOverYear `json:"yearOverYear,omitempty"`

	Fields       []Field   `json:"fields,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Footer       string    `json:"footer,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Input is everything Compose needs.
type Input struct {
	City     string
	Timezone *time.Location
	Report   weather.Report
	Now      time.Time
}

// Compose builds the digest record. Missing current conditions produce the
// error-state record; every other missing source degrades one field.
func Compose(in Input) Record {
	tz := in.Timezone
	if tz == nil {
		tz = time.UTC
	}

	cur := in.Report.Current
	if cur == nil {
		return Record{
			Title:       "Weather in " + in.City,
			Description: "Unable to fetch data.",
			Color:       Hot.Color(),
			Error:       true,
			Timestamp:   in.Now.UTC(),
		}
	}

	temp := roundInt(cur.Temp)
	palette := PaletteFor(temp)

	low, high := roundInt(cur.TempMin), roundInt(cur.TempMax)
	if r := in.Report.Range; r != nil {
		low, high = r.Min, r.Max
	}

	airQuality := in.Report.AirQuality
	if airQuality == "" {
		airQuality = "N/A"
	}

	rec := Record{
		Title:        fmt.Sprintf("%s Weather in %s • %s", Emoji(cur.Group), in.City, Capitalize(cur.Description)),
		Color:        palette.Color(),
		Palette:      palette,
		Night:        cur.IsNight(),
		Temp:         temp,
		FeelsLike:    roundInt(cur.FeelsLike),
		Low:          low,
		High:         high,
		Humidity:     cur.Humidity,
		Wind:         fmt.Sprintf("%.1f km/h %s", round1(cur.WindSpeedMS*3.6), Compass(cur.WindDeg)),
		Visibility:   fmt.Sprintf("%.1f km", round1(cur.VisibilityM/1000)),
		AirQuality:   airQuality,
		Sunrise:      clock(cur.Sunrise, tz),
		Sunset:       clock(cur.Sunset, tz),
		YearOverYear: compare(temp, in.Report.Historical),
		ImageURL:     in.Report.ImageURL,
		Footer:       Footer,
		Timestamp:    in.Now.UTC(),
	}
	if cur.Icon != "" {
		rec.ThumbnailURL = fmt.Sprintf(thumbnailURL, cur.Icon)
	}
	rec.Fields = fields(rec)

	return rec
}

// compare falls back to today's temperature when last year's reading has no
// temperature, which yields a "same" trend.
func compare(temp int, past *weather.HistoricalReading) *YearOverYear {
	if past == nil {
		return nil
	}

	last := temp
	if past.Temp != nil {
		last = roundInt(*past.Temp)
	}

	diff := temp - last
	trend := Same
	switch {
	case diff > 0:
		trend = Warmer
	case diff < 0:
		trend = Cooler
	}
	return &YearOverYear{LastYear: last, Diff: diff, Trend: trend}
}

func clock(t time.Time, tz *time.Location) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(tz).Format("03:04 PM")
}

func fields(r Record) []Field {
	out := []Field{
		{Name: "🌡️ Temperature", Value: fmt.Sprintf("%d°C", r.Temp), Inline: true},
		{Name: "😌 Feels Like", Value: fmt.Sprintf("%d°C", r.FeelsLike), Inline: true},
		{Name: "📉 Low / High", Value: fmt.Sprintf("%d°C / %d°C", r.Low, r.High), Inline: true},
		{Name: "💧 Humidity", Value: fmt.Sprintf("%d%%", r.Humidity), Inline: true},
		{Name: "🌬️ Wind", Value: r.Wind, Inline: true},
		{Name: "👀 Visibility", Value: r.Visibility, Inline: true},
		{Name: "🌫️ Air Quality", Value: r.AirQuality, Inline: true},
		{Name: "🌅 Sunrise / Sunset", Value: r.Sunrise + " / " + r.Sunset},
	}

	if y := r.YearOverYear; y != nil {
		diff := y.Diff
		if diff < 0 {
			diff = -diff
		}
		out = append(out, Field{
			Name:  "📅 Vs Last Year",
			Value: fmt.Sprintf("%d°C (%d°C %s)", y.LastYear, diff, y.Trend.label()),
		})
	}

	return out
}
