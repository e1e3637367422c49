package weather_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/store"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

type fakeConditions struct {
	current     *weather.Conditions
	forecast    weather.Forecast
	hasForecast bool
	aqi         weather.AirQuality
}

func (f *fakeConditions) Current(context.Context, weather.Location) (weather.Conditions, bool) {
	if f.current == nil {
		return weather.Conditions{}, false
	}
	return *f.current, true
}

func (f *fakeConditions) Forecast(context.Context, weather.Location) (weather.Forecast, bool) {
	return f.forecast, f.hasForecast
}

func (f *fakeConditions) AirQuality(context.Context, weather.Location) (weather.AirQuality, bool) {
	return f.aqi, f.aqi != 0
}

type fakeHistory struct {
	calls atomic.Int32
	ok    bool
	delay time.Duration
}

func (f *fakeHistory) DayReading(_ context.Context, _ weather.Location, day time.Time) (weather.HistoricalReading, bool) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if !f.ok {
		return weather.HistoricalReading{}, false
	}
	temp := 26.0
	return weather.HistoricalReading{Date: day.Format(time.DateOnly), Temp: &temp}, true
}

type fakeImages struct {
	pages map[int][]string
	asked []int
}

func (f *fakeImages) Search(_ context.Context, _ string, page int) ([]string, bool) {
	f.asked = append(f.asked, page)
	urls := f.pages[page]
	return urls, len(urls) > 0
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func kolkata(t *testing.T) weather.Location {
	t.Helper()
	tz, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return weather.Location{City: "Kolkata", Country: "IN", Lat: 22.5726, Lon: 88.3639, Timezone: tz}
}

func TestHistorical_AtMostOneFetchPerDay(t *testing.T) {
	loc := kolkata(t)
	clk := &clock{now: time.Date(2026, 10, 18, 7, 0, 0, 0, loc.Timezone)}
	hist := &fakeHistory{ok: true}

	svc := weather.NewService(loc, &fakeConditions{}, hist, &fakeImages{}, store.NewMemoryHistoryCache(), weather.WithClock(clk.Now))

	for i := 0; i < 5; i++ {
		r := svc.Historical(context.Background())
		require.NotNil(t, r)
		require.Equal(t, "2025-10-18", r.Date)
		clk.Set(clk.Now().Add(2 * time.Hour))
	}
	require.Equal(t, int32(1), hist.calls.Load())

	clk.Set(time.Date(2026, 10, 19, 7, 0, 0, 0, loc.Timezone))
	r := svc.Historical(context.Background())
	require.Equal(t, "2025-10-19", r.Date)
	require.Equal(t, int32(2), hist.calls.Load())

	svc.Historical(context.Background())
	require.Equal(t, int32(2), hist.calls.Load())
}

func TestHistorical_AbsenceIsCachedForTheDay(t *testing.T) {
	loc := kolkata(t)
	clk := &clock{now: time.Date(2026, 10, 18, 7, 0, 0, 0, loc.Timezone)}
	hist := &fakeHistory{ok: false}

	svc := weather.NewService(loc, &fakeConditions{}, hist, &fakeImages{}, store.NewMemoryHistoryCache(), weather.WithClock(clk.Now))

	require.Nil(t, svc.Historical(context.Background()))
	require.Nil(t, svc.Historical(context.Background()))
	require.Equal(t, int32(1), hist.calls.Load())
}

func TestHistorical_ConcurrentCallersShareOneFetch(t *testing.T) {
	loc := kolkata(t)
	clk := &clock{now: time.Date(2026, 10, 18, 7, 0, 0, 0, loc.Timezone)}
	hist := &fakeHistory{ok: true, delay: 20 * time.Millisecond}

	svc := weather.NewService(loc, &fakeConditions{}, hist, &fakeImages{}, store.NewMemoryHistoryCache(), weather.WithClock(clk.Now))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Historical(context.Background())
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), hist.calls.Load())
}

func TestHistorical_UsesLocalDateNotUTC(t *testing.T) {
	loc := kolkata(t)
	// 20:00 UTC on the 17th is already 01:30 on the 18th in Kolkata.
	clk := &clock{now: time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)}
	hist := &fakeHistory{ok: true}

	svc := weather.NewService(loc, &fakeConditions{}, hist, &fakeImages{}, store.NewMemoryHistoryCache(), weather.WithClock(clk.Now))
	r := svc.Historical(context.Background())

	require.Equal(t, "2025-10-18", r.Date)
}

func TestDailyRangeFor_FiltersToLocalToday(t *testing.T) {
	loc := kolkata(t)
	tz := loc.Timezone
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, tz)

	f := weather.Forecast{
		{At: time.Date(2026, 10, 18, 11, 30, 0, 0, tz), Temp: 29.4},
		{At: time.Date(2026, 10, 18, 14, 30, 0, 0, tz), Temp: 32.6},
		{At: time.Date(2026, 10, 18, 23, 30, 0, 0, tz), Temp: 25.5},
		{At: time.Date(2026, 10, 19, 2, 30, 0, 0, tz), Temp: 21.0},
	}

	r, ok := weather.DailyRangeFor(f, now, loc)
	require.True(t, ok)
	require.Equal(t, weather.DailyRange{Min: 26, Max: 33}, r)

	_, ok = weather.DailyRangeFor(f[3:], now, loc)
	require.False(t, ok)
}

func TestAirQuality_NA(t *testing.T) {
	svc := weather.NewService(kolkata(t), &fakeConditions{}, &fakeHistory{}, &fakeImages{}, store.NewMemoryHistoryCache())
	require.Equal(t, "N/A", svc.AirQuality(context.Background()))

	svc = weather.NewService(kolkata(t), &fakeConditions{aqi: 1}, &fakeHistory{}, &fakeImages{}, store.NewMemoryHistoryCache())
	require.Equal(t, "Good 🟢", svc.AirQuality(context.Background()))
}

func TestIllustration_FallbackChain(t *testing.T) {
	first := func(int) int { return 0 }
	cond := weather.Conditions{ConditionID: 800, Icon: "01d"}

	// Random page is page 1 here (intn returns 0), so it is asked twice.
	imgs := &fakeImages{pages: map[int][]string{}}
	svc := weather.NewService(kolkata(t), &fakeConditions{}, &fakeHistory{}, imgs, store.NewMemoryHistoryCache(),
		weather.WithRand(first), weather.WithFallbackImage("https://fallback/img.jpg"))

	require.Equal(t, "https://fallback/img.jpg", svc.Illustration(context.Background(), cond))
	require.Equal(t, []int{1, 1}, imgs.asked)

	imgs = &fakeImages{pages: map[int][]string{1: {"https://img/one.jpg"}}}
	svc = weather.NewService(kolkata(t), &fakeConditions{}, &fakeHistory{}, imgs, store.NewMemoryHistoryCache(),
		weather.WithRand(func(n int) int { return n - 1 }))

	// Random page 10 is empty, page 1 answers.
	require.Equal(t, "https://img/one.jpg", svc.Illustration(context.Background(), cond))
	require.Equal(t, []int{10, 1}, imgs.asked)
}

func TestGather_PartialData(t *testing.T) {
	loc := kolkata(t)
	cur := weather.Conditions{Temp: 28, ConditionID: 500, Icon: "10n"}
	imgs := &fakeImages{pages: map[int][]string{1: {"https://img/rain.jpg"}}}

	svc := weather.NewService(loc, &fakeConditions{current: &cur}, &fakeHistory{ok: false}, imgs, store.NewMemoryHistoryCache(),
		weather.WithRand(func(int) int { return 0 }))

	report := svc.Gather(context.Background())
	require.NotNil(t, report.Current)
	require.Nil(t, report.Historical)
	require.Nil(t, report.Range)
	require.Equal(t, "N/A", report.AirQuality)
	require.Equal(t, "https://img/rain.jpg", report.ImageURL)

	svc = weather.NewService(loc, &fakeConditions{}, &fakeHistory{ok: false}, imgs, store.NewMemoryHistoryCache())
	report = svc.Gather(context.Background())
	require.Nil(t, report.Current)
	require.Empty(t, report.ImageURL)
}

func TestImageQuery(t *testing.T) {
	q := weather.ImageQuery("Kolkata", []string{"Howrah Bridge Kolkata", "Kolkata skyline"},
		weather.Conditions{ConditionID: 211, Icon: "11n"}, time.July, func(int) int { return 1 })

	require.Equal(t, "Kolkata Kolkata skyline thunderstorm dramatic lightning night illuminated monsoon cityscape landscape photography horizontal", q)
}
