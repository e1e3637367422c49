package weather

import (
	"math"
	"time"
)

// DailyRangeFor reduces the forecast entries falling on today's local date to
// rounded min/max temperatures. ok is false when no entry matches.
func DailyRangeFor(f Forecast, now time.Time, loc Location) (DailyRange, bool) {
	today := loc.DayKey(now)

	var (
		found    bool
		min, max float64
	)
	for _, e := range f {
		if loc.DayKey(e.At) != today {
			continue
		}
		if !found {
			min, max = e.Temp, e.Temp
			found = true
			continue
		}
		min = math.Min(min, e.Temp)
		max = math.Max(max, e.Temp)
	}

	if !found {
		return DailyRange{}, false
	}
	return DailyRange{Min: int(math.Round(min)), Max: int(math.Round(max))}, true
}
