package weather

import (
	"strings"
	"time"
)

// Season names the local season for a month, following the Bengal calendar
// the default landmarks come from.
func Season(month time.Month) string {
	switch month {
	case time.March, time.April, time.May:
		return "summer"
	case time.June, time.July, time.August, time.September:
		return "monsoon"
	case time.October, time.November:
		return "autumn"
	default:
		return "winter"
	}
}

// conditionTerms maps a vendor condition code to image search terms.
func conditionTerms(id int) string {
	switch {
	case id >= 200 && id < 300:
		return "thunderstorm dramatic lightning"
	case id >= 300 && id < 600:
		return "heavy rain monsoon wet streets"
	case id >= 600 && id < 700:
		return "snow"
	case id >= 700 && id < 800:
		return "foggy misty morning"
	case id == 800:
		return "clear blue sky sunny beautiful"
	case id > 800 && id <= 804:
		return "partly cloudy sky"
	default:
		return ""
	}
}

// ImageQuery builds the landscape search query for the current conditions.
// pick chooses a landmark index in [0, n).
func ImageQuery(city string, landmarks []string, c Conditions, month time.Month, pick func(n int) int) string {
	parts := []string{city}
	if len(landmarks) > 0 {
		parts = append(parts, landmarks[pick(len(landmarks))])
	}
	if terms := conditionTerms(c.ConditionID); terms != "" {
		parts = append(parts, terms)
	}
	if c.IsNight() {
		parts = append(parts, "night illuminated")
	} else {
		parts = append(parts, "daytime")
	}
	parts = append(parts, Season(month), "cityscape landscape photography horizontal")

	return strings.Join(parts, " ")
}
