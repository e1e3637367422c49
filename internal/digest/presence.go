package digest

import (
	"fmt"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

// PresenceText is the one-line status shown next to the bot's name. Without
// current conditions a random fallback is used; pick returns an index in [0, n).
func PresenceText(city string, cur *weather.Conditions, fallbacks []string, pick func(n int) int) string {
	if cur == nil {
		if len(fallbacks) == 0 {
			return "the sky over " + city
		}
		return fallbacks[pick(len(fallbacks))]
	}

	return fmt.Sprintf("%s: %d°C (feels %d°C) %s %s",
		city, roundInt(cur.Temp), roundInt(cur.FeelsLike), Emoji(cur.Group), Capitalize(cur.Description))
}
