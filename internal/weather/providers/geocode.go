package providers

import (
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

// geocoder keeps its API key in a package variable.
var geocodeMu sync.Mutex

// Geocode resolves a city/country pair to coordinates through the Google
// Geocoding API.
func Geocode(apiKey, city, country string) (lat, lon float64, err error) {
	if apiKey == "" {
		return 0, 0, fmt.Errorf("geocoder api key is not configured")
	}

	geocodeMu.Lock()
	defer geocodeMu.Unlock()

	geocoder.ApiKey = apiKey
	location, err := geocoder.Geocoding(geocoder.Address{
		City:    city,
		Country: country,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s,%s: %w", city, country, err)
	}

	return location.Latitude, location.Longitude, nil
}
