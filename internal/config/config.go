// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

// ErrMissingCredential is returned when a required API credential is unset.
var ErrMissingCredential = errors.New("missing required credential")

var credentialVars = []string{
	"DISCORD_BOT_TOKEN",
	"OPENWEATHER_API_KEY",
	"VISUALCROSSING_API_KEY",
	"UNSPLASH_API_KEY",
}

var validate = validator.New()

// AppConfig is the root configuration.
type AppConfig struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`

	Discord  DiscordConfig
	Keys     KeysConfig
	Reddit   RedditConfig
	Location LocationConfig
	Schedule ScheduleConfig
	Content  ContentConfig
	Fetch    FetchConfig
	HTTP     HTTPConfig
	Redis    RedisConfig
	Tracing  TracingConfig
}

// DiscordConfig holds the bot credentials and the scheduled channel.
type DiscordConfig struct {
	Token string `env:"DISCORD_BOT_TOKEN" env-required:"true"`
	// AutoChannelID receives scheduled briefings. Empty disables the schedule.
	AutoChannelID string `env:"AUTO_CHANNEL_ID" validate:"omitempty,numeric"`
}

// KeysConfig holds upstream API keys.
type KeysConfig struct {
	OpenWeather    string `env:"OPENWEATHER_API_KEY"    env-required:"true"`
	VisualCrossing string `env:"VISUALCROSSING_API_KEY" env-required:"true"`
	Unsplash       string `env:"UNSPLASH_API_KEY"       env-required:"true"`
	// Geocoder enables coordinate lookup from city and country.
	Geocoder string `env:"GEOCODER_API_KEY"`
}

// RedditConfig holds the optional app-only OAuth credentials. Missing values
// leave the briefing without posts.
type RedditConfig struct {
	ClientID     string `env:"REDDIT_CLIENT_ID"`
	ClientSecret string `env:"REDDIT_CLIENT_SECRET"`
	UserAgent    string `env:"REDDIT_USER_AGENT" env-default:"linux:nsg-weather-bot:v1.0"`
}

// LocationConfig is the place the briefing reports on.
type LocationConfig struct {
	City     string  `env:"LOCATION_CITY"     env-default:"Kolkata"       validate:"required"`
	Country  string  `env:"LOCATION_COUNTRY"  env-default:"IN"`
	Lat      float64 `env:"LOCATION_LAT"      env-default:"22.5726"       validate:"gte=-90,lte=90"`
	Lon      float64 `env:"LOCATION_LON"      env-default:"88.3639"       validate:"gte=-180,lte=180"`
	Timezone string  `env:"LOCATION_TIMEZONE" env-default:"Asia/Kolkata"  validate:"required"`
}

// ScheduleConfig controls the daily wake slots and presence refresh.
type ScheduleConfig struct {
	WakeHours        []int         `env:"WAKE_HOURS"        env-default:"7,13,18,22" env-separator:"," validate:"min=1,dive,gte=0,lte=23"`
	PresenceInterval time.Duration `env:"PRESENCE_INTERVAL" env-default:"30m"        validate:"gt=0"`
	CycleTimeout     time.Duration `env:"CYCLE_TIMEOUT"     env-default:"3m"         validate:"gt=0"`
}

// ContentConfig lists the post pools and image search settings.
type ContentConfig struct {
	Subreddits       []string `env:"SUBREDDITS"        env-default:"indiameme,IndianDankMemes,dankrishu,desimemes,indianmemer,IndiaMemes" env-separator:","`
	Landmarks        []string `env:"IMAGE_LANDMARKS"   env-default:"Howrah Bridge Kolkata,Victoria Memorial Kolkata,Ganges river Kolkata,Kolkata skyline,Prinsep Ghat Kolkata,yellow taxi Kolkata streets,Dakshineswar Temple Kolkata,Eden Gardens Kolkata" env-separator:","`
	FallbackStatuses []string `env:"FALLBACK_STATUSES" env-default:"Kolkata skies & desi vibes 🌤️😂|Craving puchka & rosogolla 🍲🍬|Lost in Kolkata traffic 🚕😂|Dreaming of Durga Puja 🛕|Adda session loading ☕|Howrah Bridge admirer 🌉|Eden Gardens cheering 🏏|Vibing with tram bells 🚋|Waiting for monsoon magic ☔|Desi meme hunter on duty 😂" env-separator:"|"`
	FallbackImage    string   `env:"FALLBACK_IMAGE_URL"`
}

// FetchConfig bounds outbound requests.
type FetchConfig struct {
	JSONTimeout     time.Duration `env:"FETCH_JSON_TIMEOUT"  env-default:"15s"      validate:"gt=0"`
	BytesTimeout    time.Duration `env:"FETCH_BYTES_TIMEOUT" env-default:"60s"      validate:"gt=0"`
	MaxBytes        int64         `env:"FETCH_MAX_BYTES"     env-default:"33554432" validate:"gt=0"`
	MaxRetries      int           `env:"FETCH_MAX_RETRIES"   env-default:"1"        validate:"gte=0,lte=5"`
	MediaUserAgent  string        `env:"MEDIA_USER_AGENT"    env-default:"DailyBriefingBot/1.0"`
	IdleConnTimeout time.Duration `env:"FETCH_IDLE_TIMEOUT"  env-default:"90s"`
}

// HTTPConfig is the API listener.
type HTTPConfig struct {
	Port string `env:"PORT" env-default:"8080" validate:"numeric"`
}

// RedisConfig enables the persistent shown set when URL is set.
type RedisConfig struct {
	URL    string `env:"REDIS_URL"`
	Prefix string `env:"REDIS_PREFIX" env-default:"briefing:shown:"`
}

// TracingConfig controls OTLP export.
type TracingConfig struct {
	Enabled     bool   `env:"TRACING_ENABLED"      env-default:"false"`
	Endpoint    string `env:"TRACING_ENDPOINT"     env-default:"localhost:4317"`
	ServiceName string `env:"TRACING_SERVICE_NAME" env-default:"daily-briefing"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv_not_loaded", slog.String("err", err.Error()))
	}

	// Set-but-empty variables pass env-required, so credentials are checked
	// by value as well.
	if missing := missingCredentials(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}

	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sort.Ints(cfg.Schedule.WakeHours)

	if _, err := time.LoadLocation(cfg.Location.Timezone); err != nil {
		return nil, fmt.Errorf("invalid LOCATION_TIMEZONE %q: %w", cfg.Location.Timezone, err)
	}

	return &cfg, nil
}

func missingCredentials() []string {
	var missing []string
	for _, k := range credentialVars {
		if strings.TrimSpace(os.Getenv(k)) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// ResolveLocation builds the weather location, loading the timezone.
func (c *AppConfig) ResolveLocation() (weather.Location, error) {
	tz, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return weather.Location{}, fmt.Errorf("load timezone: %w", err)
	}

	return weather.Location{
		City:     c.Location.City,
		Country:  c.Location.Country,
		Lat:      c.Location.Lat,
		Lon:      c.Location.Lon,
		Timezone: tz,
	}, nil
}

// RedditEnabled reports whether post pools can be configured.
func (c *AppConfig) RedditEnabled() bool {
	return c.Reddit.ClientID != "" && c.Reddit.ClientSecret != ""
}
