package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/ShrimantaGarain/NSG-Weather-Bot/internal/api/http"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/briefing"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/config"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/content"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/discord"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/fetch"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/observability"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/scheduler"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/store"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := log.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Into(ctx, logger)

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing.Enabled, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		fatal(logger, "tracer_init_failed", err)
	}

	loc, err := cfg.ResolveLocation()
	if err != nil {
		fatal(logger, "location_invalid", err)
	}
	if cfg.Keys.Geocoder != "" {
		lat, lon, err := providers.Geocode(cfg.Keys.Geocoder, loc.City, loc.Country)
		if err != nil {
			logger.Warn("geocode_failed", slog.String("city", loc.City), slog.String("err", err.Error()))
		} else {
			loc.Lat, loc.Lon = lat, lon
		}
	}

	// One pooled client for every upstream; its idle connections are closed
	// once, after the loops, commands and HTTP-triggered cycles have stopped.
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     cfg.Fetch.IdleConnTimeout,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	fetchCfg := fetch.Config{
		JSONTimeout:  cfg.Fetch.JSONTimeout,
		BytesTimeout: cfg.Fetch.BytesTimeout,
		MaxBytes:     cfg.Fetch.MaxBytes,
		Backoff: fetch.BackoffConfig{
			MaxRetries:      cfg.Fetch.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
	gw := fetch.New(httpClient, fetchCfg)

	weatherSvc := weather.NewService(loc,
		providers.NewOpenWeatherProvider(gw, cfg.Keys.OpenWeather),
		providers.NewVisualCrossingProvider(gw, cfg.Keys.VisualCrossing),
		providers.NewUnsplashProvider(gw, cfg.Keys.Unsplash),
		store.NewMemoryHistoryCache(),
		weather.WithLandmarks(cfg.Content.Landmarks),
		weather.WithFallbackImage(cfg.Content.FallbackImage),
	)

	var shown content.ShownSet = store.NewMemoryShownSet()
	if cfg.Redis.URL != "" {
		rs, err := store.NewRedisShownSet(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			fatal(logger, "redis_connect_failed", err)
		}
		defer rs.Close()
		shown = rs
		logger.Info("shown_set_redis", slog.String("prefix", cfg.Redis.Prefix))
	}

	var pools []content.Pool
	if cfg.RedditEnabled() {
		redditClient := content.NewRedditClient(context.Background(), httpClient, content.RedditCredentials{
			ClientID:     cfg.Reddit.ClientID,
			ClientSecret: cfg.Reddit.ClientSecret,
			UserAgent:    cfg.Reddit.UserAgent,
		})
		pools = content.NewRedditSource(fetch.New(redditClient, fetchCfg)).Pools(cfg.Content.Subreddits)
	} else {
		logger.Warn("reddit_disabled", slog.String("reason", "missing REDDIT_CLIENT_ID or REDDIT_CLIENT_SECRET"))
	}
	selector := content.NewSelector(pools, shown, gw, loc.Timezone,
		content.WithUserAgent(cfg.Fetch.MediaUserAgent),
	)

	bot, err := discord.New(cfg.Discord.Token)
	if err != nil {
		fatal(logger, "discord_init_failed", err)
	}

	svc := briefing.NewService(weatherSvc, selector, bot,
		briefing.WithFallbackStatuses(cfg.Content.FallbackStatuses),
	)

	commands := discord.NewCommands(ctx, bot, svc.Deliver, cfg.Schedule.CycleTimeout)
	bot.Session().AddHandler(commands.Handle)
	if err := bot.Open(); err != nil {
		fatal(logger, "discord_open_failed", err)
	}
	logger.Info("discord_connected")

	var wg sync.WaitGroup

	if channel := cfg.Discord.AutoChannelID; channel != "" {
		daily, err := scheduler.NewDaily(cfg.Schedule.WakeHours, loc.Timezone, func(ctx context.Context) error {
			cycleCtx, cancel := context.WithTimeout(ctx, cfg.Schedule.CycleTimeout)
			defer cancel()
			return svc.Deliver(cycleCtx, channel, briefing.TriggerScheduled)
		})
		if err != nil {
			fatal(logger, "scheduler_init_failed", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = daily.Run(ctx)
		}()
	} else {
		logger.Warn("scheduler_disabled", slog.String("reason", "AUTO_CHANNEL_ID not set"))
	}

	presence := scheduler.NewPresence(loc.Timezone, cfg.Schedule.PresenceInterval, func(ctx context.Context) {
		text := svc.PresenceText(ctx)
		if err := bot.SetPresence(ctx, text); err != nil {
			log.From(ctx).Warn("presence_update_failed", slog.String("err", err.Error()))
		}
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := presence.Run(ctx); err != nil {
			logger.Error("presence_failed", slog.String("err", err.Error()))
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:               "daily-briefing",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.Schedule.CycleTimeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(httpapi.WithLogger(logger))

	httpapi.RegisterRoutes(app, svc, httpapi.Options{
		ChannelID:    cfg.Discord.AutoChannelID,
		CycleTimeout: cfg.Schedule.CycleTimeout,
	})

	go func() {
		if err := app.Listen(":" + cfg.HTTP.Port); err != nil {
			logger.Error("http_server_stopped", slog.String("err", err.Error()))
		}
	}()
	logger.Info("service_started",
		slog.String("city", loc.City),
		slog.String("port", cfg.HTTP.Port),
		slog.Int("pools", len(pools)),
	)

	<-ctx.Done()
	logger.Info("shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", slog.String("err", err.Error()))
	}

	commands.Close()
	wg.Wait()
	httpClient.CloseIdleConnections()

	if err := bot.Close(); err != nil {
		logger.Error("discord_close_failed", slog.String("err", err.Error()))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer_shutdown_failed", slog.String("err", err.Error()))
	}

	logger.Info("shutdown_complete")
}

func fatal(logger *slog.Logger, event string, err error) {
	logger.Error(event, slog.String("err", err.Error()))
	os.Exit(1)
}
