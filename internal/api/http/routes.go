package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/briefing"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/digest"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

var validate = validator.New()

// Briefer is the briefing side the API exposes.
type Briefer interface {
	Preview(ctx context.Context) digest.Record
	Deliver(ctx context.Context, channelID, trigger string) error
}

// Options configures the routes.
type Options struct {
	// ChannelID receives briefings triggered over HTTP. Empty disables the
	// trigger endpoint.
	ChannelID string
	// CycleTimeout bounds one triggered cycle.
	CycleTimeout time.Duration
}

// WithLogger stores l in every request's user context.
func WithLogger(l *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(log.Into(c.UserContext(), l))
		return c.Next()
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Briefer, opts Options) {
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = 2 * time.Minute
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/digest", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), opts.CycleTimeout)
		defer cancel()

		return c.JSON(svc.Preview(ctx))
	})

	v1.Post("/briefing", func(c *fiber.Ctx) error {
		const op = "api/http/routes/briefing"

		var q briefingQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if opts.ChannelID == "" {
			return fiber.NewError(fiber.StatusServiceUnavailable, "no delivery channel configured")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), opts.CycleTimeout)
		defer cancel()

		trigger := q.trigger()
		if err := svc.Deliver(ctx, opts.ChannelID, trigger); err != nil {
			log.From(ctx).Error("briefing_trigger_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return fiber.NewError(fiber.StatusBadGateway, "briefing delivery failed")
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":  "delivered",
			"trigger": trigger,
		})
	})
}

// briefingQuery holds query parameters for the trigger endpoint.
type briefingQuery struct {
	Tag string `validate:"omitempty,oneof=test"`
}

func (q *briefingQuery) bind(c *fiber.Ctx) error {
	q.Tag = c.Query("tag")
	return validate.Struct(q)
}

func (q briefingQuery) trigger() string {
	if q.Tag == "test" {
		return "test"
	}
	return briefing.TriggerAPI
}
