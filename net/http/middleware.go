package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lucrumlabs/vault-ledger/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WithTelemetry opens one span per request and stores the span context in the
// fiber user context so handlers and the ledger's collaborators can attach to
// the same trace.
func WithTelemetry(tracerName string) fiber.Handler {
	tracer := otel.Tracer(tracerName)

	return func(c *fiber.Ctx) error {
		ctx, span := tracer.Start(
			c.UserContext(),
			c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		c.SetUserContext(ctx)

		err := c.Next()

		span.SetAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", c.Route().Path),
			attribute.Int("http.status_code", c.Response().StatusCode()),
		)

		if err != nil {
			span.RecordError(err)
		}

		return err
	}
}

// WithLogging emits one structured access log entry per request.
func WithLogging(logger log.Logger) fiber.Handler {
	if logger == nil {
		logger = log.NewNop()
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.Log(c.UserContext(), log.LevelInfo, "http request",
			log.String("method", c.Method()),
			log.String("path", c.Path()),
			log.Int("status", c.Response().StatusCode()),
			log.Any("duration", time.Since(start)),
		)

		return err
	}
}
