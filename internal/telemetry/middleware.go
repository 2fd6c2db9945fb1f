package telemetry

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "skinsight-api"

// TraceIDHeader echoes the request's trace id back to the client
const TraceIDHeader = "X-Trace-ID"

// sessionIDLocal is where handlers leave the session id of a created analysis
const sessionIDLocal = "telemetry.session_id"

// AttrSessionID tags request spans with the analysis session they touched
const AttrSessionID = attribute.Key("skin.session_id")

// headerCarrier reads and writes propagation headers on the fasthttp request
type headerCarrier struct {
	c *fiber.Ctx
}

func (h headerCarrier) Get(key string) string { return h.c.Get(key) }

func (h headerCarrier) Set(key, value string) { h.c.Request().Header.Set(key, value) }

func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, 8)
	h.c.Request().Header.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

// FiberMiddleware starts one server span per request. The span is named after
// the matched route template and carries the session id when the request has one.
func FiberMiddleware() fiber.Handler {
	tracer := otel.Tracer(tracerName)

	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), headerCarrier{c})
		ctx, span := tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Method()),
				semconv.URLPath(c.Path()),
				semconv.UserAgentOriginal(c.Get(fiber.HeaderUserAgent)),
				semconv.ClientAddress(c.IP()),
				semconv.HTTPRequestBodySize(len(c.Request().Body())),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Set(TraceIDHeader, sc.TraceID().String())
		}

		err := c.Next()

		// the route is only known once routing has run
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(semconv.HTTPRoute(route))

		if id := sessionID(c); id != "" {
			span.SetAttributes(AttrSessionID.String(id))
		}

		status := c.Response().StatusCode()
		if err != nil {
			span.RecordError(err)
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		return err
	}
}

// SetSessionID records the session a handler created or touched on the request span
func SetSessionID(c *fiber.Ctx, id string) {
	c.Locals(sessionIDLocal, id)
}

func sessionID(c *fiber.Ctx) string {
	if id, ok := c.Locals(sessionIDLocal).(string); ok && id != "" {
		return id
	}
	return c.Params("id")
}

// AddSpanEvent adds an event to the request span
func AddSpanEvent(c *fiber.Ctx, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(c.UserContext()).AddEvent(name, trace.WithAttributes(attrs...))
}
