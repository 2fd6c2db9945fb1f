package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/logger"
)

// CorrelationHeader carries the client's idempotency key
const CorrelationHeader = "X-Correlation-ID"

// IdempotencyStore is the key-value store replayed responses live in.
// Get returns an error on a miss.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyKey is the store key for a correlation id, scoped to one route
func IdempotencyKey(method, path, correlationID string) string {
	return fmt.Sprintf("idempotency:%s:%s:%s", method, path, correlationID)
}

// IdempotencyMiddleware provides idempotency for POST/PATCH/PUT requests using X-Correlation-ID.
// If the same correlation ID is received within the TTL, it returns the cached response.
func IdempotencyMiddleware(store IdempotencyStore, ttl time.Duration, log *zap.Logger) fiber.Handler {
	log = logger.OrNop(log)

	return func(c *fiber.Ctx) error {
		// Only apply to mutating methods
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(CorrelationHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := IdempotencyKey(c.Method(), c.Path(), correlationID)
		ctx := c.UserContext()

		var cached cachedResponse
		if err := store.Get(ctx, key, &cached); err == nil && cached.Status != 0 {
			c.Set("X-Idempotent-Replay", "true")
			if cached.ContentType != "" {
				c.Set(fiber.HeaderContentType, cached.ContentType)
			}
			return c.Status(cached.Status).Send(cached.Body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode < 200 || statusCode >= 300 {
			return nil
		}

		resp := cachedResponse{
			Status:      statusCode,
			ContentType: string(c.Response().Header.ContentType()),
			// fasthttp reuses the response buffer
			Body: append([]byte(nil), c.Response().Body()...),
		}

		storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.Set(storeCtx, key, resp, ttl); err != nil {
			log.Warn("failed to cache idempotent response", zap.String("key", key), zap.Error(err))
		}

		return nil
	}
}
