package httpapi

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ramble-labs/trailscout/internal/metrics"
)

// requestMetrics records a counter and latency histogram per request. The
// route label is the registered pattern, not the raw path, so cardinality
// stays bounded.
func requestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		metrics.HTTPDurationMs.WithLabelValues(c.Method(), route).
			Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}
