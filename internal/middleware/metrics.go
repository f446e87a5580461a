package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// RequestMetrics observes request latency by route pattern.
func RequestMetrics(m *metrics.GalleryMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.ObserveRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
		return err
	}
}
