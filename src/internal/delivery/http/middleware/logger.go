package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"delivery-service/src/pkg/log"
)

// NewLogger logs every request with latency. Requests slower than a second
// get the slow marker so they stand out in aggregation.
func NewLogger() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		elapsed := time.Since(start)

		logger := log.GetLogger()
		message := fmt.Sprintf("%s %s -> %d (%s)", ctx.Method(), ctx.Path(), ctx.Response().StatusCode(), elapsed)
		if elapsed > time.Second {
			logger.Slow("http", message, "request", ctx.IP())
		} else {
			logger.Info("http", message, "request", ctx.IP())
		}
		return err
	}
}
