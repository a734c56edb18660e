package route

import (
	"delivery-service/src/internal/delivery/http"
	"delivery-service/src/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App              *fiber.App
	OrderController  *http.OrderController
	DriverController *http.DriverController
	AuthMiddleware   fiber.Handler
}

func (c *RouteConfig) Setup() {
	c.App.Use(middleware.NewLogger())
	c.App.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})
	c.SetupAuthRoute()
}

func (c *RouteConfig) SetupAuthRoute() {
	c.App.Use(c.AuthMiddleware)

	c.App.Post("/orders/v1", c.OrderController.Create)
	c.App.Get("/orders/v1/active", c.OrderController.Active)
	c.App.Get("/orders/v1/history", c.OrderController.History)
	c.App.Get("/orders/v1/:id", c.OrderController.Detail)
	c.App.Get("/orders/v1/:id/track", c.OrderController.Track)
	c.App.Patch("/orders/v1/:id/status", c.OrderController.Transition)
	c.App.Post("/orders/v1/:id/cancel", c.OrderController.Cancel)
	c.App.Post("/orders/v1/:id/rating", c.OrderController.Rate)

	c.App.Put("/drivers/v1/availability", c.DriverController.SetAvailability)
	c.App.Put("/drivers/v1/online", c.DriverController.SetOnline)
	c.App.Post("/drivers/v1/location", c.DriverController.UpdateLocation)
	c.App.Get("/drivers/v1/active-delivery", c.DriverController.ActiveDelivery)
	c.App.Post("/drivers/v1/offers/:id/respond", c.DriverController.RespondToOffer)
	c.App.Post("/drivers/v1/orders/:id/issues", c.DriverController.ReportIssue)
}
