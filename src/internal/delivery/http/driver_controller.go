package http

import (
	"github.com/gofiber/fiber/v2"

	"delivery-service/src/internal/delivery/http/middleware"
	"delivery-service/src/internal/model"
	"delivery-service/src/internal/usecase"
	"delivery-service/src/pkg/log"
	"delivery-service/src/pkg/utils"
)

type DriverController struct {
	Log             log.Log
	UseCase         *usecase.DriverUseCase
	DispatchUseCase *usecase.DispatchUseCase
}

func NewDriverController(useCase *usecase.DriverUseCase, dispatchUseCase *usecase.DispatchUseCase, logger log.Log) *DriverController {
	return &DriverController{
		Log:             logger,
		UseCase:         useCase,
		DispatchUseCase: dispatchUseCase,
	}
}

func (c *DriverController) SetAvailability(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.SetAvailabilityRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("DriverController.SetAvailability", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.DriverID = auth.Metadata.UserID

	result := c.UseCase.SetAvailability(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Availability Updated", fiber.StatusOK, ctx)
}

func (c *DriverController) SetOnline(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.SetOnlineRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("DriverController.SetOnline", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.DriverID = auth.Metadata.UserID

	result := c.UseCase.SetOnline(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Online Flag Updated", fiber.StatusOK, ctx)
}

func (c *DriverController) UpdateLocation(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.UpdateLocationRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("DriverController.UpdateLocation", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.DriverID = auth.Metadata.UserID

	result := c.UseCase.UpdateLocation(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Location Updated", fiber.StatusOK, ctx)
}

func (c *DriverController) ActiveDelivery(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	result := c.UseCase.ActiveDelivery(ctx.Context(), auth.Metadata.UserID)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Active Delivery", fiber.StatusOK, ctx)
}

func (c *DriverController) RespondToOffer(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.RespondToOfferRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("DriverController.RespondToOffer", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.OfferID = ctx.Params("id")
	request.DriverID = auth.Metadata.UserID

	result := c.DispatchUseCase.RespondToOffer(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Offer Response Recorded", fiber.StatusOK, ctx)
}

func (c *DriverController) ReportIssue(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	orderID, err := parseOrderID(ctx)
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := new(model.ReportIssueRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("DriverController.ReportIssue", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.OrderID = orderID
	request.ReportedBy = auth.Metadata.UserID

	result := c.UseCase.ReportIssue(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Issue Reported", fiber.StatusCreated, ctx)
}
