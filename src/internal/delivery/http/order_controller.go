package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"delivery-service/src/internal/delivery/http/middleware"
	"delivery-service/src/internal/model"
	"delivery-service/src/internal/usecase"
	httpError "delivery-service/src/pkg/http-error"
	"delivery-service/src/pkg/log"
	"delivery-service/src/pkg/utils"
)

type OrderController struct {
	Log     log.Log
	UseCase *usecase.OrderUseCase
}

func NewOrderController(useCase *usecase.OrderUseCase, logger log.Log) *OrderController {
	return &OrderController{
		Log:     logger,
		UseCase: useCase,
	}
}

func parseOrderID(ctx *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil || id == 0 {
		errObj := httpError.NewBadRequest()
		errObj.Message = "invalid order id"
		return 0, errObj
	}
	return id, nil
}

func (c *OrderController) Create(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.CreateOrderRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("OrderController.Create", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.CustomerID = auth.Metadata.UserID

	result := c.UseCase.Create(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Order Created", fiber.StatusCreated, ctx)
}

func (c *OrderController) Detail(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	orderID, err := parseOrderID(ctx)
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := &model.OrderDetailRequest{
		OrderID: orderID,
		UserID:  auth.Metadata.UserID,
	}
	result := c.UseCase.Detail(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Order Detail", fiber.StatusOK, ctx)
}

func (c *OrderController) Track(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	orderID, err := parseOrderID(ctx)
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := &model.OrderDetailRequest{
		OrderID: orderID,
		UserID:  auth.Metadata.UserID,
	}
	result := c.UseCase.Track(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Order Tracking", fiber.StatusOK, ctx)
}

func (c *OrderController) Active(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.OrderListRequest{
		UserID: auth.Metadata.UserID,
	}
	result := c.UseCase.ActiveOrders(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Active Orders", fiber.StatusOK, ctx)
}

func (c *OrderController) History(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.OrderListRequest{
		UserID: auth.Metadata.UserID,
		Limit:  ctx.QueryInt("limit", 20),
		Offset: ctx.QueryInt("offset", 0),
	}
	result := c.UseCase.History(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Order History", fiber.StatusOK, ctx)
}

// Transition serves restaurant and driver status updates. The usecase
// decides which actors may perform which transition.
func (c *OrderController) Transition(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	orderID, err := parseOrderID(ctx)
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := new(model.TransitionOrderRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("OrderController.Transition", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.OrderID = orderID
	request.Actor = auth.Metadata.UserID

	result := c.UseCase.Transition(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Order Status Updated", fiber.StatusOK, ctx)
}

func (c *OrderController) Cancel(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	orderID, err := parseOrderID(ctx)
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := new(model.CancelOrderRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("OrderController.Cancel", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.OrderID = orderID
	request.Actor = auth.Metadata.UserID

	result := c.UseCase.Cancel(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Order Cancelled", fiber.StatusOK, ctx)
}

func (c *OrderController) Rate(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	orderID, err := parseOrderID(ctx)
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := new(model.RateOrderRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("OrderController.Rate", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.OrderID = orderID
	request.CustomerID = auth.Metadata.UserID

	result := c.UseCase.RecordRating(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Order Rated", fiber.StatusCreated, ctx)
}
