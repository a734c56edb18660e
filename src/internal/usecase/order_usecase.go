package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"googlemaps.github.io/maps"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
	"delivery-service/src/internal/model/converter"
	"delivery-service/src/internal/repository"
	httpError "delivery-service/src/pkg/http-error"
	"delivery-service/src/pkg/log"
	"delivery-service/src/pkg/utils"
)

type OrderUseCase struct {
	Log              log.Log
	Validate         *validator.Validate
	Config           *viper.Viper
	OrderRepository  OrderStore
	DriverRepository DriverStore
	OfferRepository  OfferStore
	StatusProducer   StatusEventPublisher
	Queue            DispatchQueue

	// Maps is optional; without it the ETA falls back to the straight-line
	// speed estimate.
	Maps *maps.Client
}

func NewOrderUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	orderRepository OrderStore,
	driverRepository DriverStore,
	offerRepository OfferStore,
	statusProducer StatusEventPublisher,
	queue DispatchQueue,
	mapsClient *maps.Client,
) *OrderUseCase {
	return &OrderUseCase{
		Log:              logger,
		Validate:         validate,
		Config:           cfg,
		OrderRepository:  orderRepository,
		DriverRepository: driverRepository,
		OfferRepository:  offerRepository,
		StatusProducer:   statusProducer,
		Queue:            queue,
		Maps:             mapsClient,
	}
}

// newOrderNumber builds the public order reference, e.g. QG3F9A21BC04.
func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "QG" + strings.ToUpper(raw[:10])
}

func (c *OrderUseCase) Create(ctx context.Context, request *model.CreateOrderRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Create", utils.ConvertString(err))
		return result
	}

	now := time.Now().UTC()
	order := &entity.Order{
		OrderNumber:         newOrderNumber(),
		CustomerID:          request.CustomerID,
		RestaurantID:        request.RestaurantID,
		Status:              entity.StatusPending,
		PickupAddress:       request.PickupAddress,
		PickupLatitude:      request.PickupLatitude,
		PickupLongitude:     request.PickupLongitude,
		DeliveryAddress:     request.DeliveryAddress,
		DeliveryReference:   request.DeliveryReference,
		DeliveryLatitude:    request.DeliveryLatitude,
		DeliveryLongitude:   request.DeliveryLongitude,
		PaymentMethod:       entity.PaymentMethod(request.PaymentMethod),
		Tip:                 request.Tip,
		Discount:            request.Discount,
		SpecialInstructions: request.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	for _, item := range request.Items {
		order.Items = append(order.Items, entity.OrderItem{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPrice:      item.UnitPrice,
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
			SpecialNotes:   item.SpecialNotes,
		})
	}

	distanceKm := utils.HaversineKm(
		request.PickupLatitude, request.PickupLongitude,
		request.DeliveryLatitude, request.DeliveryLongitude,
	)
	c.priceOrder(order, distanceKm)

	eta := c.estimateDelivery(ctx, order, now, distanceKm)
	order.EstimatedDeliveryTime = &eta

	if err := c.OrderRepository.Create(ctx, order); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to create order"
		result.Error = errObj
		c.Log.Error("order-usecase", fmt.Sprintf("failed to create order: %v", err), "Create", "")
		return result
	}

	event := converter.OrderToStatusEvent(order, "", "order created")
	if err := c.StatusProducer.Send(event); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed to publish status event: %v", err), "Create", order.OrderNumber)
	}

	result.Data = converter.OrderToResponse(order, now)
	return result
}

// priceOrder fills the fee fields from config and recomputes the total.
// All money math is in integer cents.
func (c *OrderUseCase) priceOrder(order *entity.Order, distanceKm float64) {
	baseFee := c.Config.GetInt64("pricing.base_delivery_fee")
	perKmFee := c.Config.GetInt64("pricing.per_km_fee")
	order.DeliveryFee = baseFee + int64(distanceKm)*perKmFee
	order.ServiceFee = c.Config.GetInt64("pricing.service_fee")

	order.ComputeTotal()

	taxBps := c.Config.GetInt64("pricing.tax_rate_bps")
	order.Tax = order.Subtotal * taxBps / 10000
	order.ComputeTotal()
}

// estimateDelivery prefers a live route duration when the maps client is
// configured, otherwise assumes an average courier speed. Either way a fixed
// prep window is added up front.
func (c *OrderUseCase) estimateDelivery(ctx context.Context, order *entity.Order, now time.Time, distanceKm float64) time.Time {
	prepMinutes := c.Config.GetInt("order.prep_minutes")
	if prepMinutes <= 0 {
		prepMinutes = 10
	}
	prep := time.Duration(prepMinutes) * time.Minute

	if travel, err := c.routeDuration(ctx, order); err == nil {
		return now.Add(prep + travel)
	} else if c.Maps != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("route lookup failed, using fallback estimate: %v", err), "estimateDelivery", order.OrderNumber)
	}

	speedKmh := c.Config.GetFloat64("order.avg_speed_kmh")
	if speedKmh <= 0 {
		speedKmh = 30
	}
	travel := time.Duration(distanceKm / speedKmh * float64(time.Hour))
	return now.Add(prep + travel)
}

func (c *OrderUseCase) routeDuration(ctx context.Context, order *entity.Order) (time.Duration, error) {
	if c.Maps == nil {
		return 0, fmt.Errorf("maps client not configured")
	}

	routes, _, err := c.Maps.Directions(ctx, &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", order.PickupLatitude, order.PickupLongitude),
		Destination: fmt.Sprintf("%f,%f", order.DeliveryLatitude, order.DeliveryLongitude),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return 0, err
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no routes found")
	}

	var total time.Duration
	for _, leg := range routes[0].Legs {
		total += leg.Duration
	}
	return total, nil
}

// Transition advances the order along the lifecycle. Re-applying the current
// status is a no-op success so client retries stay safe.
func (c *OrderUseCase) Transition(ctx context.Context, request *model.TransitionOrderRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Transition", utils.ConvertString(err))
		return result
	}

	target := entity.OrderStatus(request.Status)
	if !target.Valid() {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("unknown status %q", request.Status)
		result.Error = errObj
		return result
	}
	if target == entity.StatusCancelled {
		errObj := httpError.NewBadRequest()
		errObj.Message = "cancellation requires the cancel operation with a reason"
		result.Error = errObj
		return result
	}

	order, err := c.OrderRepository.FindByID(ctx, request.OrderID)
	if err != nil {
		result.Error = c.mapNotFound(err, "order not found", "Transition")
		return result
	}

	now := time.Now().UTC()
	if order.Status == target {
		result.Data = converter.OrderToResponse(order, now)
		return result
	}

	if !entity.CanTransition(order.Status, target) {
		errObj := httpError.NewInvalidTransition()
		errObj.Message = fmt.Sprintf("cannot transition from %s to %s", order.Status, target)
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Transition", order.OrderNumber)
		return result
	}

	if err := c.authorizeTransition(order, target, request.Actor); err != nil {
		result.Error = err
		return result
	}

	previous := order.Status
	ok, err := c.OrderRepository.UpdateStatus(ctx, order.ID, previous, target)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to update order status"
		result.Error = errObj
		c.Log.Error("order-usecase", fmt.Sprintf("status update failed: %v", err), "Transition", order.OrderNumber)
		return result
	}
	if !ok {
		// Lost the race. Re-read to distinguish a concurrent identical
		// transition (idempotent success) from a genuine conflict.
		current, err := c.OrderRepository.FindByID(ctx, order.ID)
		if err == nil && current.Status == target {
			result.Data = converter.OrderToResponse(current, now)
			return result
		}
		errObj := httpError.NewInvalidTransition()
		errObj.Message = fmt.Sprintf("order status changed concurrently, cannot transition to %s", target)
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Transition", order.OrderNumber)
		return result
	}

	order.Status = target
	actor := request.Actor
	if err := c.OrderRepository.AppendHistory(ctx, &entity.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    target,
		Notes:     request.Notes,
		ChangedBy: &actor,
	}); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed to append history: %v", err), "Transition", order.OrderNumber)
	}

	event := converter.OrderToStatusEvent(order, previous, request.Notes)
	if err := c.StatusProducer.Send(event); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed to publish status event: %v", err), "Transition", order.OrderNumber)
	}

	switch target {
	case entity.StatusReady:
		// Dispatch runs on the worker so the restaurant call returns fast.
		if err := c.Queue.ScheduleRetry(order.ID, 0); err != nil {
			c.Log.Error("order-usecase", fmt.Sprintf("failed to enqueue dispatch: %v", err), "Transition", order.OrderNumber)
		}
	case entity.StatusDelivered:
		if order.DriverID != nil {
			if err := c.DriverRepository.Release(ctx, *order.DriverID, order.ID); err != nil {
				c.Log.Error("order-usecase", fmt.Sprintf("failed to release driver: %v", err), "Transition", order.OrderNumber)
			}
		}
	}

	result.Data = converter.OrderToResponse(order, now)
	return result
}

// authorizeTransition keeps courier-phase transitions with the assigned
// driver. Restaurant-phase transitions are trusted to the upstream gateway.
func (c *OrderUseCase) authorizeTransition(order *entity.Order, target entity.OrderStatus, actor string) *httpError.CommonError {
	switch target {
	case entity.StatusPickedUp, entity.StatusInTransit, entity.StatusDelivered:
		if order.DriverID == nil {
			errObj := httpError.NewOrderNotReady()
			errObj.Message = "no driver assigned to this order yet"
			return errObj
		}
		if *order.DriverID != actor {
			errObj := httpError.NewConflict()
			errObj.Message = "only the assigned driver can perform this transition"
			return errObj
		}
	}
	return nil
}

func (c *OrderUseCase) Cancel(ctx context.Context, request *model.CancelOrderRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Cancel", utils.ConvertString(err))
		return result
	}

	order, err := c.OrderRepository.FindByID(ctx, request.OrderID)
	if err != nil {
		result.Error = c.mapNotFound(err, "order not found", "Cancel")
		return result
	}

	now := time.Now().UTC()
	if order.Status == entity.StatusCancelled {
		result.Data = converter.OrderToResponse(order, now)
		return result
	}

	if !order.CanBeCancelled() {
		errObj := httpError.NewNotCancellable()
		errObj.Message = fmt.Sprintf("order in status %s can no longer be cancelled", order.Status)
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Cancel", order.OrderNumber)
		return result
	}

	previous := order.Status
	reason := entity.CancellationReason(request.Reason)
	ok, err := c.OrderRepository.Cancel(ctx, order.ID, previous, reason, request.Notes)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to cancel order"
		result.Error = errObj
		c.Log.Error("order-usecase", fmt.Sprintf("cancel failed: %v", err), "Cancel", order.OrderNumber)
		return result
	}
	if !ok {
		current, err := c.OrderRepository.FindByID(ctx, order.ID)
		if err == nil && current.Status == entity.StatusCancelled {
			result.Data = converter.OrderToResponse(current, now)
			return result
		}
		errObj := httpError.NewNotCancellable()
		errObj.Message = "order status changed concurrently, cancellation refused"
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Cancel", order.OrderNumber)
		return result
	}

	// Close out anything dispatch left behind. Cancellation is only allowed
	// before dispatch starts, so these are no-ops in the common case.
	if err := c.OfferRepository.VoidPendingByOrder(ctx, order.ID); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed to void offers: %v", err), "Cancel", order.OrderNumber)
	}
	if err := c.DriverRepository.ReleaseByOrder(ctx, order.ID); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed to release driver: %v", err), "Cancel", order.OrderNumber)
	}

	order.Status = entity.StatusCancelled
	order.CancellationReason = &reason
	actor := request.Actor
	if err := c.OrderRepository.AppendHistory(ctx, &entity.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    entity.StatusCancelled,
		Notes:     request.Notes,
		ChangedBy: &actor,
	}); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed to append history: %v", err), "Cancel", order.OrderNumber)
	}

	event := converter.OrderToStatusEvent(order, previous, request.Notes)
	if err := c.StatusProducer.Send(event); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed to publish status event: %v", err), "Cancel", order.OrderNumber)
	}

	result.Data = converter.OrderToResponse(order, now)
	return result
}

func (c *OrderUseCase) RecordRating(ctx context.Context, request *model.RateOrderRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "RecordRating", utils.ConvertString(err))
		return result
	}

	order, err := c.OrderRepository.FindByID(ctx, request.OrderID)
	if err != nil {
		result.Error = c.mapNotFound(err, "order not found", "RecordRating")
		return result
	}

	if order.CustomerID != request.CustomerID {
		errObj := httpError.NewNotFound()
		errObj.Message = "order not found"
		result.Error = errObj
		return result
	}

	if order.Status != entity.StatusDelivered {
		errObj := httpError.NewInvalidState()
		errObj.Message = "only delivered orders can be rated"
		result.Error = errObj
		return result
	}

	rating := &entity.OrderRating{
		OrderID:       order.ID,
		OverallRating: request.OverallRating,
		DriverRating:  request.DriverRating,
		DriverComment: request.DriverComment,
	}
	if err := c.OrderRepository.InsertRating(ctx, rating); err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "order already rated"
		result.Error = errObj
		c.Log.Error("order-usecase", fmt.Sprintf("failed to insert rating: %v", err), "RecordRating", order.OrderNumber)
		return result
	}

	result.Data = rating
	return result
}

func (c *OrderUseCase) Detail(ctx context.Context, request *model.OrderDetailRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	order, err := c.OrderRepository.FindByID(ctx, request.OrderID)
	if err != nil {
		result.Error = c.mapNotFound(err, "order not found", "Detail")
		return result
	}

	if !orderParticipant(order, request.UserID) {
		errObj := httpError.NewNotFound()
		errObj.Message = "order not found"
		result.Error = errObj
		return result
	}

	result.Data = converter.OrderToResponse(order, time.Now().UTC())
	return result
}

func (c *OrderUseCase) ActiveOrders(ctx context.Context, request *model.OrderListRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	orders, err := c.OrderRepository.ActiveByCustomer(ctx, request.UserID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to list active orders"
		result.Error = errObj
		c.Log.Error("order-usecase", fmt.Sprintf("active list failed: %v", err), "ActiveOrders", request.UserID)
		return result
	}

	result.Data = c.toResponses(orders)
	return result
}

func (c *OrderUseCase) History(ctx context.Context, request *model.OrderListRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	limit := request.Limit
	if limit == 0 {
		limit = 20
	}

	orders, err := c.OrderRepository.HistoryByCustomer(ctx, request.UserID, limit, request.Offset)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to list order history"
		result.Error = errObj
		c.Log.Error("order-usecase", fmt.Sprintf("history list failed: %v", err), "History", request.UserID)
		return result
	}

	result.Data = c.toResponses(orders)
	return result
}

// Track returns the order status plus the driver's last known position once
// a driver is assigned.
func (c *OrderUseCase) Track(ctx context.Context, request *model.OrderDetailRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	order, err := c.OrderRepository.FindByID(ctx, request.OrderID)
	if err != nil {
		result.Error = c.mapNotFound(err, "order not found", "Track")
		return result
	}

	if !orderParticipant(order, request.UserID) {
		errObj := httpError.NewNotFound()
		errObj.Message = "order not found"
		result.Error = errObj
		return result
	}

	response := &model.TrackOrderResponse{
		OrderID:  order.ID,
		Status:   string(order.Status),
		DriverID: order.DriverID,
	}

	if order.DriverID != nil && !order.Status.IsTerminal() {
		driver, err := c.DriverRepository.Get(ctx, *order.DriverID)
		if err == nil {
			response.Latitude = driver.Latitude
			response.Longitude = driver.Longitude
			response.UpdatedAt = driver.LocationAt
		} else {
			c.Log.Error("order-usecase", fmt.Sprintf("failed to load driver location: %v", err), "Track", order.OrderNumber)
		}
	}

	result.Data = response
	return result
}

func (c *OrderUseCase) toResponses(orders []entity.Order) []*model.OrderResponse {
	now := time.Now().UTC()
	responses := make([]*model.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, converter.OrderToResponse(&orders[i], now))
	}
	return responses
}

func (c *OrderUseCase) mapNotFound(err error, message, scope string) *httpError.CommonError {
	if err == repository.ErrNotFound {
		errObj := httpError.NewNotFound()
		errObj.Message = message
		return errObj
	}
	errObj := httpError.NewInternalServerError()
	errObj.Message = message
	c.Log.Error("order-usecase", fmt.Sprintf("%s: %v", message, err), scope, "")
	return errObj
}

func orderParticipant(order *entity.Order, userID string) bool {
	if order.CustomerID == userID || order.RestaurantID == userID {
		return true
	}
	return order.DriverID != nil && *order.DriverID == userID
}
