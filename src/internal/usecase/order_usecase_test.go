package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
	httpError "delivery-service/src/pkg/http-error"
)

type orderHarness struct {
	orders  *memOrderStore
	drivers *memDriverStore
	offers  *memOfferStore
	status  *capturedStatusEvents
	queue   *memQueue
	usecase *OrderUseCase
}

func newOrderHarness() *orderHarness {
	orders := newMemOrderStore()
	drivers := newMemDriverStore()
	offers := newMemOfferStore(drivers, orders)
	status := &capturedStatusEvents{}
	queue := &memQueue{}

	uc := NewOrderUseCase(
		testLogger(),
		validator.New(),
		testConfig(),
		orders,
		drivers,
		offers,
		status,
		queue,
		nil,
	)

	return &orderHarness{
		orders:  orders,
		drivers: drivers,
		offers:  offers,
		status:  status,
		queue:   queue,
		usecase: uc,
	}
}

func createRequest() *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		CustomerID:        "cust-1",
		RestaurantID:      "rest-1",
		PickupAddress:     "Jl. Sudirman 1",
		PickupLatitude:    -6.2000,
		PickupLongitude:   106.8000,
		DeliveryAddress:   "Jl. Thamrin 10",
		DeliveryLatitude:  -6.2000,
		DeliveryLongitude: 106.8000,
		PaymentMethod:     "CASH",
		Tip:               120,
		Items: []model.OrderItemRequest{
			{ProductID: "p-1", ProductName: "Nasi Goreng", UnitPrice: 300, Quantity: 2},
			{ProductID: "p-2", ProductName: "Es Teh", UnitPrice: 400, Quantity: 1},
		},
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	h := newOrderHarness()
	h.usecase.Config.Set("pricing.base_delivery_fee", 250)
	h.usecase.Config.Set("pricing.per_km_fee", 0)
	h.usecase.Config.Set("pricing.service_fee", 50)

	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)

	response, ok := result.Data.(*model.OrderResponse)
	require.True(t, ok)

	// 2x300 + 1x400 items, 250 delivery, 50 service, 120 tip.
	assert.Equal(t, int64(1000), response.Subtotal)
	assert.Equal(t, int64(250), response.DeliveryFee)
	assert.Equal(t, int64(50), response.ServiceFee)
	assert.Equal(t, int64(120), response.Tip)
	assert.Equal(t, int64(1420), response.Total)

	assert.Equal(t, string(entity.StatusPending), response.Status)
	assert.True(t, strings.HasPrefix(response.OrderNumber, "QG"))
	assert.Len(t, response.OrderNumber, 12)
	assert.NotNil(t, response.EstimatedDeliveryTime)
	assert.Equal(t, 3, response.TotalItems)

	require.Len(t, h.status.events, 1)
	assert.Equal(t, string(entity.StatusPending), h.status.events[0].Status)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	h := newOrderHarness()
	request := createRequest()
	request.Items = nil

	result := h.usecase.Create(context.Background(), request)
	require.NotNil(t, result.Error)
	assert.Equal(t, httpError.CodeValidationError, result.Error.Code)
}

func transition(h *orderHarness, orderID uint64, status, actor string) *httpError.CommonError {
	result := h.usecase.Transition(context.Background(), &model.TransitionOrderRequest{
		OrderID: orderID,
		Status:  status,
		Actor:   actor,
	})
	return result.Error
}

func TestTransitionWalksTheLifecycle(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	require.Nil(t, transition(h, orderID, "CONFIRMED", "rest-1"))
	require.Nil(t, transition(h, orderID, "PREPARING", "rest-1"))
	require.Nil(t, transition(h, orderID, "READY", "rest-1"))

	order, err := h.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReady, order.Status)
	assert.NotNil(t, order.ConfirmedAt)
	assert.NotNil(t, order.PreparingAt)
	assert.NotNil(t, order.ReadyAt)

	// READY hands the order to the dispatch worker.
	require.Equal(t, 1, h.queue.retryCount())
	assert.Equal(t, orderID, h.queue.retries[0].OrderID)
}

func TestTransitionIsIdempotent(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	require.Nil(t, transition(h, orderID, "CONFIRMED", "rest-1"))
	eventsAfterFirst := len(h.status.events)

	// Re-applying the same status succeeds without a second event.
	require.Nil(t, transition(h, orderID, "CONFIRMED", "rest-1"))
	assert.Equal(t, eventsAfterFirst, len(h.status.events))
}

func TestTransitionRejectsSkippedStates(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	err := transition(h, orderID, "READY", "rest-1")
	require.NotNil(t, err)
	assert.Equal(t, httpError.CodeInvalidTransition, err.Code)

	err = transition(h, orderID, "DELIVERED", "rest-1")
	require.NotNil(t, err)
	assert.Equal(t, httpError.CodeInvalidTransition, err.Code)
}

func TestTransitionCancelledGoesThroughCancel(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	err := transition(h, orderID, "CANCELLED", "cust-1")
	require.NotNil(t, err)
	assert.Equal(t, httpError.CodeValidationError, err.Code)
}

func TestCourierTransitionsRequireAssignedDriver(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	require.Nil(t, transition(h, orderID, "CONFIRMED", "rest-1"))
	require.Nil(t, transition(h, orderID, "PREPARING", "rest-1"))
	require.Nil(t, transition(h, orderID, "READY", "rest-1"))

	// No driver assigned yet.
	err := transition(h, orderID, "PICKED_UP", "driver-1")
	require.NotNil(t, err)
	assert.Equal(t, httpError.CodeOrderNotReady, err.Code)

	driverID := "driver-1"
	h.orders.mu.Lock()
	h.orders.orders[orderID].DriverID = &driverID
	h.orders.mu.Unlock()

	// Wrong actor.
	err = transition(h, orderID, "PICKED_UP", "driver-2")
	require.NotNil(t, err)
	assert.Equal(t, httpError.CodeConflict, err.Code)

	require.Nil(t, transition(h, orderID, "PICKED_UP", "driver-1"))
	require.Nil(t, transition(h, orderID, "IN_TRANSIT", "driver-1"))
	require.Nil(t, transition(h, orderID, "DELIVERED", "driver-1"))

	order, err2 := h.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err2)
	assert.Equal(t, entity.StatusDelivered, order.Status)
	assert.NotNil(t, order.DeliveredAt)
}

func cancelRequest(orderID uint64, reason string) *model.CancelOrderRequest {
	return &model.CancelOrderRequest{
		OrderID: orderID,
		Actor:   "cust-1",
		Reason:  reason,
	}
}

func TestCancelPendingOrder(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	cancelled := h.usecase.Cancel(context.Background(), cancelRequest(orderID, "CUSTOMER_REQUEST"))
	require.Nil(t, cancelled.Error)

	order, err := h.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, order.Status)
	require.NotNil(t, order.CancellationReason)
	assert.Equal(t, entity.CancelCustomerRequest, *order.CancellationReason)
	assert.NotNil(t, order.CancelledAt)
}

func TestCancelRefusedOncePreparing(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	require.Nil(t, transition(h, orderID, "CONFIRMED", "rest-1"))
	require.Nil(t, transition(h, orderID, "PREPARING", "rest-1"))

	cancelled := h.usecase.Cancel(context.Background(), cancelRequest(orderID, "CUSTOMER_REQUEST"))
	require.NotNil(t, cancelled.Error)
	assert.Equal(t, httpError.CodeNotCancellable, cancelled.Error.Code)
}

func TestCancelIsIdempotent(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	require.Nil(t, h.usecase.Cancel(context.Background(), cancelRequest(orderID, "CUSTOMER_REQUEST")).Error)
	require.Nil(t, h.usecase.Cancel(context.Background(), cancelRequest(orderID, "CUSTOMER_REQUEST")).Error)
}

func TestRatingRequiresDeliveredOrder(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	rated := h.usecase.RecordRating(context.Background(), &model.RateOrderRequest{
		OrderID:       orderID,
		CustomerID:    "cust-1",
		OverallRating: 5,
	})
	require.NotNil(t, rated.Error)
	assert.Equal(t, httpError.CodeInvalidState, rated.Error.Code)

	h.orders.mu.Lock()
	h.orders.orders[orderID].Status = entity.StatusDelivered
	h.orders.mu.Unlock()

	rated = h.usecase.RecordRating(context.Background(), &model.RateOrderRequest{
		OrderID:       orderID,
		CustomerID:    "cust-1",
		OverallRating: 5,
	})
	require.Nil(t, rated.Error)
	require.Len(t, h.orders.ratings, 1)
	assert.Equal(t, 5, h.orders.ratings[0].OverallRating)
}

func TestTrackReturnsDriverLocation(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	driverID := "driver-1"
	h.orders.mu.Lock()
	h.orders.orders[orderID].Status = entity.StatusInTransit
	h.orders.orders[orderID].DriverID = &driverID
	h.orders.mu.Unlock()

	lat, lng := -6.2100, 106.8100
	now := time.Now().UTC()
	h.drivers.seed(&entity.DriverAvailability{
		DriverID: driverID, IsAvailable: true, IsOnline: true,
		Latitude: &lat, Longitude: &lng, LocationAt: &now, LastSeenAt: now,
	})

	tracked := h.usecase.Track(context.Background(), &model.OrderDetailRequest{OrderID: orderID, UserID: "cust-1"})
	require.Nil(t, tracked.Error)

	response := tracked.Data.(*model.TrackOrderResponse)
	assert.Equal(t, string(entity.StatusInTransit), response.Status)
	require.NotNil(t, response.Latitude)
	assert.InDelta(t, lat, *response.Latitude, 0.0001)
}

func TestDetailHiddenFromStrangers(t *testing.T) {
	h := newOrderHarness()
	result := h.usecase.Create(context.Background(), createRequest())
	require.Nil(t, result.Error)
	orderID := result.Data.(*model.OrderResponse).ID

	detail := h.usecase.Detail(context.Background(), &model.OrderDetailRequest{OrderID: orderID, UserID: "someone-else"})
	require.NotNil(t, detail.Error)
	assert.Equal(t, httpError.CodeNotFound, detail.Error.Code)

	detail = h.usecase.Detail(context.Background(), &model.OrderDetailRequest{OrderID: orderID, UserID: "rest-1"})
	require.Nil(t, detail.Error)
}
