package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
	httpError "delivery-service/src/pkg/http-error"
)

type driverHarness struct {
	orders  *memOrderStore
	drivers *memDriverStore
	usecase *DriverUseCase
}

func newDriverHarness() *driverHarness {
	orders := newMemOrderStore()
	drivers := newMemDriverStore()
	uc := NewDriverUseCase(testLogger(), validator.New(), testConfig(), drivers, orders)
	return &driverHarness{orders: orders, drivers: drivers, usecase: uc}
}

func boolPtr(b bool) *bool { return &b }

func TestSetAvailabilityCreatesRow(t *testing.T) {
	h := newDriverHarness()

	result := h.usecase.SetAvailability(context.Background(), &model.SetAvailabilityRequest{
		DriverID:    "driver-1",
		IsAvailable: boolPtr(true),
	})
	require.Nil(t, result.Error)

	status := result.Data.(*model.DriverStatusResponse)
	assert.True(t, status.IsAvailable)
	assert.False(t, status.IsOnline)
}

func TestGoingUnavailableForcesOffline(t *testing.T) {
	h := newDriverHarness()
	h.drivers.seed(&entity.DriverAvailability{DriverID: "driver-1", IsAvailable: true, IsOnline: true})

	result := h.usecase.SetAvailability(context.Background(), &model.SetAvailabilityRequest{
		DriverID:    "driver-1",
		IsAvailable: boolPtr(false),
	})
	require.Nil(t, result.Error)

	status := result.Data.(*model.DriverStatusResponse)
	assert.False(t, status.IsAvailable)
	assert.False(t, status.IsOnline)
}

func TestCannotLeaveShiftMidDelivery(t *testing.T) {
	h := newDriverHarness()
	activeOrder := uint64(7)
	h.drivers.seed(&entity.DriverAvailability{
		DriverID: "driver-1", IsAvailable: true, IsOnline: true, ActiveOrderID: &activeOrder,
	})

	result := h.usecase.SetAvailability(context.Background(), &model.SetAvailabilityRequest{
		DriverID:    "driver-1",
		IsAvailable: boolPtr(false),
	})
	require.NotNil(t, result.Error)
	assert.Equal(t, httpError.CodeInvalidState, result.Error.Code)
}

func TestSetOnlineRequiresAvailability(t *testing.T) {
	h := newDriverHarness()
	h.drivers.seed(&entity.DriverAvailability{DriverID: "driver-1", IsAvailable: false})

	result := h.usecase.SetOnline(context.Background(), &model.SetOnlineRequest{
		DriverID: "driver-1",
		IsOnline: boolPtr(true),
	})
	require.NotNil(t, result.Error)
	assert.Equal(t, httpError.CodeInvalidState, result.Error.Code)

	h.drivers.seed(&entity.DriverAvailability{DriverID: "driver-2", IsAvailable: true})
	result = h.usecase.SetOnline(context.Background(), &model.SetOnlineRequest{
		DriverID: "driver-2",
		IsOnline: boolPtr(true),
	})
	require.Nil(t, result.Error)
	assert.True(t, result.Data.(*model.DriverStatusResponse).IsOnline)
}

func TestSetOnlineUnknownDriver(t *testing.T) {
	h := newDriverHarness()

	result := h.usecase.SetOnline(context.Background(), &model.SetOnlineRequest{
		DriverID: "driver-ghost",
		IsOnline: boolPtr(true),
	})
	require.NotNil(t, result.Error)
	assert.Equal(t, httpError.CodeNotFound, result.Error.Code)
}

func TestUpdateLocation(t *testing.T) {
	h := newDriverHarness()
	h.drivers.seed(&entity.DriverAvailability{DriverID: "driver-1", IsAvailable: true, IsOnline: true})

	result := h.usecase.UpdateLocation(context.Background(), &model.UpdateLocationRequest{
		DriverID:  "driver-1",
		Latitude:  -6.2100,
		Longitude: 106.8100,
	})
	require.Nil(t, result.Error)

	driver, err := h.drivers.Get(context.Background(), "driver-1")
	require.NoError(t, err)
	require.NotNil(t, driver.Latitude)
	assert.InDelta(t, -6.2100, *driver.Latitude, 0.0001)
	assert.InDelta(t, 106.8100, *driver.Longitude, 0.0001)
	assert.NotNil(t, driver.LocationAt)
}

func TestUpdateLocationRejectsBadCoordinates(t *testing.T) {
	h := newDriverHarness()
	h.drivers.seed(&entity.DriverAvailability{DriverID: "driver-1", IsAvailable: true})

	result := h.usecase.UpdateLocation(context.Background(), &model.UpdateLocationRequest{
		DriverID:  "driver-1",
		Latitude:  -95.0,
		Longitude: 106.8,
	})
	require.NotNil(t, result.Error)
	assert.Equal(t, httpError.CodeValidationError, result.Error.Code)
}

func TestReportIssueOnlyByAssignedDriver(t *testing.T) {
	h := newDriverHarness()
	driverID := "driver-1"
	orderID := h.orders.seed(&entity.Order{
		OrderNumber:  "QGTEST000004",
		CustomerID:   "cust-1",
		RestaurantID: "rest-1",
		Status:       entity.StatusInTransit,
		DriverID:     &driverID,
		CreatedAt:    time.Now().UTC(),
	})

	result := h.usecase.ReportIssue(context.Background(), &model.ReportIssueRequest{
		OrderID:     orderID,
		ReportedBy:  "driver-2",
		IssueType:   "TRAFFIC",
		Description: "gridlock on the bridge",
	})
	require.NotNil(t, result.Error)
	assert.Equal(t, httpError.CodeConflict, result.Error.Code)

	result = h.usecase.ReportIssue(context.Background(), &model.ReportIssueRequest{
		OrderID:     orderID,
		ReportedBy:  driverID,
		IssueType:   "TRAFFIC",
		Description: "gridlock on the bridge",
	})
	require.Nil(t, result.Error)
	require.Len(t, h.drivers.issues, 1)
	assert.Equal(t, entity.IssueTraffic, h.drivers.issues[0].IssueType)
}

func TestActiveDelivery(t *testing.T) {
	h := newDriverHarness()

	result := h.usecase.ActiveDelivery(context.Background(), "driver-1")
	require.NotNil(t, result.Error)
	assert.Equal(t, httpError.CodeNotFound, result.Error.Code)

	driverID := "driver-1"
	h.orders.seed(&entity.Order{
		OrderNumber:  "QGTEST000005",
		CustomerID:   "cust-1",
		RestaurantID: "rest-1",
		Status:       entity.StatusPickedUp,
		DriverID:     &driverID,
		CreatedAt:    time.Now().UTC(),
	})

	result = h.usecase.ActiveDelivery(context.Background(), "driver-1")
	require.Nil(t, result.Error)
	response := result.Data.(*model.OrderResponse)
	assert.Equal(t, string(entity.StatusPickedUp), response.Status)
}
