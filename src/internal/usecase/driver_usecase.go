package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
	"delivery-service/src/internal/model/converter"
	"delivery-service/src/internal/repository"
	httpError "delivery-service/src/pkg/http-error"
	"delivery-service/src/pkg/log"
	"delivery-service/src/pkg/utils"
)

type DriverUseCase struct {
	Log              log.Log
	Validate         *validator.Validate
	Config           *viper.Viper
	DriverRepository DriverStore
	OrderRepository  OrderStore
}

func NewDriverUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	driverRepository DriverStore,
	orderRepository OrderStore,
) *DriverUseCase {
	return &DriverUseCase{
		Log:              logger,
		Validate:         validate,
		Config:           cfg,
		DriverRepository: driverRepository,
		OrderRepository:  orderRepository,
	}
}

// SetAvailability toggles the work-shift flag. A driver holding an active
// order cannot leave availability until the delivery finishes.
func (c *DriverUseCase) SetAvailability(ctx context.Context, request *model.SetAvailabilityRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("driver-usecase", errObj.Message, "SetAvailability", utils.ConvertString(err))
		return result
	}

	available := *request.IsAvailable
	if !available {
		driver, err := c.DriverRepository.Get(ctx, request.DriverID)
		if err == nil && driver.ActiveOrderID != nil {
			errObj := httpError.NewInvalidState()
			errObj.Message = "cannot go unavailable while a delivery is active"
			result.Error = errObj
			return result
		}
	}

	if err := c.DriverRepository.SetAvailability(ctx, request.DriverID, available); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to update availability"
		result.Error = errObj
		c.Log.Error("driver-usecase", fmt.Sprintf("availability update failed: %v", err), "SetAvailability", request.DriverID)
		return result
	}

	return c.statusResult(ctx, request.DriverID)
}

// SetOnline flips the dispatch-eligibility flag. Going online requires the
// driver to be available first.
func (c *DriverUseCase) SetOnline(ctx context.Context, request *model.SetOnlineRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("driver-usecase", errObj.Message, "SetOnline", utils.ConvertString(err))
		return result
	}

	online := *request.IsOnline
	ok, err := c.DriverRepository.SetOnline(ctx, request.DriverID, online)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to update online flag"
		result.Error = errObj
		c.Log.Error("driver-usecase", fmt.Sprintf("online update failed: %v", err), "SetOnline", request.DriverID)
		return result
	}
	if !ok {
		if _, err := c.DriverRepository.Get(ctx, request.DriverID); err == repository.ErrNotFound {
			errObj := httpError.NewNotFound()
			errObj.Message = "driver not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInvalidState()
		errObj.Message = "driver must be available before going online"
		result.Error = errObj
		return result
	}

	return c.statusResult(ctx, request.DriverID)
}

func (c *DriverUseCase) UpdateLocation(ctx context.Context, request *model.UpdateLocationRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("driver-usecase", errObj.Message, "UpdateLocation", utils.ConvertString(err))
		return result
	}

	if !utils.ValidCoordinates(request.Latitude, request.Longitude) {
		errObj := httpError.NewBadRequest()
		errObj.Message = "coordinates out of range"
		result.Error = errObj
		return result
	}

	if err := c.DriverRepository.UpdateLocation(ctx, request.DriverID, request.Latitude, request.Longitude, time.Now().UTC()); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to store location"
		result.Error = errObj
		c.Log.Error("driver-usecase", fmt.Sprintf("location update failed: %v", err), "UpdateLocation", request.DriverID)
		return result
	}

	return c.statusResult(ctx, request.DriverID)
}

// ReportIssue records a delivery problem against the order. Only the
// assigned driver may report.
func (c *DriverUseCase) ReportIssue(ctx context.Context, request *model.ReportIssueRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("driver-usecase", errObj.Message, "ReportIssue", utils.ConvertString(err))
		return result
	}

	order, err := c.OrderRepository.FindByID(ctx, request.OrderID)
	if err != nil {
		if err == repository.ErrNotFound {
			errObj := httpError.NewNotFound()
			errObj.Message = "order not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load order"
		result.Error = errObj
		c.Log.Error("driver-usecase", fmt.Sprintf("order lookup failed: %v", err), "ReportIssue", "")
		return result
	}

	if order.DriverID == nil || *order.DriverID != request.ReportedBy {
		errObj := httpError.NewConflict()
		errObj.Message = "only the assigned driver can report issues on this order"
		result.Error = errObj
		return result
	}

	issue := &entity.DeliveryIssue{
		OrderID:     order.ID,
		IssueType:   entity.IssueType(request.IssueType),
		Description: request.Description,
		ReportedBy:  request.ReportedBy,
	}
	if err := c.DriverRepository.InsertIssue(ctx, issue); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to record issue"
		result.Error = errObj
		c.Log.Error("driver-usecase", fmt.Sprintf("issue insert failed: %v", err), "ReportIssue", order.OrderNumber)
		return result
	}

	c.Log.Info("driver-usecase", fmt.Sprintf("issue %s reported", issue.IssueType), "ReportIssue", order.OrderNumber)
	result.Data = issue
	return result
}

// ActiveDelivery returns the driver's current order, if any.
func (c *DriverUseCase) ActiveDelivery(ctx context.Context, driverID string) utils.Result {
	var result utils.Result

	order, err := c.OrderRepository.ActiveByDriver(ctx, driverID)
	if err != nil {
		if err == repository.ErrNotFound {
			errObj := httpError.NewNotFound()
			errObj.Message = "no active delivery"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load active delivery"
		result.Error = errObj
		c.Log.Error("driver-usecase", fmt.Sprintf("active delivery lookup failed: %v", err), "ActiveDelivery", driverID)
		return result
	}

	result.Data = converter.OrderToResponse(order, time.Now().UTC())
	return result
}

func (c *DriverUseCase) statusResult(ctx context.Context, driverID string) utils.Result {
	var result utils.Result

	driver, err := c.DriverRepository.Get(ctx, driverID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load driver status"
		result.Error = errObj
		c.Log.Error("driver-usecase", fmt.Sprintf("status load failed: %v", err), "statusResult", driverID)
		return result
	}

	result.Data = converter.DriverToStatusResponse(driver)
	return result
}
