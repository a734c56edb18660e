package converter

import (
	"time"

	"github.com/google/uuid"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
)

func DriverToStatusResponse(driver *entity.DriverAvailability) *model.DriverStatusResponse {
	return &model.DriverStatusResponse{
		DriverID:      driver.DriverID,
		IsAvailable:   driver.IsAvailable,
		IsOnline:      driver.IsOnline,
		ActiveOrderID: driver.ActiveOrderID,
		LocationAt:    driver.LocationAt,
	}
}

func OfferToResponse(offer *entity.DispatchOffer) *model.OfferResponse {
	return &model.OfferResponse{
		ID:         offer.ID,
		OrderID:    offer.OrderID,
		DriverID:   offer.DriverID,
		Round:      offer.Round,
		DistanceKm: offer.DistanceKm,
		Outcome:    string(offer.Outcome),
		OfferedAt:  offer.OfferedAt,
		ExpiresAt:  offer.ExpiresAt,
	}
}

func OfferToEvent(offer *entity.DispatchOffer, orderNumber string) *model.OfferEvent {
	return &model.OfferEvent{
		EventID:     uuid.NewString(),
		OfferID:     offer.ID,
		OrderID:     offer.OrderID,
		OrderNumber: orderNumber,
		DriverID:    offer.DriverID,
		DistanceKm:  offer.DistanceKm,
		ExpiresAt:   offer.ExpiresAt,
	}
}

func AssignmentToEvent(order *entity.Order, driverID string) *model.DriverAssignedEvent {
	return &model.DriverAssignedEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		DriverID:    driverID,
		CustomerID:  order.CustomerID,
		OccurredAt:  time.Now().UTC(),
	}
}
