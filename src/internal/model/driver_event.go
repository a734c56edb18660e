package model

import "time"

// OfferEvent notifies a single driver of an outstanding dispatch offer.
type OfferEvent struct {
	EventID     string    `json:"event_id"`
	OfferID     string    `json:"offer_id"`
	OrderID     uint64    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	DriverID    string    `json:"driver_id"`
	DistanceKm  float64   `json:"distance_km"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (e *OfferEvent) GetId() string {
	return e.EventID
}

// DriverAssignedEvent is published once an offer is accepted and the driver
// is bound to the order.
type DriverAssignedEvent struct {
	EventID     string    `json:"event_id"`
	OrderID     uint64    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	DriverID    string    `json:"driver_id"`
	CustomerID  string    `json:"customer_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e *DriverAssignedEvent) GetId() string {
	return e.EventID
}
