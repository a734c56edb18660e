package model

import "time"

// OrderStatusEvent is published on every committed status transition.
type OrderStatusEvent struct {
	EventID        string    `json:"event_id"`
	OrderID        uint64    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	CustomerID     string    `json:"customer_id"`
	RestaurantID   string    `json:"restaurant_id"`
	DriverID       *string   `json:"driver_id,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (e *OrderStatusEvent) GetId() string {
	return e.EventID
}

// OrderEscalatedEvent flags an order for manual dispatch by operators.
type OrderEscalatedEvent struct {
	EventID     string    `json:"event_id"`
	OrderID     uint64    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
	Rounds      int       `json:"rounds"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e *OrderEscalatedEvent) GetId() string {
	return e.EventID
}
