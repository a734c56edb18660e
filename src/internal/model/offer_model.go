package model

import "time"

type RespondToOfferRequest struct {
	OfferID  string `json:"-" validate:"required,max=100"`
	DriverID string `json:"-" validate:"required,max=100"`
	Accept   *bool  `json:"accept" validate:"required"`
}

type OfferResponse struct {
	ID         string    `json:"id"`
	OrderID    uint64    `json:"orderId"`
	DriverID   string    `json:"driverId"`
	Round      int       `json:"round"`
	DistanceKm float64   `json:"distanceKm"`
	Outcome    string    `json:"outcome"`
	OfferedAt  time.Time `json:"offeredAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
