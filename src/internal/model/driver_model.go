package model

import "time"

type SetAvailabilityRequest struct {
	DriverID    string `json:"-" validate:"required,max=100"`
	IsAvailable *bool  `json:"isAvailable" validate:"required"`
}

type SetOnlineRequest struct {
	DriverID string `json:"-" validate:"required,max=100"`
	IsOnline *bool  `json:"isOnline" validate:"required"`
}

type UpdateLocationRequest struct {
	DriverID  string  `json:"-" validate:"required,max=100"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type ReportIssueRequest struct {
	OrderID     uint64 `json:"-" validate:"required"`
	ReportedBy  string `json:"-" validate:"required,max=100"`
	IssueType   string `json:"issueType" validate:"required,oneof=TRAFFIC WEATHER VEHICLE ACCIDENT WRONG_ADDRESS CUSTOMER_ISSUE RESTAURANT_DELAY OTHER"`
	Description string `json:"description" validate:"required,max=1000"`
}

type DriverStatusResponse struct {
	DriverID      string     `json:"driverId"`
	IsAvailable   bool       `json:"isAvailable"`
	IsOnline      bool       `json:"isOnline"`
	ActiveOrderID *uint64    `json:"activeOrderId,omitempty"`
	LocationAt    *time.Time `json:"locationAt,omitempty"`
}
