package model

import "time"

type OrderItemRequest struct {
	ProductID      string `json:"productId" validate:"required,max=100"`
	ProductName    string `json:"productName" validate:"required,max=200"`
	UnitPrice      int64  `json:"unitPrice" validate:"gte=0"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	Customizations string `json:"customizations,omitempty" validate:"max=500"`
	SpecialNotes   string `json:"specialNotes,omitempty" validate:"max=500"`
}

type CreateOrderRequest struct {
	CustomerID          string             `json:"-" validate:"required,max=100"`
	RestaurantID        string             `json:"restaurantId" validate:"required,max=100"`
	PickupAddress       string             `json:"pickupAddress" validate:"required"`
	PickupLatitude      float64            `json:"pickupLatitude" validate:"latitude"`
	PickupLongitude     float64            `json:"pickupLongitude" validate:"longitude"`
	Items               []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress     string             `json:"deliveryAddress" validate:"required"`
	DeliveryReference   string             `json:"deliveryReference,omitempty" validate:"max=255"`
	DeliveryLatitude    float64            `json:"deliveryLatitude" validate:"latitude"`
	DeliveryLongitude   float64            `json:"deliveryLongitude" validate:"longitude"`
	PaymentMethod       string             `json:"paymentMethod" validate:"required,oneof=CASH CARD ONLINE"`
	Tip                 int64              `json:"tip" validate:"gte=0"`
	Discount            int64              `json:"discount" validate:"gte=0"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
}

type TransitionOrderRequest struct {
	OrderID uint64 `json:"-" validate:"required"`
	Status  string `json:"status" validate:"required"`
	Actor   string `json:"-" validate:"required"`
	Notes   string `json:"notes,omitempty" validate:"max=500"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"-" validate:"required"`
	Actor   string `json:"-" validate:"required"`
	Reason  string `json:"reason" validate:"required,oneof=CUSTOMER_REQUEST RESTAURANT_CLOSED OUT_OF_STOCK DRIVER_UNAVAILABLE PAYMENT_FAILED OTHER"`
	Notes   string `json:"notes,omitempty" validate:"max=500"`
}

type RateOrderRequest struct {
	OrderID       uint64 `json:"-" validate:"required"`
	CustomerID    string `json:"-" validate:"required"`
	OverallRating int    `json:"overallRating" validate:"required,min=1,max=5"`
	DriverRating  *int   `json:"driverRating,omitempty" validate:"omitempty,min=1,max=5"`
	DriverComment string `json:"driverComment,omitempty" validate:"max=500"`
}

type OrderDetailRequest struct {
	OrderID uint64 `json:"-" validate:"required"`
	UserID  string `json:"-" validate:"required"`
}

type OrderListRequest struct {
	UserID string `json:"-" validate:"required"`
	Limit  int    `json:"-" validate:"gte=0,lte=100"`
	Offset int    `json:"-" validate:"gte=0"`
}

type OrderItemResponse struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	UnitPrice      int64  `json:"unitPrice"`
	Quantity       int    `json:"quantity"`
	Subtotal       int64  `json:"subtotal"`
	Customizations string `json:"customizations,omitempty"`
}

type OrderResponse struct {
	ID                    uint64              `json:"id"`
	OrderNumber           string              `json:"orderNumber"`
	CustomerID            string              `json:"customerId"`
	RestaurantID          string              `json:"restaurantId"`
	DriverID              *string             `json:"driverId,omitempty"`
	Status                string              `json:"status"`
	Items                 []OrderItemResponse `json:"items,omitempty"`
	DeliveryAddress       string              `json:"deliveryAddress"`
	DeliveryReference     string              `json:"deliveryReference,omitempty"`
	Subtotal              int64               `json:"subtotal"`
	DeliveryFee           int64               `json:"deliveryFee"`
	ServiceFee            int64               `json:"serviceFee"`
	Tax                   int64               `json:"tax"`
	Discount              int64               `json:"discount"`
	Tip                   int64               `json:"tip"`
	Total                 int64               `json:"total"`
	PaymentMethod         string              `json:"paymentMethod"`
	IsPaid                bool                `json:"isPaid"`
	TotalItems            int                 `json:"totalItems"`
	CanBeCancelled        bool                `json:"canBeCancelled"`
	IsDelayed             bool                `json:"isDelayed"`
	Escalated             bool                `json:"escalated"`
	EstimatedDeliveryTime *time.Time          `json:"estimatedDeliveryTime,omitempty"`
	CancellationReason    string              `json:"cancellationReason,omitempty"`
	CreatedAt             time.Time           `json:"createdAt"`
	ConfirmedAt           *time.Time          `json:"confirmedAt,omitempty"`
	PreparingAt           *time.Time          `json:"preparingAt,omitempty"`
	ReadyAt               *time.Time          `json:"readyAt,omitempty"`
	PickedUpAt            *time.Time          `json:"pickedUpAt,omitempty"`
	DeliveredAt           *time.Time          `json:"deliveredAt,omitempty"`
	CancelledAt           *time.Time          `json:"cancelledAt,omitempty"`
}

type TrackOrderResponse struct {
	OrderID   uint64     `json:"orderId"`
	Status    string     `json:"status"`
	DriverID  *string    `json:"driverId,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
