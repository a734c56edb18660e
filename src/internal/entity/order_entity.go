package entity

import "time"

// Money fields are integer minor units (cents). Total is derived, never set
// directly; call ComputeTotal after touching items or fees.
type Order struct {
	ID           uint64      `db:"id"`
	OrderNumber  string      `db:"order_number"`
	CustomerID   string      `db:"customer_id"`
	RestaurantID string      `db:"restaurant_id"`
	DriverID     *string     `db:"driver_id"`
	Status       OrderStatus `db:"status"`

	PickupAddress   string  `db:"pickup_address"`
	PickupLatitude  float64 `db:"pickup_latitude"`
	PickupLongitude float64 `db:"pickup_longitude"`

	DeliveryAddress   string  `db:"delivery_address"`
	DeliveryReference string  `db:"delivery_reference"`
	DeliveryLatitude  float64 `db:"delivery_latitude"`
	DeliveryLongitude float64 `db:"delivery_longitude"`

	Subtotal    int64 `db:"subtotal"`
	DeliveryFee int64 `db:"delivery_fee"`
	ServiceFee  int64 `db:"service_fee"`
	Tax         int64 `db:"tax"`
	Discount    int64 `db:"discount"`
	Tip         int64 `db:"tip"`
	Total       int64 `db:"total"`

	PaymentMethod PaymentMethod `db:"payment_method"`
	IsPaid        bool          `db:"is_paid"`
	PaidAt        *time.Time    `db:"paid_at"`

	SpecialInstructions string              `db:"special_instructions"`
	CancellationReason  *CancellationReason `db:"cancellation_reason"`
	CancellationNotes   *string             `db:"cancellation_notes"`

	EstimatedDeliveryTime *time.Time `db:"estimated_delivery_time"`
	Escalated             bool       `db:"escalated"`
	EscalatedAt           *time.Time `db:"escalated_at"`

	CreatedAt   time.Time  `db:"created_at"`
	ConfirmedAt *time.Time `db:"confirmed_at"`
	PreparingAt *time.Time `db:"preparing_at"`
	ReadyAt     *time.Time `db:"ready_at"`
	PickedUpAt  *time.Time `db:"picked_up_at"`
	DeliveredAt *time.Time `db:"delivered_at"`
	CancelledAt *time.Time `db:"cancelled_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	Items []OrderItem `db:"-"`
}

// ComputeTotal recomputes the derived money fields from the items and fees.
func (o *Order) ComputeTotal() {
	var subtotal int64
	for i := range o.Items {
		o.Items[i].ComputeSubtotal()
		subtotal += o.Items[i].Subtotal
	}
	if len(o.Items) > 0 {
		o.Subtotal = subtotal
	}
	o.Total = o.Subtotal + o.DeliveryFee + o.ServiceFee + o.Tax + o.Tip - o.Discount
}

// CanBeCancelled reports whether the order is still in a cancellable state.
// Once PREPARING begins the restaurant has consumed resources.
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

func (o *Order) IsDelayed(now time.Time) bool {
	if o.EstimatedDeliveryTime == nil || o.Status.IsTerminal() {
		return false
	}
	return now.After(*o.EstimatedDeliveryTime)
}

func (o *Order) TotalItems() int {
	total := 0
	for i := range o.Items {
		total += o.Items[i].Quantity
	}
	return total
}

// OrderItem snapshots name and unit price at order time so later menu edits
// never change historical orders.
type OrderItem struct {
	ID             uint64    `db:"id"`
	OrderID        uint64    `db:"order_id"`
	ProductID      string    `db:"product_id"`
	ProductName    string    `db:"product_name"`
	UnitPrice      int64     `db:"unit_price"`
	Quantity       int       `db:"quantity"`
	Subtotal       int64     `db:"subtotal"`
	Customizations string    `db:"customizations"`
	SpecialNotes   string    `db:"special_notes"`
	CreatedAt      time.Time `db:"created_at"`
}

func (i *OrderItem) ComputeSubtotal() {
	i.Subtotal = i.UnitPrice * int64(i.Quantity)
}

type OrderStatusHistory struct {
	ID        uint64      `db:"id"`
	OrderID   uint64      `db:"order_id"`
	Status    OrderStatus `db:"status"`
	Notes     string      `db:"notes"`
	ChangedBy *string     `db:"changed_by"`
	CreatedAt time.Time   `db:"created_at"`
}

type OrderRating struct {
	ID            uint64    `db:"id"`
	OrderID       uint64    `db:"order_id"`
	OverallRating int       `db:"overall_rating"`
	DriverRating  *int      `db:"driver_rating"`
	DriverComment string    `db:"driver_comment"`
	CreatedAt     time.Time `db:"created_at"`
}
