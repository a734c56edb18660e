package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotal(t *testing.T) {
	order := &Order{
		DeliveryFee: 250,
		ServiceFee:  50,
		Tip:         120,
		Items: []OrderItem{
			{UnitPrice: 300, Quantity: 2},
			{UnitPrice: 400, Quantity: 1},
		},
	}

	order.ComputeTotal()

	assert.Equal(t, int64(1000), order.Subtotal)
	assert.Equal(t, int64(600), order.Items[0].Subtotal)
	assert.Equal(t, int64(400), order.Items[1].Subtotal)
	assert.Equal(t, int64(1420), order.Total)
}

func TestComputeTotalAppliesDiscountAndTax(t *testing.T) {
	order := &Order{
		DeliveryFee: 200,
		Tax:         100,
		Discount:    150,
		Items: []OrderItem{
			{UnitPrice: 500, Quantity: 2},
		},
	}

	order.ComputeTotal()

	assert.Equal(t, int64(1000), order.Subtotal)
	assert.Equal(t, int64(1150), order.Total)
}

func TestComputeTotalKeepsStoredSubtotalWithoutItems(t *testing.T) {
	// Orders loaded without their item rows keep the persisted subtotal.
	order := &Order{Subtotal: 900, DeliveryFee: 100}
	order.ComputeTotal()
	assert.Equal(t, int64(900), order.Subtotal)
	assert.Equal(t, int64(1000), order.Total)
}

func TestCanBeCancelled(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).CanBeCancelled())
	assert.True(t, (&Order{Status: StatusConfirmed}).CanBeCancelled())

	for _, s := range []OrderStatus{
		StatusPreparing, StatusReady, StatusPickedUp,
		StatusInTransit, StatusDelivered, StatusCancelled,
	} {
		assert.False(t, (&Order{Status: s}).CanBeCancelled(), string(s))
	}
}

func TestIsDelayed(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-5 * time.Minute)
	future := now.Add(5 * time.Minute)

	assert.True(t, (&Order{Status: StatusInTransit, EstimatedDeliveryTime: &past}).IsDelayed(now))
	assert.False(t, (&Order{Status: StatusInTransit, EstimatedDeliveryTime: &future}).IsDelayed(now))
	assert.False(t, (&Order{Status: StatusInTransit}).IsDelayed(now))

	// Terminal orders are never delayed, however late they were.
	assert.False(t, (&Order{Status: StatusDelivered, EstimatedDeliveryTime: &past}).IsDelayed(now))
	assert.False(t, (&Order{Status: StatusCancelled, EstimatedDeliveryTime: &past}).IsDelayed(now))
}

func TestTotalItems(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{Quantity: 2},
			{Quantity: 1},
			{Quantity: 4},
		},
	}
	assert.Equal(t, 7, order.TotalItems())
	assert.Equal(t, 0, (&Order{}).TotalItems())
}
