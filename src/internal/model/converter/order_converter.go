package converter

import (
	"time"

	"github.com/google/uuid"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
)

func OrderToResponse(order *entity.Order, now time.Time) *model.OrderResponse {
	items := make([]model.OrderItemResponse, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items = append(items, model.OrderItemResponse{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPrice:      item.UnitPrice,
			Quantity:       item.Quantity,
			Subtotal:       item.Subtotal,
			Customizations: item.Customizations,
		})
	}

	reason := ""
	if order.CancellationReason != nil {
		reason = string(*order.CancellationReason)
	}

	return &model.OrderResponse{
		ID:                    order.ID,
		OrderNumber:           order.OrderNumber,
		CustomerID:            order.CustomerID,
		RestaurantID:          order.RestaurantID,
		DriverID:              order.DriverID,
		Status:                string(order.Status),
		Items:                 items,
		DeliveryAddress:       order.DeliveryAddress,
		DeliveryReference:     order.DeliveryReference,
		Subtotal:              order.Subtotal,
		DeliveryFee:           order.DeliveryFee,
		ServiceFee:            order.ServiceFee,
		Tax:                   order.Tax,
		Discount:              order.Discount,
		Tip:                   order.Tip,
		Total:                 order.Total,
		PaymentMethod:         string(order.PaymentMethod),
		IsPaid:                order.IsPaid,
		TotalItems:            order.TotalItems(),
		CanBeCancelled:        order.CanBeCancelled(),
		IsDelayed:             order.IsDelayed(now),
		Escalated:             order.Escalated,
		EstimatedDeliveryTime: order.EstimatedDeliveryTime,
		CancellationReason:    reason,
		CreatedAt:             order.CreatedAt,
		ConfirmedAt:           order.ConfirmedAt,
		PreparingAt:           order.PreparingAt,
		ReadyAt:               order.ReadyAt,
		PickedUpAt:            order.PickedUpAt,
		DeliveredAt:           order.DeliveredAt,
		CancelledAt:           order.CancelledAt,
	}
}

func OrderToStatusEvent(order *entity.Order, previous entity.OrderStatus, notes string) *model.OrderStatusEvent {
	return &model.OrderStatusEvent{
		EventID:        uuid.NewString(),
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		RestaurantID:   order.RestaurantID,
		DriverID:       order.DriverID,
		PreviousStatus: string(previous),
		Status:         string(order.Status),
		Notes:          notes,
		OccurredAt:     time.Now().UTC(),
	}
}

func OrderToEscalatedEvent(order *entity.Order, reason string, rounds int) *model.OrderEscalatedEvent {
	return &model.OrderEscalatedEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      reason,
		Rounds:      rounds,
		OccurredAt:  time.Now().UTC(),
	}
}
