package messaging

import (
	"delivery-service/src/internal/model"
	kafka "delivery-service/src/pkg/kafka/confluent"
	"delivery-service/src/pkg/log"
)

// OrderStatusProducer publishes every committed status transition so
// downstream services (notifications, analytics) can follow the lifecycle.
type OrderStatusProducer struct {
	Producer[*model.OrderStatusEvent]
}

func NewOrderStatusProducer(producer kafka.Producer, logger log.Log) *OrderStatusProducer {
	return &OrderStatusProducer{
		Producer: Producer[*model.OrderStatusEvent]{
			Producer: producer,
			Topic:    "order-status-events",
			Log:      logger,
		},
	}
}

// OrderEscalatedProducer alerts the operations team when dispatch gives up
// or an order sits in PENDING past the SLA.
type OrderEscalatedProducer struct {
	Producer[*model.OrderEscalatedEvent]
}

func NewOrderEscalatedProducer(producer kafka.Producer, logger log.Log) *OrderEscalatedProducer {
	return &OrderEscalatedProducer{
		Producer: Producer[*model.OrderEscalatedEvent]{
			Producer: producer,
			Topic:    "order-escalations",
			Log:      logger,
		},
	}
}
