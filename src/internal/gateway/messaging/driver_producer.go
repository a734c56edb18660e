package messaging

import (
	"delivery-service/src/internal/model"
	kafka "delivery-service/src/pkg/kafka/confluent"
	"delivery-service/src/pkg/log"
)

// OfferProducer pushes dispatch offers toward the driver notification
// channel. The driver app is the consumer.
type OfferProducer struct {
	Producer[*model.OfferEvent]
}

func NewOfferProducer(producer kafka.Producer, logger log.Log) *OfferProducer {
	return &OfferProducer{
		Producer: Producer[*model.OfferEvent]{
			Producer: producer,
			Topic:    "dispatch-offers",
			Log:      logger,
		},
	}
}

// DriverAssignedProducer announces a successful assignment to customer and
// restaurant channels.
type DriverAssignedProducer struct {
	Producer[*model.DriverAssignedEvent]
}

func NewDriverAssignedProducer(producer kafka.Producer, logger log.Log) *DriverAssignedProducer {
	return &DriverAssignedProducer{
		Producer: Producer[*model.DriverAssignedEvent]{
			Producer: producer,
			Topic:    "driver-assignments",
			Log:      logger,
		},
	}
}
