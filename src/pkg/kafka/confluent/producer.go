package kafka

import (
	"fmt"

	k "gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"

	"delivery-service/src/pkg/log"
)

type producer struct {
	kafkaProducer *k.Producer
	log           log.Log
}

func NewProducer(config *k.ConfigMap, logger log.Log) (Producer, error) {
	p, err := k.NewProducer(config)
	if err != nil {
		return nil, err
	}

	pr := &producer{
		kafkaProducer: p,
		log:           logger,
	}

	// Delivery reports are drained in the background; a failed delivery is
	// logged, never surfaced to the caller.
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *k.Message:
				if ev.TopicPartition.Error != nil {
					logger.Error("kafka-producer", fmt.Sprintf("delivery failed: %v", ev.TopicPartition.Error), "delivery-report", "")
				}
			case k.Error:
				logger.Error("kafka-producer", ev.Error(), "event", "")
			}
		}
	}()

	return pr, nil
}

func (p *producer) Publish(message *k.Message) error {
	return p.kafkaProducer.Produce(message, nil)
}
