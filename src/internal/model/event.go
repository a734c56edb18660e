package model

// Event is anything the generic messaging producer can publish; GetId is used
// as the Kafka message key.
type Event interface {
	GetId() string
}
