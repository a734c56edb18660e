package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"delivery-service/src/pkg/log"
)

const (
	TypeOfferExpire   = "dispatch:offer-expire"
	TypeDispatchRetry = "dispatch:retry"
)

type OfferExpirePayload struct {
	OfferID string `json:"offer_id"`
	OrderID uint64 `json:"order_id"`
}

type DispatchRetryPayload struct {
	OrderID uint64 `json:"order_id"`
}

// DispatchScheduler enqueues delayed dispatch tasks. The asynq worker picks
// them up after the delay; the periodic sweeper backstops anything the queue
// loses.
type DispatchScheduler struct {
	Client *asynq.Client
	Log    log.Log
}

func NewDispatchScheduler(client *asynq.Client, logger log.Log) *DispatchScheduler {
	return &DispatchScheduler{
		Client: client,
		Log:    logger,
	}
}

// ScheduleOfferExpiry fires TypeOfferExpire once the offer deadline passes.
func (s *DispatchScheduler) ScheduleOfferExpiry(offerID string, orderID uint64, delay time.Duration) error {
	payload, err := json.Marshal(OfferExpirePayload{OfferID: offerID, OrderID: orderID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeOfferExpire, payload)
	info, err := s.Client.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3))
	if err != nil {
		s.Log.Error("dispatch-scheduler", fmt.Sprintf("failed to enqueue offer expiry: %v", err), "ScheduleOfferExpiry", offerID)
		return err
	}

	s.Log.Info("dispatch-scheduler", fmt.Sprintf("offer expiry scheduled, task id %s", info.ID), "ScheduleOfferExpiry", offerID)
	return nil
}

// ScheduleRetry re-enters the dispatch loop for the order after the delay.
func (s *DispatchScheduler) ScheduleRetry(orderID uint64, delay time.Duration) error {
	payload, err := json.Marshal(DispatchRetryPayload{OrderID: orderID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeDispatchRetry, payload)
	info, err := s.Client.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3))
	if err != nil {
		s.Log.Error("dispatch-scheduler", fmt.Sprintf("failed to enqueue dispatch retry: %v", err), "ScheduleRetry", "")
		return err
	}

	s.Log.Info("dispatch-scheduler", fmt.Sprintf("dispatch retry scheduled, task id %s", info.ID), "ScheduleRetry", "")
	return nil
}
