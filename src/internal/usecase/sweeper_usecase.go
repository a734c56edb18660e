package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model/converter"
	"delivery-service/src/pkg/log"
)

// SweeperUseCase is the reconciliation loop behind the delayed-task queue.
// Timers are best effort; every deadline is also stored in the database, so
// a periodic scan can recover anything a lost task left behind.
type SweeperUseCase struct {
	Log                log.Log
	Config             *viper.Viper
	OrderRepository    OrderStore
	OfferRepository    OfferStore
	Dispatcher         Dispatcher
	EscalationProducer EscalationPublisher
}

func NewSweeperUseCase(
	logger log.Log,
	cfg *viper.Viper,
	orderRepository OrderStore,
	offerRepository OfferStore,
	dispatcher Dispatcher,
	escalationProducer EscalationPublisher,
) *SweeperUseCase {
	return &SweeperUseCase{
		Log:                logger,
		Config:             cfg,
		OrderRepository:    orderRepository,
		OfferRepository:    offerRepository,
		Dispatcher:         dispatcher,
		EscalationProducer: escalationProducer,
	}
}

// Run blocks until ctx is cancelled, sweeping at the configured interval.
func (c *SweeperUseCase) Run(ctx context.Context) {
	seconds := c.Config.GetInt("sweeper.interval_seconds")
	if seconds <= 0 {
		seconds = 30
	}

	ticker := time.NewTicker(time.Duration(seconds) * time.Second)
	defer ticker.Stop()

	c.Log.Info("sweeper", fmt.Sprintf("sweeper started, interval %ds", seconds), "Run", "")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("sweeper", "sweeper stopped", "Run", "")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass. Each sub-step is independent; a
// failure in one does not stop the others.
func (c *SweeperUseCase) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	c.closeExpiredOffers(ctx, now)
	c.restartStalledDispatch(ctx)
	c.escalateStuckPending(ctx, now)
}

// closeExpiredOffers finalizes offers whose deadline passed without a
// decision, then pushes each affected order back into the dispatch loop.
func (c *SweeperUseCase) closeExpiredOffers(ctx context.Context, now time.Time) {
	offers, err := c.OfferRepository.ExpiredPending(ctx, now)
	if err != nil {
		c.Log.Error("sweeper", fmt.Sprintf("expired offer scan failed: %v", err), "closeExpiredOffers", "")
		return
	}

	for i := range offers {
		offer := &offers[i]
		ok, err := c.OfferRepository.DecideOutcome(ctx, offer.ID, entity.OfferExpired)
		if err != nil {
			c.Log.Error("sweeper", fmt.Sprintf("failed to expire offer: %v", err), "closeExpiredOffers", offer.ID)
			continue
		}
		if !ok {
			// A worker or the driver beat us to it.
			continue
		}

		c.Log.Info("sweeper", "closed expired offer", "closeExpiredOffers", offer.ID)
		if result := c.Dispatcher.RequestDispatch(ctx, offer.OrderID); result.Error != nil {
			c.Log.Info("sweeper", fmt.Sprintf("dispatch after expiry: %s", result.Error.Message), "closeExpiredOffers", offer.ID)
		}
	}
}

// restartStalledDispatch re-enters the loop for READY orders that have no
// driver and no live offer.
func (c *SweeperUseCase) restartStalledDispatch(ctx context.Context) {
	orders, err := c.OrderRepository.StalledReady(ctx)
	if err != nil {
		c.Log.Error("sweeper", fmt.Sprintf("stalled order scan failed: %v", err), "restartStalledDispatch", "")
		return
	}

	for i := range orders {
		order := &orders[i]
		c.Log.Info("sweeper", "restarting dispatch for stalled order", "restartStalledDispatch", order.OrderNumber)
		if result := c.Dispatcher.RequestDispatch(ctx, order.ID); result.Error != nil {
			c.Log.Info("sweeper", fmt.Sprintf("dispatch restart: %s", result.Error.Message), "restartStalledDispatch", order.OrderNumber)
		}
	}
}

// escalateStuckPending flags orders the restaurant never confirmed within
// the SLA so operations can intervene.
func (c *SweeperUseCase) escalateStuckPending(ctx context.Context, now time.Time) {
	minutes := c.Config.GetInt("order.pending_sla_minutes")
	if minutes <= 0 {
		minutes = 15
	}

	orders, err := c.OrderRepository.StuckPending(ctx, now.Add(-time.Duration(minutes)*time.Minute))
	if err != nil {
		c.Log.Error("sweeper", fmt.Sprintf("stuck pending scan failed: %v", err), "escalateStuckPending", "")
		return
	}

	for i := range orders {
		order := &orders[i]
		ok, err := c.OrderRepository.MarkEscalated(ctx, order.ID)
		if err != nil {
			c.Log.Error("sweeper", fmt.Sprintf("failed to mark escalated: %v", err), "escalateStuckPending", order.OrderNumber)
			continue
		}
		if !ok {
			continue
		}

		reason := fmt.Sprintf("order unconfirmed for over %d minutes", minutes)
		c.Log.Error("sweeper", fmt.Sprintf("order escalated: %s", reason), "escalateStuckPending", order.OrderNumber)
		if err := c.EscalationProducer.Send(converter.OrderToEscalatedEvent(order, reason, 0)); err != nil {
			c.Log.Error("sweeper", fmt.Sprintf("failed to publish escalation: %v", err), "escalateStuckPending", order.OrderNumber)
		}
	}
}
