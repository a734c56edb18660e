package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/gateway/scheduler"
	"delivery-service/src/internal/model"
	"delivery-service/src/internal/model/converter"
	"delivery-service/src/internal/repository"
	httpError "delivery-service/src/pkg/http-error"
	"delivery-service/src/pkg/log"
	"delivery-service/src/pkg/utils"
)

// DispatchUseCase runs the offer loop: nearest eligible driver gets a
// time-bounded offer, rejection or expiry moves to the next candidate, and
// after the round limit the order is escalated to operations. All offer
// decisions go through conditional writes so concurrent workers cannot
// double-assign.
type DispatchUseCase struct {
	Log                log.Log
	Validate           *validator.Validate
	Config             *viper.Viper
	OrderRepository    OrderStore
	DriverRepository   DriverStore
	OfferRepository    OfferStore
	OfferProducer      OfferPublisher
	AssignmentProducer AssignmentPublisher
	EscalationProducer EscalationPublisher
	Queue              DispatchQueue
}

func NewDispatchUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	orderRepository OrderStore,
	driverRepository DriverStore,
	offerRepository OfferStore,
	offerProducer OfferPublisher,
	assignmentProducer AssignmentPublisher,
	escalationProducer EscalationPublisher,
	queue DispatchQueue,
) *DispatchUseCase {
	return &DispatchUseCase{
		Log:                logger,
		Validate:           validate,
		Config:             cfg,
		OrderRepository:    orderRepository,
		DriverRepository:   driverRepository,
		OfferRepository:    offerRepository,
		OfferProducer:      offerProducer,
		AssignmentProducer: assignmentProducer,
		EscalationProducer: escalationProducer,
		Queue:              queue,
	}
}

func (c *DispatchUseCase) offerTTL() time.Duration {
	seconds := c.Config.GetInt("dispatch.offer_ttl_seconds")
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

func (c *DispatchUseCase) maxRounds() int {
	rounds := c.Config.GetInt("dispatch.max_rounds")
	if rounds <= 0 {
		rounds = 5
	}
	return rounds
}

func (c *DispatchUseCase) cooldown() time.Duration {
	minutes := c.Config.GetInt("dispatch.cooldown_minutes")
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

func (c *DispatchUseCase) searchRadiusKm() float64 {
	radius := c.Config.GetFloat64("dispatch.radius_km")
	if radius <= 0 {
		radius = 5
	}
	return radius
}

func (c *DispatchUseCase) locationFreshness() time.Duration {
	minutes := c.Config.GetInt("dispatch.location_freshness_minutes")
	if minutes <= 0 {
		minutes = 5
	}
	return time.Duration(minutes) * time.Minute
}

func (c *DispatchUseCase) retryDelay() time.Duration {
	seconds := c.Config.GetInt("dispatch.retry_delay_seconds")
	if seconds <= 0 {
		seconds = 15
	}
	return time.Duration(seconds) * time.Second
}

// RequestDispatch makes the next offer for the order. It is safe to call
// repeatedly: a live pending offer means dispatch is already in flight and
// the call becomes a no-op.
func (c *DispatchUseCase) RequestDispatch(ctx context.Context, orderID uint64) utils.Result {
	var result utils.Result

	order, err := c.OrderRepository.FindByID(ctx, orderID)
	if err != nil {
		if err == repository.ErrNotFound {
			errObj := httpError.NewNotFound()
			errObj.Message = "order not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load order"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to load order: %v", err), "RequestDispatch", "")
		return result
	}

	if order.Status != entity.StatusReady || order.DriverID != nil {
		errObj := httpError.NewOrderNotReady()
		errObj.Message = fmt.Sprintf("order %s is not waiting for dispatch", order.OrderNumber)
		result.Error = errObj
		return result
	}

	now := time.Now().UTC()
	if pending, err := c.OfferRepository.FindPendingByOrder(ctx, order.ID); err == nil {
		if !pending.IsExpired(now) {
			// Offer still live, nothing to do.
			result.Data = converter.OfferToResponse(pending)
			return result
		}
		// Queue lost the expiry task; close it out here and move on.
		if _, err := c.OfferRepository.DecideOutcome(ctx, pending.ID, entity.OfferExpired); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to expire stale offer: %v", err), "RequestDispatch", pending.ID)
		}
	} else if err != repository.ErrNotFound {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to check pending offers"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("pending offer lookup failed: %v", err), "RequestDispatch", order.OrderNumber)
		return result
	}

	round, err := c.OfferRepository.CurrentRound(ctx, order.ID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to determine dispatch round"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("round lookup failed: %v", err), "RequestDispatch", order.OrderNumber)
		return result
	}
	round++

	if round > c.maxRounds() {
		c.escalate(ctx, order, fmt.Sprintf("no driver accepted after %d offers", round-1), round-1)
		errObj := httpError.NewConflict()
		errObj.Message = "dispatch exhausted, order escalated to operations"
		result.Error = errObj
		return result
	}

	candidate, err := c.nextCandidate(ctx, order, now)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to search for drivers"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("candidate search failed: %v", err), "RequestDispatch", order.OrderNumber)
		return result
	}

	if candidate == nil {
		c.Log.Info("dispatch-usecase", "no eligible drivers, retry scheduled", "RequestDispatch", order.OrderNumber)
		if c.readyTooLong(order, now) {
			c.escalate(ctx, order, "no eligible drivers in range", round-1)
		} else if err := c.Queue.ScheduleRetry(order.ID, c.retryDelay()); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to schedule retry: %v", err), "RequestDispatch", order.OrderNumber)
		}
		return result
	}

	offer := &entity.DispatchOffer{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		DriverID:   candidate.DriverID,
		Round:      round,
		DistanceKm: candidate.DistanceKm,
		Outcome:    entity.OfferPending,
		OfferedAt:  now,
		ExpiresAt:  now.Add(c.offerTTL()),
	}
	if err := c.OfferRepository.Create(ctx, offer); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to create offer"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("offer create failed: %v", err), "RequestDispatch", order.OrderNumber)
		return result
	}

	if err := c.OfferProducer.Send(converter.OfferToEvent(offer, order.OrderNumber)); err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to publish offer: %v", err), "RequestDispatch", offer.ID)
	}

	if err := c.Queue.ScheduleOfferExpiry(offer.ID, order.ID, c.offerTTL()); err != nil {
		// The sweeper will close the offer if the queue drops it.
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to schedule expiry: %v", err), "RequestDispatch", offer.ID)
	}

	c.Log.Info("dispatch-usecase", fmt.Sprintf("offer round %d sent to driver %s, %.2f km away", round, candidate.DriverID, candidate.DistanceKm), "RequestDispatch", order.OrderNumber)
	result.Data = converter.OfferToResponse(offer)
	return result
}

// nextCandidate finds the closest eligible driver not in cooldown for this
// order. Ties on distance go to whoever has waited longest since their last
// assignment.
func (c *DispatchUseCase) nextCandidate(ctx context.Context, order *entity.Order, now time.Time) (*entity.DispatchCandidate, error) {
	limit := c.Config.GetInt("dispatch.candidate_limit")
	if limit <= 0 {
		limit = 10
	}

	nearby, err := c.DriverRepository.NearbyDriverIDs(ctx, order.PickupLatitude, order.PickupLongitude, c.searchRadiusKm(), limit)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, nil
	}

	excluded, err := c.OfferRepository.RecentlyOfferedDriverIDs(ctx, order.ID, now.Add(-c.cooldown()))
	if err != nil {
		return nil, err
	}

	candidates, err := c.DriverRepository.FilterCandidates(ctx, nearby, excluded, now.Add(-c.locationFreshness()))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	for i := range candidates {
		candidates[i].DistanceKm = utils.HaversineKm(
			order.PickupLatitude, order.PickupLongitude,
			candidates[i].Latitude, candidates[i].Longitude,
		)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return earlierAssignment(candidates[i].LastAssignedAt, candidates[j].LastAssignedAt)
	})

	return &candidates[0], nil
}

// earlierAssignment orders never-assigned drivers first, then oldest
// last_assigned_at.
func earlierAssignment(a, b *time.Time) bool {
	if a == nil {
		return true
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func (c *DispatchUseCase) readyTooLong(order *entity.Order, now time.Time) bool {
	minutes := c.Config.GetInt("dispatch.no_driver_escalate_minutes")
	if minutes <= 0 {
		minutes = 10
	}
	if order.ReadyAt == nil {
		return false
	}
	return now.Sub(*order.ReadyAt) > time.Duration(minutes)*time.Minute
}

func (c *DispatchUseCase) escalate(ctx context.Context, order *entity.Order, reason string, rounds int) {
	ok, err := c.OrderRepository.MarkEscalated(ctx, order.ID)
	if err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to mark escalated: %v", err), "escalate", order.OrderNumber)
		return
	}
	if !ok {
		// Someone else already escalated; keep the alert single-shot.
		return
	}

	c.Log.Error("dispatch-usecase", fmt.Sprintf("order escalated: %s", reason), "escalate", order.OrderNumber)
	if err := c.EscalationProducer.Send(converter.OrderToEscalatedEvent(order, reason, rounds)); err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to publish escalation: %v", err), "escalate", order.OrderNumber)
	}
}

// RespondToOffer handles a driver's accept or reject. Acceptance is a single
// transaction across offer, driver slot, and order; any precondition failure
// rejects the offer and the loop moves on.
func (c *DispatchUseCase) RespondToOffer(ctx context.Context, request *model.RespondToOfferRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("dispatch-usecase", errObj.Message, "RespondToOffer", utils.ConvertString(err))
		return result
	}

	offer, err := c.OfferRepository.FindByID(ctx, request.OfferID)
	if err != nil {
		if err == repository.ErrNotFound {
			errObj := httpError.NewNotFound()
			errObj.Message = "offer not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to load offer"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("offer lookup failed: %v", err), "RespondToOffer", request.OfferID)
		return result
	}

	if offer.DriverID != request.DriverID {
		errObj := httpError.NewNotFound()
		errObj.Message = "offer not found"
		result.Error = errObj
		return result
	}

	if !*request.Accept {
		return c.rejectOffer(ctx, offer)
	}
	return c.acceptOffer(ctx, offer)
}

func (c *DispatchUseCase) rejectOffer(ctx context.Context, offer *entity.DispatchOffer) utils.Result {
	var result utils.Result

	ok, err := c.OfferRepository.DecideOutcome(ctx, offer.ID, entity.OfferRejected)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to record rejection"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("rejection failed: %v", err), "rejectOffer", offer.ID)
		return result
	}
	if !ok {
		errObj := httpError.NewOfferExpired()
		result.Error = errObj
		return result
	}

	c.Log.Info("dispatch-usecase", fmt.Sprintf("driver %s rejected offer", offer.DriverID), "rejectOffer", offer.ID)
	if err := c.Queue.ScheduleRetry(offer.OrderID, 0); err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to continue dispatch: %v", err), "rejectOffer", offer.ID)
	}

	offer.Outcome = entity.OfferRejected
	result.Data = converter.OfferToResponse(offer)
	return result
}

func (c *DispatchUseCase) acceptOffer(ctx context.Context, offer *entity.DispatchOffer) utils.Result {
	var result utils.Result

	now := time.Now().UTC()
	if offer.IsExpired(now) {
		// The deadline is authoritative even if the expiry task has not
		// fired yet.
		if _, err := c.OfferRepository.DecideOutcome(ctx, offer.ID, entity.OfferExpired); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to expire offer: %v", err), "acceptOffer", offer.ID)
		}
		if err := c.Queue.ScheduleRetry(offer.OrderID, 0); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to continue dispatch: %v", err), "acceptOffer", offer.ID)
		}
		result.Error = httpError.NewOfferExpired()
		return result
	}

	err := c.OfferRepository.Accept(ctx, offer)
	switch err {
	case nil:
	case repository.ErrOfferDecided:
		result.Error = httpError.NewOfferExpired()
		return result
	case repository.ErrDriverBusy:
		// The driver picked up another order between offer and accept.
		// Reject this offer and keep the loop going.
		if _, err := c.OfferRepository.DecideOutcome(ctx, offer.ID, entity.OfferRejected); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to reject busy-driver offer: %v", err), "acceptOffer", offer.ID)
		}
		if err := c.Queue.ScheduleRetry(offer.OrderID, 0); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to continue dispatch: %v", err), "acceptOffer", offer.ID)
		}
		result.Error = httpError.NewAssignmentConflict()
		return result
	case repository.ErrOrderNotReady:
		// Order was cancelled or assigned elsewhere mid-offer.
		if _, err := c.OfferRepository.DecideOutcome(ctx, offer.ID, entity.OfferExpired); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to void offer: %v", err), "acceptOffer", offer.ID)
		}
		result.Error = httpError.NewOrderNotReady()
		return result
	default:
		errObj := httpError.NewInternalServerError()
		errObj.Message = "failed to accept offer"
		result.Error = errObj
		c.Log.Error("dispatch-usecase", fmt.Sprintf("accept failed: %v", err), "acceptOffer", offer.ID)
		return result
	}

	order, err := c.OrderRepository.FindByID(ctx, offer.OrderID)
	if err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to reload order after accept: %v", err), "acceptOffer", offer.ID)
	} else {
		if order.Escalated {
			if err := c.OrderRepository.ClearEscalation(ctx, order.ID); err != nil {
				c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to clear escalation: %v", err), "acceptOffer", order.OrderNumber)
			}
		}

		driverID := offer.DriverID
		if err := c.OrderRepository.AppendHistory(ctx, &entity.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			Notes:     fmt.Sprintf("driver %s assigned", driverID),
			ChangedBy: &driverID,
		}); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to append history: %v", err), "acceptOffer", order.OrderNumber)
		}

		if err := c.AssignmentProducer.Send(converter.AssignmentToEvent(order, offer.DriverID)); err != nil {
			c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to publish assignment: %v", err), "acceptOffer", order.OrderNumber)
		}
	}

	c.Log.Info("dispatch-usecase", fmt.Sprintf("driver %s accepted offer", offer.DriverID), "acceptOffer", offer.ID)

	offer.Outcome = entity.OfferAccepted
	offer.DecidedAt = &now
	result.Data = converter.OfferToResponse(offer)
	return result
}

// HandleOfferExpireTask is the asynq handler fired at the offer deadline.
// Losing the expiry race to an accept is the expected case and not an error.
func (c *DispatchUseCase) HandleOfferExpireTask(ctx context.Context, t *asynq.Task) error {
	var payload scheduler.OfferExpirePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("malformed expire payload: %v", err), "HandleOfferExpireTask", "")
		return nil
	}

	ok, err := c.OfferRepository.DecideOutcome(ctx, payload.OfferID, entity.OfferExpired)
	if err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("failed to expire offer: %v", err), "HandleOfferExpireTask", payload.OfferID)
		return err
	}
	if !ok {
		return nil
	}

	c.Log.Info("dispatch-usecase", "offer expired without response", "HandleOfferExpireTask", payload.OfferID)
	if result := c.RequestDispatch(ctx, payload.OrderID); result.Error != nil && result.Error.Code == httpError.CodeInternal {
		return result.Error
	}
	return nil
}

// HandleDispatchRetryTask re-enters the dispatch loop. Non-retryable
// dispatch outcomes (order no longer READY, escalated) end the task cleanly.
func (c *DispatchUseCase) HandleDispatchRetryTask(ctx context.Context, t *asynq.Task) error {
	var payload scheduler.DispatchRetryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		c.Log.Error("dispatch-usecase", fmt.Sprintf("malformed retry payload: %v", err), "HandleDispatchRetryTask", "")
		return nil
	}

	if result := c.RequestDispatch(ctx, payload.OrderID); result.Error != nil && result.Error.Code == httpError.CodeInternal {
		return result.Error
	}
	return nil
}
