package usecase

import (
	"context"
	"time"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
	"delivery-service/src/pkg/utils"
)

// Store interfaces are declared on the consumer side so tests can swap in
// in-memory fakes. The concrete repositories satisfy them.

type OrderStore interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uint64) (*entity.Order, error)
	UpdateStatus(ctx context.Context, orderID uint64, from, to entity.OrderStatus) (bool, error)
	Cancel(ctx context.Context, orderID uint64, from entity.OrderStatus, reason entity.CancellationReason, notes string) (bool, error)
	AppendHistory(ctx context.Context, h *entity.OrderStatusHistory) error
	InsertRating(ctx context.Context, rating *entity.OrderRating) error
	ActiveByCustomer(ctx context.Context, customerID string) ([]entity.Order, error)
	HistoryByCustomer(ctx context.Context, customerID string, limit, offset int) ([]entity.Order, error)
	ActiveByDriver(ctx context.Context, driverID string) (*entity.Order, error)
	StuckPending(ctx context.Context, cutoff time.Time) ([]entity.Order, error)
	StalledReady(ctx context.Context) ([]entity.Order, error)
	MarkEscalated(ctx context.Context, orderID uint64) (bool, error)
	ClearEscalation(ctx context.Context, orderID uint64) error
}

type DriverStore interface {
	Get(ctx context.Context, driverID string) (*entity.DriverAvailability, error)
	SetAvailability(ctx context.Context, driverID string, available bool) error
	SetOnline(ctx context.Context, driverID string, online bool) (bool, error)
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error
	NearbyDriverIDs(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]string, error)
	FilterCandidates(ctx context.Context, driverIDs, excluded []string, freshSince time.Time) ([]entity.DispatchCandidate, error)
	Release(ctx context.Context, driverID string, orderID uint64) error
	ReleaseByOrder(ctx context.Context, orderID uint64) error
	InsertIssue(ctx context.Context, issue *entity.DeliveryIssue) error
}

type OfferStore interface {
	Create(ctx context.Context, offer *entity.DispatchOffer) error
	FindByID(ctx context.Context, offerID string) (*entity.DispatchOffer, error)
	FindPendingByOrder(ctx context.Context, orderID uint64) (*entity.DispatchOffer, error)
	DecideOutcome(ctx context.Context, offerID string, outcome entity.OfferOutcome) (bool, error)
	Accept(ctx context.Context, offer *entity.DispatchOffer) error
	CurrentRound(ctx context.Context, orderID uint64) (int, error)
	RecentlyOfferedDriverIDs(ctx context.Context, orderID uint64, since time.Time) ([]string, error)
	ExpiredPending(ctx context.Context, now time.Time) ([]entity.DispatchOffer, error)
	VoidPendingByOrder(ctx context.Context, orderID uint64) error
}

type StatusEventPublisher interface {
	Send(event *model.OrderStatusEvent) error
}

type EscalationPublisher interface {
	Send(event *model.OrderEscalatedEvent) error
}

type OfferPublisher interface {
	Send(event *model.OfferEvent) error
}

type AssignmentPublisher interface {
	Send(event *model.DriverAssignedEvent) error
}

type DispatchQueue interface {
	ScheduleOfferExpiry(offerID string, orderID uint64, delay time.Duration) error
	ScheduleRetry(orderID uint64, delay time.Duration) error
}

type Dispatcher interface {
	RequestDispatch(ctx context.Context, orderID uint64) utils.Result
}
