package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/viper"

	"delivery-service/src/internal/entity"
	"delivery-service/src/internal/model"
	"delivery-service/src/internal/repository"
	"delivery-service/src/pkg/log"
	"delivery-service/src/pkg/utils"
)

// In-memory stores with the same conditional-write semantics as the SQL
// repositories, so usecase tests can exercise races without a database.

type memOrderStore struct {
	mu      sync.Mutex
	seq     uint64
	orders  map[uint64]*entity.Order
	history []entity.OrderStatusHistory
	ratings []entity.OrderRating
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: map[uint64]*entity.Order{}}
}

func (s *memOrderStore) Create(ctx context.Context, order *entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	order.ID = s.seq
	clone := *order
	s.orders[order.ID] = &clone
	return nil
}

func (s *memOrderStore) FindByID(ctx context.Context, id uint64) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *memOrderStore) UpdateStatus(ctx context.Context, orderID uint64, from, to entity.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	now := time.Now().UTC()
	switch to {
	case entity.StatusConfirmed:
		order.ConfirmedAt = &now
	case entity.StatusPreparing:
		order.PreparingAt = &now
	case entity.StatusReady:
		order.ReadyAt = &now
	case entity.StatusPickedUp:
		order.PickedUpAt = &now
	case entity.StatusDelivered:
		order.DeliveredAt = &now
	}
	return true, nil
}

func (s *memOrderStore) Cancel(ctx context.Context, orderID uint64, from entity.OrderStatus, reason entity.CancellationReason, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || order.Status != from {
		return false, nil
	}
	now := time.Now().UTC()
	order.Status = entity.StatusCancelled
	order.CancellationReason = &reason
	order.CancellationNotes = &notes
	order.CancelledAt = &now
	return true, nil
}

func (s *memOrderStore) AppendHistory(ctx context.Context, h *entity.OrderStatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *h)
	return nil
}

func (s *memOrderStore) InsertRating(ctx context.Context, rating *entity.OrderRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = append(s.ratings, *rating)
	return nil
}

func (s *memOrderStore) ActiveByCustomer(ctx context.Context, customerID string) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID && !order.Status.IsTerminal() {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *memOrderStore) HistoryByCustomer(ctx context.Context, customerID string, limit, offset int) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID && order.Status.IsTerminal() {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *memOrderStore) ActiveByDriver(ctx context.Context, driverID string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.DriverID != nil && *order.DriverID == driverID && !order.Status.IsTerminal() {
			clone := *order
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memOrderStore) StuckPending(ctx context.Context, cutoff time.Time) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if order.Status == entity.StatusPending && !order.Escalated && order.CreatedAt.Before(cutoff) {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *memOrderStore) StalledReady(ctx context.Context) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if order.Status == entity.StatusReady && order.DriverID == nil && !order.Escalated {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *memOrderStore) MarkEscalated(ctx context.Context, orderID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || order.Escalated {
		return false, nil
	}
	order.Escalated = true
	now := time.Now().UTC()
	order.EscalatedAt = &now
	return true, nil
}

func (s *memOrderStore) ClearEscalation(ctx context.Context, orderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[orderID]; ok {
		order.Escalated = false
	}
	return nil
}

func (s *memOrderStore) seed(order *entity.Order) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	order.ID = s.seq
	clone := *order
	s.orders[order.ID] = &clone
	return order.ID
}

type memDriverStore struct {
	mu      sync.Mutex
	drivers map[string]*entity.DriverAvailability
	issues  []entity.DeliveryIssue
}

func newMemDriverStore() *memDriverStore {
	return &memDriverStore{drivers: map[string]*entity.DriverAvailability{}}
}

func (s *memDriverStore) seed(d *entity.DriverAvailability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *d
	s.drivers[d.DriverID] = &clone
}

func (s *memDriverStore) Get(ctx context.Context, driverID string) (*entity.DriverAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	driver, ok := s.drivers[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *driver
	return &clone, nil
}

func (s *memDriverStore) SetAvailability(ctx context.Context, driverID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	driver, ok := s.drivers[driverID]
	if !ok {
		driver = &entity.DriverAvailability{DriverID: driverID}
		s.drivers[driverID] = driver
	}
	driver.IsAvailable = available
	if !available {
		driver.IsOnline = false
	}
	return nil
}

func (s *memDriverStore) SetOnline(ctx context.Context, driverID string, online bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	driver, ok := s.drivers[driverID]
	if !ok {
		return false, nil
	}
	if online && !driver.IsAvailable {
		return false, nil
	}
	driver.IsOnline = online
	return true, nil
}

func (s *memDriverStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	driver, ok := s.drivers[driverID]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Latitude = &lat
	driver.Longitude = &lng
	driver.LocationAt = &at
	return nil
}

func (s *memDriverStore) NearbyDriverIDs(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type hit struct {
		id   string
		dist float64
	}
	var hits []hit
	for _, driver := range s.drivers {
		if driver.Latitude == nil || driver.Longitude == nil {
			continue
		}
		dist := utils.HaversineKm(lat, lng, *driver.Latitude, *driver.Longitude)
		if dist <= radiusKm {
			hits = append(hits, hit{id: driver.DriverID, dist: dist})
		}
	}
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[j].dist < hits[i].dist {
				hits[i], hits[j] = hits[j], hits[i]
			}
		}
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, h.id)
	}
	return ids, nil
}

func (s *memDriverStore) FilterCandidates(ctx context.Context, driverIDs, excluded []string, freshSince time.Time) ([]entity.DispatchCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skip := map[string]bool{}
	for _, id := range excluded {
		skip[id] = true
	}
	var out []entity.DispatchCandidate
	for _, id := range driverIDs {
		driver, ok := s.drivers[id]
		if !ok || skip[id] {
			continue
		}
		if !driver.IsAvailable || !driver.IsOnline || driver.ActiveOrderID != nil {
			continue
		}
		if driver.Latitude == nil || driver.LocationAt == nil || driver.LocationAt.Before(freshSince) {
			continue
		}
		out = append(out, entity.DispatchCandidate{
			DriverID:       driver.DriverID,
			Latitude:       *driver.Latitude,
			Longitude:      *driver.Longitude,
			LastAssignedAt: driver.LastAssignedAt,
		})
	}
	return out, nil
}

func (s *memDriverStore) Release(ctx context.Context, driverID string, orderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if driver, ok := s.drivers[driverID]; ok && driver.ActiveOrderID != nil && *driver.ActiveOrderID == orderID {
		driver.ActiveOrderID = nil
	}
	return nil
}

func (s *memDriverStore) ReleaseByOrder(ctx context.Context, orderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, driver := range s.drivers {
		if driver.ActiveOrderID != nil && *driver.ActiveOrderID == orderID {
			driver.ActiveOrderID = nil
		}
	}
	return nil
}

func (s *memDriverStore) InsertIssue(ctx context.Context, issue *entity.DeliveryIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue.ID = uint64(len(s.issues) + 1)
	s.issues = append(s.issues, *issue)
	return nil
}

// memOfferStore reproduces the accept transaction: all three conditional
// writes succeed or none do.
type memOfferStore struct {
	mu      sync.Mutex
	offers  map[string]*entity.DispatchOffer
	drivers *memDriverStore
	orders  *memOrderStore
}

func newMemOfferStore(drivers *memDriverStore, orders *memOrderStore) *memOfferStore {
	return &memOfferStore{
		offers:  map[string]*entity.DispatchOffer{},
		drivers: drivers,
		orders:  orders,
	}
}

func (s *memOfferStore) Create(ctx context.Context, offer *entity.DispatchOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *offer
	s.offers[offer.ID] = &clone
	return nil
}

func (s *memOfferStore) FindByID(ctx context.Context, offerID string) (*entity.DispatchOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[offerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *offer
	return &clone, nil
}

func (s *memOfferStore) FindPendingByOrder(ctx context.Context, orderID uint64) (*entity.DispatchOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, offer := range s.offers {
		if offer.OrderID == orderID && offer.Outcome == entity.OfferPending {
			clone := *offer
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memOfferStore) DecideOutcome(ctx context.Context, offerID string, outcome entity.OfferOutcome) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[offerID]
	if !ok || offer.Outcome != entity.OfferPending {
		return false, nil
	}
	offer.Outcome = outcome
	now := time.Now().UTC()
	offer.DecidedAt = &now
	return true, nil
}

func (s *memOfferStore) Accept(ctx context.Context, offer *entity.DispatchOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers.mu.Lock()
	defer s.drivers.mu.Unlock()
	s.orders.mu.Lock()
	defer s.orders.mu.Unlock()

	now := time.Now().UTC()
	stored, ok := s.offers[offer.ID]
	if !ok || stored.Outcome != entity.OfferPending || now.After(stored.ExpiresAt) {
		return repository.ErrOfferDecided
	}

	driver, ok := s.drivers.drivers[offer.DriverID]
	if !ok || driver.ActiveOrderID != nil || !driver.IsAvailable || !driver.IsOnline {
		return repository.ErrDriverBusy
	}

	order, ok := s.orders.orders[offer.OrderID]
	if !ok || order.Status != entity.StatusReady || order.DriverID != nil {
		return repository.ErrOrderNotReady
	}

	stored.Outcome = entity.OfferAccepted
	stored.DecidedAt = &now
	orderID := offer.OrderID
	driver.ActiveOrderID = &orderID
	driver.LastAssignedAt = &now
	driverID := offer.DriverID
	order.DriverID = &driverID
	return nil
}

func (s *memOfferStore) CurrentRound(ctx context.Context, orderID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, offer := range s.offers {
		if offer.OrderID == orderID && offer.Round > max {
			max = offer.Round
		}
	}
	return max, nil
}

func (s *memOfferStore) RecentlyOfferedDriverIDs(ctx context.Context, orderID uint64, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, offer := range s.offers {
		if offer.OrderID == orderID && !offer.OfferedAt.Before(since) {
			out = append(out, offer.DriverID)
		}
	}
	return out, nil
}

func (s *memOfferStore) ExpiredPending(ctx context.Context, now time.Time) ([]entity.DispatchOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.DispatchOffer
	for _, offer := range s.offers {
		if offer.Outcome == entity.OfferPending && !offer.ExpiresAt.After(now) {
			out = append(out, *offer)
		}
	}
	return out, nil
}

func (s *memOfferStore) VoidPendingByOrder(ctx context.Context, orderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, offer := range s.offers {
		if offer.OrderID == orderID && offer.Outcome == entity.OfferPending {
			offer.Outcome = entity.OfferExpired
			offer.DecidedAt = &now
		}
	}
	return nil
}

// Event and queue capture fakes.

type capturedStatusEvents struct {
	mu     sync.Mutex
	events []*model.OrderStatusEvent
}

func (c *capturedStatusEvents) Send(event *model.OrderStatusEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type capturedEscalations struct {
	mu     sync.Mutex
	events []*model.OrderEscalatedEvent
}

func (c *capturedEscalations) Send(event *model.OrderEscalatedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type capturedOffers struct {
	mu     sync.Mutex
	events []*model.OfferEvent
}

func (c *capturedOffers) Send(event *model.OfferEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type capturedAssignments struct {
	mu     sync.Mutex
	events []*model.DriverAssignedEvent
}

func (c *capturedAssignments) Send(event *model.DriverAssignedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type scheduledExpiry struct {
	OfferID string
	OrderID uint64
	Delay   time.Duration
}

type scheduledRetry struct {
	OrderID uint64
	Delay   time.Duration
}

type memQueue struct {
	mu       sync.Mutex
	expiries []scheduledExpiry
	retries  []scheduledRetry
}

func (q *memQueue) ScheduleOfferExpiry(offerID string, orderID uint64, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.expiries = append(q.expiries, scheduledExpiry{OfferID: offerID, OrderID: orderID, Delay: delay})
	return nil
}

func (q *memQueue) ScheduleRetry(orderID uint64, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retries = append(q.retries, scheduledRetry{OrderID: orderID, Delay: delay})
	return nil
}

func (q *memQueue) retryCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.retries)
}

func testConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("dispatch.offer_ttl_seconds", 30)
	v.SetDefault("dispatch.max_rounds", 5)
	v.SetDefault("dispatch.radius_km", 5)
	v.SetDefault("dispatch.cooldown_minutes", 10)
	v.SetDefault("dispatch.location_freshness_minutes", 5)
	v.SetDefault("pricing.base_delivery_fee", 200)
	v.SetDefault("pricing.per_km_fee", 50)
	v.SetDefault("pricing.service_fee", 50)
	return v
}

func testLogger() log.Log {
	return log.Log{}
}
