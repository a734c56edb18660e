package entity

import "time"

// DispatchOffer is a time-bounded proposal of one order to one driver.
// The outcome is decided exactly once via a conditional write; expiry is a
// hard deadline compared against ExpiresAt, never against a live timer.
type DispatchOffer struct {
	ID         string       `db:"id"`
	OrderID    uint64       `db:"order_id"`
	DriverID   string       `db:"driver_id"`
	Round      int          `db:"round"`
	DistanceKm float64      `db:"distance_km"`
	Outcome    OfferOutcome `db:"outcome"`
	OfferedAt  time.Time    `db:"offered_at"`
	ExpiresAt  time.Time    `db:"expires_at"`
	DecidedAt  *time.Time   `db:"decided_at"`
}

func (o *DispatchOffer) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
