package entity

import "time"

// DriverAvailability is the single authoritative record per driver.
// Invariants enforced at the write boundary: is_online implies is_available,
// and at most one active (non-terminal) order per driver.
type DriverAvailability struct {
	DriverID       string     `db:"driver_id"`
	IsAvailable    bool       `db:"is_available"`
	IsOnline       bool       `db:"is_online"`
	ActiveOrderID  *uint64    `db:"active_order_id"`
	Latitude       *float64   `db:"latitude"`
	Longitude      *float64   `db:"longitude"`
	LocationAt     *time.Time `db:"location_at"`
	LastSeenAt     time.Time  `db:"last_seen_at"`
	LastAssignedAt *time.Time `db:"last_assigned_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// DispatchCandidate is a row from the candidate query, already filtered for
// availability and location freshness.
type DispatchCandidate struct {
	DriverID       string     `db:"driver_id"`
	Latitude       float64    `db:"latitude"`
	Longitude      float64    `db:"longitude"`
	LastAssignedAt *time.Time `db:"last_assigned_at"`

	// DistanceKm is computed against the restaurant location, not stored.
	DistanceKm float64 `db:"-"`
}

type DeliveryIssue struct {
	ID              uint64     `db:"id"`
	OrderID         uint64     `db:"order_id"`
	IssueType       IssueType  `db:"issue_type"`
	Description     string     `db:"description"`
	ReportedBy      string     `db:"reported_by"`
	IsResolved      bool       `db:"is_resolved"`
	ResolutionNotes string     `db:"resolution_notes"`
	ResolvedAt      *time.Time `db:"resolved_at"`
	CreatedAt       time.Time  `db:"created_at"`
}
