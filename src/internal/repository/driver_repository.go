package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"delivery-service/src/internal/entity"
	"delivery-service/src/pkg/databases/mysql"
)

const driversLocationKey = "drivers-locations"

// DriverRepository keeps the authoritative availability row in MySQL and
// mirrors last known positions into a Redis GEO index for radius lookups.
type DriverRepository struct {
	DB    mysql.DBInterface
	Redis redis.UniversalClient
}

func NewDriverRepository(db mysql.DBInterface, redisClient redis.UniversalClient) *DriverRepository {
	return &DriverRepository{
		DB:    db,
		Redis: redisClient,
	}
}

func (r *DriverRepository) Get(ctx context.Context, driverID string) (*entity.DriverAvailability, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var driver entity.DriverAvailability
	err = db.GetContext(ctx, &driver, `
		SELECT driver_id, is_available, is_online, active_order_id,
		       latitude, longitude, location_at, last_seen_at, last_assigned_at, updated_at
		FROM driver_availability WHERE driver_id = ?`, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// SetAvailability upserts the row. Turning availability off also forces the
// driver offline, keeping the is_online implies is_available invariant.
func (r *DriverRepository) SetAvailability(ctx context.Context, driverID string, available bool) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO driver_availability (driver_id, is_available, is_online, last_seen_at, updated_at)
		VALUES (?, ?, 0, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			is_available = VALUES(is_available),
			is_online = IF(VALUES(is_available) = 0, 0, is_online),
			last_seen_at = NOW(),
			updated_at = NOW()`,
		driverID, available,
	)
	return err
}

// SetOnline flips the online flag. Going online is conditional on the driver
// being available; zero rows affected means the precondition failed.
func (r *DriverRepository) SetOnline(ctx context.Context, driverID string, online bool) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	var res sql.Result
	if online {
		res, err = db.ExecContext(ctx, `
			UPDATE driver_availability
			SET is_online = 1, last_seen_at = NOW(), updated_at = NOW()
			WHERE driver_id = ? AND is_available = 1`, driverID)
	} else {
		res, err = db.ExecContext(ctx, `
			UPDATE driver_availability
			SET is_online = 0, last_seen_at = NOW(), updated_at = NOW()
			WHERE driver_id = ?`, driverID)
	}
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateLocation stores the ping in MySQL and refreshes the GEO index entry.
func (r *DriverRepository) UpdateLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		UPDATE driver_availability
		SET latitude = ?, longitude = ?, location_at = ?, last_seen_at = NOW(), updated_at = NOW()
		WHERE driver_id = ?`,
		lat, lng, at, driverID,
	)
	if err != nil {
		return err
	}

	return r.Redis.GeoAdd(ctx, driversLocationKey, &redis.GeoLocation{
		Name:      driverID,
		Latitude:  lat,
		Longitude: lng,
	}).Err()
}

// NearbyDriverIDs queries the GEO index for drivers within radiusKm of the
// pickup point, nearest first.
func (r *DriverRepository) NearbyDriverIDs(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]string, error) {
	locations, err := r.Redis.GeoSearchLocation(ctx, driversLocationKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Latitude:   lat,
			Longitude:  lng,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(locations))
	for _, loc := range locations {
		ids = append(ids, loc.Name)
	}
	return ids, nil
}

// FilterCandidates re-checks the GEO hits against the authoritative rows:
// available, online, no active order, and a fresh enough location ping.
// Drivers in excluded (cooldown) are dropped.
func (r *DriverRepository) FilterCandidates(ctx context.Context, driverIDs, excluded []string, freshSince time.Time) ([]entity.DispatchCandidate, error) {
	if len(driverIDs) == 0 {
		return nil, nil
	}

	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT driver_id, latitude, longitude, last_assigned_at
		FROM driver_availability
		WHERE driver_id IN (?)
		  AND is_available = 1
		  AND is_online = 1
		  AND active_order_id IS NULL
		  AND latitude IS NOT NULL
		  AND location_at >= ?`
	args := []interface{}{driverIDs, freshSince}

	if len(excluded) > 0 {
		query += ` AND driver_id NOT IN (?)`
		args = append(args, excluded)
	}

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	var candidates []entity.DispatchCandidate
	err = db.SelectContext(ctx, &candidates, db.Rebind(query), inArgs...)
	return candidates, err
}

// Release frees the driver slot if it still holds the given order.
func (r *DriverRepository) Release(ctx context.Context, driverID string, orderID uint64) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE driver_availability
		SET active_order_id = NULL, updated_at = NOW()
		WHERE driver_id = ? AND active_order_id = ?`,
		driverID, orderID,
	)
	return err
}

// ReleaseByOrder frees whichever driver is holding the order. Used on
// cancellation paths where the caller only has the order.
func (r *DriverRepository) ReleaseByOrder(ctx context.Context, orderID uint64) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE driver_availability
		SET active_order_id = NULL, updated_at = NOW()
		WHERE active_order_id = ?`,
		orderID,
	)
	return err
}

func (r *DriverRepository) InsertIssue(ctx context.Context, issue *entity.DeliveryIssue) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO delivery_issues (order_id, issue_type, description, reported_by, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		issue.OrderID, issue.IssueType, issue.Description, issue.ReportedBy,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	issue.ID = uint64(id)
	return nil
}
