package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"delivery-service/src/internal/entity"
	"delivery-service/src/pkg/databases/mysql"
)

type OfferRepository struct {
	DB mysql.DBInterface
}

func NewOfferRepository(db mysql.DBInterface) *OfferRepository {
	return &OfferRepository{
		DB: db,
	}
}

const offerColumns = `
	id, order_id, driver_id, round, distance_km, outcome, offered_at, expires_at, decided_at`

func (r *OfferRepository) Create(ctx context.Context, offer *entity.DispatchOffer) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO dispatch_offers (id, order_id, driver_id, round, distance_km, outcome, offered_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		offer.ID, offer.OrderID, offer.DriverID, offer.Round, offer.DistanceKm,
		offer.Outcome, offer.OfferedAt, offer.ExpiresAt,
	)
	return err
}

func (r *OfferRepository) FindByID(ctx context.Context, offerID string) (*entity.DispatchOffer, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var offer entity.DispatchOffer
	err = db.GetContext(ctx, &offer, `SELECT`+offerColumns+` FROM dispatch_offers WHERE id = ?`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *OfferRepository) FindPendingByOrder(ctx context.Context, orderID uint64) (*entity.DispatchOffer, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var offer entity.DispatchOffer
	err = db.GetContext(ctx, &offer, `
		SELECT`+offerColumns+`
		FROM dispatch_offers
		WHERE order_id = ? AND outcome = 'PENDING'
		ORDER BY offered_at DESC
		LIMIT 1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// DecideOutcome moves a PENDING offer to a terminal outcome. Returns false
// when the offer was already decided, which callers treat as losing the race.
func (r *OfferRepository) DecideOutcome(ctx context.Context, offerID string, outcome entity.OfferOutcome) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE dispatch_offers
		SET outcome = ?, decided_at = NOW()
		WHERE id = ? AND outcome = 'PENDING'`,
		outcome, offerID,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Accept performs the full acceptance in one transaction: decide the offer,
// occupy the driver slot, bind the driver to the order. Any failed
// precondition rolls the whole thing back and surfaces a sentinel error so
// the usecase can decide whether to move on to the next candidate.
func (r *OfferRepository) Accept(ctx context.Context, offer *entity.DispatchOffer) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE dispatch_offers
		SET outcome = 'ACCEPTED', decided_at = NOW()
		WHERE id = ? AND outcome = 'PENDING' AND expires_at > NOW()`,
		offer.ID,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return ErrOfferDecided
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE driver_availability
		SET active_order_id = ?, last_assigned_at = NOW(), updated_at = NOW()
		WHERE driver_id = ? AND active_order_id IS NULL AND is_available = 1 AND is_online = 1`,
		offer.OrderID, offer.DriverID,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return ErrDriverBusy
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET driver_id = ?, updated_at = NOW()
		WHERE id = ? AND status = 'READY' AND driver_id IS NULL`,
		offer.DriverID, offer.OrderID,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return ErrOrderNotReady
	}

	return tx.Commit()
}

// CurrentRound returns the highest round number offered so far for the order,
// zero when dispatch has not started.
func (r *OfferRepository) CurrentRound(ctx context.Context, orderID uint64) (int, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return 0, err
	}

	var round sql.NullInt64
	err = db.GetContext(ctx, &round, `SELECT MAX(round) FROM dispatch_offers WHERE order_id = ?`, orderID)
	if err != nil {
		return 0, err
	}
	return int(round.Int64), nil
}

// RecentlyOfferedDriverIDs lists drivers offered this order since the cutoff,
// regardless of outcome. Used for the cooldown exclusion.
func (r *OfferRepository) RecentlyOfferedDriverIDs(ctx context.Context, orderID uint64, since time.Time) ([]string, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var ids []string
	err = db.SelectContext(ctx, &ids, `
		SELECT DISTINCT driver_id
		FROM dispatch_offers
		WHERE order_id = ? AND offered_at >= ?`, orderID, since)
	return ids, err
}

// ExpiredPending returns offers past their deadline that no worker has
// decided yet. The sweeper closes them out.
func (r *OfferRepository) ExpiredPending(ctx context.Context, now time.Time) ([]entity.DispatchOffer, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var offers []entity.DispatchOffer
	err = db.SelectContext(ctx, &offers, `
		SELECT`+offerColumns+`
		FROM dispatch_offers
		WHERE outcome = 'PENDING' AND expires_at <= ?
		ORDER BY expires_at`, now)
	return offers, err
}

// VoidPendingByOrder expires any outstanding offer for the order. Called when
// the order is cancelled mid-dispatch.
func (r *OfferRepository) VoidPendingByOrder(ctx context.Context, orderID uint64) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE dispatch_offers
		SET outcome = 'EXPIRED', decided_at = NOW()
		WHERE order_id = ? AND outcome = 'PENDING'`,
		orderID,
	)
	return err
}
