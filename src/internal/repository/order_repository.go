package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"delivery-service/src/internal/entity"
	"delivery-service/src/pkg/databases/mysql"
)

type OrderRepository struct {
	DB mysql.DBInterface
}

func NewOrderRepository(db mysql.DBInterface) *OrderRepository {
	return &OrderRepository{
		DB: db,
	}
}

const orderColumns = `
	id, order_number, customer_id, restaurant_id, driver_id, status,
	pickup_address, pickup_latitude, pickup_longitude,
	delivery_address, delivery_reference, delivery_latitude, delivery_longitude,
	subtotal, delivery_fee, service_fee, tax, discount, tip, total,
	payment_method, is_paid, paid_at,
	special_instructions, cancellation_reason, cancellation_notes,
	estimated_delivery_time, escalated, escalated_at,
	created_at, confirmed_at, preparing_at, ready_at, picked_up_at,
	delivered_at, cancelled_at, updated_at`

// Create persists the order, its items, and the initial history row in one
// transaction.
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
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
		INSERT INTO orders (
			order_number, customer_id, restaurant_id, status,
			pickup_address, pickup_latitude, pickup_longitude,
			delivery_address, delivery_reference, delivery_latitude, delivery_longitude,
			subtotal, delivery_fee, service_fee, tax, discount, tip, total,
			payment_method, special_instructions, estimated_delivery_time, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderNumber, order.CustomerID, order.RestaurantID, order.Status,
		order.PickupAddress, order.PickupLatitude, order.PickupLongitude,
		order.DeliveryAddress, order.DeliveryReference, order.DeliveryLatitude, order.DeliveryLongitude,
		order.Subtotal, order.DeliveryFee, order.ServiceFee, order.Tax, order.Discount, order.Tip, order.Total,
		order.PaymentMethod, order.SpecialInstructions, order.EstimatedDeliveryTime, order.CreatedAt, order.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = uint64(id)

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, product_name, unit_price, quantity,
				subtotal, customizations, special_notes, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity,
			item.Subtotal, item.Customizations, item.SpecialNotes, order.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, changed_by, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.Status, "order created", order.CustomerID, order.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint64) (*entity.Order, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var order entity.Order
	err = db.GetContext(ctx, &order, `SELECT`+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := db.SelectContext(ctx, &order.Items, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity,
		       subtotal, customizations, special_notes, created_at
		FROM order_items WHERE order_id = ? ORDER BY id`, id); err != nil {
		return nil, err
	}

	return &order, nil
}

// UpdateStatus performs the status CAS. The matching timestamp column is set
// by the same statement so the transition is a single atomic write. Returns
// false when the order was not in the expected prior status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uint64, from, to entity.OrderStatus) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?,
		    updated_at = NOW(),
		    confirmed_at = CASE WHEN ? = 'CONFIRMED' THEN NOW() ELSE confirmed_at END,
		    preparing_at = CASE WHEN ? = 'PREPARING' THEN NOW() ELSE preparing_at END,
		    ready_at     = CASE WHEN ? = 'READY' THEN NOW() ELSE ready_at END,
		    picked_up_at = CASE WHEN ? = 'PICKED_UP' THEN NOW() ELSE picked_up_at END,
		    delivered_at = CASE WHEN ? = 'DELIVERED' THEN NOW() ELSE delivered_at END
		WHERE id = ? AND status = ?`,
		to, to, to, to, to, to, orderID, from,
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

// Cancel is the CANCELLED variant of the status CAS; it also records the
// reason and notes in the same write.
func (r *OrderRepository) Cancel(ctx context.Context, orderID uint64, from entity.OrderStatus, reason entity.CancellationReason, notes string) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, cancellation_reason = ?, cancellation_notes = ?,
		    cancelled_at = NOW(), updated_at = NOW()
		WHERE id = ? AND status = ?`,
		entity.StatusCancelled, reason, notes, orderID, from,
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

func (r *OrderRepository) AppendHistory(ctx context.Context, h *entity.OrderStatusHistory) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, changed_by, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		h.OrderID, h.Status, h.Notes, h.ChangedBy,
	)
	return err
}

func (r *OrderRepository) InsertRating(ctx context.Context, rating *entity.OrderRating) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO order_ratings (order_id, overall_rating, driver_rating, driver_comment, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		rating.OrderID, rating.OverallRating, rating.DriverRating, rating.DriverComment,
	)
	return err
}

func (r *OrderRepository) ActiveByCustomer(ctx context.Context, customerID string) ([]entity.Order, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	var orders []entity.Order
	err = db.SelectContext(ctx, &orders, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE customer_id = ? AND status NOT IN ('DELIVERED', 'CANCELLED')
		ORDER BY created_at DESC`, customerID)
	return orders, err
}

func (r *OrderRepository) HistoryByCustomer(ctx context.Context, customerID string, limit, offset int) ([]entity.Order, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	var orders []entity.Order
	err = db.SelectContext(ctx, &orders, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE customer_id = ? AND status IN ('DELIVERED', 'CANCELLED')
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, customerID, limit, offset)
	return orders, err
}

func (r *OrderRepository) ActiveByDriver(ctx context.Context, driverID string) (*entity.Order, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	var order entity.Order
	err = db.GetContext(ctx, &order, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE driver_id = ? AND status NOT IN ('DELIVERED', 'CANCELLED')
		ORDER BY created_at DESC
		LIMIT 1`, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// StuckPending returns non-escalated orders waiting for restaurant
// confirmation past the SLA cutoff.
func (r *OrderRepository) StuckPending(ctx context.Context, cutoff time.Time) ([]entity.Order, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	var orders []entity.Order
	err = db.SelectContext(ctx, &orders, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE status = 'PENDING' AND escalated = 0 AND created_at < ?
		ORDER BY created_at`, cutoff)
	return orders, err
}

// StalledReady returns READY orders with no assigned driver and no pending
// offer, i.e. dispatch died somewhere and nobody is working the order.
func (r *OrderRepository) StalledReady(ctx context.Context) ([]entity.Order, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	var orders []entity.Order
	err = db.SelectContext(ctx, &orders, `
		SELECT`+orderColumns+`
		FROM orders o
		WHERE o.status = 'READY'
		  AND o.driver_id IS NULL
		  AND o.escalated = 0
		  AND NOT EXISTS (
			SELECT 1 FROM dispatch_offers f
			WHERE f.order_id = o.id AND f.outcome = 'PENDING' AND f.expires_at > NOW()
		  )
		ORDER BY o.created_at`)
	return orders, err
}

// MarkEscalated flags the order for operators; returns false when it was
// already flagged so duplicate alerts are not emitted.
func (r *OrderRepository) MarkEscalated(ctx context.Context, orderID uint64) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE orders SET escalated = 1, escalated_at = NOW(), updated_at = NOW()
		WHERE id = ? AND escalated = 0`, orderID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ClearEscalation is called when dispatch finally succeeds for a previously
// escalated order.
func (r *OrderRepository) ClearEscalation(ctx context.Context, orderID uint64) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE orders SET escalated = 0, updated_at = NOW() WHERE id = ? AND escalated = 1`, orderID)
	return err
}
