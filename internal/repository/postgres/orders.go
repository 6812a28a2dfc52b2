package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	addressJSON, err := json.Marshal(order.ServiceAddress)
	if err != nil {
		return err
	}

	orderQuery := `
		INSERT INTO orders (id, order_number, user_id, status, subtotal, discount_amount, tax_rate, tax_amount, total_amount, coupon_code, service_address, scheduled_date, scheduled_time, payment_method, payment_status, transaction_id, customer_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.Subtotal,
		order.DiscountAmount,
		order.TaxRate,
		order.TaxAmount,
		order.TotalAmount,
		order.CouponCode,
		addressJSON,
		order.ScheduledDate,
		order.ScheduledTime,
		order.PaymentMethod,
		order.PaymentStatus,
		order.TransactionID,
		order.CustomerNotes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, service_id, package_id, name, image_url, quantity, unit_price, addons, sub_items, freeform_addons, vehicle_class, special_instructions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}

		addonsJSON, merr := json.Marshal(emptySliceIfNil(item.AddOns))
		if merr != nil {
			err = merr
			return err
		}
		subItemsJSON, merr := json.Marshal(emptySliceIfNil(item.SubItems))
		if merr != nil {
			err = merr
			return err
		}
		freeFormJSON, merr := json.Marshal(emptySliceIfNil(item.FreeFormAddOns))
		if merr != nil {
			err = merr
			return err
		}

		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ServiceID,
			item.PackageID,
			item.Name,
			item.ImageURL,
			item.Quantity,
			item.UnitPrice,
			addonsJSON,
			subItemsJSON,
			freeFormJSON,
			item.VehicleClass,
			item.SpecialInstructions,
			item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err))
			return err
		}
	}

	err = tx.Commit()
	return err
}

func emptySliceIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

const orderColumns = `id, order_number, user_id, status, subtotal, discount_amount, tax_rate, tax_amount, total_amount, coupon_code, service_address, scheduled_date, scheduled_time, payment_method, payment_status, transaction_id, assigned_to, customer_notes, review_rating, review_comment, reviewed_at, cancelled_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	var order domain.Order
	var addressJSON []byte
	var couponCode, transactionID, assignedTo, reviewComment sql.NullString
	var reviewRating sql.NullInt64
	var reviewedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.TaxRate,
		&order.TaxAmount,
		&order.TotalAmount,
		&couponCode,
		&addressJSON,
		&order.ScheduledDate,
		&order.ScheduledTime,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&transactionID,
		&assignedTo,
		&order.CustomerNotes,
		&reviewRating,
		&reviewComment,
		&reviewedAt,
		&cancelledAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addressJSON, &order.ServiceAddress); err != nil {
		return nil, err
	}

	if couponCode.Valid {
		order.CouponCode = &couponCode.String
	}
	if transactionID.Valid {
		order.TransactionID = &transactionID.String
	}
	if assignedTo.Valid {
		order.AssignedTo = &assignedTo.String
	}
	if reviewRating.Valid {
		rating := int(reviewRating.Int64)
		order.ReviewRating = &rating
	}
	if reviewComment.Valid {
		order.ReviewComment = &reviewComment.String
	}
	if reviewedAt.Valid {
		order.ReviewedAt = &reviewedAt.Time
	}
	if cancelledAt.Valid {
		order.CancelledAt = &cancelledAt.Time
	}

	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) getItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, service_id, package_id, name, image_url, quantity, unit_price, addons, sub_items, freeform_addons, vehicle_class, special_instructions, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var serviceID, packageID uuid.NullUUID
		var imageURL sql.NullString
		var addonsJSON, subItemsJSON, freeFormJSON []byte

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&serviceID,
			&packageID,
			&item.Name,
			&imageURL,
			&item.Quantity,
			&item.UnitPrice,
			&addonsJSON,
			&subItemsJSON,
			&freeFormJSON,
			&item.VehicleClass,
			&item.SpecialInstructions,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if serviceID.Valid {
			item.ServiceID = &serviceID.UUID
		}
		if packageID.Valid {
			item.PackageID = &packageID.UUID
		}
		if imageURL.Valid {
			item.ImageURL = &imageURL.String
		}
		if err := json.Unmarshal(addonsJSON, &item.AddOns); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(subItemsJSON, &item.SubItems); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(freeFormJSON, &item.FreeFormAddOns); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, status, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.getItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, assignedTo *string) error {
	query := `
		UPDATE orders
		SET status = $2, assigned_to = COALESCE($3, assigned_to), updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, assignedTo, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID *string) error {
	query := `
		UPDATE orders
		SET payment_status = $2, transaction_id = COALESCE($3, transaction_id), updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, transactionID, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order payment", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time, paymentStatus domain.PaymentStatus) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, cancelled_at = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, domain.OrderStatusCancelled, paymentStatus, cancelledAt, time.Now())
	if err != nil {
		r.logger.Error("Failed to cancel order", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) SetReview(ctx context.Context, id uuid.UUID, rating int, comment string, reviewedAt time.Time) error {
	query := `
		UPDATE orders
		SET review_rating = $2, review_comment = $3, reviewed_at = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, rating, comment, reviewedAt, time.Now())
	if err != nil {
		r.logger.Error("Failed to set order review", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) CountCouponUsesByUser(ctx context.Context, userID uuid.UUID, code string) (int, error) {
	// Cancelled orders still count: cancellation never reverses coupon usage.
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE user_id = $1 AND coupon_code = $2
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, code).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count coupon uses", zap.Error(err))
		return 0, err
	}

	return count, nil
}
