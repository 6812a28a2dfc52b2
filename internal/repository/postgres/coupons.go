package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

type couponRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *sql.DB, logger *zap.Logger) *couponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, discount_kind, discount_value, minimum_order_amount, maximum_discount_amount, valid_from, valid_until, global_usage_limit, used_count, per_user_usage_limit, is_active, created_at, updated_at
		FROM coupons
		WHERE UPPER(code) = UPPER($1)
	`

	var coupon domain.Coupon
	var maxDiscount sql.NullFloat64
	var globalLimit sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.DiscountKind,
		&coupon.DiscountValue,
		&coupon.MinimumOrderAmount,
		&maxDiscount,
		&coupon.ValidFrom,
		&coupon.ValidUntil,
		&globalLimit,
		&coupon.UsedCount,
		&coupon.PerUserUsageLimit,
		&coupon.IsActive,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: code}
	}
	if err != nil {
		r.logger.Error("Failed to get coupon by code", zap.Error(err))
		return nil, err
	}

	if maxDiscount.Valid {
		coupon.MaximumDiscountAmount = &maxDiscount.Float64
	}
	if globalLimit.Valid {
		limit := int(globalLimit.Int64)
		coupon.GlobalUsageLimit = &limit
	}

	return &coupon, nil
}

// Redeem performs an atomic increment-with-guard so two near-simultaneous
// orders cannot over-redeem a nearly exhausted coupon.
func (r *couponRepository) Redeem(ctx context.Context, code string) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = $2
		WHERE UPPER(code) = UPPER($1)
		  AND (global_usage_limit IS NULL OR used_count < global_usage_limit)
	`

	result, err := r.db.ExecContext(ctx, query, code, time.Now())
	if err != nil {
		r.logger.Error("Failed to redeem coupon", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrPolicyViolation{Reason: "coupon usage limit exceeded"}
	}

	return nil
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, discount_kind, discount_value, minimum_order_amount, maximum_discount_amount, valid_from, valid_until, global_usage_limit, used_count, per_user_usage_limit, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	now := time.Now()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = now
	}
	if coupon.UpdatedAt.IsZero() {
		coupon.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.DiscountKind,
		coupon.DiscountValue,
		coupon.MinimumOrderAmount,
		coupon.MaximumDiscountAmount,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.GlobalUsageLimit,
		coupon.UsedCount,
		coupon.PerUserUsageLimit,
		coupon.IsActive,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create coupon", zap.Error(err))
		return err
	}

	return nil
}
