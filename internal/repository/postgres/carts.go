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

type cartRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sql.DB, logger *zap.Logger) *cartRepository {
	return &cartRepository{
		db:     db,
		logger: logger,
	}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, items, subtotal, tax_rate, tax_amount, grand_total, version, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	var cart domain.Cart
	var itemsJSON []byte

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&itemsJSON,
		&cart.Subtotal,
		&cart.TaxRate,
		&cart.TaxAmount,
		&cart.GrandTotal,
		&cart.Version,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: userID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get cart", zap.Error(err))
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		r.logger.Error("Failed to decode cart items", zap.Error(err))
		return nil, err
	}

	return &cart, nil
}

// Save writes the whole cart document. The items column holds the full line
// item list, so the cart keeps single-document read-modify-write semantics.
// Updates are compare-and-swap on version; a lost race returns ErrConflict.
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}

	now := time.Now()

	if cart.Version == 0 {
		if cart.ID == uuid.Nil {
			cart.ID = uuid.New()
		}
		cart.CreatedAt = now
		cart.UpdatedAt = now
		cart.Version = 1

		query := `
			INSERT INTO carts (id, user_id, items, subtotal, tax_rate, tax_amount, grand_total, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		_, err := r.db.ExecContext(ctx, query,
			cart.ID,
			cart.UserID,
			itemsJSON,
			cart.Subtotal,
			cart.TaxRate,
			cart.TaxAmount,
			cart.GrandTotal,
			cart.Version,
			cart.CreatedAt,
			cart.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert cart", zap.Error(err))
			return err
		}
		return nil
	}

	query := `
		UPDATE carts
		SET items = $3, subtotal = $4, tax_amount = $5, grand_total = $6, version = version + 1, updated_at = $7
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		cart.ID,
		cart.Version,
		itemsJSON,
		cart.Subtotal,
		cart.TaxAmount,
		cart.GrandTotal,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to update cart", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrConflict{Resource: "cart"}
	}

	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (r *cartRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to delete cart", zap.Error(err))
	}
	return err
}
