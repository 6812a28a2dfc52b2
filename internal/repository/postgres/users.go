package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, name, email, phone, order_count, total_spend, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.OrderCount,
		&user.TotalSpend,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Error(err))
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, order_count, total_spend, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.OrderCount,
		user.TotalSpend,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return err
	}

	return nil
}

func (r *userRepository) IncrementOrderStats(ctx context.Context, id uuid.UUID, amount float64) error {
	query := `
		UPDATE users
		SET order_count = order_count + 1, total_spend = total_spend + $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, amount, time.Now())
	if err != nil {
		r.logger.Error("Failed to increment user order stats", zap.Error(err))
		return err
	}

	return nil
}

type adminKeyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdminKeyRepository creates a new admin key repository
func NewAdminKeyRepository(db *sql.DB, logger *zap.Logger) *adminKeyRepository {
	return &adminKeyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *adminKeyRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.AdminKey, error) {
	// Bcrypt hashes are salted, so there is no direct lookup; iterate the
	// active keys and verify against each hash.
	query := `
		SELECT id, name, api_key_hash, is_active, created_at, updated_at
		FROM admin_keys
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query admin keys", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.AdminKey

		err := rows.Scan(
			&key.ID,
			&key.Name,
			&key.APIKeyHash,
			&key.IsActive,
			&key.CreatedAt,
			&key.UpdatedAt,
		)
		if err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(key.APIKeyHash), []byte(apiKey)); err == nil {
			return &key, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *adminKeyRepository) Create(ctx context.Context, key *domain.AdminKey) error {
	query := `
		INSERT INTO admin_keys (id, name, api_key_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	if key.UpdatedAt.IsZero() {
		key.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.Name,
		key.APIKeyHash,
		key.IsActive,
		key.CreatedAt,
		key.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create admin key", zap.Error(err))
		return err
	}

	return nil
}
