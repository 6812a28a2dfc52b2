package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sparkserve/bookingapi/internal/domain"
)

// CatalogRepository exposes read access over the service catalog plus the
// upsert path used by auto-provisioning.
type CatalogRepository interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)
	// SearchServicesByName returns active services whose name contains the
	// given fragment, case-insensitive.
	SearchServicesByName(ctx context.Context, fragment string) ([]domain.Service, error)
	GetServiceByExactName(ctx context.Context, name string) (*domain.Service, error)
	// GetFallbackService returns the default catalog entry for a vehicle class.
	GetFallbackService(ctx context.Context, class domain.VehicleClass) (*domain.Service, error)
	CreateService(ctx context.Context, svc *domain.Service) error
	UpdateService(ctx context.Context, svc *domain.Service) error
	ListServices(ctx context.Context) ([]domain.Service, error)

	GetPackageByID(ctx context.Context, id uuid.UUID) (*domain.ServicePackage, error)
	CreatePackage(ctx context.Context, pkg *domain.ServicePackage) error

	GetAddOnByID(ctx context.Context, id uuid.UUID) (*domain.AddOn, error)
	CreateAddOn(ctx context.Context, addOn *domain.AddOn) error
}

// CartRepository persists the single per-user cart document.
type CartRepository interface {
	// GetByUserID returns ErrNotFound when the user has no cart.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// Save writes the whole cart document. A cart with Version 0 is
	// inserted; otherwise the write is compare-and-swap on Version and
	// returns ErrConflict when the stored version moved.
	Save(ctx context.Context, cart *domain.Cart) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// OrderRepository persists immutable order snapshots and their constrained
// post-creation updates.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, assignedTo *string) error
	UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID *string) error
	Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time, paymentStatus domain.PaymentStatus) error
	SetReview(ctx context.Context, id uuid.UUID, rating int, comment string, reviewedAt time.Time) error
	// CountCouponUsesByUser counts past orders of the user that redeemed
	// the given coupon code.
	CountCouponUsesByUser(ctx context.Context, userID uuid.UUID, code string) (int, error)
}

// CouponRepository persists coupons and their redemption counters.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// Redeem increments used_count by one, guarded against the global
	// usage limit in the same statement. Returns ErrPolicyViolation when
	// the coupon is already exhausted.
	Redeem(ctx context.Context, code string) error
	Create(ctx context.Context, coupon *domain.Coupon) error
}

// UserRepository persists accounts and their order aggregates.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	// IncrementOrderStats bumps order_count and total_spend.
	IncrementOrderStats(ctx context.Context, id uuid.UUID, amount float64) error
}

// AdminKeyRepository verifies admin API credentials.
type AdminKeyRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.AdminKey, error)
	Create(ctx context.Context, key *domain.AdminKey) error
}

// OutboxRepository persists pending side effects for asynchronous delivery.
type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
	FetchDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxMessage, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository implementations
type Repositories struct {
	Catalog   CatalogRepository
	Carts     CartRepository
	Orders    OrderRepository
	Coupons   CouponRepository
	Users     UserRepository
	AdminKeys AdminKeyRepository
	Outbox    OutboxRepository
}
