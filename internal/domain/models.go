package domain

import (
	"time"

	"github.com/google/uuid"
)

// Service represents a catalog service entry
type Service struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Category     string
	VehicleClass VehicleClass
	BasePrice    float64
	ImageURL     *string
	ServiceType  string
	DynamicKind  *DynamicKind // set only for auto-provisioned entries
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ServicePackage represents a multi-wash package attached to a service
type ServicePackage struct {
	ID           uuid.UUID
	ServiceID    uuid.UUID
	Name         string
	Price        float64
	DurationDays int
	WashCount    int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AddOn represents a catalog add-on
type AddOn struct {
	ID        uuid.UUID
	Name      string
	Price     float64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref is a client-supplied catalog reference. Persisted cart state may hold
// stale or corrupt refs, so it stays a raw string until resolved; UUID
// reports structural validity.
type Ref string

// UUID parses the ref, returning false for anything that is not a valid id.
func (r Ref) UUID() (uuid.UUID, bool) {
	id, err := uuid.Parse(string(r))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsZero reports whether the ref is absent
func (r Ref) IsZero() bool {
	return r == ""
}

// RefOf builds a ref from a concrete catalog id
func RefOf(id uuid.UUID) Ref {
	return Ref(id.String())
}

// AddOnSelection is a catalog add-on chosen on a line item
type AddOnSelection struct {
	AddOnRef  Ref     `json:"addon_ref"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// SubItem is a per-piece unit priced under a line item, e.g. one laundry piece
type SubItem struct {
	Kind      string  `json:"kind"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// FreeFormAddOn is a client-described extra with no catalog reference
type FreeFormAddOn struct {
	Label     string  `json:"label"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// LineItem is one cart entry. Display metadata (name, image, category, type)
// is echoed back to clients but is never authoritative for pricing.
type LineItem struct {
	ID                  uuid.UUID        `json:"id"`
	ServiceRef          Ref              `json:"service_ref"`
	PackageRef          Ref              `json:"package_ref,omitempty"`
	Quantity            int              `json:"quantity"`
	UnitPrice           float64          `json:"unit_price"`
	AddOns              []AddOnSelection `json:"addons,omitempty"`
	SubItems            []SubItem        `json:"sub_items,omitempty"`
	FreeFormAddOns      []FreeFormAddOn  `json:"freeform_addons,omitempty"`
	Name                string           `json:"name"`
	ImageURL            *string          `json:"image_url,omitempty"`
	Category            string           `json:"category,omitempty"`
	ServiceType         string           `json:"service_type,omitempty"`
	VehicleClass        VehicleClass     `json:"vehicle_class"`
	SpecialInstructions string           `json:"special_instructions,omitempty"`
}

// Cart is the single per-user cart document. Items are exclusively owned by
// the cart; totals are derived and recomputed wholesale on every mutation.
type Cart struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Items      []LineItem
	Subtotal   float64
	TaxRate    float64
	TaxAmount  float64
	GrandTotal float64
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ServiceAddress is where the booked service is performed
type ServiceAddress struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode"`
	Landmark string `json:"landmark,omitempty"`
}

// OrderItem is a denormalized copy of a line item frozen into an order, so
// later catalog edits cannot retroactively alter a placed order.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	ServiceID           *uuid.UUID
	PackageID           *uuid.UUID
	Name                string
	ImageURL            *string
	Quantity            int
	UnitPrice           float64
	AddOns              []AddOnSelection
	SubItems            []SubItem
	FreeFormAddOns      []FreeFormAddOn
	VehicleClass        VehicleClass
	SpecialInstructions string
	CreatedAt           time.Time
}

// Order is an immutable snapshot of a priced cart. Only the status
// lifecycle and post-hoc fields (payment, assignment, review) change after
// creation.
type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	UserID         uuid.UUID
	Status         OrderStatus
	Items          []OrderItem
	Subtotal       float64
	DiscountAmount float64
	TaxRate        float64
	TaxAmount      float64
	TotalAmount    float64
	CouponCode     *string
	ServiceAddress ServiceAddress
	ScheduledDate  string
	ScheduledTime  string
	PaymentMethod  string
	PaymentStatus  PaymentStatus
	TransactionID  *string
	AssignedTo     *string
	CustomerNotes  string
	ReviewRating   *int
	ReviewComment  *string
	ReviewedAt     *time.Time
	CancelledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Coupon represents a discount coupon
type Coupon struct {
	ID                    uuid.UUID
	Code                  string
	DiscountKind          DiscountKind
	DiscountValue         float64
	MinimumOrderAmount    float64
	MaximumDiscountAmount *float64
	ValidFrom             time.Time
	ValidUntil            time.Time
	GlobalUsageLimit      *int
	UsedCount             int
	PerUserUsageLimit     int
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// User holds account identity plus the denormalized order aggregates
// updated best-effort after each successful order.
type User struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Phone      string
	OrderCount int
	TotalSpend float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AdminKey is a hashed admin API credential
type AdminKey struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OutboxMessage is a pending side effect recorded in the same store as the
// order that produced it, delivered asynchronously after commit.
type OutboxMessage struct {
	ID            uuid.UUID
	Topic         string
	Payload       []byte
	Attempts      int
	NextAttemptAt time.Time
	Status        string // pending, delivered, failed
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
