package service

import "github.com/sparkserve/bookingapi/internal/domain"

// AddOnInput is a catalog add-on reference in a client payload
type AddOnInput struct {
	AddOnID  string  `json:"addon_id" binding:"required"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price" binding:"min=0"`
}

// SubItemInput is a per-piece unit, e.g. one laundry piece
type SubItemInput struct {
	Kind     string  `json:"kind" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price" binding:"min=0"`
}

// FreeFormAddOnInput is a client-described extra with no catalog reference
type FreeFormAddOnInput struct {
	Label    string  `json:"label" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price" binding:"min=0"`
}

// ItemInput is one client-submitted line item, used both for cart appends
// and for inline order item lists. Clients may identify the service by id,
// by name, or only by hints; the resolver sorts it out.
type ItemInput struct {
	ServiceID           string               `json:"service_id"`
	ServiceName         string               `json:"service_name"`
	PackageID           string               `json:"package_id"`
	Quantity            int                  `json:"quantity" binding:"required,min=1"`
	AddOns              []AddOnInput         `json:"addons"`
	LaundryItems        []SubItemInput       `json:"laundry_items"`
	UIAddOns            []FreeFormAddOnInput `json:"ui_addons"`
	VehicleType         string               `json:"vehicle_type"`
	SpecialInstructions string               `json:"special_instructions"`
	Price               *float64             `json:"price,omitempty"`
	Type                string               `json:"type"`
	Category            string               `json:"category"`
	Image               *string              `json:"image,omitempty"`
}

// Descriptor converts the raw input into a resolver descriptor
func (in ItemInput) Descriptor() ItemDescriptor {
	return ItemDescriptor{
		CatalogRef:   domain.Ref(in.ServiceID),
		Name:         in.ServiceName,
		TypeHint:     in.Type,
		CategoryHint: in.Category,
		VehicleHint:  in.VehicleType,
		Price:        in.Price,
		ImageURL:     in.Image,
	}
}

// UpdateCartItemRequest updates quantity, add-ons or instructions on one
// cart line item. A nil field leaves the current value alone; a quantity of
// zero or below removes the item.
type UpdateCartItemRequest struct {
	Quantity            *int         `json:"quantity,omitempty"`
	AddOns              []AddOnInput `json:"addons,omitempty"`
	SpecialInstructions *string      `json:"special_instructions,omitempty"`
}

// SyncCartRequest merges a client-held offline cart into the server cart
type SyncCartRequest struct {
	Items []ItemInput `json:"items" binding:"required"`
}

// CreateOrderRequest creates an order from an explicit item list or, when
// Items is empty, from the caller's persisted cart.
type CreateOrderRequest struct {
	Items          []ItemInput           `json:"items"`
	ServiceAddress domain.ServiceAddress `json:"service_address" binding:"required"`
	ScheduledDate  string                `json:"scheduled_date" binding:"required"`
	ScheduledTime  string                `json:"scheduled_time" binding:"required"`
	PaymentMethod  string                `json:"payment_method" binding:"required"`
	CouponCode     string                `json:"coupon_code"`
	CustomerNotes  string                `json:"customer_notes"`
}

// ReviewRequest submits a rating for a completed order
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// PaymentUpdateRequest is the webhook-style payment status update
type PaymentUpdateRequest struct {
	Status        string `json:"status" binding:"required"`
	TransactionID string `json:"transaction_id"`
}
