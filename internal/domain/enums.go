package domain

import "strings"

// OrderStatus represents the status of a booking order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusAssigned   OrderStatus = "ASSIGNED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusAssigned,
		OrderStatusInProgress,
		OrderStatusCompleted,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusConfirmed ||
			newStatus == OrderStatusCancelled
	case OrderStatusConfirmed:
		return newStatus == OrderStatusAssigned ||
			newStatus == OrderStatusCancelled
	case OrderStatusAssigned:
		return newStatus == OrderStatusInProgress
	case OrderStatusInProgress:
		return newStatus == OrderStatusCompleted
	case OrderStatusCompleted, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// PaymentStatus tracks the payment lifecycle of an order
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusCompleted     PaymentStatus = "COMPLETED"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusRefundPending PaymentStatus = "REFUND_PENDING"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending,
		PaymentStatusCompleted,
		PaymentStatusFailed,
		PaymentStatusRefundPending,
		PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// DiscountKind is the coupon discount type
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "PERCENTAGE"
	DiscountFixed      DiscountKind = "FIXED"
)

// VehicleClass is the normalized vehicle category a service applies to
type VehicleClass string

const (
	VehicleTwoWheeler   VehicleClass = "TWO_WHEELER"
	VehicleHatchback    VehicleClass = "HATCHBACK"
	VehicleSedan        VehicleClass = "SEDAN"
	VehicleSUV          VehicleClass = "SUV"
	VehicleClassUnknown VehicleClass = "UNKNOWN"
)

// NormalizeVehicleClass maps free-form client vehicle strings to the
// canonical enum. Unrecognized input normalizes to UNKNOWN rather than
// failing, so display-only metadata never blocks a cart operation.
func NormalizeVehicleClass(raw string) VehicleClass {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "bike" || v == "scooter" || v == "motorcycle" || strings.Contains(v, "two"):
		return VehicleTwoWheeler
	case v == "hatchback" || v == "hatch back":
		return VehicleHatchback
	case v == "sedan" || v == "saloon":
		return VehicleSedan
	case strings.Contains(v, "suv") || v == "muv":
		return VehicleSUV
	default:
		return VehicleClassUnknown
	}
}

// DynamicKind identifies a service category that is not pre-seeded in the
// catalog but is recognized by name/type pattern and auto-provisioned on
// first use.
type DynamicKind string

const (
	DynamicSubscription    DynamicKind = "SUBSCRIPTION_PLAN"
	DynamicGearWash        DynamicKind = "GEAR_WASH"
	DynamicAccessory       DynamicKind = "ACCESSORY"
	DynamicVehicleCheckup  DynamicKind = "VEHICLE_CHECKUP"
	DynamicPollutionCert   DynamicKind = "POLLUTION_CERTIFICATE"
	DynamicInsuranceAssist DynamicKind = "INSURANCE_ASSIST"
)

// AllDynamicKinds lists every recognized dynamic category
var AllDynamicKinds = []DynamicKind{
	DynamicSubscription,
	DynamicGearWash,
	DynamicAccessory,
	DynamicVehicleCheckup,
	DynamicPollutionCert,
	DynamicInsuranceAssist,
}
