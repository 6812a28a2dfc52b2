package service

import (
	"time"

	"github.com/sparkserve/bookingapi/internal/domain"
)

// CouponVerdict is the outcome of validating a coupon against an order
type CouponVerdict string

const (
	CouponOK                   CouponVerdict = "OK"
	CouponInactive             CouponVerdict = "INACTIVE"
	CouponExpired              CouponVerdict = "EXPIRED"
	CouponGlobalLimitExceeded  CouponVerdict = "GLOBAL_LIMIT_EXCEEDED"
	CouponPerUserLimitExceeded CouponVerdict = "PER_USER_LIMIT_EXCEEDED"
	CouponBelowMinimumOrder    CouponVerdict = "BELOW_MINIMUM_ORDER"
)

// Reason returns a caller-facing explanation for a rejected coupon
func (v CouponVerdict) Reason() string {
	switch v {
	case CouponInactive:
		return "coupon is not active"
	case CouponExpired:
		return "coupon is expired or not yet valid"
	case CouponGlobalLimitExceeded:
		return "coupon usage limit exceeded"
	case CouponPerUserLimitExceeded:
		return "coupon already used the maximum number of times"
	case CouponBelowMinimumOrder:
		return "order amount is below the coupon minimum"
	default:
		return ""
	}
}

// ValidateCoupon checks the coupon's active flag, validity window, usage
// caps and minimum order amount at time now.
func ValidateCoupon(coupon *domain.Coupon, now time.Time, orderAmount float64, userPastUses int) CouponVerdict {
	if !coupon.IsActive {
		return CouponInactive
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return CouponExpired
	}
	if coupon.GlobalUsageLimit != nil && coupon.UsedCount >= *coupon.GlobalUsageLimit {
		return CouponGlobalLimitExceeded
	}
	if coupon.PerUserUsageLimit > 0 && userPastUses >= coupon.PerUserUsageLimit {
		return CouponPerUserLimitExceeded
	}
	if orderAmount < coupon.MinimumOrderAmount {
		return CouponBelowMinimumOrder
	}
	return CouponOK
}

// ComputeDiscount returns the discount amount for a validated coupon. An
// invalid coupon discounts nothing. Percentage discounts are capped at the
// coupon's maximum discount amount when set; every discount is capped at
// the order amount so a total can never go negative.
func ComputeDiscount(coupon *domain.Coupon, verdict CouponVerdict, orderAmount float64) float64 {
	if verdict != CouponOK {
		return 0
	}

	var discount float64
	switch coupon.DiscountKind {
	case domain.DiscountPercentage:
		discount = orderAmount * coupon.DiscountValue / 100
		if coupon.MaximumDiscountAmount != nil && discount > *coupon.MaximumDiscountAmount {
			discount = *coupon.MaximumDiscountAmount
		}
	case domain.DiscountFixed:
		discount = coupon.DiscountValue
	default:
		return 0
	}

	if discount > orderAmount {
		discount = orderAmount
	}
	if discount < 0 {
		discount = 0
	}

	return discount
}
