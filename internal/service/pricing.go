package service

import (
	"math"

	"github.com/sparkserve/bookingapi/internal/domain"
)

// DefaultTaxRate applies when a cart has no explicit rate
const DefaultTaxRate = 0.18

// Round2 rounds to two decimals. It applies only at aggregate boundaries
// (tax amount, grand total), never on per-item sums, so rounding error does
// not compound across items.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ItemTotal is the full price of one line item: unit price times quantity
// plus every add-on, sub-item and free-form add-on.
func ItemTotal(item domain.LineItem) float64 {
	total := item.UnitPrice * float64(item.Quantity)
	for _, a := range item.AddOns {
		total += a.UnitPrice * float64(a.Quantity)
	}
	for _, s := range item.SubItems {
		total += s.UnitPrice * float64(s.Quantity)
	}
	for _, f := range item.FreeFormAddOns {
		total += f.UnitPrice * float64(f.Quantity)
	}
	return total
}

// OrderItemTotal is ItemTotal for a frozen order item
func OrderItemTotal(item domain.OrderItem) float64 {
	total := item.UnitPrice * float64(item.Quantity)
	for _, a := range item.AddOns {
		total += a.UnitPrice * float64(a.Quantity)
	}
	for _, s := range item.SubItems {
		total += s.UnitPrice * float64(s.Quantity)
	}
	for _, f := range item.FreeFormAddOns {
		total += f.UnitPrice * float64(f.Quantity)
	}
	return total
}

// CartSubtotal sums per-item totals without rounding
func CartSubtotal(items []domain.LineItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += ItemTotal(item)
	}
	return subtotal
}

// RecomputeCart rederives every cart total from the item list. Recomputation
// is total, not incremental; every mutation site calls this before saving.
func RecomputeCart(cart *domain.Cart) {
	if cart.TaxRate == 0 {
		cart.TaxRate = DefaultTaxRate
	}
	cart.Subtotal = CartSubtotal(cart.Items)
	cart.TaxAmount = Round2(cart.Subtotal * cart.TaxRate)
	cart.GrandTotal = Round2(cart.Subtotal + cart.TaxAmount)
}

// OrderTotals derives the discount-aware money fields of an order. The
// discount is applied before tax; a discount larger than the subtotal
// clamps the taxable base to zero rather than going negative.
func OrderTotals(subtotal, discount, taxRate float64) (taxableBase, taxAmount, totalAmount float64) {
	taxableBase = subtotal - discount
	if taxableBase < 0 {
		taxableBase = 0
	}
	taxAmount = Round2(taxableBase * taxRate)
	totalAmount = Round2(taxableBase + taxAmount)
	return taxableBase, taxAmount, totalAmount
}
