package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/outbox"
	"github.com/sparkserve/bookingapi/internal/repository"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

type orderService struct {
	repos     *repository.Repositories
	resolver  *serviceResolver
	sanitizer *cartSanitizer
	policy    config.PolicyConfig
	taxRate   float64
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, policy config.PolicyConfig, taxRate float64, logger *zap.Logger) *orderService {
	resolver := NewServiceResolver(repos.Catalog, policy, logger)
	return &orderService{
		repos:     repos,
		resolver:  resolver,
		sanitizer: NewCartSanitizer(resolver, logger),
		policy:    policy,
		taxRate:   taxRate,
		logger:    logger,
	}
}

// generateOrderNumber allocates a human-readable order number. The random
// suffix keeps collisions unlikely; the store's unique constraint is the
// only hard guarantee.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102150405"), suffix)
}

// materializeInlineItem freezes a client-submitted item into an order item.
// The resolver supplies only denormalization anchors (catalog id, fallback
// name and image); a client-supplied price is never overridden, preserving
// the price the customer was quoted.
func (s *orderService) materializeInlineItem(ctx context.Context, in ItemInput) (*domain.OrderItem, error) {
	svc, err := s.resolver.Resolve(ctx, in.Descriptor())
	if err != nil {
		return nil, err
	}

	item := domain.OrderItem{
		ServiceID:           &svc.ID,
		Name:                svc.Name,
		ImageURL:            svc.ImageURL,
		Quantity:            in.Quantity,
		VehicleClass:        domain.NormalizeVehicleClass(in.VehicleType),
		SpecialInstructions: in.SpecialInstructions,
	}
	if in.ServiceName != "" {
		item.Name = in.ServiceName
	}
	if in.Image != nil {
		item.ImageURL = in.Image
	}
	if pkgID, ok := domain.Ref(in.PackageID).UUID(); ok {
		item.PackageID = &pkgID
	}

	unitPrice := svc.BasePrice
	if in.Price != nil {
		unitPrice = *in.Price
	}
	if unitPrice < 0 {
		return nil, &errors.ErrValidation{Field: "price", Message: "must not be negative"}
	}
	item.UnitPrice = unitPrice

	for _, a := range in.AddOns {
		item.AddOns = append(item.AddOns, domain.AddOnSelection{
			AddOnRef:  domain.Ref(a.AddOnID),
			Name:      a.Name,
			Quantity:  a.Quantity,
			UnitPrice: a.Price,
		})
	}
	for _, l := range in.LaundryItems {
		item.SubItems = append(item.SubItems, domain.SubItem{
			Kind:      l.Kind,
			Quantity:  l.Quantity,
			UnitPrice: l.Price,
		})
	}
	for _, u := range in.UIAddOns {
		item.FreeFormAddOns = append(item.FreeFormAddOns, domain.FreeFormAddOn{
			Label:     u.Label,
			Quantity:  u.Quantity,
			UnitPrice: u.Price,
		})
	}

	return &item, nil
}

// materializeCartItem freezes a sanitized cart line item into an order item
func materializeCartItem(item domain.LineItem) domain.OrderItem {
	out := domain.OrderItem{
		Name:                item.Name,
		ImageURL:            item.ImageURL,
		Quantity:            item.Quantity,
		UnitPrice:           item.UnitPrice,
		AddOns:              item.AddOns,
		SubItems:            item.SubItems,
		FreeFormAddOns:      item.FreeFormAddOns,
		VehicleClass:        item.VehicleClass,
		SpecialInstructions: item.SpecialInstructions,
	}
	if id, ok := item.ServiceRef.UUID(); ok {
		out.ServiceID = &id
	}
	if id, ok := item.PackageRef.UUID(); ok {
		out.PackageID = &id
	}
	return out
}

// CreateOrder materializes an immutable order from an explicit item list
// or, absent that, the caller's persisted cart. Side effects after the
// order is persisted are best-effort and never roll it back.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*domain.Order, error) {
	if !s.policy.PincodeServiceable(req.ServiceAddress.Pincode) {
		return nil, &errors.ErrPolicyViolation{Reason: "address is outside the serviceable area"}
	}

	var items []domain.OrderItem
	fromCart := false

	if len(req.Items) > 0 {
		for _, in := range req.Items {
			item, err := s.materializeInlineItem(ctx, in)
			if err != nil {
				return nil, err
			}
			items = append(items, *item)
		}
	} else {
		cart, err := s.repos.Carts.GetByUserID(ctx, userID)
		if err != nil {
			if _, notFound := err.(*errors.ErrNotFound); notFound {
				return nil, &errors.ErrValidation{Field: "items", Message: "cart is empty and no items were provided"}
			}
			return nil, err
		}
		if s.sanitizer.Sanitize(ctx, cart) {
			if err := s.repos.Carts.Save(ctx, cart); err != nil {
				s.logger.Warn("Failed to persist sanitized cart", zap.Error(err))
			}
		}
		if len(cart.Items) == 0 {
			return nil, &errors.ErrValidation{Field: "items", Message: "cart is empty and no items were provided"}
		}
		for _, item := range cart.Items {
			items = append(items, materializeCartItem(item))
		}
		fromCart = true
	}

	var subtotal float64
	for _, item := range items {
		subtotal += OrderItemTotal(item)
	}

	now := time.Now()
	var discount float64
	var couponCode *string

	if req.CouponCode != "" {
		coupon, err := s.repos.Coupons.GetByCode(ctx, req.CouponCode)
		if err != nil {
			if _, notFound := err.(*errors.ErrNotFound); notFound {
				return nil, &errors.ErrPolicyViolation{Reason: "invalid coupon code"}
			}
			return nil, err
		}

		pastUses, err := s.repos.Orders.CountCouponUsesByUser(ctx, userID, coupon.Code)
		if err != nil {
			return nil, err
		}

		verdict := ValidateCoupon(coupon, now, subtotal, pastUses)
		if verdict != CouponOK {
			return nil, &errors.ErrPolicyViolation{Reason: verdict.Reason()}
		}

		// The increment is guarded at the store, so two orders racing on
		// a nearly exhausted coupon cannot both get through.
		if err := s.repos.Coupons.Redeem(ctx, coupon.Code); err != nil {
			return nil, err
		}

		discount = ComputeDiscount(coupon, verdict, subtotal)
		couponCode = &coupon.Code
	}

	_, taxAmount, totalAmount := OrderTotals(subtotal, discount, s.taxRate)

	order := &domain.Order{
		OrderNumber:    generateOrderNumber(now),
		UserID:         userID,
		Status:         domain.OrderStatusPending,
		Items:          items,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxRate:        s.taxRate,
		TaxAmount:      taxAmount,
		TotalAmount:    totalAmount,
		CouponCode:     couponCode,
		ServiceAddress: req.ServiceAddress,
		ScheduledDate:  req.ScheduledDate,
		ScheduledTime:  req.ScheduledTime,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  domain.PaymentStatusPending,
		CustomerNotes:  req.CustomerNotes,
	}

	if err := s.repos.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	// Everything below is best-effort: the order stands even when a side
	// effect fails.
	s.enqueue(ctx, outbox.TopicOrderCreated, outbox.OrderNotification{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      userID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
	})
	s.enqueue(ctx, outbox.TopicUserStats, outbox.UserStatsCredit{
		UserID: userID.String(),
		Amount: order.TotalAmount,
	})

	if fromCart {
		if err := s.repos.Carts.DeleteByUserID(ctx, userID); err != nil {
			s.logger.Warn("Failed to clear cart after order", zap.Error(err), zap.String("order_id", order.ID.String()))
		}
	}

	return order, nil
}

func (s *orderService) enqueue(ctx context.Context, topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("Failed to encode outbox payload", zap.Error(err), zap.String("topic", topic))
		return
	}
	if err := s.repos.Outbox.Enqueue(ctx, topic, data); err != nil {
		s.logger.Warn("Failed to enqueue outbox message", zap.Error(err), zap.String("topic", topic))
	}
}

// GetOrder returns one of the caller's orders
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Orders.ListByUser(ctx, userID, limit, offset)
}

// CancelOrder cancels a pending or confirmed order. A completed payment
// flips to refund-pending; coupon usage and user aggregates are not
// reversed.
func (s *orderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
		return nil, &errors.ErrInvalidStateTransition{From: order.Status, To: domain.OrderStatusCancelled}
	}

	paymentStatus := order.PaymentStatus
	if paymentStatus == domain.PaymentStatusCompleted {
		paymentStatus = domain.PaymentStatusRefundPending
	}

	now := time.Now()
	if err := s.repos.Orders.Cancel(ctx, orderID, now, paymentStatus); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	order.PaymentStatus = paymentStatus
	order.CancelledAt = &now

	s.enqueue(ctx, outbox.TopicOrderCancelled, outbox.OrderNotification{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      userID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
	})

	return order, nil
}

// SubmitReview attaches a rating to a completed order
func (s *orderService) SubmitReview(ctx context.Context, userID, orderID uuid.UUID, req ReviewRequest) error {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return err
	}

	if order.Status != domain.OrderStatusCompleted {
		return &errors.ErrPolicyViolation{Reason: "only completed orders can be reviewed"}
	}
	if req.Rating < 1 || req.Rating > 5 {
		return &errors.ErrValidation{Field: "rating", Message: "must be between 1 and 5"}
	}

	return s.repos.Orders.SetReview(ctx, orderID, req.Rating, req.Comment, time.Now())
}

// UpdatePayment applies a webhook-style payment status update. The payment
// gateway boundary is acknowledge-only; no settlement logic lives here.
func (s *orderService) UpdatePayment(ctx context.Context, orderID uuid.UUID, req PaymentUpdateRequest) error {
	status := domain.PaymentStatus(strings.ToUpper(req.Status))
	if !status.IsValid() {
		return &errors.ErrValidation{Field: "status", Message: "unknown payment status"}
	}

	if _, err := s.repos.Orders.GetByID(ctx, orderID); err != nil {
		return err
	}

	var transactionID *string
	if req.TransactionID != "" {
		transactionID = &req.TransactionID
	}

	return s.repos.Orders.UpdatePayment(ctx, orderID, status, transactionID)
}

// AdvanceStatus moves an order along its lifecycle, used by the admin
// surface. Assignment carries the assignee name.
func (s *orderService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, assignedTo *string) (*domain.Order, error) {
	if !to.IsValid() {
		return nil, &errors.ErrValidation{Field: "status", Message: "unknown order status"}
	}

	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(to) {
		return nil, &errors.ErrInvalidStateTransition{From: order.Status, To: to}
	}

	if err := s.repos.Orders.UpdateStatus(ctx, orderID, to, assignedTo); err != nil {
		return nil, err
	}

	order.Status = to
	if assignedTo != nil {
		order.AssignedTo = assignedTo
	}

	return order, nil
}

// ListOrdersByStatus returns orders in a given status, for the admin surface
func (s *orderService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	if !status.IsValid() {
		return nil, &errors.ErrValidation{Field: "status", Message: "unknown order status"}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Orders.ListByStatus(ctx, status, limit, offset)
}
