package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/outbox"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

func newTestOrderService(t *testing.T) (*orderService, *testRepos) {
	t.Helper()
	repos, fakes := newTestRepos()
	svc := NewOrderService(repos, config.PolicyConfig{}, DefaultTaxRate, zap.NewNop())
	return svc, fakes
}

func testOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		ServiceAddress: domain.ServiceAddress{
			Street:  "12 MG Road",
			City:    "Bengaluru",
			Pincode: "560001",
		},
		ScheduledDate: "2026-09-05",
		ScheduledTime: "10:00",
		PaymentMethod: "UPI",
	}
}

func TestCreateOrderFromInlineItems(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	req := testOrderRequest()
	price := 200.0
	req.Items = []ItemInput{
		{
			ServiceID: catalogSvc.ID.String(),
			Quantity:  2,
			Price:     &price,
			AddOns: []AddOnInput{
				{AddOnID: uuid.NewString(), Name: "Interior", Quantity: 1, Price: 50},
			},
		},
	}

	order, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 450.0, order.Subtotal)
	assert.Equal(t, 81.0, order.TaxAmount)
	assert.Equal(t, 531.0, order.TotalAmount)
	assert.NotEmpty(t, order.OrderNumber)
	// The client-quoted price is never re-priced against the catalog.
	require.Len(t, order.Items, 1)
	assert.Equal(t, 200.0, order.Items[0].UnitPrice)
}

func TestCreateOrderFromCartClearsCart(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	cart := &domain.Cart{
		UserID: userID,
		Items: []domain.LineItem{
			{ID: uuid.New(), ServiceRef: domain.RefOf(catalogSvc.ID), Name: "Premium Wash", Quantity: 2, UnitPrice: 300},
		},
	}
	RecomputeCart(cart)
	require.NoError(t, fakes.carts.Save(context.Background(), cart))

	order, err := svc.CreateOrder(context.Background(), userID, testOrderRequest())

	require.NoError(t, err)
	assert.Equal(t, 600.0, order.Subtotal)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].ServiceID)
	assert.Equal(t, catalogSvc.ID, *order.Items[0].ServiceID)

	_, err = fakes.carts.GetByUserID(context.Background(), userID)
	assert.Error(t, err)
}

func TestCreateOrderEmptyCartRejected(t *testing.T) {
	svc, _ := newTestOrderService(t)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), testOrderRequest())

	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateOrderOutsideServiceableArea(t *testing.T) {
	repos, _ := newTestRepos()
	policy := config.PolicyConfig{
		ServiceableAreaCheck: true,
		ServiceablePincodes:  []string{"560001"},
	}
	svc := NewOrderService(repos, policy, DefaultTaxRate, zap.NewNop())

	req := testOrderRequest()
	req.ServiceAddress.Pincode = "110001"

	_, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	var policyErr *errors.ErrPolicyViolation
	require.ErrorAs(t, err, &policyErr)
}

func TestCreateOrderSnapshotImmutable(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}

	order, err := svc.CreateOrder(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, 300.0, order.Items[0].UnitPrice)

	// A later catalog edit must not reach into the placed order.
	catalogSvc.BasePrice = 999
	require.NoError(t, fakes.catalog.UpdateService(context.Background(), catalogSvc))

	stored, err := fakes.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.Items[0].UnitPrice)
	assert.Equal(t, 300.0, stored.Subtotal)
}

func TestCreateOrderWithCoupon(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	coupon := &domain.Coupon{
		Code:               "FLAT50",
		DiscountKind:       domain.DiscountFixed,
		DiscountValue:      50,
		MinimumOrderAmount: 400,
		ValidFrom:          time.Now().Add(-time.Hour),
		ValidUntil:         time.Now().Add(time.Hour),
		PerUserUsageLimit:  1,
		IsActive:           true,
	}
	require.NoError(t, fakes.coupons.Create(context.Background(), coupon))

	req := testOrderRequest()
	price := 450.0
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1, Price: &price}}
	req.CouponCode = "FLAT50"

	order, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	assert.Equal(t, 450.0, order.Subtotal)
	assert.Equal(t, 50.0, order.DiscountAmount)
	assert.Equal(t, 72.0, order.TaxAmount)
	assert.Equal(t, 472.0, order.TotalAmount)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "FLAT50", *order.CouponCode)

	redeemed, err := fakes.coupons.GetByCode(context.Background(), "FLAT50")
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.UsedCount)
}

func TestCreateOrderCouponPerUserLimit(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	coupon := &domain.Coupon{
		Code:              "ONCE",
		DiscountKind:      domain.DiscountFixed,
		DiscountValue:     50,
		ValidFrom:         time.Now().Add(-time.Hour),
		ValidUntil:        time.Now().Add(time.Hour),
		PerUserUsageLimit: 1,
		IsActive:          true,
	}
	require.NoError(t, fakes.coupons.Create(context.Background(), coupon))

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	req.CouponCode = "ONCE"

	_, err := svc.CreateOrder(context.Background(), userID, req)
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), userID, req)
	var policyErr *errors.ErrPolicyViolation
	require.ErrorAs(t, err, &policyErr)
}

func TestCreateOrderUnknownCoupon(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	req.CouponCode = "NOPE"

	_, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	var policyErr *errors.ErrPolicyViolation
	require.ErrorAs(t, err, &policyErr)
}

func TestCreateOrderEnqueuesSideEffects(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}

	_, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	topics := fakes.outbox.topics()
	assert.Contains(t, topics, outbox.TopicOrderCreated)
	assert.Contains(t, topics, outbox.TopicUserStats)
}

func TestGetOrderOwnership(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	owner := uuid.New()

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	order, err := svc.CreateOrder(context.Background(), owner, req)
	require.NoError(t, err)

	// Another user's probe reads as not found, not forbidden.
	_, err = svc.GetOrder(context.Background(), uuid.New(), order.ID)
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)

	got, err := svc.GetOrder(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestCancelPendingOrder(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	order, err := svc.CreateOrder(context.Background(), userID, req)
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(context.Background(), userID, order.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Contains(t, fakes.outbox.topics(), outbox.TopicOrderCancelled)
}

func TestCancelCompletedOrderRejected(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	order, err := svc.CreateOrder(context.Background(), userID, req)
	require.NoError(t, err)

	require.NoError(t, fakes.orders.UpdateStatus(context.Background(), order.ID, domain.OrderStatusCompleted, nil))

	_, err = svc.CancelOrder(context.Background(), userID, order.ID)
	var transitionErr *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)
}

func TestCancelAfterPaymentFlipsToRefundPending(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	order, err := svc.CreateOrder(context.Background(), userID, req)
	require.NoError(t, err)

	require.NoError(t, fakes.orders.UpdatePayment(context.Background(), order.ID, domain.PaymentStatusCompleted, nil))

	cancelled, err := svc.CancelOrder(context.Background(), userID, order.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefundPending, cancelled.PaymentStatus)
}

func TestCancelDoesNotReverseCouponUsage(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	coupon := &domain.Coupon{
		Code:              "ONCE",
		DiscountKind:      domain.DiscountFixed,
		DiscountValue:     50,
		ValidFrom:         time.Now().Add(-time.Hour),
		ValidUntil:        time.Now().Add(time.Hour),
		PerUserUsageLimit: 1,
		IsActive:          true,
	}
	require.NoError(t, fakes.coupons.Create(context.Background(), coupon))

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	req.CouponCode = "ONCE"

	order, err := svc.CreateOrder(context.Background(), userID, req)
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), userID, order.ID)
	require.NoError(t, err)

	// The cancelled order still counts against the per-user cap.
	_, err = svc.CreateOrder(context.Background(), userID, req)
	var policyErr *errors.ErrPolicyViolation
	require.ErrorAs(t, err, &policyErr)

	redeemed, err := fakes.coupons.GetByCode(context.Background(), "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.UsedCount)
}

func TestSubmitReviewRequiresCompletedOrder(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	order, err := svc.CreateOrder(context.Background(), userID, req)
	require.NoError(t, err)

	err = svc.SubmitReview(context.Background(), userID, order.ID, ReviewRequest{Rating: 5})
	var policyErr *errors.ErrPolicyViolation
	require.ErrorAs(t, err, &policyErr)

	require.NoError(t, fakes.orders.UpdateStatus(context.Background(), order.ID, domain.OrderStatusCompleted, nil))

	require.NoError(t, svc.SubmitReview(context.Background(), userID, order.ID, ReviewRequest{Rating: 5, Comment: "spotless"}))

	stored, err := fakes.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReviewRating)
	assert.Equal(t, 5, *stored.ReviewRating)
}

func TestUpdatePayment(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	order, err := svc.CreateOrder(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	err = svc.UpdatePayment(context.Background(), order.ID, PaymentUpdateRequest{
		Status:        "completed",
		TransactionID: "txn_123",
	})
	require.NoError(t, err)

	stored, err := fakes.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, stored.PaymentStatus)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, "txn_123", *stored.TransactionID)
}

func TestUpdatePaymentUnknownStatus(t *testing.T) {
	svc, _ := newTestOrderService(t)

	err := svc.UpdatePayment(context.Background(), uuid.New(), PaymentUpdateRequest{Status: "SETTLED"})

	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
}

func TestAdvanceStatusLifecycle(t *testing.T) {
	svc, fakes := newTestOrderService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	req := testOrderRequest()
	req.Items = []ItemInput{{ServiceID: catalogSvc.ID.String(), Quantity: 1}}
	order, err := svc.CreateOrder(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), order.ID, domain.OrderStatusConfirmed, nil)
	require.NoError(t, err)

	assignee := "ravi"
	advanced, err := svc.AdvanceStatus(context.Background(), order.ID, domain.OrderStatusAssigned, &assignee)
	require.NoError(t, err)
	require.NotNil(t, advanced.AssignedTo)
	assert.Equal(t, "ravi", *advanced.AssignedTo)

	// Skipping straight to completed is not a legal transition.
	_, err = svc.AdvanceStatus(context.Background(), order.ID, domain.OrderStatusCompleted, nil)
	var transitionErr *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)
}
