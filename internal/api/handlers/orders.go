package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/api/middleware"
	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/repository"
	"github.com/sparkserve/bookingapi/internal/service"
)

// OrderItemResponse is one frozen order line
type OrderItemResponse struct {
	ID                  string                  `json:"id"`
	ServiceID           *string                 `json:"service_id,omitempty"`
	PackageID           *string                 `json:"package_id,omitempty"`
	Name                string                  `json:"name"`
	ImageURL            *string                 `json:"image_url,omitempty"`
	Quantity            int                     `json:"quantity"`
	UnitPrice           float64                 `json:"unit_price"`
	AddOns              []domain.AddOnSelection `json:"addons"`
	SubItems            []domain.SubItem        `json:"sub_items"`
	FreeFormAddOns      []domain.FreeFormAddOn  `json:"freeform_addons"`
	VehicleClass        domain.VehicleClass     `json:"vehicle_class"`
	SpecialInstructions string                  `json:"special_instructions,omitempty"`
}

// OrderResponse is the order representation returned to callers
type OrderResponse struct {
	ID             string                `json:"id"`
	OrderNumber    string                `json:"order_number"`
	Status         domain.OrderStatus    `json:"status"`
	Items          []OrderItemResponse   `json:"items"`
	Subtotal       float64               `json:"subtotal"`
	DiscountAmount float64               `json:"discount_amount"`
	TaxRate        float64               `json:"tax_rate"`
	TaxAmount      float64               `json:"tax_amount"`
	TotalAmount    float64               `json:"total_amount"`
	CouponCode     *string               `json:"coupon_code,omitempty"`
	ServiceAddress domain.ServiceAddress `json:"service_address"`
	ScheduledDate  string                `json:"scheduled_date"`
	ScheduledTime  string                `json:"scheduled_time"`
	PaymentMethod  string                `json:"payment_method"`
	PaymentStatus  domain.PaymentStatus  `json:"payment_status"`
	AssignedTo     *string               `json:"assigned_to,omitempty"`
	CustomerNotes  string                `json:"customer_notes,omitempty"`
	ReviewRating   *int                  `json:"review_rating,omitempty"`
	ReviewComment  *string               `json:"review_comment,omitempty"`
	CancelledAt    *string               `json:"cancelled_at,omitempty"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		ir := OrderItemResponse{
			ID:                  item.ID.String(),
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
		if ir.AddOns == nil {
			ir.AddOns = []domain.AddOnSelection{}
		}
		if ir.SubItems == nil {
			ir.SubItems = []domain.SubItem{}
		}
		if ir.FreeFormAddOns == nil {
			ir.FreeFormAddOns = []domain.FreeFormAddOn{}
		}
		if item.ServiceID != nil {
			s := item.ServiceID.String()
			ir.ServiceID = &s
		}
		if item.PackageID != nil {
			s := item.PackageID.String()
			ir.PackageID = &s
		}
		items[i] = ir
	}

	resp := OrderResponse{
		ID:             order.ID.String(),
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		Items:          items,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		TaxRate:        order.TaxRate,
		TaxAmount:      order.TaxAmount,
		TotalAmount:    order.TotalAmount,
		CouponCode:     order.CouponCode,
		ServiceAddress: order.ServiceAddress,
		ScheduledDate:  order.ScheduledDate,
		ScheduledTime:  order.ScheduledTime,
		PaymentMethod:  order.PaymentMethod,
		PaymentStatus:  order.PaymentStatus,
		AssignedTo:     order.AssignedTo,
		CustomerNotes:  order.CustomerNotes,
		ReviewRating:   order.ReviewRating,
		ReviewComment:  order.ReviewComment,
		CreatedAt:      order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      order.UpdatedAt.Format(time.RFC3339),
	}
	if order.CancelledAt != nil {
		s := order.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	return resp
}

// HandleCreateOrder handles POST /v1/orders
func HandleCreateOrder(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		order, err := orderService.CreateOrder(c.Request.Context(), userID, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, toOrderResponse(order))
	}
}

// HandleListOrders handles GET /v1/orders
func HandleListOrders(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		orders, err := orderService.ListOrders(c.Request.Context(), userID, limit, offset)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		responses := make([]OrderResponse, len(orders))
		for i := range orders {
			responses[i] = toOrderResponse(&orders[i])
		}

		c.JSON(http.StatusOK, gin.H{"orders": responses})
	}
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		order, err := orderService.GetOrder(c.Request.Context(), userID, orderID)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleCancelOrder handles PUT /v1/orders/:id/cancel
func HandleCancelOrder(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		order, err := orderService.CancelOrder(c.Request.Context(), userID, orderID)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleSubmitReview handles POST /v1/orders/:id/review
func HandleSubmitReview(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req service.ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		if err := orderService.SubmitReview(c.Request.Context(), userID, orderID, req); err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "review recorded"})
	}
}

// HandlePaymentUpdate handles PUT /v1/orders/:id/payment. This is the
// webhook-style boundary with the payment gateway: acknowledge and record,
// nothing more.
func HandlePaymentUpdate(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req service.PaymentUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		if err := orderService.UpdatePayment(c.Request.Context(), orderID, req); err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
	}
}
