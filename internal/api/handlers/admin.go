package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/repository"
	"github.com/sparkserve/bookingapi/internal/service"
)

// AssignOrderRequest assigns an order to a field employee
type AssignOrderRequest struct {
	AssignedTo string `json:"assigned_to" binding:"required"`
}

// CreateServiceRequest creates a catalog service
type CreateServiceRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	VehicleClass string   `json:"vehicle_class"`
	BasePrice    float64  `json:"base_price" binding:"min=0"`
	ImageURL     *string  `json:"image_url,omitempty"`
	ServiceType  string   `json:"service_type"`
}

// CreatePackageRequest creates a package under a service
type CreatePackageRequest struct {
	ServiceID    string  `json:"service_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Price        float64 `json:"price" binding:"min=0"`
	DurationDays int     `json:"duration_days" binding:"min=0"`
	WashCount    int     `json:"wash_count" binding:"min=0"`
}

// CreateAddOnRequest creates a catalog add-on
type CreateAddOnRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"min=0"`
}

// CreateCouponRequest creates a coupon
type CreateCouponRequest struct {
	Code                  string   `json:"code" binding:"required"`
	DiscountKind          string   `json:"discount_kind" binding:"required"`
	DiscountValue         float64  `json:"discount_value" binding:"min=0"`
	MinimumOrderAmount    float64  `json:"minimum_order_amount" binding:"min=0"`
	MaximumDiscountAmount *float64 `json:"maximum_discount_amount,omitempty"`
	ValidFrom             string   `json:"valid_from" binding:"required"`
	ValidUntil            string   `json:"valid_until" binding:"required"`
	GlobalUsageLimit      *int     `json:"global_usage_limit,omitempty"`
	PerUserUsageLimit     int      `json:"per_user_usage_limit"`
}

// HandleAdminListOrders handles GET /v1/admin/orders
func HandleAdminListOrders(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.OrderStatus(strings.ToUpper(c.DefaultQuery("status", string(domain.OrderStatusPending))))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		orders, err := orderService.ListOrdersByStatus(c.Request.Context(), status, limit, offset)
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

// advanceStatusHandler builds a handler that moves an order to the target
// status, optionally reading an assignee from the request body.
func advanceStatusHandler(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger, to domain.OrderStatus, withAssignee bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var assignedTo *string
		if withAssignee {
			var req AssignOrderRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "validation failed",
					"details": err.Error(),
				})
				return
			}
			assignedTo = &req.AssignedTo
		}

		orderService := service.NewOrderService(repos, cfg.Policy, cfg.TaxRate, logger)
		order, err := orderService.AdvanceStatus(c.Request.Context(), orderID, to, assignedTo)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":     order.ID.String(),
			"status": order.Status,
		})
	}
}

// HandleConfirmOrder handles POST /v1/admin/orders/:id/confirm
func HandleConfirmOrder(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return advanceStatusHandler(cfg, repos, logger, domain.OrderStatusConfirmed, false)
}

// HandleAssignOrder handles POST /v1/admin/orders/:id/assign
func HandleAssignOrder(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return advanceStatusHandler(cfg, repos, logger, domain.OrderStatusAssigned, true)
}

// HandleStartOrder handles POST /v1/admin/orders/:id/start
func HandleStartOrder(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return advanceStatusHandler(cfg, repos, logger, domain.OrderStatusInProgress, false)
}

// HandleCompleteOrder handles POST /v1/admin/orders/:id/complete
func HandleCompleteOrder(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return advanceStatusHandler(cfg, repos, logger, domain.OrderStatusCompleted, false)
}

// HandleListServices handles GET /v1/admin/services
func HandleListServices(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		services, err := repos.Catalog.ListServices(c.Request.Context())
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"services": services})
	}
}

// HandleCreateService handles POST /v1/admin/services
func HandleCreateService(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		svc := &domain.Service{
			Name:         req.Name,
			Description:  req.Description,
			Category:     req.Category,
			VehicleClass: domain.NormalizeVehicleClass(req.VehicleClass),
			BasePrice:    req.BasePrice,
			ImageURL:     req.ImageURL,
			ServiceType:  req.ServiceType,
			IsActive:     true,
		}

		if err := repos.Catalog.CreateService(c.Request.Context(), svc); err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": svc.ID.String()})
	}
}

// HandleCreatePackage handles POST /v1/admin/packages
func HandleCreatePackage(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePackageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service ID"})
			return
		}

		// The parent service has to exist.
		if _, err := repos.Catalog.GetServiceByID(c.Request.Context(), serviceID); err != nil {
			writeError(c, logger, err)
			return
		}

		pkg := &domain.ServicePackage{
			ServiceID:    serviceID,
			Name:         req.Name,
			Price:        req.Price,
			DurationDays: req.DurationDays,
			WashCount:    req.WashCount,
			IsActive:     true,
		}

		if err := repos.Catalog.CreatePackage(c.Request.Context(), pkg); err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": pkg.ID.String()})
	}
}

// HandleCreateAddOn handles POST /v1/admin/addons
func HandleCreateAddOn(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAddOnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		addOn := &domain.AddOn{
			Name:     req.Name,
			Price:    req.Price,
			IsActive: true,
		}

		if err := repos.Catalog.CreateAddOn(c.Request.Context(), addOn); err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": addOn.ID.String()})
	}
}

// HandleCreateCoupon handles POST /v1/admin/coupons
func HandleCreateCoupon(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		kind := domain.DiscountKind(strings.ToUpper(req.DiscountKind))
		if kind != domain.DiscountPercentage && kind != domain.DiscountFixed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "discount_kind must be PERCENTAGE or FIXED"})
			return
		}

		validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "valid_from must be RFC3339"})
			return
		}
		validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "valid_until must be RFC3339"})
			return
		}

		perUserLimit := req.PerUserUsageLimit
		if perUserLimit <= 0 {
			perUserLimit = 1
		}

		coupon := &domain.Coupon{
			Code:                  strings.ToUpper(req.Code),
			DiscountKind:          kind,
			DiscountValue:         req.DiscountValue,
			MinimumOrderAmount:    req.MinimumOrderAmount,
			MaximumDiscountAmount: req.MaximumDiscountAmount,
			ValidFrom:             validFrom,
			ValidUntil:            validUntil,
			GlobalUsageLimit:      req.GlobalUsageLimit,
			PerUserUsageLimit:     perUserLimit,
			IsActive:              true,
		}

		if err := repos.Coupons.Create(c.Request.Context(), coupon); err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": coupon.ID.String(), "code": coupon.Code})
	}
}
