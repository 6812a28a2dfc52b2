package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/api/middleware"
	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/repository"
	"github.com/sparkserve/bookingapi/internal/service"
)

// CartResponse is the priced cart returned by every cart endpoint
type CartResponse struct {
	ID         string            `json:"id,omitempty"`
	Items      []domain.LineItem `json:"items"`
	Subtotal   float64           `json:"subtotal"`
	TaxRate    float64           `json:"tax_rate"`
	TaxAmount  float64           `json:"tax_amount"`
	GrandTotal float64           `json:"grand_total"`
}

func toCartResponse(cart *domain.Cart) CartResponse {
	resp := CartResponse{
		Items:      cart.Items,
		Subtotal:   cart.Subtotal,
		TaxRate:    cart.TaxRate,
		TaxAmount:  cart.TaxAmount,
		GrandTotal: cart.GrandTotal,
	}
	if cart.ID != uuid.Nil {
		resp.ID = cart.ID.String()
	}
	if resp.Items == nil {
		resp.Items = []domain.LineItem{}
	}
	return resp
}

// HandleGetCart handles GET /v1/cart
func HandleGetCart(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		cartService := service.NewCartService(repos, cfg.Policy, cfg.TaxRate, logger)
		cart, err := cartService.GetCart(c.Request.Context(), userID)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

// HandleAddCartItem handles POST /v1/cart
func HandleAddCartItem(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.ItemInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cartService := service.NewCartService(repos, cfg.Policy, cfg.TaxRate, logger)
		cart, err := cartService.AddItem(c.Request.Context(), userID, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

// HandleUpdateCartItem handles PUT /v1/cart/:itemId
func HandleUpdateCartItem(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		itemID, err := uuid.Parse(c.Param("itemId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
			return
		}

		var req service.UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cartService := service.NewCartService(repos, cfg.Policy, cfg.TaxRate, logger)
		cart, err := cartService.UpdateItem(c.Request.Context(), userID, itemID, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

// HandleRemoveCartItem handles DELETE /v1/cart/:itemId
func HandleRemoveCartItem(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		itemID, err := uuid.Parse(c.Param("itemId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
			return
		}

		cartService := service.NewCartService(repos, cfg.Policy, cfg.TaxRate, logger)
		cart, err := cartService.RemoveItem(c.Request.Context(), userID, itemID)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

// HandleClearCart handles DELETE /v1/cart
func HandleClearCart(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		cartService := service.NewCartService(repos, cfg.Policy, cfg.TaxRate, logger)
		if err := cartService.Clear(c.Request.Context(), userID); err != nil {
			writeError(c, logger, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// HandleSyncCart handles POST /v1/cart/sync
func HandleSyncCart(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.SyncCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cartService := service.NewCartService(repos, cfg.Policy, cfg.TaxRate, logger)
		cart, err := cartService.Sync(c.Request.Context(), userID, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}
