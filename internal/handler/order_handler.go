package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gosembako/internal/logging"
	"gosembako/internal/middleware"
	"gosembako/internal/models"
	"gosembako/internal/phone"
	"gosembako/internal/repository"
	"gosembako/internal/service"
)

type OrderHandler struct {
	orders    *repository.OrderRepository
	users     *repository.UserRepository
	processor *service.OrderProcessor
	log       logging.Logger
}

func NewOrderHandler(
	orders *repository.OrderRepository,
	users *repository.UserRepository,
	processor *service.OrderProcessor,
	log logging.Logger,
) *OrderHandler {
	return &OrderHandler{orders: orders, users: users, processor: processor, log: log}
}

type CreateOrderRequest struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Total int64  `json:"total" binding:"required,gt=0"`
}

// Create persists the order and then runs the referral pipeline. The pipeline
// is bookkeeping: its failure is logged and the order still succeeds.
// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	canonical, err := phone.Normalize(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	storePhone, err := phone.ForStore(canonical, repository.SheetOrders)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := &models.Order{
		OrderID:   "ORD-" + uuid.NewString(),
		Phone:     storePhone,
		Name:      req.Name,
		Total:     req.Total,
		Status:    "new",
		CreatedAt: time.Now().Format(models.TimeLayout),
	}
	if err := h.orders.Insert(ctx, order); err != nil {
		h.log.Error(ctx, "order insert failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create order"})
		return
	}

	resp := gin.H{"order": order}
	result, err := h.processor.ProcessOrder(ctx, req.Phone, req.Name)
	if err != nil {
		h.log.Warn(ctx, "referral pipeline failed after order", "order_id", order.OrderID, "err", err)
	} else {
		resp["first_order"] = result.FirstOrder
		resp["referral_processed"] = result.ReferralProcessed
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMine returns the authenticated user's orders.
// GET /me/orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		h.log.Error(c.Request.Context(), "user lookup failed", "user_id", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}

	orders, err := h.orders.ListByPhone(c.Request.Context(), user.Phone)
	if err != nil {
		h.log.Error(c.Request.Context(), "list orders failed", "user_id", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}
