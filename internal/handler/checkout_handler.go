package handler

import (
	"errors"
	"net/http"

	"gosembako/internal/logging"
	"gosembako/internal/phone"
	"gosembako/internal/service"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	engine *service.DiscountEngine
	log    logging.Logger
}

func NewCheckoutHandler(engine *service.DiscountEngine, log logging.Logger) *CheckoutHandler {
	return &CheckoutHandler{engine: engine, log: log}
}

type EvaluateRequest struct {
	Phone string `json:"phone" binding:"required"`
	Total int64  `json:"total" binding:"required,gt=0"`
}

// Evaluate reports whether the cart qualifies for the first-order referral
// discount. The storefront calls this on every phone-field change, so it is
// read-only and never mutates referral state.
// POST /checkout/evaluate
func (h *CheckoutHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.engine.Evaluate(c.Request.Context(), req.Phone, req.Total)
	if err != nil {
		if errors.Is(err, phone.ErrInvalidFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error(c.Request.Context(), "discount evaluation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not evaluate discount"})
		return
	}
	c.JSON(http.StatusOK, result)
}
