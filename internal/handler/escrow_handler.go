package handler

import (
	"net/http"
	"strconv"

	"sokoni/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// EscrowHandler exposes the escrow lifecycle to the order service. All routes
// sit behind the internal-token guard; end users never call these directly.
type EscrowHandler struct {
	escrowSvc *service.EscrowService
}

func NewEscrowHandler(escrowSvc *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowSvc: escrowSvc}
}

type holdRequest struct {
	BuyerID uint            `json:"buyer_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	OrderID uint            `json:"order_id" binding:"required"`
}

// Hold is called when an order is created with sufficient buyer funds, or
// when the buyer later pays an order that was created unpaid.
func (h *EscrowHandler) Hold(c *gin.Context) {
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.escrowSvc.HoldEscrow(c.Request.Context(), req.BuyerID, req.Amount, req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
	})
}

// Release is called when the buyer confirms delivery.
func (h *EscrowHandler) Release(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.escrowSvc.ReleaseEscrow(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
		"commission":     order.Commission,
	})
}

// Refund is called on cancellation before delivery.
func (h *EscrowHandler) Refund(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.escrowSvc.RefundEscrow(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
	})
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return uint(id), true
}
