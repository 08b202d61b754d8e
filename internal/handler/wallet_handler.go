package handler

import (
	"net/http"
	"strconv"

	"sokoni/internal/middleware"
	"sokoni/internal/models"
	"sokoni/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletSvc *service.WalletService
}

func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Get returns the current user's wallet with linked cards and payout methods.
func (h *WalletHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletSvc.GetOrCreateWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type depositRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.walletSvc.Deposit(c.Request.Context(), userID, req.Amount, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type verifyDepositRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// VerifyDeposit confirms a gateway transaction server-side and credits the
// verified amount. Safe to retry: duplicate references credit exactly once.
func (h *WalletHandler) VerifyDeposit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req verifyDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.walletSvc.VerifyExternalDeposit(c.Request.Context(), userID, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type withdrawRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PayoutMethodID uint            `json:"payout_method_id" binding:"required"`
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.walletSvc.Withdraw(c.Request.Context(), userID, req.Amount, req.PayoutMethodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type addCardRequest struct {
	Brand       string `json:"brand" binding:"required"`
	Last4       string `json:"last4" binding:"required,len=4"`
	ExpiryMonth int    `json:"expiry_month" binding:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" binding:"required"`
	HolderName  string `json:"holder_name" binding:"required"`
}

func (h *WalletHandler) AddCard(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req addCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := h.walletSvc.AddCard(c.Request.Context(), userID, models.Card{
		Brand:       req.Brand,
		Last4:       req.Last4,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		HolderName:  req.HolderName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *WalletHandler) ListCards(c *gin.Context) {
	userID := middleware.GetUserID(c)
	cards, err := h.walletSvc.ListCards(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

type addPayoutMethodRequest struct {
	BankLabel     string `json:"bank_label" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountName   string `json:"account_name" binding:"required"`
	IsDefault     bool   `json:"is_default"`
}

func (h *WalletHandler) AddPayoutMethod(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req addPayoutMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.walletSvc.AddPayoutMethod(c.Request.Context(), userID, models.PayoutMethod{
		BankLabel:     req.BankLabel,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *WalletHandler) ListPayoutMethods(c *gin.Context) {
	userID := middleware.GetUserID(c)
	methods, err := h.walletSvc.ListPayoutMethods(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout_methods": methods})
}

// ListTransactions returns the wallet's ledger history, newest first.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	entries, err := h.walletSvc.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}
