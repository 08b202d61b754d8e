package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"sokoni/config"
	"sokoni/internal/repository"
	"sokoni/internal/service"

	"github.com/gin-gonic/gin"
)

// DepositWebhookHandler receives the gateway's deposit callbacks. The payload
// only routes (account number + reference); the amount is re-verified against
// the gateway before anything is credited, so a forged or stale callback
// cannot move funds.
type DepositWebhookHandler struct {
	walletSvc  *service.WalletService
	walletRepo *repository.WalletRepository
	cfg        *config.GatewayConfig
}

func NewDepositWebhookHandler(walletSvc *service.WalletService, walletRepo *repository.WalletRepository, cfg *config.GatewayConfig) *DepositWebhookHandler {
	return &DepositWebhookHandler{walletSvc: walletSvc, walletRepo: walletRepo, cfg: cfg}
}

type depositCallback struct {
	Reference     string `json:"reference"`
	AccountNumber string `json:"account_number"`
	Status        string `json:"status"`
}

func (h *DepositWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.WebhookSecret != "" {
		sig := c.GetHeader("X-Webhook-Signature")
		if !h.verifySignature(body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload depositCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Reference == "" || payload.AccountNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference and account_number required"})
		return
	}
	w, err := h.walletRepo.GetByAccountNumber(payload.AccountNumber)
	if err != nil {
		// Unknown account: acknowledge so the gateway stops retrying.
		log.Printf("[DepositWebhook] no wallet for account %s (ref=%s)", payload.AccountNumber, payload.Reference)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if _, err := h.walletSvc.VerifyExternalDeposit(c.Request.Context(), w.OwnerID, payload.Reference); err != nil {
		log.Printf("[DepositWebhook] verify ref=%s failed: %v", payload.Reference, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *DepositWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
