package service

import (
	"encoding/json"
	"fmt"
	"log"

	"sokoni/internal/domain"
	"sokoni/internal/models"
	"sokoni/internal/repository"

	"github.com/shopspring/decimal"
)

// NotificationService records notification-worthy facts for the external
// notifier to deliver. Recording failures are logged, never propagated: a
// missed notification must not fail a committed fund movement.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
	if err != nil {
		log.Printf("[Notify] %s for user %d failed: %v", notifType, userID, err)
	}
}

func (s *NotificationService) DepositConfirmed(userID uint, amount decimal.Decimal, reference string) {
	s.notify(userID, domain.NotifyDepositConfirmed, "Deposit received",
		fmt.Sprintf("Your wallet was credited %s", amount),
		map[string]interface{}{"amount": amount, "reference": reference})
}

func (s *NotificationService) WithdrawalInitiated(userID uint, amount decimal.Decimal) {
	s.notify(userID, domain.NotifyWithdrawalInitiated, "Withdrawal initiated",
		fmt.Sprintf("%s is on its way to your bank", amount),
		map[string]interface{}{"amount": amount})
}

func (s *NotificationService) EscrowHeld(buyerID, orderID uint, amount decimal.Decimal) {
	s.notify(buyerID, domain.NotifyEscrowHeld, "Payment held",
		fmt.Sprintf("%s is held in escrow for order %d until delivery", amount, orderID),
		map[string]interface{}{"order_id": orderID, "amount": amount})
}

func (s *NotificationService) EscrowReleased(sellerID, orderID uint, amount decimal.Decimal) {
	s.notify(sellerID, domain.NotifyEscrowReleased, "Funds released",
		fmt.Sprintf("%s from order %d is now available", amount, orderID),
		map[string]interface{}{"order_id": orderID, "amount": amount})
}

func (s *NotificationService) EscrowRefunded(buyerID, orderID uint, amount decimal.Decimal) {
	s.notify(buyerID, domain.NotifyEscrowRefunded, "Order refunded",
		fmt.Sprintf("%s for order %d was returned to your wallet", amount, orderID),
		map[string]interface{}{"order_id": orderID, "amount": amount})
}
