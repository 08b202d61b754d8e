package models

import (
	"time"

	"gorm.io/gorm"
)

// PayoutMethod is a bank destination for withdrawals. At most one method per
// wallet carries IsDefault; setting a new default clears the others first.
type PayoutMethod struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	WalletID      uint           `gorm:"not null;index" json:"wallet_id"`
	BankLabel     string         `gorm:"size:64;not null" json:"bank_label"`
	AccountNumber string         `gorm:"size:34;not null" json:"account_number"`
	AccountName   string         `gorm:"size:100;not null" json:"account_name"`
	IsDefault     bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PayoutMethod) TableName() string {
	return "payout_methods"
}
